package models

import "time"

type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundCleared  RefundStatus = "cleared"
	RefundRejected RefundStatus = "rejected"
)

type SettlementStatus string

const (
	SettlementNone   SettlementStatus = "none"
	SettlementPosted SettlementStatus = "posted"
)

// RefundState is the state machine view of (Status, SettlementStatus).
type RefundState string

const (
	StatePending           RefundState = "pending"
	StateClearedUncredited RefundState = "cleared-uncredited"
	StateClearedCredited   RefundState = "cleared-credited"
	StateRejected          RefundState = "rejected"
)

func (s RefundState) Terminal() bool {
	return s == StateClearedCredited || s == StateRejected
}

type Refund struct {
	ID               int64            `json:"id"`
	RegistrationID   int64            `json:"registrationId"`
	UserID           int64            `json:"userId"`
	Status           RefundStatus     `json:"status"`
	RefundAmount     int64            `json:"refundAmount"`
	SettlementStatus SettlementStatus `json:"settlementStatus"`
	SettlementTxnID  *int64           `json:"settlementTxnId,omitempty"`
	Version          int64            `json:"version"`
	ReviewedBy       *int64           `json:"reviewedBy,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// State derives the state machine state from the stored fields.
func (r Refund) State() RefundState {
	switch r.Status {
	case RefundCleared:
		if r.SettlementStatus == SettlementPosted {
			return StateClearedCredited
		}
		return StateClearedUncredited
	case RefundRejected:
		return StateRejected
	default:
		return StatePending
	}
}

// SettlementKey is the unique wallet reference of the refund credit.
func (r Refund) SettlementKey() string {
	return RefundSettlementKey(r.ID)
}
