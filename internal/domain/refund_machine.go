package domain

import (
	"fmt"

	"musafir/internal/domain/models"
)

type RefundAction string

const (
	ActionApproveAndCredit   RefundAction = "approve_and_credit"
	ActionApproveDeferCredit RefundAction = "approve_defer_credit"
	ActionPostCredit         RefundAction = "post_credit"
	ActionReject             RefundAction = "reject"
)

func (a RefundAction) Valid() bool {
	switch a {
	case ActionApproveAndCredit, ActionApproveDeferCredit, ActionPostCredit, ActionReject:
		return true
	}
	return false
}

// RefundTransition is the outcome of applying an action to a state.
// Noop marks a replayed post_credit on an already credited refund.
type RefundTransition struct {
	From   models.RefundState
	To     models.RefundState
	Credit bool
	Noop   bool
}

// NextRefundState applies action to from. Terminal states accept nothing except
// a post_credit replay on cleared-credited, which is a no-op.
func NextRefundState(from models.RefundState, action RefundAction) (RefundTransition, error) {
	t := RefundTransition{From: from, To: from}
	switch {
	case from == models.StatePending && action == ActionApproveDeferCredit:
		t.To = models.StateClearedUncredited
	case from == models.StatePending && action == ActionApproveAndCredit:
		t.To = models.StateClearedCredited
		t.Credit = true
	case from == models.StatePending && action == ActionReject:
		t.To = models.StateRejected
	case from == models.StateClearedUncredited && action == ActionPostCredit:
		t.To = models.StateClearedCredited
		t.Credit = true
	case from == models.StateClearedCredited && action == ActionPostCredit:
		t.Noop = true
	default:
		return t, ConflictError{
			Code:     CodeInvalidTransition,
			Resource: "refund",
			Msg:      fmt.Sprintf("cannot %s from %s", action, from),
		}
	}
	return t, nil
}

// RefundStateFields maps a state back to its stored (status, settlement) pair.
func RefundStateFields(s models.RefundState) (models.RefundStatus, models.SettlementStatus) {
	switch s {
	case models.StateClearedUncredited:
		return models.RefundCleared, models.SettlementNone
	case models.StateClearedCredited:
		return models.RefundCleared, models.SettlementPosted
	case models.StateRejected:
		return models.RefundRejected, models.SettlementNone
	default:
		return models.RefundPending, models.SettlementNone
	}
}
