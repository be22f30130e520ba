package models

import (
	"strconv"
	"time"
)

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

type TxnStatus string

const (
	TxnPosted TxnStatus = "posted"
	TxnVoid   TxnStatus = "void"
)

// Wallet transaction origin tags.
const (
	TxnTypeTopup   = "topup"
	TxnTypePayment = "payment"
	TxnTypeRefund  = "refund"
)

// WalletTransaction is one append-only entry. Balance is the sum over posted entries.
type WalletTransaction struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Direction Direction  `json:"direction"`
	Amount    int64      `json:"amount"`
	Type      string     `json:"type"`
	Status    TxnStatus  `json:"status"`
	Reference string     `json:"reference,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Signed returns the contribution of t to the balance.
func (t WalletTransaction) Signed() int64 {
	if t.Status != TxnPosted {
		return 0
	}
	if t.Direction == DirectionDebit {
		return -t.Amount
	}
	return t.Amount
}

type WalletSummary struct {
	UserID  int64 `json:"userId"`
	Balance int64 `json:"balance"`
}

type TransactionPage struct {
	Items      []WalletTransaction `json:"items"`
	NextCursor string              `json:"nextCursor,omitempty"`
}

type TopupStatus string

const (
	TopupPending   TopupStatus = "pending"
	TopupProcessed TopupStatus = "processed"
	TopupRejected  TopupStatus = "rejected"
)

type TopupRequest struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"userId"`
	PackageAmount int64       `json:"packageAmount"`
	Status        TopupStatus `json:"status"`
	ProcessedAt   *time.Time  `json:"processedAt,omitempty"`
	ProcessedBy   *int64      `json:"processedBy,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// RefundSettlementKey is unique per refund; a second credit with it is rejected by storage.
func RefundSettlementKey(refundID int64) string {
	return "refund:" + strconv.FormatInt(refundID, 10)
}

func TopupSettlementKey(topupID int64) string {
	return "topup:" + strconv.FormatInt(topupID, 10)
}

// PaymentDebitKey is the reference of the wallet debit made for a payment submission.
func PaymentDebitKey(userID int64, walletUseID string) string {
	return "payment:" + strconv.FormatInt(userID, 10) + ":" + walletUseID
}
