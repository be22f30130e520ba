package models

import "time"

type PaymentStatus string

const (
	PaymentPendingApproval PaymentStatus = "pendingApproval"
	PaymentApproved        PaymentStatus = "approved"
	PaymentRejected        PaymentStatus = "rejected"
)

// Payment is one settlement attempt against a registration.
// Amount is the cash portion; WalletAmount was debited from the wallet.
type Payment struct {
	ID             int64         `json:"id"`
	RegistrationID int64         `json:"registrationId"`
	UserID         int64         `json:"userId"`
	Amount         int64         `json:"amount"`
	WalletAmount   int64         `json:"walletAmount"`
	Discount       int64         `json:"discount"`
	DiscountType   *DiscountKind `json:"discountType"`
	Status         PaymentStatus `json:"status"`
	ProofRef       string        `json:"proofRef,omitempty"`
	IdempotencyKey string        `json:"walletUseId,omitempty"`
	WalletTxnID    *int64        `json:"walletTxnId,omitempty"`
	ReservationID  *int64        `json:"reservationId,omitempty"`
	ReviewedBy     *int64        `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time    `json:"reviewedAt,omitempty"`
	RejectReason   string        `json:"rejectReason,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Total is the settled value of the payment (cash plus wallet).
func (p Payment) Total() int64 { return p.Amount + p.WalletAmount }

// PaymentSubmission is the input of a payment submit.
type PaymentSubmission struct {
	RegistrationID int64         `json:"registrationId"`
	UserID         int64         `json:"-"`
	CashAmount     int64         `json:"amount"`
	WalletAmount   int64         `json:"walletAmount"`
	WalletUseID    string        `json:"walletUseId"`
	DiscountKind   *DiscountKind `json:"discountType"`
	ProofRef       string        `json:"screenshot"`

	// ExpectedVersion is the registration version the caller read; 0 skips the check.
	ExpectedVersion int64 `json:"-"`
}

// PaymentResult is returned by submit, with soft feedback about the discount.
type PaymentResult struct {
	Payment          Payment `json:"payment"`
	Status           string  `json:"status"`
	PendingApproval  bool    `json:"pendingApproval"`
	DiscountApplied  int64   `json:"discountApplied"`
	DiscountFeedback string  `json:"discountFeedback,omitempty"`
	Replayed         bool    `json:"replayed,omitempty"`
}
