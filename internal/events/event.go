package events

import "time"

// Envelope wraps every published payload.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

type RegistrationEvent struct {
	RegistrationID int64  `json:"registrationId"`
	TripID         int64  `json:"tripId"`
	UserID         int64  `json:"userId"`
	Status         string `json:"status"`
	Price          int64  `json:"price"`
}

type PaymentEvent struct {
	PaymentID      int64  `json:"paymentId"`
	RegistrationID int64  `json:"registrationId"`
	UserID         int64  `json:"userId"`
	Amount         int64  `json:"amount"`
	WalletAmount   int64  `json:"walletAmount"`
	Discount       int64  `json:"discount"`
	Status         string `json:"status"`
}

type WalletEvent struct {
	UserID    int64  `json:"userId"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

type RefundEvent struct {
	RefundID       int64  `json:"refundId"`
	RegistrationID int64  `json:"registrationId"`
	UserID         int64  `json:"userId"`
	State          string `json:"state"`
	Amount         int64  `json:"amount"`
}
