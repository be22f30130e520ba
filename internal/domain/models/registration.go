package models

import "time"

type RegistrationStatus string

const (
	RegistrationNew        RegistrationStatus = "new"
	RegistrationOnboarding RegistrationStatus = "onboarding"
	RegistrationPayment    RegistrationStatus = "payment"
	RegistrationConfirmed  RegistrationStatus = "confirmed"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
)

// Profile is the externally supplied data the discount policies look at.
type Profile struct {
	Gender               string `json:"gender"`
	CommunityTenureMonth int    `json:"communityTenureMonths"`
}

// Registration ties a user to a trip. AmountDue is derived, never stored.
type Registration struct {
	ID              int64              `json:"id"`
	TripID          int64              `json:"tripId"`
	UserID          int64              `json:"userId"`
	Email           string             `json:"email"`
	TripType        TripType           `json:"tripType"`
	Members         []string           `json:"members"`
	Selections      Selections         `json:"selections"`
	Profile         Profile            `json:"profile"`
	Price           int64              `json:"price"`
	DiscountType    *DiscountKind      `json:"discountType"`
	DiscountApplied int64              `json:"discountApplied"`
	SettledTotal    int64              `json:"settledTotal"`
	AmountDue       int64              `json:"amountDue"`
	Status          RegistrationStatus `json:"status"`
	CancelledAt     *time.Time         `json:"cancelledAt,omitempty"`
	RefundStatus    *string            `json:"refundStatus,omitempty"`
	Version         int64              `json:"version"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// DiscountLocked is true once a payment has set the discount.
func (r Registration) DiscountLocked() bool {
	return r.DiscountType != nil && r.DiscountApplied > 0
}

func (r Registration) Cancelled() bool { return r.CancelledAt != nil }

// ComputeAmountDue applies price - settled - discount, floored at zero.
func ComputeAmountDue(price, settled, discount int64) int64 {
	due := price - settled - discount
	if due < 0 {
		return 0
	}
	return due
}

// GroupLink associates a registration with one member email.
type GroupLink struct {
	ID             int64     `json:"id"`
	TripID         int64     `json:"tripId"`
	RegistrationID int64     `json:"registrationId"`
	Email          string    `json:"email"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
}

// LinkConflict reports an email already linked to another registration.
type LinkConflict struct {
	Email                  string `json:"email"`
	ConflictRegistrationID int64  `json:"conflictRegistrationId"`
}
