package models

import "time"

type DiscountKind string

const (
	DiscountSoloFemale DiscountKind = "soloFemale"
	DiscountGroup      DiscountKind = "group"
	DiscountMusafir    DiscountKind = "musafir"
)

// AllDiscountKinds lists every kind in a stable order.
var AllDiscountKinds = []DiscountKind{DiscountSoloFemale, DiscountGroup, DiscountMusafir}

func (k DiscountKind) Valid() bool {
	switch k {
	case DiscountSoloFemale, DiscountGroup, DiscountMusafir:
		return true
	}
	return false
}

// DiscountBudget is the capped pool for one (trip, kind).
// Invariant: UsedCount <= TotalCount and UsedValue <= TotalValue().
type DiscountBudget struct {
	TripID        int64        `json:"tripId"`
	Kind          DiscountKind `json:"kind"`
	Enabled       bool         `json:"enabled"`
	AmountPerUnit int64        `json:"amountPerUnit"`
	TotalCount    int64        `json:"totalCount"`
	UsedCount     int64        `json:"usedCount"`
	UsedValue     int64        `json:"usedValue"`
}

func (d DiscountBudget) TotalValue() int64 { return d.AmountPerUnit * d.TotalCount }

func (d DiscountBudget) RemainingCount() int64 {
	if r := d.TotalCount - d.UsedCount; r > 0 {
		return r
	}
	return 0
}

func (d DiscountBudget) RemainingValue() int64 {
	if r := d.TotalValue() - d.UsedValue; r > 0 {
		return r
	}
	return 0
}

// CanCover reports whether count more units fit under both caps.
func (d DiscountBudget) CanCover(count int64) bool {
	if count <= 0 {
		return false
	}
	return d.UsedCount+count <= d.TotalCount && d.UsedValue+count*d.AmountPerUnit <= d.TotalValue()
}

type ReservationStatus string

const (
	ReservationHeld     ReservationStatus = "held"
	ReservationReleased ReservationStatus = "released"
)

// Reservation is one atomic decrement of a budget, bound to one registration.
type Reservation struct {
	ID             int64             `json:"id"`
	TripID         int64             `json:"tripId"`
	RegistrationID int64             `json:"registrationId"`
	Kind           DiscountKind      `json:"kind"`
	Count          int64             `json:"count"`
	Amount         int64             `json:"amount"`
	Status         ReservationStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	ReleasedAt     *time.Time        `json:"releasedAt,omitempty"`
}

// Eligibility is the per-kind answer of the eligibility check.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Amount   int64  `json:"amount"`
	Reason   string `json:"reason"`
}

// Eligibility reasons.
const (
	ReasonEligible        = "eligible"
	ReasonDisabled        = "disabled"
	ReasonNotEligible     = "not_eligible"
	ReasonBudgetExhausted = "budget_exhausted"
	ReasonAwaitingMembers = "awaiting_members"
	ReasonLocked          = "locked"
)

// EligibilityReport is the eligibility of every kind for a registration.
type EligibilityReport struct {
	SoloFemale Eligibility `json:"soloFemale"`
	Group      Eligibility `json:"group"`
	Musafir    Eligibility `json:"musafir"`
}

func (r EligibilityReport) For(kind DiscountKind) Eligibility {
	switch kind {
	case DiscountSoloFemale:
		return r.SoloFemale
	case DiscountGroup:
		return r.Group
	case DiscountMusafir:
		return r.Musafir
	}
	return Eligibility{Reason: ReasonNotEligible}
}

// GroupDiscountFeedback is reported back at registration time.
type GroupDiscountFeedback struct {
	Status    string `json:"status"`
	PerMember int64  `json:"perMember"`
	GroupSize int    `json:"groupSize"`
}
