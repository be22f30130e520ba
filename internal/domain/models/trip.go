package models

import "time"

type TripType string

const (
	TripTypeSolo    TripType = "solo"
	TripTypeGroup   TripType = "group"
	TripTypePartner TripType = "partner"
)

func (t TripType) Valid() bool {
	switch t {
	case TripTypeSolo, TripTypeGroup, TripTypePartner:
		return true
	}
	return false
}

// RequiresLinking is true for trip types that carry member emails.
func (t TripType) RequiresLinking() bool {
	return t == TripTypeGroup || t == TripTypePartner
}

// AddonCategory groups the priced options of a trip.
type AddonCategory string

const (
	AddonLocation AddonCategory = "location"
	AddonTier     AddonCategory = "tier"
	AddonSharing  AddonCategory = "sharing"
	AddonSleep    AddonCategory = "sleep"
)

// SharingTwin is bundled into the partner trip type.
const SharingTwin = "twin"

// PriceOption is one selectable option with its add-on price.
type PriceOption struct {
	Key   string `json:"key"`
	Price int64  `json:"price"`
}

// Trip is the flagship aggregate. ContentVersion guards every mutation.
type Trip struct {
	ID                int64            `json:"id"`
	Title             string           `json:"title"`
	BasePrice         int64            `json:"basePrice"`
	EarlyBirdPrice    int64            `json:"earlyBirdPrice"`
	EarlyBirdDeadline *time.Time       `json:"earlyBirdDeadline,omitempty"`
	Locations         []PriceOption    `json:"locations"`
	Tiers             []PriceOption    `json:"tiers"`
	RoomSharing       []PriceOption    `json:"roomSharing"`
	SleepPreferences  []PriceOption    `json:"sleepPreferences"`
	Discounts         []DiscountBudget `json:"discounts"`
	SeatCapacity      int              `json:"seatCapacity"`
	ContentVersion    int64            `json:"contentVersion"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// Options returns the option list for a category.
func (t Trip) Options(cat AddonCategory) []PriceOption {
	switch cat {
	case AddonLocation:
		return t.Locations
	case AddonTier:
		return t.Tiers
	case AddonSharing:
		return t.RoomSharing
	case AddonSleep:
		return t.SleepPreferences
	}
	return nil
}

// Discount returns the budget for kind, if configured.
func (t Trip) Discount(kind DiscountKind) (DiscountBudget, bool) {
	for _, d := range t.Discounts {
		if d.Kind == kind {
			return d, true
		}
	}
	return DiscountBudget{}, false
}

// Selections are the priced choices made at registration.
type Selections struct {
	TripType        TripType `json:"tripType"`
	City            string   `json:"city"`
	Tier            string   `json:"tier"`
	RoomSharing     string   `json:"roomSharing"`
	SleepPreference string   `json:"sleepPreference"`
}

// TripPatch carries the editable trip fields. Nil means unchanged.
type TripPatch struct {
	Title             *string        `json:"title"`
	BasePrice         *int64         `json:"basePrice"`
	EarlyBirdPrice    *int64         `json:"earlyBirdPrice"`
	EarlyBirdDeadline *time.Time     `json:"earlyBirdDeadline"`
	SeatCapacity      *int           `json:"seatCapacity"`
	Locations         *[]PriceOption `json:"locations"`
	Tiers             *[]PriceOption `json:"tiers"`
	RoomSharing       *[]PriceOption `json:"roomSharing"`
	SleepPreferences  *[]PriceOption `json:"sleepPreferences"`
}
