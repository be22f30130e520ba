package domain

import (
	"strings"
	"time"

	"musafir/internal/domain/models"
)

// QuoteDetail breaks a quote into its parts. Total is the sum of the others.
type QuoteDetail struct {
	Base      int64 `json:"base"`
	EarlyBird bool  `json:"earlyBird"`
	Location  int64 `json:"location"`
	Tier      int64 `json:"tier"`
	Sharing   int64 `json:"sharing"`
	Sleep     int64 `json:"sleep"`
	Total     int64 `json:"total"`
}

// ComputeQuote prices a set of selections against a trip at instant now.
// Pure: the only clock input is now, compared against the early-bird deadline.
func ComputeQuote(trip models.Trip, sel models.Selections, now time.Time) QuoteDetail {
	var d QuoteDetail

	base := ClampMoney(trip.BasePrice)
	early := ClampMoney(trip.EarlyBirdPrice)
	if trip.EarlyBirdDeadline != nil && early > 0 && !now.After(*trip.EarlyBirdDeadline) {
		base = early
		d.EarlyBird = true
	}
	d.Base = base

	d.Location = optionPrice(trip.Locations, sel.City)
	d.Tier = optionPrice(trip.Tiers, sel.Tier)
	if sel.TripType == models.TripTypePartner && strings.EqualFold(strings.TrimSpace(sel.RoomSharing), models.SharingTwin) {
		d.Sharing = 0
	} else {
		d.Sharing = optionPrice(trip.RoomSharing, sel.RoomSharing)
	}
	d.Sleep = optionPrice(trip.SleepPreferences, sel.SleepPreference)

	d.Total = d.Base + d.Location + d.Tier + d.Sharing + d.Sleep
	return d
}

// Quote returns only the total of ComputeQuote.
func Quote(trip models.Trip, sel models.Selections, now time.Time) int64 {
	return ComputeQuote(trip, sel, now).Total
}

func optionPrice(opts []models.PriceOption, key string) int64 {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0
	}
	for _, o := range opts {
		if strings.EqualFold(o.Key, key) {
			return ClampMoney(o.Price)
		}
	}
	return 0
}

// ValidateSelections rejects option keys the trip does not offer. Empty keys are allowed.
func ValidateSelections(trip models.Trip, sel models.Selections) error {
	if !sel.TripType.Valid() {
		return ValidationError{Field: "tripType", Msg: "must be solo, group or partner"}
	}
	checks := []struct {
		field string
		cat   models.AddonCategory
		key   string
	}{
		{"city", models.AddonLocation, sel.City},
		{"tier", models.AddonTier, sel.Tier},
		{"roomSharing", models.AddonSharing, sel.RoomSharing},
		{"sleepPreference", models.AddonSleep, sel.SleepPreference},
	}
	for _, c := range checks {
		key := strings.TrimSpace(c.key)
		if key == "" {
			continue
		}
		if c.cat == models.AddonSharing && sel.TripType == models.TripTypePartner && strings.EqualFold(key, models.SharingTwin) {
			continue
		}
		if !hasOption(trip.Options(c.cat), key) {
			return ValidationError{Field: c.field, Msg: "unknown option " + key}
		}
	}
	return nil
}

func hasOption(opts []models.PriceOption, key string) bool {
	for _, o := range opts {
		if strings.EqualFold(o.Key, key) {
			return true
		}
	}
	return false
}
