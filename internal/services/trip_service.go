package services

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/domain/models"
	"musafir/internal/repositories"
	"musafir/internal/utils"
)

// TripService is the read path and the admin edit path of trips. Every edit
// carries the content version it was read at.
type TripService struct {
	DB        *sql.DB
	Trips     repositories.TripRepository
	Discounts repositories.DiscountRepository
	Ledger    DiscountLedger
	RequestID string
}

// DiscountEdit is the admin input for one discount kind.
type DiscountEdit struct {
	Enabled       bool  `json:"enabled"`
	AmountPerUnit int64 `json:"amountPerUnit"`
	TotalCount    int64 `json:"totalCount"`
}

func (s TripService) Get(ctx context.Context, id int64) (models.Trip, error) {
	t, err := s.Trips.Get(ctx, s.DB, id)
	return t, intdb.MapErr("trip get", err)
}

func validateTrip(t models.Trip) error {
	if strings.TrimSpace(t.Title) == "" {
		return domain.ValidationError{Field: "title", Msg: "required"}
	}
	if t.BasePrice < 0 || t.EarlyBirdPrice < 0 {
		return domain.ValidationError{Field: "basePrice", Msg: "must not be negative"}
	}
	if t.SeatCapacity < 0 {
		return domain.ValidationError{Field: "seatCapacity", Msg: "must not be negative"}
	}
	for _, cat := range []models.AddonCategory{models.AddonLocation, models.AddonTier, models.AddonSharing, models.AddonSleep} {
		seen := map[string]struct{}{}
		for _, o := range t.Options(cat) {
			key := strings.ToLower(strings.TrimSpace(o.Key))
			if key == "" {
				return domain.ValidationError{Field: string(cat), Msg: "option key required"}
			}
			if o.Price < 0 {
				return domain.ValidationError{Field: string(cat), Msg: "option price must not be negative"}
			}
			if _, dup := seen[key]; dup {
				return domain.ValidationError{Field: string(cat), Msg: "duplicate option " + o.Key}
			}
			seen[key] = struct{}{}
		}
	}
	for _, d := range t.Discounts {
		if !d.Kind.Valid() {
			return domain.ValidationError{Field: "discounts", Msg: "unknown discount kind"}
		}
		if d.AmountPerUnit < 0 || d.TotalCount < 0 {
			return domain.ValidationError{Field: "discounts", Msg: "must not be negative"}
		}
	}
	return nil
}

// Create stores a trip at content version 1 with a budget row for every discount kind.
func (s TripService) Create(ctx context.Context, t models.Trip) (models.Trip, error) {
	if err := validateTrip(t); err != nil {
		return models.Trip{}, err
	}
	var id int64
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		id, err = s.Trips.Insert(ctx, tx, t)
		if err != nil {
			return err
		}
		if err := s.replaceAddons(ctx, tx, id, t); err != nil {
			return err
		}
		for _, kind := range models.AllDiscountKinds {
			b, ok := t.Discount(kind)
			if !ok {
				b = models.DiscountBudget{Kind: kind}
			}
			b.TripID = id
			if err := s.Discounts.InsertBudget(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Trip{}, err
	}
	utils.LogEvent(s.RequestID, "trip", "create", "trip_id="+strconv.FormatInt(id, 10))
	return s.Get(ctx, id)
}

func (s TripService) replaceAddons(ctx context.Context, tx intdb.Querier, id int64, t models.Trip) error {
	for _, cat := range []models.AddonCategory{models.AddonLocation, models.AddonTier, models.AddonSharing, models.AddonSleep} {
		if err := s.Trips.ReplaceAddons(ctx, tx, id, cat, t.Options(cat)); err != nil {
			return err
		}
	}
	return nil
}

// Update applies patch if the trip is still at expectedVersion.
func (s TripService) Update(ctx context.Context, id, expectedVersion int64, patch models.TripPatch) (models.Trip, error) {
	if expectedVersion <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "contentVersion", Msg: "required"}
	}
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		cur, err := s.Trips.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur.ContentVersion != expectedVersion {
			return versionMismatch("trip")
		}
		next := applyTripPatch(cur, patch)
		if err := validateTrip(next); err != nil {
			return err
		}
		ok, err := s.Trips.UpdateGuarded(ctx, tx, next, expectedVersion)
		if err != nil {
			return err
		}
		if !ok {
			return versionMismatch("trip")
		}
		patched := []struct {
			cat  models.AddonCategory
			opts *[]models.PriceOption
		}{
			{models.AddonLocation, patch.Locations},
			{models.AddonTier, patch.Tiers},
			{models.AddonSharing, patch.RoomSharing},
			{models.AddonSleep, patch.SleepPreferences},
		}
		for _, p := range patched {
			if p.opts == nil {
				continue
			}
			if err := s.Trips.ReplaceAddons(ctx, tx, id, p.cat, *p.opts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Trip{}, err
	}
	utils.LogEvent(s.RequestID, "trip", "update", "trip_id="+strconv.FormatInt(id, 10))
	return s.Get(ctx, id)
}

func applyTripPatch(t models.Trip, p models.TripPatch) models.Trip {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.BasePrice != nil {
		t.BasePrice = *p.BasePrice
	}
	if p.EarlyBirdPrice != nil {
		t.EarlyBirdPrice = *p.EarlyBirdPrice
	}
	if p.EarlyBirdDeadline != nil {
		d := *p.EarlyBirdDeadline
		t.EarlyBirdDeadline = &d
	}
	if p.SeatCapacity != nil {
		t.SeatCapacity = *p.SeatCapacity
	}
	if p.Locations != nil {
		t.Locations = *p.Locations
	}
	if p.Tiers != nil {
		t.Tiers = *p.Tiers
	}
	if p.RoomSharing != nil {
		t.RoomSharing = *p.RoomSharing
	}
	if p.SleepPreferences != nil {
		t.SleepPreferences = *p.SleepPreferences
	}
	return t
}

// UpdateDiscount edits one budget. Amount and count may only go down and must
// still cover what has been used.
func (s TripService) UpdateDiscount(ctx context.Context, tripID int64, kind models.DiscountKind, expectedVersion int64, edit DiscountEdit) (models.Trip, error) {
	if !kind.Valid() {
		return models.Trip{}, domain.ValidationError{Field: "kind", Msg: "unknown discount kind"}
	}
	if expectedVersion <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "contentVersion", Msg: "required"}
	}
	if edit.AmountPerUnit < 0 || edit.TotalCount < 0 {
		return models.Trip{}, domain.ValidationError{Field: "discount", Msg: "must not be negative"}
	}
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		ok, err := s.Trips.BumpVersion(ctx, tx, tripID, expectedVersion)
		if err != nil {
			return err
		}
		if !ok {
			exists, err := s.Trips.Exists(ctx, tx, tripID)
			if err != nil {
				return err
			}
			if !exists {
				return domain.NotFoundError{Resource: "trip"}
			}
			return versionMismatch("trip")
		}
		cur, err := s.Discounts.GetBudget(ctx, tx, tripID, kind, true)
		if err != nil {
			return err
		}
		if edit.AmountPerUnit > cur.AmountPerUnit || edit.TotalCount > cur.TotalCount {
			return domain.ValidationError{Field: "discount", Msg: "amountPerUnit and totalCount may only be lowered"}
		}
		next := cur
		next.Enabled = edit.Enabled
		next.AmountPerUnit = edit.AmountPerUnit
		next.TotalCount = edit.TotalCount
		if next.TotalCount < cur.UsedCount || next.TotalValue() < cur.UsedValue {
			return domain.ConflictError{Code: domain.CodeCapBelowUsed, Resource: "discount", Msg: "new cap is below what has been used"}
		}
		ok, err = s.Discounts.UpdateCaps(ctx, tx, next)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ConflictError{Code: domain.CodeCapBelowUsed, Resource: "discount", Msg: "new cap is below what has been used"}
		}
		return nil
	})
	if err != nil {
		return models.Trip{}, err
	}
	s.Ledger.Gate.Invalidate(ctx, tripID, kind)
	utils.LogEvent(s.RequestID, "trip", "update_discount", "trip_id="+strconv.FormatInt(tripID, 10)+" kind="+string(kind))
	return s.Get(ctx, tripID)
}
