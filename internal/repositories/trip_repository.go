package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/domain/models"
)

type TripRepository struct{}

const tripColumns = `id, title, base_price, early_bird_price, early_bird_deadline, seat_capacity, content_version, created_at, updated_at`

// Get loads the trip with its add-ons and discount budgets.
func (r TripRepository) Get(ctx context.Context, q intdb.Querier, id int64) (models.Trip, error) {
	if id <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "tripId", Msg: "invalid"}
	}
	var (
		t        models.Trip
		deadline sql.NullTime
	)
	err := q.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=? LIMIT 1`, id).Scan(
		&t.ID, &t.Title, &t.BasePrice, &t.EarlyBirdPrice, &deadline, &t.SeatCapacity, &t.ContentVersion, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return models.Trip{}, err
	}
	if deadline.Valid {
		d := deadline.Time
		t.EarlyBirdDeadline = &d
	}
	if err := r.loadAddons(ctx, q, &t); err != nil {
		return models.Trip{}, err
	}
	budgets, err := DiscountRepository{}.ListBudgets(ctx, q, id)
	if err != nil {
		return models.Trip{}, err
	}
	t.Discounts = budgets
	return t, nil
}

func (r TripRepository) loadAddons(ctx context.Context, q intdb.Querier, t *models.Trip) error {
	rows, err := q.QueryContext(ctx, `
		SELECT category, option_key, price
		FROM trip_addons
		WHERE trip_id=?
		ORDER BY id ASC`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	t.Locations = []models.PriceOption{}
	t.Tiers = []models.PriceOption{}
	t.RoomSharing = []models.PriceOption{}
	t.SleepPreferences = []models.PriceOption{}
	for rows.Next() {
		var (
			cat string
			opt models.PriceOption
		)
		if err := rows.Scan(&cat, &opt.Key, &opt.Price); err != nil {
			return err
		}
		switch models.AddonCategory(cat) {
		case models.AddonLocation:
			t.Locations = append(t.Locations, opt)
		case models.AddonTier:
			t.Tiers = append(t.Tiers, opt)
		case models.AddonSharing:
			t.RoomSharing = append(t.RoomSharing, opt)
		case models.AddonSleep:
			t.SleepPreferences = append(t.SleepPreferences, opt)
		}
	}
	return rows.Err()
}

// Insert creates the trip row at content version 1 and returns its id.
func (r TripRepository) Insert(ctx context.Context, q intdb.Querier, t models.Trip) (int64, error) {
	var deadline any
	if t.EarlyBirdDeadline != nil {
		deadline = t.EarlyBirdDeadline.UTC()
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO trips (title, base_price, early_bird_price, early_bird_deadline, seat_capacity, content_version)
		VALUES (?, ?, ?, ?, ?, 1)`,
		t.Title, domain.ClampMoney(t.BasePrice), domain.ClampMoney(t.EarlyBirdPrice), deadline, t.SeatCapacity,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ReplaceAddons swaps the option list of one category.
func (r TripRepository) ReplaceAddons(ctx context.Context, q intdb.Querier, tripID int64, cat models.AddonCategory, opts []models.PriceOption) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM trip_addons WHERE trip_id=? AND category=?`, tripID, string(cat)); err != nil {
		return err
	}
	for _, o := range opts {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO trip_addons (trip_id, category, option_key, price)
			VALUES (?, ?, ?, ?)`, tripID, string(cat), o.Key, domain.ClampMoney(o.Price)); err != nil {
			return fmt.Errorf("insert %s option %q: %w", cat, o.Key, err)
		}
	}
	return nil
}

// UpdateGuarded writes t's scalar fields only if the stored content version
// still equals expectedVersion, and bumps it. Returns false on mismatch.
func (r TripRepository) UpdateGuarded(ctx context.Context, q intdb.Querier, t models.Trip, expectedVersion int64) (bool, error) {
	var deadline any
	if t.EarlyBirdDeadline != nil {
		deadline = t.EarlyBirdDeadline.UTC()
	}
	res, err := q.ExecContext(ctx, `
		UPDATE trips
		SET title=?, base_price=?, early_bird_price=?, early_bird_deadline=?, seat_capacity=?,
		    content_version=content_version+1, updated_at=?
		WHERE id=? AND content_version=?`,
		t.Title, domain.ClampMoney(t.BasePrice), domain.ClampMoney(t.EarlyBirdPrice), deadline, t.SeatCapacity,
		time.Now().UTC(), t.ID, expectedVersion,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// BumpVersion advances the content version if it still equals expectedVersion.
func (r TripRepository) BumpVersion(ctx context.Context, q intdb.Querier, tripID, expectedVersion int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE trips SET content_version=content_version+1, updated_at=?
		WHERE id=? AND content_version=?`, time.Now().UTC(), tripID, expectedVersion)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Exists reports whether the trip row is present.
func (r TripRepository) Exists(ctx context.Context, q intdb.Querier, tripID int64) (bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM trips WHERE id=? LIMIT 1`, tripID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
