package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/domain/models"
)

type RegistrationRepository struct{}

const registrationColumns = `id, trip_id, user_id, email, trip_type, gender, tenure_months,
	city, tier, room_sharing, sleep_preference, price, discount_type, discount_applied,
	status, cancelled_at, refund_status, version, created_at, updated_at`

func scanRegistration(sc interface{ Scan(...any) error }) (models.Registration, error) {
	var (
		reg          models.Registration
		tripType     string
		status       string
		discountType sql.NullString
		cancelledAt  sql.NullTime
		refundStatus sql.NullString
	)
	err := sc.Scan(
		&reg.ID, &reg.TripID, &reg.UserID, &reg.Email, &tripType, &reg.Profile.Gender, &reg.Profile.CommunityTenureMonth,
		&reg.Selections.City, &reg.Selections.Tier, &reg.Selections.RoomSharing, &reg.Selections.SleepPreference,
		&reg.Price, &discountType, &reg.DiscountApplied,
		&status, &cancelledAt, &refundStatus, &reg.Version, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return models.Registration{}, err
	}
	reg.TripType = models.TripType(tripType)
	reg.Selections.TripType = reg.TripType
	reg.Status = models.RegistrationStatus(status)
	if discountType.Valid && discountType.String != "" {
		k := models.DiscountKind(discountType.String)
		reg.DiscountType = &k
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		reg.CancelledAt = &t
	}
	if refundStatus.Valid && refundStatus.String != "" {
		s := refundStatus.String
		reg.RefundStatus = &s
	}
	reg.Members = []string{}
	return reg, nil
}

// Get loads a registration row. forUpdate takes the row lock that serializes
// every payment and discount change for this registration.
func (r RegistrationRepository) Get(ctx context.Context, q intdb.Querier, id int64, forUpdate bool) (models.Registration, error) {
	if id <= 0 {
		return models.Registration{}, domain.ValidationError{Field: "registrationId", Msg: "invalid"}
	}
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id=? LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	reg, err := scanRegistration(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Registration{}, domain.NotFoundError{Resource: "registration", Err: err}
	}
	return reg, err
}

// FindByTripUser returns the registration of user on trip, if any.
func (r RegistrationRepository) FindByTripUser(ctx context.Context, q intdb.Querier, tripID, userID int64) (models.Registration, bool, error) {
	reg, err := scanRegistration(q.QueryRowContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE trip_id=? AND user_id=? LIMIT 1`, tripID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Registration{}, false, nil
	}
	if err != nil {
		return models.Registration{}, false, err
	}
	return reg, true, nil
}

// CountSeated counts registrations holding a seat on the trip.
func (r RegistrationRepository) CountSeated(ctx context.Context, q intdb.Querier, tripID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registrations
		WHERE trip_id=? AND cancelled_at IS NULL AND status<>?`,
		tripID, string(models.RegistrationWaitlisted)).Scan(&n)
	return n, err
}

func (r RegistrationRepository) Insert(ctx context.Context, q intdb.Querier, reg models.Registration) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO registrations
			(trip_id, user_id, email, trip_type, gender, tenure_months, city, tier, room_sharing, sleep_preference,
			 price, discount_applied, status, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, 1)`,
		reg.TripID, reg.UserID, reg.Email, string(reg.TripType), reg.Profile.Gender, reg.Profile.CommunityTenureMonth,
		reg.Selections.City, reg.Selections.Tier, reg.Selections.RoomSharing, reg.Selections.SleepPreference,
		reg.Price, string(reg.Status),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateDetails rewrites selections, profile and price of a registration
// whose discount is not locked yet.
func (r RegistrationRepository) UpdateDetails(ctx context.Context, q intdb.Querier, reg models.Registration) error {
	_, err := q.ExecContext(ctx, `
		UPDATE registrations
		SET trip_type=?, gender=?, tenure_months=?, city=?, tier=?, room_sharing=?, sleep_preference=?,
		    price=?, version=version+1, updated_at=?
		WHERE id=? AND discount_applied=0`,
		string(reg.TripType), reg.Profile.Gender, reg.Profile.CommunityTenureMonth,
		reg.Selections.City, reg.Selections.Tier, reg.Selections.RoomSharing, reg.Selections.SleepPreference,
		reg.Price, time.Now().UTC(), reg.ID,
	)
	return err
}

// LockDiscount sets discount type and amount. It only succeeds while no
// discount has been applied.
func (r RegistrationRepository) LockDiscount(ctx context.Context, q intdb.Querier, id int64, kind models.DiscountKind, amount int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE registrations
		SET discount_type=?, discount_applied=?, version=version+1, updated_at=?
		WHERE id=? AND discount_applied=0`,
		string(kind), amount, time.Now().UTC(), id,
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

// ClearDiscount unlocks the discount after the payment that set it was rejected.
func (r RegistrationRepository) ClearDiscount(ctx context.Context, q intdb.Querier, id int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE registrations
		SET discount_type=NULL, discount_applied=0, version=version+1, updated_at=?
		WHERE id=?`, time.Now().UTC(), id)
	return err
}

func (r RegistrationRepository) SetStatus(ctx context.Context, q intdb.Querier, id int64, status models.RegistrationStatus) error {
	_, err := q.ExecContext(ctx, `
		UPDATE registrations SET status=?, version=version+1, updated_at=? WHERE id=?`,
		string(status), time.Now().UTC(), id)
	return err
}

// Cancel stamps cancelled_at once. Returns false if it was already cancelled.
func (r RegistrationRepository) Cancel(ctx context.Context, q intdb.Querier, id int64, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE registrations SET cancelled_at=?, version=version+1, updated_at=?
		WHERE id=? AND cancelled_at IS NULL`, at, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r RegistrationRepository) SetRefundStatus(ctx context.Context, q intdb.Querier, id int64, status string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE registrations SET refund_status=?, version=version+1, updated_at=? WHERE id=?`,
		status, time.Now().UTC(), id)
	return err
}
