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

// DiscountRepository owns trip_discounts (the budget counters) and
// discount_reservations (one row per registration and kind).
type DiscountRepository struct{}

const budgetColumns = `trip_id, kind, enabled, amount_per_unit, total_count, used_count, used_value`

func scanBudget(sc interface{ Scan(...any) error }) (models.DiscountBudget, error) {
	var (
		b    models.DiscountBudget
		kind string
	)
	if err := sc.Scan(&b.TripID, &kind, &b.Enabled, &b.AmountPerUnit, &b.TotalCount, &b.UsedCount, &b.UsedValue); err != nil {
		return models.DiscountBudget{}, err
	}
	b.Kind = models.DiscountKind(kind)
	return b, nil
}

func (r DiscountRepository) ListBudgets(ctx context.Context, q intdb.Querier, tripID int64) ([]models.DiscountBudget, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+budgetColumns+` FROM trip_discounts WHERE trip_id=? ORDER BY kind ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DiscountBudget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBudget reads one budget row. forUpdate takes the row lock.
func (r DiscountRepository) GetBudget(ctx context.Context, q intdb.Querier, tripID int64, kind models.DiscountKind, forUpdate bool) (models.DiscountBudget, error) {
	query := `SELECT ` + budgetColumns + ` FROM trip_discounts WHERE trip_id=? AND kind=? LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	b, err := scanBudget(q.QueryRowContext(ctx, query, tripID, string(kind)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DiscountBudget{}, domain.NotFoundError{Resource: "discount", Err: err}
	}
	return b, err
}

// InsertBudget creates the budget row for (trip, kind) with zero usage.
func (r DiscountRepository) InsertBudget(ctx context.Context, q intdb.Querier, b models.DiscountBudget) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO trip_discounts (trip_id, kind, enabled, amount_per_unit, total_count, used_count, used_value)
		VALUES (?, ?, ?, ?, ?, 0, 0)`,
		b.TripID, string(b.Kind), b.Enabled, domain.ClampMoney(b.AmountPerUnit), domain.ClampMoney(b.TotalCount),
	)
	return err
}

// UpdateCaps rewrites enabled/amount/total only if the new caps still cover
// current usage. Returns false when they would not.
func (r DiscountRepository) UpdateCaps(ctx context.Context, q intdb.Querier, b models.DiscountBudget) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE trip_discounts
		SET enabled=?, amount_per_unit=?, total_count=?
		WHERE trip_id=? AND kind=?
		  AND used_count <= ?
		  AND used_value <= ? * ?`,
		b.Enabled, b.AmountPerUnit, b.TotalCount, b.TripID, string(b.Kind),
		b.TotalCount, b.AmountPerUnit, b.TotalCount,
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

// Consume adds count units and amount value to the used counters in a single
// conditional statement. It returns false and changes nothing when either
// post-increment value would pass its cap.
func (r DiscountRepository) Consume(ctx context.Context, q intdb.Querier, tripID int64, kind models.DiscountKind, count, amount int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE trip_discounts
		SET used_count = used_count + ?, used_value = used_value + ?
		WHERE trip_id=? AND kind=? AND enabled=1
		  AND used_count + ? <= total_count
		  AND used_value + ? <= amount_per_unit * total_count`,
		count, amount, tripID, string(kind), count, amount,
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

// Restore gives count units and amount value back to the budget.
func (r DiscountRepository) Restore(ctx context.Context, q intdb.Querier, tripID int64, kind models.DiscountKind, count, amount int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE trip_discounts
		SET used_count = used_count - ?, used_value = used_value - ?
		WHERE trip_id=? AND kind=? AND used_count >= ? AND used_value >= ?`,
		count, amount, tripID, string(kind), count, amount,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return domain.InternalError{Msg: "discount counters out of step with reservation"}
	}
	return nil
}

const reservationColumns = `id, trip_id, registration_id, kind, unit_count, amount, status, created_at, released_at`

func scanReservation(sc interface{ Scan(...any) error }) (models.Reservation, error) {
	var (
		res      models.Reservation
		kind     string
		status   string
		released sql.NullTime
	)
	if err := sc.Scan(&res.ID, &res.TripID, &res.RegistrationID, &kind, &res.Count, &res.Amount, &status, &res.CreatedAt, &released); err != nil {
		return models.Reservation{}, err
	}
	res.Kind = models.DiscountKind(kind)
	res.Status = models.ReservationStatus(status)
	if released.Valid {
		t := released.Time
		res.ReleasedAt = &t
	}
	return res, nil
}

// FindReservation returns the reservation row for (registration, kind), locked.
func (r DiscountRepository) FindReservation(ctx context.Context, q intdb.Querier, registrationID int64, kind models.DiscountKind) (models.Reservation, bool, error) {
	res, err := scanReservation(q.QueryRowContext(ctx, `
		SELECT `+reservationColumns+`
		FROM discount_reservations
		WHERE registration_id=? AND kind=?
		LIMIT 1 FOR UPDATE`, registrationID, string(kind)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reservation{}, false, nil
	}
	if err != nil {
		return models.Reservation{}, false, err
	}
	return res, true, nil
}

// GetReservation loads a reservation by id, locked.
func (r DiscountRepository) GetReservation(ctx context.Context, q intdb.Querier, id int64) (models.Reservation, error) {
	res, err := scanReservation(q.QueryRowContext(ctx, `
		SELECT `+reservationColumns+`
		FROM discount_reservations
		WHERE id=? LIMIT 1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reservation{}, domain.NotFoundError{Resource: "reservation", Err: err}
	}
	return res, err
}

// HeldReservations lists the held reservations of a registration, locked.
func (r DiscountRepository) HeldReservations(ctx context.Context, q intdb.Querier, registrationID int64) ([]models.Reservation, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM discount_reservations
		WHERE registration_id=? AND status=?
		FOR UPDATE`, registrationID, string(models.ReservationHeld))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r DiscountRepository) InsertReservation(ctx context.Context, q intdb.Querier, res models.Reservation) (int64, error) {
	out, err := q.ExecContext(ctx, `
		INSERT INTO discount_reservations (trip_id, registration_id, kind, unit_count, amount, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		res.TripID, res.RegistrationID, string(res.Kind), res.Count, res.Amount, string(models.ReservationHeld),
	)
	if err != nil {
		return 0, err
	}
	return out.LastInsertId()
}

// Rehold turns a released reservation back into a held one with new figures.
func (r DiscountRepository) Rehold(ctx context.Context, q intdb.Querier, id, count, amount int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE discount_reservations
		SET status=?, unit_count=?, amount=?, released_at=NULL
		WHERE id=? AND status=?`,
		string(models.ReservationHeld), count, amount, id, string(models.ReservationReleased),
	)
	return err
}

// MarkReleased flips a held reservation to released. Returns false if it was
// not held, so a second release is a no-op.
func (r DiscountRepository) MarkReleased(ctx context.Context, q intdb.Querier, id int64, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE discount_reservations
		SET status=?, released_at=?
		WHERE id=? AND status=?`,
		string(models.ReservationReleased), at, id, string(models.ReservationHeld),
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
