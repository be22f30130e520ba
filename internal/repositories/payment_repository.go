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

type PaymentRepository struct{}

const paymentColumns = `id, registration_id, user_id, amount, wallet_amount, discount, discount_type, status,
	proof_ref, idempotency_key, wallet_txn_id, reservation_id, reviewed_by, reviewed_at, reject_reason, created_at`

func scanPayment(sc interface{ Scan(...any) error }) (models.Payment, error) {
	var (
		p            models.Payment
		discountType sql.NullString
		status       string
		proof        sql.NullString
		key          sql.NullString
		walletTxn    sql.NullInt64
		reservation  sql.NullInt64
		reviewedBy   sql.NullInt64
		reviewedAt   sql.NullTime
		reason       sql.NullString
	)
	err := sc.Scan(&p.ID, &p.RegistrationID, &p.UserID, &p.Amount, &p.WalletAmount, &p.Discount, &discountType, &status,
		&proof, &key, &walletTxn, &reservation, &reviewedBy, &reviewedAt, &reason, &p.CreatedAt)
	if err != nil {
		return models.Payment{}, err
	}
	p.Status = models.PaymentStatus(status)
	if discountType.Valid && discountType.String != "" {
		k := models.DiscountKind(discountType.String)
		p.DiscountType = &k
	}
	p.ProofRef = proof.String
	p.IdempotencyKey = key.String
	p.RejectReason = reason.String
	if walletTxn.Valid {
		v := walletTxn.Int64
		p.WalletTxnID = &v
	}
	if reservation.Valid {
		v := reservation.Int64
		p.ReservationID = &v
	}
	if reviewedBy.Valid {
		v := reviewedBy.Int64
		p.ReviewedBy = &v
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		p.ReviewedAt = &t
	}
	return p, nil
}

func (r PaymentRepository) Get(ctx context.Context, q intdb.Querier, id int64, forUpdate bool) (models.Payment, error) {
	if id <= 0 {
		return models.Payment{}, domain.ValidationError{Field: "paymentId", Msg: "invalid"}
	}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id=? LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	p, err := scanPayment(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
	}
	return p, err
}

// FindByIdempotencyKey returns the payment created with key, if any.
func (r PaymentRepository) FindByIdempotencyKey(ctx context.Context, q intdb.Querier, key string) (models.Payment, bool, error) {
	if key == "" {
		return models.Payment{}, false, nil
	}
	p, err := scanPayment(q.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE idempotency_key=? LIMIT 1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, false, nil
	}
	if err != nil {
		return models.Payment{}, false, err
	}
	return p, true, nil
}

// ListByRegistration returns payments newest first.
func (r PaymentRepository) ListByRegistration(ctx context.Context, q intdb.Querier, registrationID int64) ([]models.Payment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE registration_id=?
		ORDER BY id DESC`, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// HasPending reports whether the registration has a payment awaiting approval.
func (r PaymentRepository) HasPending(ctx context.Context, q intdb.Querier, registrationID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payments WHERE registration_id=? AND status=?`,
		registrationID, string(models.PaymentPendingApproval)).Scan(&n)
	return n > 0, err
}

// SettledTotal sums cash and wallet portions of every payment not rejected.
func (r PaymentRepository) SettledTotal(ctx context.Context, q intdb.Querier, registrationID int64) (int64, error) {
	var total int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount + wallet_amount), 0) FROM payments
		WHERE registration_id=? AND status<>?`,
		registrationID, string(models.PaymentRejected)).Scan(&total)
	return total, err
}

// ApprovedTotal sums approved payments only; it bounds a refund.
func (r PaymentRepository) ApprovedTotal(ctx context.Context, q intdb.Querier, registrationID int64) (int64, int, error) {
	var (
		total int64
		n     int
	)
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount + wallet_amount), 0), COUNT(*) FROM payments
		WHERE registration_id=? AND status=?`,
		registrationID, string(models.PaymentApproved)).Scan(&total, &n)
	return total, n, err
}

func (r PaymentRepository) Insert(ctx context.Context, q intdb.Querier, p models.Payment) (int64, error) {
	var discountType any
	if p.DiscountType != nil {
		discountType = string(*p.DiscountType)
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO payments
			(registration_id, user_id, amount, wallet_amount, discount, discount_type, status,
			 proof_ref, idempotency_key, wallet_txn_id, reservation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RegistrationID, p.UserID, p.Amount, p.WalletAmount, p.Discount, discountType, string(p.Status),
		intdb.NullIfEmpty(p.ProofRef), intdb.NullIfEmpty(p.IdempotencyKey), p.WalletTxnID, p.ReservationID, p.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Review moves a pending payment to approved or rejected. Returns false if it
// was no longer pending.
func (r PaymentRepository) Review(ctx context.Context, q intdb.Querier, id int64, status models.PaymentStatus, adminID int64, reason string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE payments
		SET status=?, reviewed_by=?, reviewed_at=?, reject_reason=?
		WHERE id=? AND status=?`,
		string(status), adminID, at, intdb.NullIfEmpty(reason), id, string(models.PaymentPendingApproval),
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
