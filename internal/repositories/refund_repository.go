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

type RefundRepository struct{}

const refundColumns = `id, registration_id, user_id, status, refund_amount, settlement_status, settlement_txn_id, version, reviewed_by, created_at, updated_at`

func scanRefund(sc interface{ Scan(...any) error }) (models.Refund, error) {
	var (
		rf         models.Refund
		status     string
		settlement string
		txnID      sql.NullInt64
		reviewedBy sql.NullInt64
	)
	if err := sc.Scan(&rf.ID, &rf.RegistrationID, &rf.UserID, &status, &rf.RefundAmount, &settlement, &txnID, &rf.Version, &reviewedBy, &rf.CreatedAt, &rf.UpdatedAt); err != nil {
		return models.Refund{}, err
	}
	rf.Status = models.RefundStatus(status)
	rf.SettlementStatus = models.SettlementStatus(settlement)
	if txnID.Valid {
		v := txnID.Int64
		rf.SettlementTxnID = &v
	}
	if reviewedBy.Valid {
		v := reviewedBy.Int64
		rf.ReviewedBy = &v
	}
	return rf, nil
}

func (r RefundRepository) Get(ctx context.Context, q intdb.Querier, id int64, forUpdate bool) (models.Refund, error) {
	if id <= 0 {
		return models.Refund{}, domain.ValidationError{Field: "refundId", Msg: "invalid"}
	}
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id=? LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rf, err := scanRefund(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Refund{}, domain.NotFoundError{Resource: "refund", Err: err}
	}
	return rf, err
}

func (r RefundRepository) FindByRegistration(ctx context.Context, q intdb.Querier, registrationID int64) (models.Refund, bool, error) {
	rf, err := scanRefund(q.QueryRowContext(ctx, `
		SELECT `+refundColumns+` FROM refunds WHERE registration_id=? LIMIT 1`, registrationID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Refund{}, false, nil
	}
	if err != nil {
		return models.Refund{}, false, err
	}
	return rf, true, nil
}

func (r RefundRepository) Insert(ctx context.Context, q intdb.Querier, rf models.Refund) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO refunds (registration_id, user_id, status, refund_amount, settlement_status, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		rf.RegistrationID, rf.UserID, string(models.RefundPending), rf.RefundAmount, string(models.SettlementNone), rf.CreatedAt, rf.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateState writes the new state if the stored version still matches.
func (r RefundRepository) UpdateState(ctx context.Context, q intdb.Querier, rf models.Refund, expectedVersion int64, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE refunds
		SET status=?, settlement_status=?, settlement_txn_id=?, reviewed_by=?, version=version+1, updated_at=?
		WHERE id=? AND version=?`,
		string(rf.Status), string(rf.SettlementStatus), rf.SettlementTxnID, rf.ReviewedBy, at, rf.ID, expectedVersion,
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
