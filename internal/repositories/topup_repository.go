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

type TopupRepository struct{}

const topupColumns = `id, user_id, package_amount, status, processed_at, processed_by, created_at`

func scanTopup(sc interface{ Scan(...any) error }) (models.TopupRequest, error) {
	var (
		t      models.TopupRequest
		status string
		at     sql.NullTime
		by     sql.NullInt64
	)
	if err := sc.Scan(&t.ID, &t.UserID, &t.PackageAmount, &status, &at, &by, &t.CreatedAt); err != nil {
		return models.TopupRequest{}, err
	}
	t.Status = models.TopupStatus(status)
	if at.Valid {
		v := at.Time
		t.ProcessedAt = &v
	}
	if by.Valid {
		v := by.Int64
		t.ProcessedBy = &v
	}
	return t, nil
}

func (r TopupRepository) Insert(ctx context.Context, q intdb.Querier, t models.TopupRequest) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO topup_requests (user_id, package_amount, status, created_at)
		VALUES (?, ?, ?, ?)`, t.UserID, t.PackageAmount, string(models.TopupPending), t.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r TopupRepository) Get(ctx context.Context, q intdb.Querier, id int64, forUpdate bool) (models.TopupRequest, error) {
	if id <= 0 {
		return models.TopupRequest{}, domain.ValidationError{Field: "topupId", Msg: "invalid"}
	}
	query := `SELECT ` + topupColumns + ` FROM topup_requests WHERE id=? LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t, err := scanTopup(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.TopupRequest{}, domain.NotFoundError{Resource: "topup", Err: err}
	}
	return t, err
}

// Process moves a pending top-up to status. Returns false if it was not pending.
func (r TopupRepository) Process(ctx context.Context, q intdb.Querier, id int64, status models.TopupStatus, adminID int64, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE topup_requests SET status=?, processed_at=?, processed_by=?
		WHERE id=? AND status=?`, string(status), at, adminID, id, string(models.TopupPending))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// List pages top-up requests, optionally filtered by status, oldest first.
func (r TopupRepository) List(ctx context.Context, q intdb.Querier, status string, page domain.Pagination) ([]models.TopupRequest, int, error) {
	page = page.Normalize()
	where := ``
	args := []any{}
	if status != "" {
		where = ` WHERE status=?`
		args = append(args, status)
	}
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM topup_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.QueryContext(ctx, `SELECT `+topupColumns+` FROM topup_requests`+where+` ORDER BY id ASC LIMIT ? OFFSET ?`,
		append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []models.TopupRequest{}
	for rows.Next() {
		t, err := scanTopup(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}
