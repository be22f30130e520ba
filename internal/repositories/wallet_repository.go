package repositories

import (
	"context"
	"database/sql"
	"errors"

	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/domain/models"
)

// WalletRepository reads and appends wallet_transactions. Balances are never
// stored; wallet_accounts only provides a row to lock per user.
type WalletRepository struct{}

// ErrDuplicateReference is returned when a transaction reference was already used.
var ErrDuplicateReference = errors.New("wallet reference already used")

const walletTxnColumns = `id, user_id, direction, amount, type, status, reference, expires_at, created_at`

func scanWalletTxn(sc interface{ Scan(...any) error }) (models.WalletTransaction, error) {
	var (
		t         models.WalletTransaction
		direction string
		status    string
		ref       sql.NullString
		expires   sql.NullTime
	)
	if err := sc.Scan(&t.ID, &t.UserID, &direction, &t.Amount, &t.Type, &status, &ref, &expires, &t.CreatedAt); err != nil {
		return models.WalletTransaction{}, err
	}
	t.Direction = models.Direction(direction)
	t.Status = models.TxnStatus(status)
	t.Reference = ref.String
	if expires.Valid {
		e := expires.Time
		t.ExpiresAt = &e
	}
	return t, nil
}

// LockAccount creates the user's account row if needed and locks it. Every
// debit and credit for the user runs behind this lock.
func (r WalletRepository) LockAccount(ctx context.Context, q intdb.Querier, userID int64) error {
	if _, err := q.ExecContext(ctx, `INSERT IGNORE INTO wallet_accounts (user_id) VALUES (?)`, userID); err != nil {
		return err
	}
	var id int64
	return q.QueryRowContext(ctx, `SELECT user_id FROM wallet_accounts WHERE user_id=? FOR UPDATE`, userID).Scan(&id)
}

// Balance is posted credits minus posted debits.
func (r WalletRepository) Balance(ctx context.Context, q intdb.Querier, userID int64) (int64, error) {
	var bal int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction='credit' THEN amount ELSE -amount END), 0)
		FROM wallet_transactions
		WHERE user_id=? AND status='posted'`, userID).Scan(&bal)
	return bal, err
}

// Insert appends a posted transaction. A reused reference yields ErrDuplicateReference.
func (r WalletRepository) Insert(ctx context.Context, q intdb.Querier, t models.WalletTransaction) (int64, error) {
	var expires any
	if t.ExpiresAt != nil {
		expires = t.ExpiresAt.UTC()
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO wallet_transactions (user_id, direction, amount, type, status, reference, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.Direction), t.Amount, t.Type, string(models.TxnPosted), intdb.NullIfEmpty(t.Reference), expires, t.CreatedAt,
	)
	if err != nil {
		if intdb.IsDuplicate(err) {
			return 0, ErrDuplicateReference
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r WalletRepository) FindByReference(ctx context.Context, q intdb.Querier, ref string) (models.WalletTransaction, bool, error) {
	t, err := scanWalletTxn(q.QueryRowContext(ctx, `
		SELECT `+walletTxnColumns+` FROM wallet_transactions WHERE reference=? LIMIT 1`, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return models.WalletTransaction{}, false, nil
	}
	if err != nil {
		return models.WalletTransaction{}, false, err
	}
	return t, true, nil
}

// Void marks a posted transaction void so it stops counting toward the balance.
func (r WalletRepository) Void(ctx context.Context, q intdb.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE wallet_transactions SET status='void' WHERE id=? AND status='posted'`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return domain.ConflictError{Code: domain.CodeInvalidTransition, Resource: "wallet transaction", Msg: "transaction is not posted"}
	}
	return nil
}

// Page returns up to limit transactions with id < beforeID (0 = newest), newest first.
func (r WalletRepository) Page(ctx context.Context, q intdb.Querier, userID, beforeID int64, limit int) ([]models.WalletTransaction, error) {
	query := `SELECT ` + walletTxnColumns + ` FROM wallet_transactions WHERE user_id=?`
	args := []any{userID}
	if beforeID > 0 {
		query += ` AND id < ?`
		args = append(args, beforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.WalletTransaction{}
	for rows.Next() {
		t, err := scanWalletTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
