package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"musafir/internal/domain"

	"github.com/go-sql-driver/mysql"
)

// Querier is satisfied by *sql.DB and *sql.Tx so repositories work in and out of transactions.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. fn's error rolls everything back; a
// storage failure is reported as domain.TransientError.
func WithTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	if conn == nil {
		return domain.TransientError{Op: "begin", Err: errors.New("database not configured")}
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return MapErr("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return MapErr("tx", err)
	}
	if err := tx.Commit(); err != nil {
		return MapErr("commit", err)
	}
	committed = true
	return nil
}

// MapErr leaves domain errors untouched and classifies raw storage errors.
func MapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsValidation(err) || domain.IsNotFound(err) || domain.IsConflict(err) || domain.IsTransient(err) || domain.IsInternal(err) {
		return err
	}
	if IsRetryable(err) {
		return domain.TransientError{Op: op, Err: err}
	}
	return domain.InternalError{Msg: op + " failed", Err: err}
}

// IsRetryable reports connection loss, deadlocks, lock wait timeouts and deadlines.
func IsRetryable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1205, 1213:
			return true
		}
	}
	return false
}

// IsDuplicate reports a unique key violation.
func IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// NullIfEmpty helps store optional strings as NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// HasTable checks information_schema for table in the current database.
func HasTable(ctx context.Context, q Querier, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}
