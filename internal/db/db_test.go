package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"musafir/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestEnsureSchemaCreatesOnlyMissingTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	for i, tbl := range schema {
		q := mock.ExpectQuery(`information_schema\.tables`).WithArgs(tbl.name)
		if i%2 == 0 {
			q.WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow(tbl.name))
			continue
		}
		q.WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS ` + tbl.name + ` `).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE x`).WillReturnError(&mysql.MySQLError{Number: 1205})
	mock.ExpectRollback()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), `UPDATE x SET y=1`)
		return err
	})
	if !domain.IsTransient(err) {
		t.Fatalf("lock wait timeout should be transient, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMapErr(t *testing.T) {
	cases := []struct {
		err       error
		transient bool
	}{
		{driver.ErrBadConn, true},
		{context.DeadlineExceeded, true},
		{&mysql.MySQLError{Number: 1213}, true},
		{&mysql.MySQLError{Number: 1146}, false},
		{errors.New("boom"), false},
	}
	for _, tc := range cases {
		got := MapErr("op", tc.err)
		if domain.IsTransient(got) != tc.transient {
			t.Fatalf("MapErr(%v) transient=%v", tc.err, domain.IsTransient(got))
		}
		if !tc.transient && !domain.IsInternal(got) {
			t.Fatalf("MapErr(%v) should be internal, got %T", tc.err, got)
		}
	}
	if MapErr("op", nil) != nil {
		t.Fatalf("nil stays nil")
	}
}
