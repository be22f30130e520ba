package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"musafir/internal/domain"
	"musafir/internal/domain/models"
	"musafir/internal/events"

	"github.com/DATA-DOG/go-sqlmock"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func frozen() time.Time { return fixedNow }

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type regFixture struct {
	id, tripID, userID int64
	tripType           string
	gender             string
	tenure             int
	price              int64
	discountType       any
	discountApplied    int64
	status             string
	cancelledAt        any
	version            int64
}

var registrationCols = []string{
	"id", "trip_id", "user_id", "email", "trip_type", "gender", "tenure_months",
	"city", "tier", "room_sharing", "sleep_preference", "price", "discount_type", "discount_applied",
	"status", "cancelled_at", "refund_status", "version", "created_at", "updated_at",
}

func registrationRows(f regFixture) *sqlmock.Rows {
	if f.version == 0 {
		f.version = 1
	}
	return sqlmock.NewRows(registrationCols).AddRow(
		f.id, f.tripID, f.userID, "me@example.com", f.tripType, f.gender, f.tenure,
		"lahore", "standard", "quad", "bed", f.price, f.discountType, f.discountApplied,
		f.status, f.cancelledAt, nil, f.version, fixedNow, fixedNow,
	)
}

var budgetCols = []string{"trip_id", "kind", "enabled", "amount_per_unit", "total_count", "used_count", "used_value"}

func expectTripSnapshot(mock sqlmock.Sqlmock, tripID int64, capacity int, budgets *sqlmock.Rows) {
	mock.ExpectQuery(`FROM trips WHERE id=\? LIMIT 1`).WithArgs(tripID).WillReturnRows(
		sqlmock.NewRows([]string{"id", "title", "base_price", "early_bird_price", "early_bird_deadline", "seat_capacity", "content_version", "created_at", "updated_at"}).
			AddRow(tripID, "Hunza Autumn", int64(3000), int64(0), nil, capacity, int64(4), fixedNow, fixedNow))
	mock.ExpectQuery(`FROM trip_addons`).WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{"category", "option_key", "price"}))
	mock.ExpectQuery(`FROM trip_discounts WHERE trip_id=\? ORDER BY kind`).WithArgs(tripID).WillReturnRows(budgets)
}

// publisher keeps a nil recorder a nil interface.
func publisher(rec *events.Recorder) events.Publisher {
	if rec == nil {
		return nil
	}
	return rec
}

func paymentService(db *sql.DB, rec *events.Recorder) PaymentService {
	wallet := WalletService{DB: db, Now: frozen}
	return PaymentService{
		DB:     db,
		Wallet: wallet,
		Ledger: DiscountLedger{DB: db, Now: frozen},
		Policy: domain.DefaultDiscountPolicy(),
		Events: publisher(rec),
		Now:    frozen,
	}
}

func TestPaymentSubmitWalletAndCash(t *testing.T) {
	db, mock := newMock(t)
	rec := &events.Recorder{}

	mock.ExpectQuery(`FROM payments WHERE idempotency_key=\?`).WithArgs("w-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM registrations WHERE id=\? LIMIT 1 FOR UPDATE`).WithArgs(int64(10)).
		WillReturnRows(registrationRows(regFixture{id: 10, tripID: 2, userID: 5, tripType: "solo", price: 3000, status: "new"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery(`SUM\(amount \+ wallet_amount\)`).WillReturnRows(sqlmock.NewRows([]string{"s"}).AddRow(int64(0)))
	mock.ExpectExec(`INSERT IGNORE INTO wallet_accounts`).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT user_id FROM wallet_accounts WHERE user_id=\? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(5)))
	mock.ExpectQuery(`FROM wallet_transactions\s+WHERE user_id=\? AND status='posted'`).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(1000)))
	mock.ExpectExec(`INSERT INTO wallet_transactions`).
		WithArgs(int64(5), "debit", int64(1000), "payment", "posted", "payment:5:w-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectExec(`INSERT INTO payments`).WillReturnResult(sqlmock.NewResult(501, 1))
	mock.ExpectExec(`UPDATE registrations SET status=\?`).WithArgs("payment", sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := paymentService(db, rec).Submit(context.Background(), models.PaymentSubmission{
		RegistrationID: 10,
		UserID:         5,
		CashAmount:     2000,
		WalletAmount:   1000,
		WalletUseID:    "w-1",
		ProofRef:       "receipts/abc.png",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.PendingApproval || res.Payment.ID != 501 || res.Payment.Status != models.PaymentPendingApproval {
		t.Fatalf("result = %+v", res)
	}
	if res.Payment.WalletTxnID == nil || *res.Payment.WalletTxnID != 77 {
		t.Fatalf("wallet txn = %v", res.Payment.WalletTxnID)
	}
	if keys := rec.Keys(); len(keys) != 1 || keys[0] != events.PaymentSubmitted {
		t.Fatalf("events = %v", keys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPaymentSubmitRejectsSecondPending(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM registrations WHERE id=\? LIMIT 1 FOR UPDATE`).
		WillReturnRows(registrationRows(regFixture{id: 10, tripID: 2, userID: 5, tripType: "solo", price: 3000, status: "payment"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	_, err := paymentService(db, nil).Submit(context.Background(), models.PaymentSubmission{
		RegistrationID: 10, UserID: 5, CashAmount: 500, ProofRef: "p.png",
	})
	if !domain.HasConflictCode(err, domain.CodePaymentAlreadyPending) {
		t.Fatalf("expected payment_already_pending, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPaymentSubmitForeignRegistrationIsNotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM registrations WHERE id=\? LIMIT 1 FOR UPDATE`).
		WillReturnRows(registrationRows(regFixture{id: 10, tripID: 2, userID: 99, tripType: "solo", price: 3000, status: "new"}))
	mock.ExpectRollback()

	_, err := paymentService(db, nil).Submit(context.Background(), models.PaymentSubmission{
		RegistrationID: 10, UserID: 5, CashAmount: 500, ProofRef: "p.png",
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPaymentSubmitExhaustedDiscountIsFeedback(t *testing.T) {
	db, mock := newMock(t)
	kind := models.DiscountMusafir

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM registrations WHERE id=\? LIMIT 1 FOR UPDATE`).
		WillReturnRows(registrationRows(regFixture{id: 10, tripID: 2, userID: 5, tripType: "solo", tenure: 12, price: 3000, status: "onboarding"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery(`SUM\(amount \+ wallet_amount\)`).WillReturnRows(sqlmock.NewRows([]string{"s"}).AddRow(int64(0)))
	expectTripSnapshot(mock, 2, 0, sqlmock.NewRows(budgetCols).AddRow(int64(2), "musafir", true, int64(500), int64(10), int64(9), int64(4500)))
	mock.ExpectQuery(`FROM discount_reservations`).WithArgs(int64(10), "musafir").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`FROM trip_discounts WHERE trip_id=\? AND kind=\? LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(budgetCols).AddRow(int64(2), "musafir", true, int64(500), int64(10), int64(9), int64(4500)))
	// another registration took the last unit in between
	mock.ExpectExec(`SET used_count = used_count \+ \?`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO payments`).WillReturnResult(sqlmock.NewResult(502, 1))
	mock.ExpectExec(`UPDATE registrations SET status=\?`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := paymentService(db, nil).Submit(context.Background(), models.PaymentSubmission{
		RegistrationID: 10, UserID: 5, CashAmount: 2000, ProofRef: "p.png", DiscountKind: &kind,
	})
	if err != nil {
		t.Fatalf("exhaustion must not fail the payment: %v", err)
	}
	if res.DiscountFeedback != models.ReasonBudgetExhausted || res.DiscountApplied != 0 || res.Payment.Discount != 0 {
		t.Fatalf("result = %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPaymentSubmitAmountExceedsDue(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM registrations WHERE id=\? LIMIT 1 FOR UPDATE`).
		WillReturnRows(registrationRows(regFixture{id: 10, tripID: 2, userID: 5, tripType: "solo", price: 3000, status: "payment"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery(`SUM\(amount \+ wallet_amount\)`).WillReturnRows(sqlmock.NewRows([]string{"s"}).AddRow(int64(2500)))
	mock.ExpectRollback()

	_, err := paymentService(db, nil).Submit(context.Background(), models.PaymentSubmission{
		RegistrationID: 10, UserID: 5, CashAmount: 600, ProofRef: "p.png",
	})
	if !domain.HasConflictCode(err, domain.CodeAmountExceedsDue) {
		t.Fatalf("expected amount_exceeds_due, got %v", err)
	}
}

var refundCols = []string{"id", "registration_id", "user_id", "status", "refund_amount", "settlement_status", "settlement_txn_id", "version", "reviewed_by", "created_at", "updated_at"}

func refundService(db *sql.DB, rec *events.Recorder) RefundService {
	return RefundService{DB: db, Wallet: WalletService{DB: db, Now: frozen}, Events: publisher(rec), Now: frozen}
}

func TestRefundApproveAndCreditThenReplay(t *testing.T) {
	db, mock := newMock(t)
	rec := &events.Recorder{}
	svc := refundService(db, rec)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM refunds WHERE id=\? LIMIT 1 FOR UPDATE`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(refundCols).AddRow(int64(3), int64(10), int64(5), "pending", int64(2500), "none", nil, int64(1), nil, fixedNow, fixedNow))
	mock.ExpectExec(`INSERT IGNORE INTO wallet_accounts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT user_id FROM wallet_accounts`).WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(5)))
	mock.ExpectQuery(`FROM wallet_transactions WHERE reference=\?`).WithArgs("refund:3").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO wallet_transactions`).
		WithArgs(int64(5), "credit", int64(2500), "refund", "posted", "refund:3", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(88, 1))
	mock.ExpectExec(`UPDATE refunds`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE registrations SET refund_status=\?`).WithArgs("cleared-credited", sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rf, err := svc.Transition(context.Background(), 3, domain.ActionApproveAndCredit, 1, 1)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rf.State() != models.StateClearedCredited || rf.SettlementTxnID == nil || *rf.SettlementTxnID != 88 || rf.Version != 2 {
		t.Fatalf("refund = %+v", rf)
	}

	// a replayed post_credit must not touch the wallet
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM refunds WHERE id=\? LIMIT 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(refundCols).AddRow(int64(3), int64(10), int64(5), "cleared", int64(2500), "posted", int64(88), int64(2), int64(1), fixedNow, fixedNow))
	mock.ExpectCommit()

	again, err := svc.Transition(context.Background(), 3, domain.ActionPostCredit, 1, 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if *again.SettlementTxnID != 88 || again.Version != 2 {
		t.Fatalf("replay changed the refund: %+v", again)
	}
	if keys := rec.Keys(); len(keys) != 1 || keys[0] != events.RefundCredited {
		t.Fatalf("events = %v", keys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRefundPostCreditReusesExistingCredit(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM refunds WHERE id=\? LIMIT 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(refundCols).AddRow(int64(3), int64(10), int64(5), "cleared", int64(2500), "none", nil, int64(2), int64(1), fixedNow, fixedNow))
	mock.ExpectExec(`INSERT IGNORE INTO wallet_accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT user_id FROM wallet_accounts`).WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(5)))
	mock.ExpectQuery(`FROM wallet_transactions WHERE reference=\?`).WithArgs("refund:3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "direction", "amount", "type", "status", "reference", "expires_at", "created_at"}).
			AddRow(int64(88), int64(5), "credit", int64(2500), "refund", "posted", "refund:3", nil, fixedNow))
	mock.ExpectExec(`UPDATE refunds`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE registrations SET refund_status=\?`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rf, err := refundService(db, nil).Transition(context.Background(), 3, domain.ActionPostCredit, 1, 2)
	if err != nil {
		t.Fatalf("post credit: %v", err)
	}
	if rf.SettlementTxnID == nil || *rf.SettlementTxnID != 88 {
		t.Fatalf("settlement txn = %v", rf.SettlementTxnID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRefundStaleVersion(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM refunds WHERE id=\?`).
		WillReturnRows(sqlmock.NewRows(refundCols).AddRow(int64(3), int64(10), int64(5), "pending", int64(2500), "none", nil, int64(4), nil, fixedNow, fixedNow))
	mock.ExpectRollback()

	_, err := refundService(db, nil).Transition(context.Background(), 3, domain.ActionReject, 1, 3)
	if !domain.HasConflictCode(err, domain.CodeVersionMismatch) {
		t.Fatalf("expected version_mismatch, got %v", err)
	}
}

var reservationCols = []string{"id", "trip_id", "registration_id", "kind", "unit_count", "amount", "status", "created_at", "released_at"}

func TestLedgerReserveReturnsHeldReservation(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM discount_reservations`).WithArgs(int64(10), "group").
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(int64(6), int64(2), int64(10), "group", int64(1), int64(700), "held", fixedNow, nil))
	mock.ExpectCommit()

	ledger := DiscountLedger{DB: db, Now: frozen}
	res, err := reserveOne(context.Background(), ledger, 2, models.DiscountGroup, 10)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if res.ID != 6 || res.Amount != 700 {
		t.Fatalf("reservation = %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLedgerReserveDisabledBudget(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM discount_reservations`).WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectQuery(`FROM trip_discounts WHERE trip_id=\? AND kind=\?`).
		WillReturnRows(sqlmock.NewRows(budgetCols).AddRow(int64(2), "soloFemale", false, int64(500), int64(5), int64(0), int64(0)))
	mock.ExpectRollback()

	_, err := reserveOne(context.Background(), DiscountLedger{DB: db}, 2, models.DiscountSoloFemale, 10)
	if !domain.HasConflictCode(err, domain.CodeBudgetExhausted) {
		t.Fatalf("expected budget_exhausted, got %v", err)
	}
}

func TestLedgerReleaseTwiceIsNoop(t *testing.T) {
	db, mock := newMock(t)
	released := fixedNow
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM discount_reservations\s+WHERE id=\?`).WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(int64(6), int64(2), int64(10), "group", int64(1), int64(700), "released", fixedNow, released))
	mock.ExpectExec(`UPDATE discount_reservations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := releaseOne(context.Background(), DiscountLedger{DB: db}, 6)
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTripDiscountCapBelowUsed(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE trips SET content_version=content_version\+1`).WithArgs(sqlmock.AnyArg(), int64(2), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM trip_discounts WHERE trip_id=\? AND kind=\? LIMIT 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(budgetCols).AddRow(int64(2), "group", true, int64(500), int64(10), int64(8), int64(4000)))
	mock.ExpectRollback()

	_, err := TripService{DB: db}.UpdateDiscount(context.Background(), 2, models.DiscountGroup, 4, DiscountEdit{Enabled: true, AmountPerUnit: 500, TotalCount: 5})
	if !domain.HasConflictCode(err, domain.CodeCapBelowUsed) {
		t.Fatalf("expected cap_below_used, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTripDiscountCannotBeRaised(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE trips SET content_version`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM trip_discounts WHERE trip_id=\? AND kind=\?`).
		WillReturnRows(sqlmock.NewRows(budgetCols).AddRow(int64(2), "group", true, int64(500), int64(10), int64(0), int64(0)))
	mock.ExpectRollback()

	_, err := TripService{DB: db}.UpdateDiscount(context.Background(), 2, models.DiscountGroup, 4, DiscountEdit{Enabled: true, AmountPerUnit: 800, TotalCount: 10})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTripDiscountStaleVersion(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE trips SET content_version`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM trips WHERE id=\?`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectRollback()

	_, err := TripService{DB: db}.UpdateDiscount(context.Background(), 2, models.DiscountMusafir, 3, DiscountEdit{})
	if !domain.HasConflictCode(err, domain.CodeVersionMismatch) {
		t.Fatalf("expected version_mismatch, got %v", err)
	}
}

func TestWalletTransactionsCursor(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"id", "user_id", "direction", "amount", "type", "status", "reference", "expires_at", "created_at"}
	mock.ExpectQuery(`FROM wallet_transactions WHERE user_id=\? ORDER BY id DESC LIMIT \?`).WithArgs(int64(5), 3).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(9), int64(5), "credit", int64(100), "topup", "posted", "topup:1", nil, fixedNow).
			AddRow(int64(7), int64(5), "debit", int64(50), "payment", "posted", "payment:5:a", nil, fixedNow).
			AddRow(int64(4), int64(5), "credit", int64(10), "refund", "posted", "refund:2", nil, fixedNow))

	page, err := WalletService{DB: db}.Transactions(context.Background(), 5, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 2 || page.NextCursor != "7" {
		t.Fatalf("page = %+v", page)
	}
}

func TestWalletDebitInsufficientBalance(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT IGNORE INTO wallet_accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT user_id FROM wallet_accounts`).WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(5)))
	mock.ExpectQuery(`FROM wallet_transactions`).WillReturnRows(sqlmock.NewRows([]string{"b"}).AddRow(int64(300)))

	_, err := WalletService{}.Debit(context.Background(), db, 5, 500, models.TxnTypePayment, "payment:5:x")
	if !domain.HasConflictCode(err, domain.CodeInsufficientWalletBalance) {
		t.Fatalf("expected insufficient_wallet_balance, got %v", err)
	}
}
