package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/domain/models"
	"musafir/internal/events"
	"musafir/internal/repositories"
	"musafir/internal/utils"
)

// WalletService is the per-user ledger. The balance is always computed from
// posted transactions; writes for one user serialize on the wallet_accounts row.
type WalletService struct {
	DB        *sql.DB
	Repo      repositories.WalletRepository
	Topups    repositories.TopupRepository
	Events    events.Publisher
	Now       func() time.Time
	RequestID string
}

const (
	defaultTxnPageSize = 20
	maxTxnPageSize     = 100
)

func (s WalletService) Summary(ctx context.Context, userID int64) (models.WalletSummary, error) {
	if userID <= 0 {
		return models.WalletSummary{}, domain.ValidationError{Field: "userId", Msg: "required"}
	}
	bal, err := s.Repo.Balance(ctx, s.DB, userID)
	if err != nil {
		return models.WalletSummary{}, intdb.MapErr("wallet summary", err)
	}
	return models.WalletSummary{UserID: userID, Balance: bal}, nil
}

// Transactions pages the log newest first. The cursor is opaque to callers;
// an empty NextCursor means there is nothing more.
func (s WalletService) Transactions(ctx context.Context, userID int64, cursor string, limit int) (models.TransactionPage, error) {
	if limit <= 0 {
		limit = defaultTxnPageSize
	}
	if limit > maxTxnPageSize {
		limit = maxTxnPageSize
	}
	var before int64
	if c := strings.TrimSpace(cursor); c != "" {
		v, err := strconv.ParseInt(c, 10, 64)
		if err != nil || v <= 0 {
			return models.TransactionPage{}, domain.ValidationError{Field: "cursor", Msg: "invalid"}
		}
		before = v
	}
	items, err := s.Repo.Page(ctx, s.DB, userID, before, limit+1)
	if err != nil {
		return models.TransactionPage{}, intdb.MapErr("wallet transactions", err)
	}
	page := models.TransactionPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.NextCursor = strconv.FormatInt(page.Items[limit-1].ID, 10)
	}
	return page, nil
}

// Debit appends a posted debit inside tx after checking the balance under the account lock.
func (s WalletService) Debit(ctx context.Context, tx intdb.Querier, userID, amount int64, typ, reference string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ValidationError{Field: "walletAmount", Msg: "must be positive"}
	}
	if err := s.Repo.LockAccount(ctx, tx, userID); err != nil {
		return 0, err
	}
	bal, err := s.Repo.Balance(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if bal < amount {
		return 0, domain.ConflictError{Code: domain.CodeInsufficientWalletBalance, Resource: "wallet", Msg: "insufficient wallet balance"}
	}
	return s.Repo.Insert(ctx, tx, models.WalletTransaction{
		UserID:    userID,
		Direction: models.DirectionDebit,
		Amount:    amount,
		Type:      typ,
		Reference: reference,
		CreatedAt: clock(s.Now).now(),
	})
}

// Credit appends a posted credit inside tx. A reference that was already
// credited returns the existing transaction with created=false.
func (s WalletService) Credit(ctx context.Context, tx intdb.Querier, userID, amount int64, typ, reference string, expiresAt *time.Time) (int64, bool, error) {
	if amount <= 0 {
		return 0, false, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}
	if reference == "" {
		return 0, false, domain.ValidationError{Field: "reference", Msg: "required"}
	}
	if err := s.Repo.LockAccount(ctx, tx, userID); err != nil {
		return 0, false, err
	}
	if prev, ok, err := s.Repo.FindByReference(ctx, tx, reference); err != nil {
		return 0, false, err
	} else if ok {
		return prev.ID, false, nil
	}
	id, err := s.Repo.Insert(ctx, tx, models.WalletTransaction{
		UserID:    userID,
		Direction: models.DirectionCredit,
		Amount:    amount,
		Type:      typ,
		Reference: reference,
		ExpiresAt: expiresAt,
		CreatedAt: clock(s.Now).now(),
	})
	if errors.Is(err, repositories.ErrDuplicateReference) {
		prev, ok, ferr := s.Repo.FindByReference(ctx, tx, reference)
		if ferr != nil {
			return 0, false, ferr
		}
		if ok {
			return prev.ID, false, nil
		}
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Void cancels a posted transaction under the account lock.
func (s WalletService) Void(ctx context.Context, tx intdb.Querier, userID, txnID int64) error {
	if err := s.Repo.LockAccount(ctx, tx, userID); err != nil {
		return err
	}
	return s.Repo.Void(ctx, tx, txnID)
}

func (s WalletService) CreateTopup(ctx context.Context, userID, packageAmount int64) (models.TopupRequest, error) {
	if userID <= 0 {
		return models.TopupRequest{}, domain.ValidationError{Field: "userId", Msg: "required"}
	}
	if packageAmount <= 0 {
		return models.TopupRequest{}, domain.ValidationError{Field: "packageAmount", Msg: "must be positive"}
	}
	t := models.TopupRequest{UserID: userID, PackageAmount: packageAmount, Status: models.TopupPending, CreatedAt: clock(s.Now).now()}
	id, err := s.Topups.Insert(ctx, s.DB, t)
	if err != nil {
		return models.TopupRequest{}, intdb.MapErr("topup create", err)
	}
	t.ID = id
	utils.LogEvent(s.RequestID, "wallet", "topup_request", "topup_id="+strconv.FormatInt(id, 10))
	return t, nil
}

func (s WalletService) ListTopups(ctx context.Context, status string, page domain.Pagination) ([]models.TopupRequest, domain.Pagination, error) {
	status = strings.TrimSpace(status)
	switch models.TopupStatus(status) {
	case "", models.TopupPending, models.TopupProcessed, models.TopupRejected:
	default:
		return nil, domain.Pagination{}, domain.ValidationError{Field: "status", Msg: "unknown status"}
	}
	page = page.Normalize()
	list, total, err := s.Topups.List(ctx, s.DB, status, page)
	if err != nil {
		return nil, domain.Pagination{}, intdb.MapErr("topup list", err)
	}
	page.Total = total
	return list, page, nil
}

// CreditTopup posts the top-up credit and marks the request processed.
// Crediting an already processed request returns it unchanged.
func (s WalletService) CreditTopup(ctx context.Context, topupID, adminID int64) (models.TopupRequest, error) {
	var (
		out      models.TopupRequest
		credited bool
	)
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		t, err := s.Topups.Get(ctx, tx, topupID, true)
		if err != nil {
			return err
		}
		switch t.Status {
		case models.TopupProcessed:
			out = t
			return nil
		case models.TopupRejected:
			return invalidTransition("topup", "topup was rejected")
		}
		_, created, err := s.Credit(ctx, tx, t.UserID, t.PackageAmount, models.TxnTypeTopup, models.TopupSettlementKey(t.ID), nil)
		if err != nil {
			return err
		}
		now := clock(s.Now).now()
		if _, err := s.Topups.Process(ctx, tx, t.ID, models.TopupProcessed, adminID, now); err != nil {
			return err
		}
		t.Status = models.TopupProcessed
		t.ProcessedAt = &now
		t.ProcessedBy = &adminID
		out = t
		credited = created
		return nil
	})
	if err != nil {
		return models.TopupRequest{}, err
	}
	if credited {
		utils.LogEvent(s.RequestID, "wallet", "topup_credit", "topup_id="+strconv.FormatInt(out.ID, 10))
		publish(ctx, s.Events, s.RequestID, "wallet", events.TopupCredited, events.WalletEvent{
			UserID: out.UserID, Reference: models.TopupSettlementKey(out.ID), Amount: out.PackageAmount,
		})
	}
	return out, nil
}

func (s WalletService) RejectTopup(ctx context.Context, topupID, adminID int64) (models.TopupRequest, error) {
	var out models.TopupRequest
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		t, err := s.Topups.Get(ctx, tx, topupID, true)
		if err != nil {
			return err
		}
		switch t.Status {
		case models.TopupRejected:
			out = t
			return nil
		case models.TopupProcessed:
			return invalidTransition("topup", "topup was already credited")
		}
		now := clock(s.Now).now()
		if _, err := s.Topups.Process(ctx, tx, t.ID, models.TopupRejected, adminID, now); err != nil {
			return err
		}
		t.Status = models.TopupRejected
		t.ProcessedAt = &now
		t.ProcessedBy = &adminID
		out = t
		return nil
	})
	if err != nil {
		return models.TopupRequest{}, err
	}
	utils.LogEvent(s.RequestID, "wallet", "topup_reject", "topup_id="+strconv.FormatInt(out.ID, 10))
	publish(ctx, s.Events, s.RequestID, "wallet", events.TopupRejected, events.WalletEvent{UserID: out.UserID, Amount: out.PackageAmount})
	return out, nil
}
