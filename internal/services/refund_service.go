package services

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/domain/models"
	"musafir/internal/events"
	"musafir/internal/repositories"
	"musafir/internal/utils"
)

// RefundService drives refunds through pending, cleared and rejected. The
// wallet credit of a refund carries the refund's settlement key, which the
// wallet_transactions unique index accepts only once.
type RefundService struct {
	DB            *sql.DB
	Refunds       repositories.RefundRepository
	Registrations repositories.RegistrationRepository
	Payments      repositories.PaymentRepository
	Wallet        WalletService
	Events        events.Publisher
	Now           func() time.Time
	RequestID     string
}

// Request opens a refund for a cancelled, confirmed registration. amount nil
// refunds everything approved so far.
func (s RefundService) Request(ctx context.Context, registrationID int64, rc domain.RequestContext, amount *int64) (models.Refund, error) {
	if amount != nil && *amount <= 0 {
		return models.Refund{}, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}
	var out models.Refund
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		reg, err := s.Registrations.Get(ctx, tx, registrationID, true)
		if err != nil {
			return err
		}
		if err := ownsRegistration(rc, reg); err != nil {
			return err
		}
		if _, exists, err := s.Refunds.FindByRegistration(ctx, tx, reg.ID); err != nil {
			return err
		} else if exists {
			return domain.ConflictError{Code: domain.CodeRefundExists, Resource: "refund", Msg: "a refund already exists for this registration"}
		}
		approved, n, err := s.Payments.ApprovedTotal(ctx, tx, reg.ID)
		if err != nil {
			return err
		}
		if reg.Status != models.RegistrationConfirmed || n == 0 {
			return domain.ConflictError{Code: domain.CodeRefundRequiresApprovedPayment, Resource: "refund", Msg: "registration has no approved payment"}
		}
		if !reg.Cancelled() {
			return domain.ConflictError{Code: domain.CodeRefundRequiresCancellation, Resource: "refund", Msg: "cancel the registration before requesting a refund"}
		}
		value := approved
		if amount != nil {
			value = *amount
		}
		if value > approved {
			return domain.ValidationError{Field: "amount", Msg: "exceeds the approved paid total"}
		}
		if value <= 0 {
			return domain.ValidationError{Field: "amount", Msg: "nothing to refund"}
		}

		now := clock(s.Now).now()
		rf := models.Refund{
			RegistrationID:   reg.ID,
			UserID:           reg.UserID,
			Status:           models.RefundPending,
			RefundAmount:     value,
			SettlementStatus: models.SettlementNone,
			Version:          1,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		rf.ID, err = s.Refunds.Insert(ctx, tx, rf)
		if err != nil {
			if intdb.IsDuplicate(err) {
				return domain.ConflictError{Code: domain.CodeRefundExists, Resource: "refund", Msg: "a refund already exists for this registration"}
			}
			return err
		}
		if err := s.Registrations.SetRefundStatus(ctx, tx, reg.ID, string(models.StatePending)); err != nil {
			return err
		}
		out = rf
		return nil
	})
	if err != nil {
		return models.Refund{}, err
	}
	utils.LogEvent(s.RequestID, "refund", "request", "refund_id="+strconv.FormatInt(out.ID, 10))
	publish(ctx, s.Events, s.RequestID, "refund", events.RefundRequested, refundEvent(out))
	return out, nil
}

// Transition applies an admin action. expectedVersion of 0 skips the version
// check. Posting credit on an already credited refund is a no-op.
func (s RefundService) Transition(ctx context.Context, refundID int64, action domain.RefundAction, adminID, expectedVersion int64) (models.Refund, error) {
	if !action.Valid() {
		return models.Refund{}, domain.ValidationError{Field: "action", Msg: "unknown refund action"}
	}
	var (
		out     models.Refund
		changed bool
	)
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		rf, err := s.Refunds.Get(ctx, tx, refundID, true)
		if err != nil {
			return err
		}
		if expectedVersion > 0 && expectedVersion != rf.Version {
			return versionMismatch("refund")
		}
		tr, err := domain.NextRefundState(rf.State(), action)
		if err != nil {
			return err
		}
		if tr.Noop {
			out = rf
			return nil
		}
		if tr.Credit {
			txnID, _, err := s.Wallet.Credit(ctx, tx, rf.UserID, rf.RefundAmount, models.TxnTypeRefund, rf.SettlementKey(), nil)
			if err != nil {
				return err
			}
			rf.SettlementTxnID = &txnID
		}
		rf.Status, rf.SettlementStatus = domain.RefundStateFields(tr.To)
		rf.ReviewedBy = &adminID
		now := clock(s.Now).now()
		ok, err := s.Refunds.UpdateState(ctx, tx, rf, rf.Version, now)
		if err != nil {
			return err
		}
		if !ok {
			return versionMismatch("refund")
		}
		if err := s.Registrations.SetRefundStatus(ctx, tx, rf.RegistrationID, string(tr.To)); err != nil {
			return err
		}
		rf.Version++
		rf.UpdatedAt = now
		out = rf
		changed = true
		return nil
	})
	if err != nil {
		return models.Refund{}, err
	}
	if changed {
		utils.LogEvent(s.RequestID, "refund", string(action), "refund_id="+strconv.FormatInt(out.ID, 10)+" state="+string(out.State()))
		key := events.RefundCleared
		switch out.State() {
		case models.StateClearedCredited:
			key = events.RefundCredited
		case models.StateRejected:
			key = events.RefundRejected
		}
		publish(ctx, s.Events, s.RequestID, "refund", key, refundEvent(out))
	}
	return out, nil
}

func (s RefundService) Get(ctx context.Context, refundID int64, rc domain.RequestContext) (models.Refund, error) {
	rf, err := s.Refunds.Get(ctx, s.DB, refundID, false)
	if err != nil {
		return models.Refund{}, intdb.MapErr("refund get", err)
	}
	if !rc.IsAdmin() && rc.UserID != rf.UserID {
		return models.Refund{}, domain.NotFoundError{Resource: "refund"}
	}
	return rf, nil
}

func refundEvent(rf models.Refund) events.RefundEvent {
	return events.RefundEvent{
		RefundID:       rf.ID,
		RegistrationID: rf.RegistrationID,
		UserID:         rf.UserID,
		State:          string(rf.State()),
		Amount:         rf.RefundAmount,
	}
}
