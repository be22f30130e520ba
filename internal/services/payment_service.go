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

// PaymentService settles payments against a registration. Every submit runs
// as one transaction behind the registration row lock, so the wallet debit,
// discount reservation, discount lock and payment row land together or not at all.
type PaymentService struct {
	DB            *sql.DB
	Trips         repositories.TripRepository
	Registrations repositories.RegistrationRepository
	Payments      repositories.PaymentRepository
	Wallet        WalletService
	Ledger        DiscountLedger
	Linker        GroupLinker
	Policy        domain.DiscountPolicy
	Events        events.Publisher
	Now           func() time.Time
	RequestID     string
}

var errIdempotentReplay = errors.New("payment replay")

// Submit records a payment in pendingApproval. An unavailable discount does
// not fail the payment; it is reported in DiscountFeedback instead.
func (s PaymentService) Submit(ctx context.Context, sub models.PaymentSubmission) (models.PaymentResult, error) {
	if err := domain.ValidateSubmission(sub); err != nil {
		return models.PaymentResult{}, err
	}
	sub.WalletUseID = strings.TrimSpace(sub.WalletUseID)

	if prev, ok, err := s.replay(ctx, s.DB, sub); err != nil || ok {
		return prev, err
	}

	var (
		result models.PaymentResult
		hold   Hold
	)
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		result, hold, err = s.submitTx(ctx, tx, sub)
		return err
	})
	if err != nil {
		s.Ledger.Abandon(ctx, hold)
		if sub.WalletUseID != "" && errors.Is(err, errIdempotentReplay) {
			prev, ok, rerr := s.replay(ctx, s.DB, sub)
			if rerr != nil {
				return models.PaymentResult{}, rerr
			}
			if ok {
				return prev, nil
			}
			return models.PaymentResult{}, domain.TransientError{Op: "payment submit", Err: err}
		}
		return models.PaymentResult{}, err
	}

	p := result.Payment
	utils.LogEvent(s.RequestID, "payment", "submit", "payment_id="+strconv.FormatInt(p.ID, 10)+" registration_id="+strconv.FormatInt(p.RegistrationID, 10))
	publish(ctx, s.Events, s.RequestID, "payment", events.PaymentSubmitted, paymentEvent(p))
	return result, nil
}

func (s PaymentService) submitTx(ctx context.Context, tx *sql.Tx, sub models.PaymentSubmission) (models.PaymentResult, Hold, error) {
	var hold Hold

	reg, err := s.Registrations.Get(ctx, tx, sub.RegistrationID, true)
	if err != nil {
		return models.PaymentResult{}, hold, err
	}
	if reg.UserID != sub.UserID {
		return models.PaymentResult{}, hold, domain.NotFoundError{Resource: "registration"}
	}
	if sub.ExpectedVersion > 0 && sub.ExpectedVersion != reg.Version {
		return models.PaymentResult{}, hold, versionMismatch("registration")
	}
	hasPending, err := s.Payments.HasPending(ctx, tx, reg.ID)
	if err != nil {
		return models.PaymentResult{}, hold, err
	}
	if err := domain.CheckPayable(reg, hasPending); err != nil {
		return models.PaymentResult{}, hold, err
	}
	settled, err := s.Payments.SettledTotal(ctx, tx, reg.ID)
	if err != nil {
		return models.PaymentResult{}, hold, err
	}

	var (
		newDiscount int64
		kind        *models.DiscountKind
		reservation *int64
		feedback    string
	)
	switch {
	case reg.DiscountLocked():
		if sub.DiscountKind != nil && *sub.DiscountKind != *reg.DiscountType {
			feedback = models.ReasonLocked
		}
	case sub.DiscountKind != nil:
		hold, feedback, err = s.reserveDiscount(ctx, tx, reg, *sub.DiscountKind)
		if err != nil {
			return models.PaymentResult{}, hold, err
		}
		if hold.Reservation.ID > 0 {
			k := *sub.DiscountKind
			kind = &k
			id := hold.Reservation.ID
			reservation = &id
			newDiscount = hold.Reservation.Amount
		}
	}

	due := models.ComputeAmountDue(reg.Price, settled, reg.DiscountApplied+newDiscount)
	if err := domain.CheckSubmission(reg, false, due, sub); err != nil {
		return models.PaymentResult{}, hold, err
	}

	now := clock(s.Now).now()
	var walletTxnID *int64
	if sub.WalletAmount > 0 {
		id, err := s.Wallet.Debit(ctx, tx, sub.UserID, sub.WalletAmount, models.TxnTypePayment, models.PaymentDebitKey(sub.UserID, sub.WalletUseID))
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateReference) {
				return models.PaymentResult{}, hold, errIdempotentReplay
			}
			return models.PaymentResult{}, hold, err
		}
		walletTxnID = &id
	}

	p := models.Payment{
		RegistrationID: reg.ID,
		UserID:         sub.UserID,
		Amount:         sub.CashAmount,
		WalletAmount:   sub.WalletAmount,
		Discount:       newDiscount,
		DiscountType:   kind,
		Status:         models.PaymentPendingApproval,
		ProofRef:       strings.TrimSpace(sub.ProofRef),
		IdempotencyKey: sub.WalletUseID,
		WalletTxnID:    walletTxnID,
		ReservationID:  reservation,
		CreatedAt:      now,
	}
	p.ID, err = s.Payments.Insert(ctx, tx, p)
	if err != nil {
		if intdb.IsDuplicate(err) {
			return models.PaymentResult{}, hold, errIdempotentReplay
		}
		return models.PaymentResult{}, hold, err
	}

	if newDiscount > 0 {
		ok, err := s.Registrations.LockDiscount(ctx, tx, reg.ID, *kind, newDiscount)
		if err != nil {
			return models.PaymentResult{}, hold, err
		}
		if !ok {
			return models.PaymentResult{}, hold, domain.ConflictError{Code: domain.CodeDiscountLocked, Resource: "registration", Msg: "discount already locked"}
		}
	}
	if reg.Status == models.RegistrationNew || reg.Status == models.RegistrationOnboarding {
		if err := s.Registrations.SetStatus(ctx, tx, reg.ID, models.RegistrationPayment); err != nil {
			return models.PaymentResult{}, hold, err
		}
	}

	return models.PaymentResult{
		Payment:          p,
		Status:           string(p.Status),
		PendingApproval:  true,
		DiscountApplied:  reg.DiscountApplied + newDiscount,
		DiscountFeedback: feedback,
	}, hold, nil
}

// reserveDiscount evaluates eligibility and reserves one unit. Ineligibility
// and exhaustion come back as feedback with an empty hold.
func (s PaymentService) reserveDiscount(ctx context.Context, tx *sql.Tx, reg models.Registration, kind models.DiscountKind) (Hold, string, error) {
	trip, err := s.Trips.Get(ctx, tx, reg.TripID)
	if err != nil {
		return Hold{}, "", err
	}
	group, _, err := s.Linker.State(ctx, tx, reg)
	if err != nil {
		return Hold{}, "", err
	}
	b, ok := trip.Discount(kind)
	e := domain.EvaluateEligibility(s.Policy, kind, b, ok, reg, group)
	if !e.Eligible {
		return Hold{}, e.Reason, nil
	}
	hold, err := s.Ledger.Reserve(ctx, tx, reg.TripID, kind, reg.ID, 1)
	if err != nil {
		if domain.HasConflictCode(err, domain.CodeBudgetExhausted) {
			return Hold{}, models.ReasonBudgetExhausted, nil
		}
		return Hold{}, "", err
	}
	return hold, models.ReasonEligible, nil
}

// replay returns the payment already created with sub's walletUseId.
func (s PaymentService) replay(ctx context.Context, q intdb.Querier, sub models.PaymentSubmission) (models.PaymentResult, bool, error) {
	if sub.WalletUseID == "" {
		return models.PaymentResult{}, false, nil
	}
	p, ok, err := s.Payments.FindByIdempotencyKey(ctx, q, sub.WalletUseID)
	if err != nil {
		return models.PaymentResult{}, false, intdb.MapErr("payment replay", err)
	}
	if !ok {
		return models.PaymentResult{}, false, nil
	}
	if p.RegistrationID != sub.RegistrationID || p.UserID != sub.UserID {
		return models.PaymentResult{}, false, domain.ValidationError{Field: "walletUseId", Msg: "already used for another payment"}
	}
	return models.PaymentResult{
		Payment:         p,
		Status:          string(p.Status),
		PendingApproval: p.Status == models.PaymentPendingApproval,
		DiscountApplied: p.Discount,
		Replayed:        true,
	}, true, nil
}

// Approve marks a pending payment approved and confirms the registration once
// nothing is due. expectedVersion is the registration version the admin saw;
// 0 skips the check.
func (s PaymentService) Approve(ctx context.Context, paymentID, adminID, expectedVersion int64) (models.Payment, error) {
	var p models.Payment
	err := s.review(ctx, paymentID, expectedVersion, func(tx *sql.Tx, reg models.Registration, pay models.Payment) error {
		now := clock(s.Now).now()
		ok, err := s.Payments.Review(ctx, tx, pay.ID, models.PaymentApproved, adminID, "", now)
		if err != nil {
			return err
		}
		if !ok {
			return invalidTransition("payment", "payment is not pending approval")
		}
		settled, err := s.Payments.SettledTotal(ctx, tx, reg.ID)
		if err != nil {
			return err
		}
		due := models.ComputeAmountDue(reg.Price, settled, reg.DiscountApplied)
		switch {
		case due == 0 && reg.Status != models.RegistrationConfirmed:
			err = s.Registrations.SetStatus(ctx, tx, reg.ID, models.RegistrationConfirmed)
		case due > 0 && (reg.Status == models.RegistrationNew || reg.Status == models.RegistrationOnboarding):
			err = s.Registrations.SetStatus(ctx, tx, reg.ID, models.RegistrationPayment)
		}
		if err != nil {
			return err
		}
		pay.Status = models.PaymentApproved
		pay.ReviewedBy = &adminID
		pay.ReviewedAt = &now
		p = pay
		return nil
	})
	if err != nil {
		return models.Payment{}, err
	}
	utils.LogEvent(s.RequestID, "payment", "approve", "payment_id="+strconv.FormatInt(p.ID, 10))
	publish(ctx, s.Events, s.RequestID, "payment", events.PaymentApproved, paymentEvent(p))
	return p, nil
}

// Reject marks a pending payment rejected, voids its wallet debit and releases
// the discount reservation it took, unlocking the registration's discount.
func (s PaymentService) Reject(ctx context.Context, paymentID, adminID, expectedVersion int64, reason string) (models.Payment, error) {
	var (
		p        models.Payment
		released []models.Reservation
	)
	err := s.review(ctx, paymentID, expectedVersion, func(tx *sql.Tx, reg models.Registration, pay models.Payment) error {
		now := clock(s.Now).now()
		ok, err := s.Payments.Review(ctx, tx, pay.ID, models.PaymentRejected, adminID, strings.TrimSpace(reason), now)
		if err != nil {
			return err
		}
		if !ok {
			return invalidTransition("payment", "payment is not pending approval")
		}
		if pay.WalletTxnID != nil {
			if err := s.Wallet.Void(ctx, tx, pay.UserID, *pay.WalletTxnID); err != nil {
				return err
			}
		}
		if pay.ReservationID != nil {
			res, err := s.Ledger.Repo.GetReservation(ctx, tx, *pay.ReservationID)
			if err != nil {
				return err
			}
			ok, err := s.Ledger.Release(ctx, tx, res)
			if err != nil {
				return err
			}
			if ok {
				released = append(released, res)
			}
			if pay.Discount > 0 && reg.DiscountType != nil && pay.DiscountType != nil && *reg.DiscountType == *pay.DiscountType {
				if err := s.Registrations.ClearDiscount(ctx, tx, reg.ID); err != nil {
					return err
				}
			}
		}
		pay.Status = models.PaymentRejected
		pay.ReviewedBy = &adminID
		pay.ReviewedAt = &now
		pay.RejectReason = strings.TrimSpace(reason)
		p = pay
		return nil
	})
	if err != nil {
		return models.Payment{}, err
	}
	s.Ledger.Released(ctx, released)
	utils.LogEvent(s.RequestID, "payment", "reject", "payment_id="+strconv.FormatInt(p.ID, 10))
	publish(ctx, s.Events, s.RequestID, "payment", events.PaymentRejected, paymentEvent(p))
	return p, nil
}

// review locks the registration before the payment, the same order Submit uses.
func (s PaymentService) review(ctx context.Context, paymentID, expectedVersion int64, fn func(tx *sql.Tx, reg models.Registration, p models.Payment) error) error {
	return intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		peek, err := s.Payments.Get(ctx, tx, paymentID, false)
		if err != nil {
			return err
		}
		reg, err := s.Registrations.Get(ctx, tx, peek.RegistrationID, true)
		if err != nil {
			return err
		}
		if expectedVersion > 0 && expectedVersion != reg.Version {
			return versionMismatch("registration")
		}
		p, err := s.Payments.Get(ctx, tx, paymentID, true)
		if err != nil {
			return err
		}
		return fn(tx, reg, p)
	})
}

// List returns the registration's payments, newest first.
func (s PaymentService) List(ctx context.Context, registrationID int64, rc domain.RequestContext) ([]models.Payment, error) {
	reg, err := s.Registrations.Get(ctx, s.DB, registrationID, false)
	if err != nil {
		return nil, intdb.MapErr("payment list", err)
	}
	if err := ownsRegistration(rc, reg); err != nil {
		return nil, err
	}
	list, err := s.Payments.ListByRegistration(ctx, s.DB, registrationID)
	return list, intdb.MapErr("payment list", err)
}

func paymentEvent(p models.Payment) events.PaymentEvent {
	return events.PaymentEvent{
		PaymentID:      p.ID,
		RegistrationID: p.RegistrationID,
		UserID:         p.UserID,
		Amount:         p.Amount,
		WalletAmount:   p.WalletAmount,
		Discount:       p.Discount,
		Status:         string(p.Status),
	}
}
