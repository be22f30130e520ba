package services

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"musafir/internal/budget"
	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/domain/models"
	"musafir/internal/repositories"
	"musafir/internal/utils"
)

// DiscountLedger allocates capped discount budgets. The conditional UPDATE in
// DiscountRepository.Consume is what enforces the caps; the Redis gate only
// turns callers away early when the mirror says the budget is gone.
type DiscountLedger struct {
	DB        *sql.DB
	Repo      repositories.DiscountRepository
	Gate      *budget.Gate
	Now       func() time.Time
	RequestID string
}

// Hold is a reservation made inside a transaction that has not committed yet.
type Hold struct {
	Reservation models.Reservation
	Existing    bool
	ticket      budget.Ticket
}

func budgetExhausted() error {
	return domain.ConflictError{Code: domain.CodeBudgetExhausted, Resource: "discount", Msg: "discount budget exhausted"}
}

// Reserve takes count units of kind for the registration inside tx. A held
// reservation for the same (registration, kind) is returned as is. The caller
// must call Abandon with the hold if tx does not commit.
func (l DiscountLedger) Reserve(ctx context.Context, tx intdb.Querier, tripID int64, kind models.DiscountKind, registrationID, count int64) (Hold, error) {
	if count <= 0 {
		return Hold{}, domain.ValidationError{Field: "count", Msg: "must be positive"}
	}
	prev, found, err := l.Repo.FindReservation(ctx, tx, registrationID, kind)
	if err != nil {
		return Hold{}, err
	}
	if found && prev.Status == models.ReservationHeld {
		return Hold{Reservation: prev, Existing: true}, nil
	}

	b, err := l.Repo.GetBudget(ctx, tx, tripID, kind, false)
	if err != nil {
		return Hold{}, err
	}
	if !b.Enabled || b.AmountPerUnit <= 0 {
		return Hold{}, budgetExhausted()
	}
	amount := b.AmountPerUnit * count

	ticket, err := l.Gate.TryTake(ctx, tripID, kind, count, amount, l.loader(tx, tripID, kind))
	if err != nil {
		return Hold{}, err
	}
	if !ticket.Admitted {
		return Hold{}, budgetExhausted()
	}

	ok, err := l.Repo.Consume(ctx, tx, tripID, kind, count, amount)
	if err != nil || !ok {
		l.Gate.Give(ctx, ticket)
		if err != nil {
			return Hold{}, err
		}
		return Hold{}, budgetExhausted()
	}

	res := models.Reservation{
		TripID:         tripID,
		RegistrationID: registrationID,
		Kind:           kind,
		Count:          count,
		Amount:         amount,
		Status:         models.ReservationHeld,
		CreatedAt:      clock(l.Now).now(),
	}
	if found {
		err = l.Repo.Rehold(ctx, tx, prev.ID, count, amount)
		res.ID = prev.ID
	} else {
		res.ID, err = l.Repo.InsertReservation(ctx, tx, res)
	}
	if err != nil {
		l.Gate.Give(ctx, ticket)
		return Hold{}, err
	}
	utils.LogEvent(l.RequestID, "discount", "reserve", "registration_id="+strconv.FormatInt(registrationID, 10)+" kind="+string(kind))
	return Hold{Reservation: res, ticket: ticket}, nil
}

// Abandon returns the gate admission of a hold whose transaction rolled back.
func (l DiscountLedger) Abandon(ctx context.Context, h Hold) {
	l.Gate.Give(ctx, h.ticket)
}

// Release reverses a held reservation inside tx. Releasing twice is a no-op
// and reports false. Call Released after commit.
func (l DiscountLedger) Release(ctx context.Context, tx intdb.Querier, res models.Reservation) (bool, error) {
	ok, err := l.Repo.MarkReleased(ctx, tx, res.ID, clock(l.Now).now())
	if err != nil || !ok {
		return false, err
	}
	if err := l.Repo.Restore(ctx, tx, res.TripID, res.Kind, res.Count, res.Amount); err != nil {
		return false, err
	}
	utils.LogEvent(l.RequestID, "discount", "release", "reservation_id="+strconv.FormatInt(res.ID, 10))
	return true, nil
}

// ReleaseHeld releases every held reservation of a registration.
func (l DiscountLedger) ReleaseHeld(ctx context.Context, tx intdb.Querier, registrationID int64) ([]models.Reservation, error) {
	held, err := l.Repo.HeldReservations(ctx, tx, registrationID)
	if err != nil {
		return nil, err
	}
	out := []models.Reservation{}
	for _, res := range held {
		ok, err := l.Release(ctx, tx, res)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, res)
		}
	}
	return out, nil
}

// Released gives committed releases back to the gate mirror.
func (l DiscountLedger) Released(ctx context.Context, released []models.Reservation) {
	for _, res := range released {
		l.Gate.Restore(ctx, res.TripID, res.Kind, res.Count, res.Amount)
	}
}

// loader seeds the gate from a plain read, outside of any row lock.
func (l DiscountLedger) loader(tx intdb.Querier, tripID int64, kind models.DiscountKind) budget.Loader {
	return func(ctx context.Context) (models.DiscountBudget, error) {
		var q intdb.Querier = tx
		if l.DB != nil {
			q = l.DB
		}
		return l.Repo.GetBudget(ctx, q, tripID, kind, false)
	}
}
