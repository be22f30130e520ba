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

type RegistrationService struct {
	DB            *sql.DB
	Trips         repositories.TripRepository
	Registrations repositories.RegistrationRepository
	Payments      repositories.PaymentRepository
	Linker        GroupLinker
	Ledger        DiscountLedger
	Policy        domain.DiscountPolicy
	Events        events.Publisher
	Now           func() time.Time
	RequestID     string
}

type RegistrationInput struct {
	TripID     int64
	UserID     int64
	Email      string
	TripType   models.TripType
	Members    []string
	Selections models.Selections
	Profile    models.Profile
}

type RegistrationResult struct {
	RegistrationID    int64                        `json:"registrationId"`
	Price             int64                        `json:"price"`
	Status            models.RegistrationStatus    `json:"status"`
	PaymentStatus     string                       `json:"paymentStatus,omitempty"`
	LinkConflicts     []models.LinkConflict        `json:"linkConflicts"`
	GroupDiscount     models.GroupDiscountFeedback `json:"groupDiscount"`
	AlreadyRegistered bool                         `json:"alreadyRegistered"`
}

// PaymentRef is the latest payment of a registration.
type PaymentRef struct {
	ID     int64                `json:"id"`
	Status models.PaymentStatus `json:"status"`
}

type RegistrationView struct {
	models.Registration
	Payment *PaymentRef `json:"paymentId,omitempty"`
}

var errRegistrationRace = errors.New("registration created concurrently")

func (in RegistrationInput) validate() error {
	if in.TripID <= 0 {
		return domain.ValidationError{Field: "tripId", Msg: "required"}
	}
	if in.UserID <= 0 {
		return domain.ValidationError{Field: "userId", Msg: "required"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return domain.ValidationError{Field: "email", Msg: "required"}
	}
	if !in.TripType.Valid() {
		return domain.ValidationError{Field: "tripType", Msg: "must be solo, group or partner"}
	}
	if in.Profile.CommunityTenureMonth < 0 {
		return domain.ValidationError{Field: "communityTenureMonths", Msg: "must not be negative"}
	}
	return nil
}

// CreateOrUpdate registers the user for the trip once. A second call returns
// the existing registration with AlreadyRegistered set; while its discount is
// not locked its selections and members are re-resolved.
func (s RegistrationService) CreateOrUpdate(ctx context.Context, in RegistrationInput) (RegistrationResult, error) {
	if err := in.validate(); err != nil {
		return RegistrationResult{}, err
	}
	in.Email = utils.NormalizeEmail(in.Email)
	in.Selections.TripType = in.TripType

	var (
		res     RegistrationResult
		created bool
		err     error
	)
	for attempt := 0; attempt < 2; attempt++ {
		res, created, err = s.createOrUpdateOnce(ctx, in)
		if !errors.Is(err, errRegistrationRace) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, errRegistrationRace) {
			return RegistrationResult{}, domain.TransientError{Op: "registration", Err: err}
		}
		return RegistrationResult{}, err
	}

	if created {
		utils.LogEvent(s.RequestID, "registration", "create", "registration_id="+strconv.FormatInt(res.RegistrationID, 10))
		publish(ctx, s.Events, s.RequestID, "registration", events.RegistrationCreated, events.RegistrationEvent{
			RegistrationID: res.RegistrationID,
			TripID:         in.TripID,
			UserID:         in.UserID,
			Status:         string(res.Status),
			Price:          res.Price,
		})
	}
	return res, nil
}

func (s RegistrationService) createOrUpdateOnce(ctx context.Context, in RegistrationInput) (RegistrationResult, bool, error) {
	var (
		out     RegistrationResult
		created bool
	)
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		trip, err := s.Trips.Get(ctx, tx, in.TripID)
		if err != nil {
			return err
		}
		if err := domain.ValidateSelections(trip, in.Selections); err != nil {
			return err
		}
		price := domain.Quote(trip, in.Selections, clock(s.Now).now())

		reg, found, err := s.Registrations.FindByTripUser(ctx, tx, in.TripID, in.UserID)
		if err != nil {
			return err
		}

		if found {
			out.AlreadyRegistered = true
			if editable(reg) {
				reg.TripType = in.TripType
				reg.Selections = in.Selections
				reg.Profile = in.Profile
				reg.Price = price
				if err := s.Registrations.UpdateDetails(ctx, tx, reg); err != nil {
					return err
				}
				if err := s.resolveLinks(ctx, tx, trip.ID, reg, in, &out); err != nil {
					return err
				}
			}
			latest, err := s.latestPayment(ctx, tx, reg.ID)
			if err != nil {
				return err
			}
			if latest != nil {
				out.PaymentStatus = string(latest.Status)
			}
		} else {
			status := models.RegistrationNew
			if trip.SeatCapacity > 0 {
				seated, err := s.Registrations.CountSeated(ctx, tx, trip.ID)
				if err != nil {
					return err
				}
				if seated >= trip.SeatCapacity {
					status = models.RegistrationWaitlisted
				}
			}
			reg = models.Registration{
				TripID:     trip.ID,
				UserID:     in.UserID,
				Email:      in.Email,
				TripType:   in.TripType,
				Selections: in.Selections,
				Profile:    in.Profile,
				Price:      price,
				Status:     status,
			}
			id, err := s.Registrations.Insert(ctx, tx, reg)
			if err != nil {
				if intdb.IsDuplicate(err) {
					return errRegistrationRace
				}
				return err
			}
			reg.ID = id
			created = true
			if err := s.resolveLinks(ctx, tx, trip.ID, reg, in, &out); err != nil {
				return err
			}
		}

		group, _, err := s.Linker.State(ctx, tx, reg)
		if err != nil {
			return err
		}
		out.RegistrationID = reg.ID
		out.Price = reg.Price
		out.Status = reg.Status
		out.GroupDiscount = domain.GroupFeedback(s.Policy, trip, reg, group)
		if out.LinkConflicts == nil {
			out.LinkConflicts = []models.LinkConflict{}
		}
		return nil
	})
	return out, created, err
}

func (s RegistrationService) resolveLinks(ctx context.Context, tx intdb.Querier, tripID int64, reg models.Registration, in RegistrationInput, out *RegistrationResult) error {
	res, err := s.Linker.Resolve(ctx, tx, tripID, reg.ID, reg.TripType, in.Members, reg.Email)
	if err != nil {
		return err
	}
	out.LinkConflicts = res.Conflicts
	return nil
}

func editable(reg models.Registration) bool {
	if reg.Cancelled() || reg.DiscountLocked() {
		return false
	}
	switch reg.Status {
	case models.RegistrationNew, models.RegistrationOnboarding, models.RegistrationWaitlisted:
		return true
	}
	return false
}

func (s RegistrationService) latestPayment(ctx context.Context, q intdb.Querier, registrationID int64) (*models.Payment, error) {
	list, err := s.Payments.ListByRegistration(ctx, q, registrationID)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// Get returns the registration with its members, settled total and amount due.
func (s RegistrationService) Get(ctx context.Context, id int64, rc domain.RequestContext) (RegistrationView, error) {
	reg, err := s.Registrations.Get(ctx, s.DB, id, false)
	if err != nil {
		return RegistrationView{}, intdb.MapErr("registration get", err)
	}
	if err := ownsRegistration(rc, reg); err != nil {
		return RegistrationView{}, err
	}
	view, err := s.view(ctx, s.DB, reg)
	return view, intdb.MapErr("registration get", err)
}

func (s RegistrationService) view(ctx context.Context, q intdb.Querier, reg models.Registration) (RegistrationView, error) {
	members, err := s.Linker.Links.ActiveEmails(ctx, q, reg.ID)
	if err != nil {
		return RegistrationView{}, err
	}
	settled, err := s.Payments.SettledTotal(ctx, q, reg.ID)
	if err != nil {
		return RegistrationView{}, err
	}
	latest, err := s.latestPayment(ctx, q, reg.ID)
	if err != nil {
		return RegistrationView{}, err
	}
	reg.Members = members
	reg.SettledTotal = settled
	reg.AmountDue = models.ComputeAmountDue(reg.Price, settled, reg.DiscountApplied)
	view := RegistrationView{Registration: reg}
	if latest != nil {
		view.Payment = &PaymentRef{ID: latest.ID, Status: latest.Status}
	}
	return view, nil
}

// Eligibility evaluates every discount kind for the registration without reserving anything.
func (s RegistrationService) Eligibility(ctx context.Context, id int64, rc domain.RequestContext) (models.EligibilityReport, error) {
	reg, err := s.Registrations.Get(ctx, s.DB, id, false)
	if err != nil {
		return models.EligibilityReport{}, intdb.MapErr("eligibility", err)
	}
	if err := ownsRegistration(rc, reg); err != nil {
		return models.EligibilityReport{}, err
	}
	trip, err := s.Trips.Get(ctx, s.DB, reg.TripID)
	if err != nil {
		return models.EligibilityReport{}, intdb.MapErr("eligibility", err)
	}
	group, _, err := s.Linker.State(ctx, s.DB, reg)
	if err != nil {
		return models.EligibilityReport{}, intdb.MapErr("eligibility", err)
	}
	return domain.EvaluateAll(s.Policy, trip, reg, group), nil
}

// Cancel stamps cancelledAt, drops the registration's group links and, unless
// the registration is confirmed, releases its held discount reservation.
// expectedVersion of 0 skips the version check.
func (s RegistrationService) Cancel(ctx context.Context, id int64, rc domain.RequestContext, expectedVersion int64) (RegistrationView, error) {
	var (
		view     RegistrationView
		released []models.Reservation
	)
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		reg, err := s.Registrations.Get(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := ownsRegistration(rc, reg); err != nil {
			return err
		}
		if expectedVersion > 0 && expectedVersion != reg.Version {
			return versionMismatch("registration")
		}
		if !reg.Cancelled() {
			now := clock(s.Now).now()
			if _, err := s.Registrations.Cancel(ctx, tx, reg.ID, now); err != nil {
				return err
			}
			if err := s.Linker.Links.Deactivate(ctx, tx, reg.ID); err != nil {
				return err
			}
			if reg.Status != models.RegistrationConfirmed {
				released, err = s.Ledger.ReleaseHeld(ctx, tx, reg.ID)
				if err != nil {
					return err
				}
				if len(released) > 0 {
					if err := s.Registrations.ClearDiscount(ctx, tx, reg.ID); err != nil {
						return err
					}
				}
			}
		}
		reg, err = s.Registrations.Get(ctx, tx, id, false)
		if err != nil {
			return err
		}
		view, err = s.view(ctx, tx, reg)
		return err
	})
	if err != nil {
		return RegistrationView{}, err
	}
	s.Ledger.Released(ctx, released)
	utils.LogEvent(s.RequestID, "registration", "cancel", "registration_id="+strconv.FormatInt(id, 10))
	return view, nil
}
