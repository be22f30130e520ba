package services

import (
	"context"
	"time"

	"musafir/internal/domain"
	"musafir/internal/domain/models"
	"musafir/internal/events"
	"musafir/internal/utils"
)

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return utils.NowUTC()
	}
	return c().UTC()
}

// publish sends an event after commit. Failures are only logged.
func publish(ctx context.Context, pub events.Publisher, requestID, module, key string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, key, payload); err != nil {
		utils.LogEvent(requestID, module, "publish", key+" failed: "+err.Error())
	}
}

// ownsRegistration hides other users' registrations behind not-found.
func ownsRegistration(rc domain.RequestContext, reg models.Registration) error {
	if rc.IsAdmin() || rc.UserID == reg.UserID {
		return nil
	}
	return domain.NotFoundError{Resource: "registration"}
}

func versionMismatch(resource string) error {
	return domain.ConflictError{Code: domain.CodeVersionMismatch, Resource: resource, Msg: "modified concurrently, reload and retry"}
}

func invalidTransition(resource, msg string) error {
	return domain.ConflictError{Code: domain.CodeInvalidTransition, Resource: resource, Msg: msg}
}
