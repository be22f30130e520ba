package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"musafir/internal/domain"
	"musafir/internal/http/middleware"
	"musafir/internal/services"

	"github.com/gin-gonic/gin"
)

// Handlers binds HTTP routes to the services. Each request works on a copy
// stamped with its request id.
type Handlers struct {
	Trips         services.TripService
	Registrations services.RegistrationService
	Payments      services.PaymentService
	Wallet        services.WalletService
	Refunds       services.RefundService
	Receipts      services.ReceiptService
}

func (h Handlers) trips(c *gin.Context) services.TripService {
	s := h.Trips
	s.RequestID = middleware.GetRequestID(c)
	s.Ledger.RequestID = s.RequestID
	return s
}

func (h Handlers) registrations(c *gin.Context) services.RegistrationService {
	s := h.Registrations
	s.RequestID = middleware.GetRequestID(c)
	s.Ledger.RequestID = s.RequestID
	return s
}

func (h Handlers) payments(c *gin.Context) services.PaymentService {
	s := h.Payments
	s.RequestID = middleware.GetRequestID(c)
	s.Ledger.RequestID = s.RequestID
	s.Wallet.RequestID = s.RequestID
	return s
}

func (h Handlers) wallet(c *gin.Context) services.WalletService {
	s := h.Wallet
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h Handlers) refunds(c *gin.Context) services.RefundService {
	s := h.Refunds
	s.RequestID = middleware.GetRequestID(c)
	s.Wallet.RequestID = s.RequestID
	return s
}

func (h Handlers) receipts(c *gin.Context) services.ReceiptService {
	s := h.Receipts
	s.RequestID = middleware.GetRequestID(c)
	s.Registrations.RequestID = s.RequestID
	return s
}

// RespondError sends a plain error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	var details any
	if err != nil {
		details = err.Error()
	}
	respondError(c, status, "", message, details)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid payload", err.Error())
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

// expectedVersion reads the If-Match header, falling back to ?version=.
func expectedVersion(c *gin.Context) int64 {
	raw := strings.Trim(strings.TrimSpace(c.GetHeader("If-Match")), `"`)
	if raw == "" {
		raw = c.Query("version")
	}
	v, _ := strconv.ParseInt(raw, 10, 64)
	return v
}

func requestContext(c *gin.Context) domain.RequestContext {
	return middleware.Identity(c)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
