package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"musafir/internal/domain/models"
	"musafir/internal/http/middleware"
	"musafir/internal/services"

	"github.com/gin-gonic/gin"
)

type registrationRequest struct {
	TripID     int64             `json:"tripId" binding:"required,gt=0"`
	TripType   models.TripType   `json:"tripType" binding:"required"`
	Email      string            `json:"email"`
	Members    []string          `json:"members"`
	Selections models.Selections `json:"selections"`
	Profile    models.Profile    `json:"profile"`
}

// POST /api/registration
func (h Handlers) CreateRegistration(c *gin.Context) {
	var body registrationRequest
	if !BindJSONOrError(c, &body) {
		return
	}
	rc := requestContext(c)
	email := middleware.Email(c)
	if email == "" {
		email = body.Email
	}
	res, err := h.registrations(c).CreateOrUpdate(c.Request.Context(), services.RegistrationInput{
		TripID:     body.TripID,
		UserID:     rc.UserID,
		Email:      email,
		TripType:   body.TripType,
		Members:    body.Members,
		Selections: body.Selections,
		Profile:    body.Profile,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	status := http.StatusCreated
	if res.AlreadyRegistered {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// GET /api/registration/:id
func (h Handlers) GetRegistration(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	view, err := h.registrations(c).Get(c.Request.Context(), id, requestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// POST /api/registration/:id/cancel
func (h Handlers) CancelRegistration(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	view, err := h.registrations(c).Cancel(c.Request.Context(), id, requestContext(c), expectedVersion(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/discount-eligibility/:registrationId
func (h Handlers) DiscountEligibility(c *gin.Context) {
	id, ok := idParam(c, "registrationId")
	if !ok {
		return
	}
	report, err := h.registrations(c).Eligibility(c.Request.Context(), id, requestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/registration/:id/receipt
func (h Handlers) RegistrationReceipt(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := h.receipts(c).Generate(c.Request.Context(), id, requestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	disposition := "attachment"
	if strings.EqualFold(c.Query("inline"), "true") {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
