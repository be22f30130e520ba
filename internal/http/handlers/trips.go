package handlers

import (
	"net/http"

	"musafir/internal/domain/models"
	"musafir/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/trip/:id
func (h Handlers) GetTrip(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	trip, err := h.trips(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("ETag", `"`+itoa(trip.ContentVersion)+`"`)
	c.JSON(http.StatusOK, trip)
}

// POST /api/admin/trip
func (h Handlers) CreateTrip(c *gin.Context) {
	var body models.Trip
	if !BindJSONOrError(c, &body) {
		return
	}
	trip, err := h.trips(c).Create(c.Request.Context(), body)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

type tripUpdateRequest struct {
	ContentVersion int64 `json:"contentVersion" binding:"required,gt=0"`
	models.TripPatch
}

// PUT /api/admin/trip/:id
func (h Handlers) UpdateTrip(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body tripUpdateRequest
	if !BindJSONOrError(c, &body) {
		return
	}
	trip, err := h.trips(c).Update(c.Request.Context(), id, body.ContentVersion, body.TripPatch)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

type discountUpdateRequest struct {
	ContentVersion int64 `json:"contentVersion" binding:"required,gt=0"`
	services.DiscountEdit
}

// PUT /api/admin/trip/:id/discount/:kind
func (h Handlers) UpdateTripDiscount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body discountUpdateRequest
	if !BindJSONOrError(c, &body) {
		return
	}
	kind := models.DiscountKind(c.Param("kind"))
	trip, err := h.trips(c).UpdateDiscount(c.Request.Context(), id, kind, body.ContentVersion, body.DiscountEdit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}
