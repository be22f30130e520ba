package handlers

import (
	"net/http"

	"musafir/internal/domain"

	"github.com/gin-gonic/gin"
)

type refundRequest struct {
	RegistrationID int64  `json:"registrationId" binding:"required,gt=0"`
	Amount         *int64 `json:"amount"`
}

// POST /api/refund
func (h Handlers) RequestRefund(c *gin.Context) {
	var body refundRequest
	if !BindJSONOrError(c, &body) {
		return
	}
	rf, err := h.refunds(c).Request(c.Request.Context(), body.RegistrationID, requestContext(c), body.Amount)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rf)
}

// GET /api/refund/:id
func (h Handlers) GetRefund(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rf, err := h.refunds(c).Get(c.Request.Context(), id, requestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rf)
}

// POST /api/admin/refund/:id/:action
func (h Handlers) TransitionRefund(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	action := domain.RefundAction(c.Param("action"))
	rf, err := h.refunds(c).Transition(c.Request.Context(), id, action, requestContext(c).UserID, expectedVersion(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rf)
}
