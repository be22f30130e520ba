package handlers

import (
	"net/http"

	"musafir/internal/domain/models"

	"github.com/gin-gonic/gin"
)

type paymentRequest struct {
	RegistrationID int64                `json:"registrationId" binding:"required,gt=0"`
	Amount         int64                `json:"amount" binding:"gte=0,lte=1000000000000"`
	WalletAmount   int64                `json:"walletAmount" binding:"gte=0,lte=1000000000000"`
	WalletUseID    string               `json:"walletUseId" binding:"max=64"`
	DiscountType   *models.DiscountKind `json:"discountType"`
	Screenshot     string               `json:"screenshot" binding:"max=512"`
}

// POST /api/payment
func (h Handlers) SubmitPayment(c *gin.Context) {
	var body paymentRequest
	if !BindJSONOrError(c, &body) {
		return
	}
	rc := requestContext(c)
	res, err := h.payments(c).Submit(c.Request.Context(), models.PaymentSubmission{
		RegistrationID: body.RegistrationID,
		UserID:         rc.UserID,
		CashAmount:     body.Amount,
		WalletAmount:   body.WalletAmount,
		WalletUseID:    body.WalletUseID,
		DiscountKind:   body.DiscountType,
		ProofRef:       body.Screenshot,

		ExpectedVersion: expectedVersion(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// GET /api/registration/:id/payments
func (h Handlers) ListPayments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.payments(c).List(c.Request.Context(), id, requestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

// POST /api/admin/payment/:id/approve
func (h Handlers) ApprovePayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.payments(c).Approve(c.Request.Context(), id, requestContext(c).UserID, expectedVersion(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// POST /api/admin/payment/:id/reject
func (h Handlers) RejectPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body rejectRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &body) {
		return
	}
	p, err := h.payments(c).Reject(c.Request.Context(), id, requestContext(c).UserID, expectedVersion(c), body.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
