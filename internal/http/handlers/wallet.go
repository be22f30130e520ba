package handlers

import (
	"net/http"
	"strconv"

	"musafir/internal/domain"

	"github.com/gin-gonic/gin"
)

// GET /api/wallet/summary
func (h Handlers) WalletSummary(c *gin.Context) {
	sum, err := h.wallet(c).Summary(c.Request.Context(), requestContext(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GET /api/wallet/transactions?cursor=&limit=
func (h Handlers) WalletTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	page, err := h.wallet(c).Transactions(c.Request.Context(), requestContext(c).UserID, c.Query("cursor"), limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type topupRequest struct {
	PackageAmount int64 `json:"packageAmount" binding:"required,gt=0"`
}

// POST /api/wallet/topup
func (h Handlers) CreateTopup(c *gin.Context) {
	var body topupRequest
	if !BindJSONOrError(c, &body) {
		return
	}
	t, err := h.wallet(c).CreateTopup(c.Request.Context(), requestContext(c).UserID, body.PackageAmount)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GET /api/admin/topups?status=&page=&pageSize=
func (h Handlers) ListTopups(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("pageSize"))
	list, p, err := h.wallet(c).ListTopups(c.Request.Context(), c.Query("status"), domain.Pagination{Page: page, PageSize: size})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list, "pagination": p})
}

// POST /api/admin/topup/:id/credit
func (h Handlers) CreditTopup(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	t, err := h.wallet(c).CreditTopup(c.Request.Context(), id, requestContext(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// POST /api/admin/topup/:id/reject
func (h Handlers) RejectTopup(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	t, err := h.wallet(c).RejectTopup(c.Request.Context(), id, requestContext(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
