package api

import (
	"database/sql"
	"log"
	stdhttp "net/http"
	"time"

	intconfig "musafir/internal/config"
	"musafir/internal/domain"
	h "musafir/internal/http/handlers"
	"musafir/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Deps is what the router needs beyond configuration.
type Deps struct {
	DB       *sql.DB
	Redis    *redis.Client
	Handlers h.Handlers
}

func NewRouter(env intconfig.Env, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	hd := deps.Handlers
	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Capacity:       env.RateLimitCapacity,
		RefillTokens:   env.RateLimitRefill,
		RefillInterval: time.Second,
	}, deps.Redis)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/ready", h.Readiness(deps.DB, deps.Redis))

		authed := api.Group("")
		authed.Use(middleware.Auth(env.JWTSecret))

		authed.GET("/trip/:id", hd.GetTrip)

		authed.POST("/registration", limit, hd.CreateRegistration)
		authed.GET("/registration/:id", hd.GetRegistration)
		authed.POST("/registration/:id/cancel", hd.CancelRegistration)
		authed.GET("/registration/:id/receipt", hd.RegistrationReceipt)
		authed.GET("/registration/:id/payments", hd.ListPayments)
		authed.GET("/discount-eligibility/:registrationId", hd.DiscountEligibility)

		authed.POST("/payment", limit, hd.SubmitPayment)

		wallet := authed.Group("/wallet")
		wallet.GET("/summary", hd.WalletSummary)
		wallet.GET("/transactions", hd.WalletTransactions)
		wallet.POST("/topup", limit, hd.CreateTopup)

		authed.POST("/refund", limit, hd.RequestRefund)
		authed.GET("/refund/:id", hd.GetRefund)

		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRoles(domain.RoleAdmin))
		admin.GET("/routes", h.Routes)
		admin.POST("/trip", hd.CreateTrip)
		admin.PUT("/trip/:id", hd.UpdateTrip)
		admin.PUT("/trip/:id/discount/:kind", hd.UpdateTripDiscount)
		admin.POST("/payment/:id/approve", hd.ApprovePayment)
		admin.POST("/payment/:id/reject", hd.RejectPayment)
		admin.GET("/topups", hd.ListTopups)
		admin.POST("/topup/:id/credit", hd.CreditTopup)
		admin.POST("/topup/:id/reject", hd.RejectTopup)
		admin.POST("/refund/:id/:action", hd.TransitionRefund)
	}

	h.SetRouter(r)
	return r
}
