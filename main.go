package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"musafir/internal/budget"
	intconfig "musafir/internal/config"
	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/events"
	router "musafir/internal/http"
	"musafir/internal/http/handlers"
	"musafir/internal/repositories"
	"musafir/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := intdb.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	rdb := intconfig.NewRedisClient(env)
	if rdb != nil {
		defer rdb.Close()
	}

	var pub events.Publisher = events.Nop{}
	if env.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(env.AMQPURL, env.AMQPExchange)
		if err != nil {
			log.Printf("warning: events disabled: %v", err)
		} else {
			defer amqpPub.Close()
			pub = amqpPub
		}
	}

	policy := domain.DiscountPolicy{
		GroupMinSize:           env.GroupMinSize,
		MusafirMinTenureMonths: env.MusafirMinTenureMonths,
	}

	r := router.NewRouter(env, router.Deps{
		DB:       db,
		Redis:    rdb,
		Handlers: wire(db, budget.NewGate(rdb, env.BudgetGateTTL), pub, policy),
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}

	log.Println("server stopped.")
}

func wire(db *sql.DB, gate *budget.Gate, pub events.Publisher, policy domain.DiscountPolicy) handlers.Handlers {
	trips := repositories.TripRepository{}
	regs := repositories.RegistrationRepository{}
	payments := repositories.PaymentRepository{}

	ledger := services.DiscountLedger{DB: db, Repo: repositories.DiscountRepository{}, Gate: gate}
	linker := services.GroupLinker{Links: repositories.LinkRepository{}}
	wallet := services.WalletService{
		DB:     db,
		Repo:   repositories.WalletRepository{},
		Topups: repositories.TopupRepository{},
		Events: pub,
	}
	registrations := services.RegistrationService{
		DB:            db,
		Trips:         trips,
		Registrations: regs,
		Payments:      payments,
		Linker:        linker,
		Ledger:        ledger,
		Policy:        policy,
		Events:        pub,
	}

	return handlers.Handlers{
		Trips: services.TripService{
			DB:        db,
			Trips:     trips,
			Discounts: repositories.DiscountRepository{},
			Ledger:    ledger,
		},
		Registrations: registrations,
		Payments: services.PaymentService{
			DB:            db,
			Trips:         trips,
			Registrations: regs,
			Payments:      payments,
			Wallet:        wallet,
			Ledger:        ledger,
			Linker:        linker,
			Policy:        policy,
			Events:        pub,
		},
		Wallet: wallet,
		Refunds: services.RefundService{
			DB:            db,
			Refunds:       repositories.RefundRepository{},
			Registrations: regs,
			Payments:      payments,
			Wallet:        wallet,
			Events:        pub,
		},
		Receipts: services.ReceiptService{Registrations: registrations},
	}
}
