package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ecomcore/purchasing-core/internal/config"
	"github.com/ecomcore/purchasing-core/internal/coupon"
	"github.com/ecomcore/purchasing-core/internal/handler"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/orchestrator"
	"github.com/ecomcore/purchasing-core/internal/outbox"
	"github.com/ecomcore/purchasing-core/internal/outbox/handlers"
	"github.com/ecomcore/purchasing-core/internal/payment"
	"github.com/ecomcore/purchasing-core/internal/pg"
	"github.com/ecomcore/purchasing-core/internal/reconcile"
	"github.com/ecomcore/purchasing-core/internal/repository"
	"github.com/ecomcore/purchasing-core/internal/reservation"
	"github.com/ecomcore/purchasing-core/internal/validator"
	"github.com/ecomcore/purchasing-core/migrations"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)
	for _, warning := range cfg.WarnIfDefaultCredentials() {
		log.Warn().Msg(warning)
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database migrations")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Purchasing Core",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := validator.New()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	outboxRepo := repository.NewOutboxRepository(pool)

	// Domain engines
	resEngine := reservation.New(userRepo, productRepo)
	redeemer := coupon.New(couponRepo)
	paymentSM := payment.New(paymentRepo)

	// Outbox: the bridge persists events inside the caller's transaction,
	// the publisher fans a dispatched row out to in-process handlers, and
	// the dispatcher is the only thing that ever calls the publisher.
	bridge := outbox.NewBridge(outboxRepo)
	publisher := outbox.NewPublisher()
	publisher.Subscribe(model.EventPaymentFailed, handlers.PointRefundHandler)
	publisher.Subscribe(model.EventOrderCanceled, handlers.StockRestockHandler)
	dispatcher := outbox.NewDispatcher(outboxRepo, pool, publisher, 2*time.Second, 100)

	// Payment gateway port: the online path goes through the circuit
	// breaker directly, the reconciliation loop goes through the
	// backoff-wrapped scheduler adapter around the same HTTP adapter.
	onlinePG := pg.NewHTTPAdapter(cfg.PG, cfg.Breaker)
	recoveryPG := pg.NewSchedulerAdapter(onlinePG, cfg.PG)

	orch := orchestrator.New(pool, pool, resEngine, redeemer, paymentSM, bridge,
		orderRepo, paymentRepo, userRepo, onlinePG, recoveryPG, cfg.PG)

	reconcileLoop := reconcile.New(paymentRepo, userRepo, orch, recoveryPG,
		cfg.Reconcile.Interval, cfg.Reconcile.StaleThreshold, cfg.Reconcile.BatchSize)

	// Handlers
	orderHandler := handler.NewOrderHandler(orch, userRepo, validate)
	callbackHandler := handler.NewCallbackHandler(orch, validate)
	reconciliationHandler := handler.NewReconciliationHandler(reconcileLoop)
	healthHandler := handler.NewHealthHandler(pool)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")
	api.Post("/orders", orderHandler.CreateOrder)
	api.Get("/orders", orderHandler.ListOrders)
	api.Get("/orders/:id", orderHandler.GetOrder)
	api.Post("/orders/:id/cancel", orderHandler.CancelOrder)
	api.Post("/orders/:id/callback", callbackHandler.Handle)
	api.Get("/reconciliation/report", reconciliationHandler.Report)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	bg, bgGroupCtx := errgroup.WithContext(bgCtx)
	bg.Go(func() error {
		dispatcher.Run(bgGroupCtx)
		return nil
	})
	bg.Go(func() error {
		reconcileLoop.Run(bgGroupCtx)
		return nil
	})

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	bgCancel()
	if err := bg.Wait(); err != nil {
		log.Error().Err(err).Msg("background loop exited with error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
