package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hollisdev/agencydesk/internal"
	"github.com/hollisdev/agencydesk/internal/billing"
	"github.com/hollisdev/agencydesk/internal/dispatch"
	"github.com/hollisdev/agencydesk/internal/handler"
	"github.com/hollisdev/agencydesk/internal/middleware"
	"github.com/hollisdev/agencydesk/internal/pricing"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/service"
	"github.com/hollisdev/agencydesk/internal/tax"
	"github.com/hollisdev/agencydesk/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Migrations run over database/sql; the application itself uses pgx.
	sqlDB, err := sql.Open("postgres", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info().Msg("database connection established")

	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info().Msg("database migrations completed")

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	var billingProvider billing.Provider
	if cfg.Stripe.SecretKey == "" && cfg.Env == "dev" {
		logger.Warn().Msg("no stripe key configured, using mock billing provider")
		billingProvider = billing.NewMockProvider()
	} else {
		stripeConfig := billing.StripeConfig{
			APIKey:        cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
		}
		provider, err := billing.NewStripeProvider(stripeConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize stripe provider: %w", err)
		}
		logger.Info().Bool("test_mode", stripeConfig.IsTestMode()).Msg("stripe billing provider initialized")
		billingProvider = provider
	}

	var dispatcher dispatch.Dispatcher = dispatch.NoopDispatcher{}
	nc, err := nats.Connect(cfg.Nats.URL, nats.Name("agencydesk-server"))
	if err != nil {
		if cfg.Env == "prod" {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		logger.Warn().Err(err).Msg("nats unavailable, order events will not be dispatched")
	} else {
		defer nc.Close()
		dispatcher = dispatch.NewNatsDispatcher(nc, cfg.Nats.Subject, logger)
		logger.Info().Str("url", cfg.Nats.URL).Msg("connected to nats")
	}

	var calculator tax.Calculator
	if cfg.TaxRate > 0 {
		calculator = tax.NewPercentageCalculator(cfg.TaxRate)
	} else {
		calculator = tax.NewNoTaxCalculator()
	}

	pricer, err := pricing.NewPricer(calculator)
	if err != nil {
		return fmt.Errorf("failed to initialize pricer: %w", err)
	}

	invoiceService, err := service.NewInvoiceService(store, service.InvoiceNumbering{
		Prefix:      cfg.Invoice.Prefix,
		StartNumber: cfg.Invoice.StartNumber,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize invoice service: %w", err)
	}

	businessMetrics := telemetry.NewBusinessMetrics()

	orderService, err := service.NewOrderService(
		store,
		billingProvider,
		pricer,
		invoiceService,
		dispatcher,
		businessMetrics,
		service.CheckoutURLs{
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize order service: %w", err)
	}

	h, err := handler.New(orderService, billingProvider, store, businessMetrics, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize handler: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.NewMetrics("agencydesk").Middleware())
	e.Use(middleware.RequestLogger(logger))
	h.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
