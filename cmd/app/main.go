// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/config"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/adapter"
	payAdapters "github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/adapters/payment"
	pg "github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/db/postgres"
	httpapi "github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/http"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/logging"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/metrics"
	red "github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/redis"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/sched"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory provider, instant settlement)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (optional dedup fast path) ----
	var dedup usecase.WebhookDeduper
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		dedup = red.NewEventCache(redisClient, cfg.Redis.TTL, logger)
	} else {
		logger.Warn().Msg("redis.url not set, webhook dedup cache disabled")
	}

	// ---- Repositories ----
	listingRepo := pg.NewListingRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment provider ----
	var provider adapter.CheckoutProvider
	switch cfg.Payment.Provider {
	case "hostedpay":
		provider, err = payAdapters.NewHostedPayGateway(&cfg.Payment.HostedPay)
		if err != nil {
			logger.Fatal().Err(err).Msg("hostedpay gateway")
		}
	case "noop":
		provider = payAdapters.NewNoopProvider()
	default:
		logger.Fatal().Str("provider", cfg.Payment.Provider).Msg("unknown payment provider")
	}
	logger.Info().Str("provider", provider.Name()).Msg("payment provider selected")

	// ---- Use cases ----
	pricingUC, err := usecase.NewPricingUseCase(cfg.Billing.TierPrices, cfg.Billing.CycleDays)
	if err != nil {
		logger.Fatal().Err(err).Msg("tier catalog")
	}
	listingUC := usecase.NewListingUseCase(listingRepo, logger)
	checkoutUC := usecase.NewCheckoutUseCase(listingRepo, paymentRepo, pricingUC, provider, logger)
	notifier := payAdapters.NewLogNotifier(logger)
	reconcileUC := usecase.NewReconcileUseCase(paymentRepo, listingRepo, txManager, dedup, notifier, cfg.Billing.CycleDays, logger)

	// ---- HTTP server ----
	auth := httpapi.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.Password, cfg.Admin.TokenTTL)
	ledger := httpapi.NewLedgerHandler(paymentRepo, logger)
	server := httpapi.NewServer(cfg, listingUC, pricingUC, checkoutUC, reconcileUC, provider, auth, ledger, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Background workers ----
	expiry := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, listingUC, logger)
	go func() { _ = expiry.Run(ctx) }()
	watcher := sched.NewPendingWatcher(cfg.Scheduler.PendingWatchInterval, cfg.Scheduler.PendingStaleAfter, paymentRepo, logger)
	go func() { _ = watcher.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
