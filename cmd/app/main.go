// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ev-marketplace/internal/config"
	"ev-marketplace/internal/domain/model"
	esignAdapters "ev-marketplace/internal/infra/adapters/esign"
	payAdapters "ev-marketplace/internal/infra/adapters/payment"
	"ev-marketplace/internal/infra/api"
	pg "ev-marketplace/internal/infra/db/postgres"
	"ev-marketplace/internal/infra/logging"
	"ev-marketplace/internal/infra/metrics"
	red "ev-marketplace/internal/infra/redis"
	"ev-marketplace/internal/infra/sched"
	"ev-marketplace/internal/infra/web"
	"ev-marketplace/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateways, console logs)")
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
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	listingRepo := pg.NewListingRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	packageRepo := pg.NewPackageRepoCacheDecorator(pg.NewPackageRepo(pool), redisClient, cfg.Redis.TTL)
	optionRepo := pg.NewPackageOptionRepo(pool)
	accountRepo := pg.NewAccountRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Payment gateways ----
	gateways := usecase.NewGateways()
	if cfg.Runtime.Dev {
		noop := payAdapters.NewNoopGateway()
		gateways.Register(model.PaymentMethodVNPay, noop)
		gateways.Register(model.PaymentMethodMoMo, noop)
	} else {
		gateways.Register(model.PaymentMethodVNPay, payAdapters.NewVNPayGateway(cfg.Payment.VNPay))
		gateways.Register(model.PaymentMethodMoMo, payAdapters.NewMoMoGateway(cfg.Payment.MoMo))
	}

	// ---- Use cases ----
	payUC := usecase.NewPaymentUseCase(paymentRepo, listingRepo, packageRepo, optionRepo, gateways, tm, locker, cfg.Callback.ReturnURL, logger)
	listingUC := usecase.NewListingUseCase(listingRepo, paymentRepo, packageRepo, optionRepo, payUC, tm, logger)
	renewalUC := usecase.NewRenewalUseCase(listingRepo, paymentRepo, packageRepo, optionRepo, payUC, tm, logger)
	verifyUC := usecase.NewVerificationUseCase(listingRepo, paymentRepo, optionRepo, tm, logger)

	esignProvider := esignAdapters.NewNoopProvider()

	// ---- Callback server ----
	cbServer := api.NewServer(payUC, gateways, logger)
	go func() {
		if err := cbServer.Start(cfg.Callback.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("callback server stopped")
		}
	}()

	// ---- Web server ----
	auth := web.NewAuthManager(cfg.Web.JWTSecret, cfg.Web.SessionTTL)
	webServer := web.NewServer(listingUC, renewalUC, verifyUC, payUC,
		packageRepo, optionRepo, accountRepo, esignProvider, auth, cfg.Web.BootstrapKey, logger)
	go func() {
		if err := webServer.Start(cfg.Web.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("web server stopped")
		}
	}()

	// ---- Scheduled workers ----
	reconciler := sched.NewPaymentReconciler(payUC, cfg.Sched.ReconcileInterval, cfg.Sched.StaleAfter, logger)
	go reconciler.Run(ctx)
	expiry := sched.NewListingExpiryWorker(listingUC, cfg.Sched.ExpiryInterval, logger)
	go expiry.Run(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = webServer.Shutdown(shutdownCtx)
	_ = cbServer.Shutdown(shutdownCtx)
}
