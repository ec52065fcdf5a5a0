package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"saferide/internal/app"
	"saferide/internal/auth"
	"saferide/internal/config"
	"saferide/internal/handler"
	"saferide/internal/mpesa"
	"saferide/internal/pricing"
	internalRedis "saferide/internal/redis"
	"saferide/internal/repository/postgres"
	"saferide/internal/service"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	server, pricingService := wireServer(db, redisClient, nrApp, cfg, log)

	// Seed default pricing keys so quotes work on a fresh database.
	if err := pricingService.Seed(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed pricing configuration")
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *logrus.Logger) (*http.Server, *pricing.Service) {
	store := postgres.NewStore(db)

	paramsCache := internalRedis.NewParamsCache(redisClient)
	tokenCache := internalRedis.NewTokenCache(redisClient)

	pricingService := pricing.NewService(store.Config(), paramsCache, cfg.Pricing.CacheTTL)

	gateway := mpesa.NewClient(mpesa.ClientConfig{
		BaseURL:        cfg.MPesa.BaseURL,
		ConsumerKey:    cfg.MPesa.ConsumerKey,
		ConsumerSecret: cfg.MPesa.ConsumerSecret,
		ShortCode:      cfg.MPesa.ShortCode,
		Passkey:        cfg.MPesa.Passkey,
		CallbackURL:    cfg.MPesa.CallbackURL,
		Timeout:        cfg.MPesa.Timeout,
	}, tokenCache)

	var fallback mpesa.Gateway
	if cfg.MPesa.SimulatedFallback {
		fallback = mpesa.NewSimulator()
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userService := service.NewUserService(store, tokens, cfg.Auth.BcryptCost, log)
	tripService := service.NewTripService(store, pricingService, cfg.Trip.AutoSettlePayment, log)
	paymentService := service.NewPaymentService(store, gateway, fallback, log)
	driverService := service.NewDriverService(store, log)
	adminService := service.NewAdminService(store, pricingService, log)

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:    handler.NewAuthHandler(userService),
		TripHandler:    handler.NewTripHandler(tripService),
		PaymentHandler: handler.NewPaymentHandler(paymentService),
		DriverHandler:  handler.NewDriverHandler(driverService),
		AdminHandler:   handler.NewAdminHandler(adminService),
		Tokens:         tokens,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, pricingService
}
