package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/ledgerview/backend/src/config"
	"github.com/username/ledgerview/backend/src/database"
	"github.com/username/ledgerview/backend/src/handlers"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/processors"
	"github.com/username/ledgerview/backend/src/security"
	"github.com/username/ledgerview/backend/src/services"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Ledgerview backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid: must be at least 32 characters.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.MigrationsPath)

	// Aggregator responses never expire; POST /api/banks/refresh evicts them.
	bankCache := cache.New(cache.NoExpiration, 0)

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)

	bankClient := services.NewBankClient(services.BankClientConfig{
		BaseURL:           config.Cfg.BankAPIBaseURL,
		ClientID:          config.Cfg.BankAPIClientID,
		ClientSecret:      config.Cfg.BankAPIClientSecret,
		Timeout:           config.Cfg.BankAPITimeout,
		RequestsPerSecond: config.Cfg.BankAPIRPS,
	})
	bankService := services.NewBankService(bankClient, bankCache)

	classifier := processors.NewClassifier(nil)
	aggregator := processors.NewAggregator(classifier, config.Cfg.TrailingPeriods)
	builder := processors.NewStatementBuilder(classifier, aggregator, config.Cfg.Ratios)
	statementService := services.NewStatementService(bankService, builder, aggregator)

	var archiver services.ReportArchiver = services.NoopArchiver{}
	if config.Cfg.ReportArchiveBucket != "" {
		gcs, err := services.NewGCSArchiver(context.Background(), config.Cfg.ReportArchiveBucket)
		if err != nil {
			logger.L.Error("Failed to create report archive client; exports will not be archived", "bucket", config.Cfg.ReportArchiveBucket, "error", err)
		} else {
			defer gcs.Close()
			archiver = gcs
			logger.L.Info("Report archive enabled", "bucket", config.Cfg.ReportArchiveBucket)
		}
	}
	exportService := services.NewExportService(database.DB, statementService, archiver)
	onboardingService := services.NewOnboardingService(database.DB, bankService)

	router := handlers.NewRouter(handlers.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		CSRF:       handlers.NewCSRFHandler(config.Cfg.CSRFAuthKey),
		Bank:       handlers.NewBankHandler(bankService),
		Statements: handlers.NewStatementHandler(statementService, exportService),
		Onboarding: handlers.NewOnboardingHandler(onboardingService),
	}, handlers.RouterOptions{
		AllowedOrigins: config.Cfg.AllowedOrigins,
		Limiter:        rate.NewLimiter(rate.Every(100*time.Millisecond), 30),
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		logger.L.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.L.Error("Graceful shutdown failed", "error", err)
		}
	}()

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	database.DB.Close()
}
