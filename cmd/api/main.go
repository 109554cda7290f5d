package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/mfracassi/clubdesk/cmd/mainconfig"
	"github.com/mfracassi/clubdesk/internal/api/router"
	appconfig "github.com/mfracassi/clubdesk/internal/config"
	"github.com/mfracassi/clubdesk/internal/http/handlers"
	"github.com/mfracassi/clubdesk/internal/members"
	"github.com/mfracassi/clubdesk/internal/messaging"
	"github.com/mfracassi/clubdesk/internal/observability/metrics"
	"github.com/mfracassi/clubdesk/internal/phone"
	"github.com/mfracassi/clubdesk/internal/phones"
	"github.com/mfracassi/clubdesk/internal/reminder"
	"github.com/mfracassi/clubdesk/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clubdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"dry_run", cfg.DryRun,
	)

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	store := members.NewStore(dynamoClient, cfg.MembersTable, cfg.PhoneLogTable, logger)

	registry := prometheus.NewRegistry()
	runMetrics := metrics.NewRunMetrics(registry)

	normalizer := phone.Normalizer{CountryCode: cfg.DefaultCountryCode}

	var gateway messaging.Gateway
	if cfg.DryRun || cfg.WhatsAppToken == "" || cfg.WhatsAppPhoneNumberID == "" {
		if !cfg.DryRun {
			logger.Warn("whatsapp credentials missing, falling back to dry-run gateway")
		}
		gateway = messaging.NewDryRunGateway(logger)
	} else {
		gateway = messaging.NewWhatsAppSender(cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAPIBaseURL, logger)
	}

	reminderRunner := reminder.NewRunner(reminder.RunnerConfig{
		Store:       store,
		Gateway:     gateway,
		Normalizer:  normalizer,
		PhoneFields: cfg.PhoneFields,
		Metrics:     runMetrics,
		Logger:      logger,
	})
	phoneRunner := phones.NewApplyRunner(phones.ApplyRunnerConfig{
		Store:      store,
		Normalizer: normalizer,
		Metrics:    runMetrics,
		Logger:     logger,
	})

	policy := reminder.Policy{
		DaysAhead:    cfg.ReminderDaysAhead,
		OnlyExpired:  cfg.ReminderOnlyExpired,
		CooldownDays: cfg.ReminderCooldownDays,
	}

	r := router.New(&router.Config{
		Logger:         logger,
		Reminders:      handlers.NewRemindersHandler(reminderRunner, policy, cfg.DryRun, logger),
		Phones:         handlers.NewPhonesHandler(phoneRunner, cfg.PhoneFields, cfg.PhoneApplyEnabled, logger),
		Send:           handlers.NewSendHandler(gateway, normalizer, logger),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		MutationRPS:    1,
		MutationBurst:  5,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
