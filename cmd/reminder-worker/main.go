package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/mfracassi/clubdesk/cmd/mainconfig"
	appconfig "github.com/mfracassi/clubdesk/internal/config"
	"github.com/mfracassi/clubdesk/internal/members"
	"github.com/mfracassi/clubdesk/internal/messaging"
	"github.com/mfracassi/clubdesk/internal/notify"
	"github.com/mfracassi/clubdesk/internal/observability/metrics"
	"github.com/mfracassi/clubdesk/internal/phone"
	"github.com/mfracassi/clubdesk/internal/reminder"
	"github.com/mfracassi/clubdesk/internal/scheduler"
	"github.com/mfracassi/clubdesk/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clubdesk reminder worker",
		"env", cfg.Env,
		"cron", cfg.ReminderCron,
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

	var gateway messaging.Gateway
	if cfg.DryRun || cfg.WhatsAppToken == "" || cfg.WhatsAppPhoneNumberID == "" {
		if !cfg.DryRun {
			logger.Warn("whatsapp credentials missing, falling back to dry-run gateway")
		}
		gateway = messaging.NewDryRunGateway(logger)
	} else {
		gateway = messaging.NewWhatsAppSender(cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAPIBaseURL, logger)
	}

	runner := reminder.NewRunner(reminder.RunnerConfig{
		Store:       store,
		Gateway:     gateway,
		Normalizer:  phone.Normalizer{CountryCode: cfg.DefaultCountryCode},
		PhoneFields: cfg.PhoneFields,
		Metrics:     runMetrics,
		Logger:      logger,
	})

	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	} else {
		emailSender = notify.NewStubEmailSender(logger)
	}
	notifier := notify.NewService(emailSender, cfg.NotifyEmail, logger)

	sched := scheduler.New(scheduler.Config{
		Runner:   runner,
		Notifier: notifier,
		Policy: reminder.Policy{
			DaysAhead:    cfg.ReminderDaysAhead,
			OnlyExpired:  cfg.ReminderOnlyExpired,
			CooldownDays: cfg.ReminderCooldownDays,
		},
		DryRun: cfg.DryRun,
		Spec:   cfg.ReminderCron,
		Logger: logger,
	})
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	sched.Stop()
	logger.Info("worker stopped")
}
