// Package scheduler drives periodic reminder runs on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mfracassi/clubdesk/internal/reminder"
	"github.com/mfracassi/clubdesk/pkg/logging"
	"github.com/robfig/cron/v3"
)

// ReminderRunner runs one reminder pass.
type ReminderRunner interface {
	Run(ctx context.Context, policy reminder.Policy, mode reminder.Mode) (*reminder.RunReport, error)
}

// Notifier reports a completed run to the operator.
type Notifier interface {
	NotifyReminderRun(ctx context.Context, report *reminder.RunReport) error
}

// Scheduler triggers reminder runs on a fixed cron spec.
type Scheduler struct {
	cron     *cron.Cron
	runner   ReminderRunner
	notifier Notifier
	policy   reminder.Policy
	mode     reminder.Mode
	spec     string
	timeout  time.Duration
	logger   *logging.Logger
}

// Config holds scheduler configuration.
type Config struct {
	Runner   ReminderRunner
	Notifier Notifier
	Policy   reminder.Policy
	// DryRun downgrades scheduled runs to evaluation only.
	DryRun bool
	// Spec is a standard five-field cron expression, e.g. "0 9 * * *".
	Spec string
	// RunTimeout bounds one pass. Defaults to 10 minutes.
	RunTimeout time.Duration
	Location   *time.Location
	Logger     *logging.Logger
}

// New creates a scheduler. The runner is required.
func New(cfg Config) *Scheduler {
	if cfg.Runner == nil {
		panic("scheduler: runner is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := cfg.RunTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	mode := reminder.ModeApply
	if cfg.DryRun {
		mode = reminder.ModePreview
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		runner:   cfg.Runner,
		notifier: cfg.Notifier,
		policy:   cfg.Policy,
		mode:     mode,
		spec:     cfg.Spec,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the job and begins ticking. It does not block.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return fmt.Errorf("scheduler: add reminder job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec, "mode", s.mode)
	return nil
}

// Stop halts the cron engine and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.runner.Run(ctx, s.policy, s.mode)
	if err != nil {
		s.logger.Error("scheduled reminder run failed", "error", err)
		return
	}
	s.logger.Info("scheduled reminder run completed",
		"candidates", report.CandidateCount,
		"sent", report.SentCount,
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyReminderRun(ctx, report); err != nil {
			s.logger.Error("run summary notification failed", "error", err)
		}
	}
}
