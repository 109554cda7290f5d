package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mfracassi/clubdesk/internal/members"
	"github.com/mfracassi/clubdesk/internal/messaging"
	"github.com/mfracassi/clubdesk/internal/observability/metrics"
	"github.com/mfracassi/clubdesk/internal/phone"
	"github.com/mfracassi/clubdesk/pkg/logging"
)

// Mode selects between previewing candidates and actually dispatching.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeApply   Mode = "apply"
)

// Outcome is the terminal state of one candidate within a run.
type Outcome string

const (
	OutcomePreviewed  Outcome = "previewed"
	OutcomeSent       Outcome = "sent"
	OutcomeBlocked    Outcome = "blocked"
	OutcomeSendFailed Outcome = "send_failed"
)

// Detail records one candidate's outcome.
type Detail struct {
	MemberID string
	Name     string
	Phone    string
	DaysLeft int
	Message  string
	Outcome  Outcome
	Err      string
}

// RunReport summarizes a full reminder run.
type RunReport struct {
	Mode           Mode
	DryRun         bool
	CandidateCount int
	SentCount      int
	Details        []Detail
}

// Store is the slice of the member store the runner needs.
type Store interface {
	ScanAll(ctx context.Context) ([]members.Member, error)
	MarkReminded(ctx context.Context, memberID string, now time.Time, cooldownDays int) error
}

// Runner walks the whole member collection and sends renewal reminders to
// eligible members, one at a time in store-iteration order.
type Runner struct {
	store       Store
	gateway     messaging.Gateway
	normalizer  phone.Normalizer
	phoneFields []string
	metrics     *metrics.RunMetrics
	logger      *logging.Logger
	now         func() time.Time
}

// RunnerConfig wires a Runner.
type RunnerConfig struct {
	Store       Store
	Gateway     messaging.Gateway
	Normalizer  phone.Normalizer
	PhoneFields []string
	Metrics     *metrics.RunMetrics
	Logger      *logging.Logger
	Now         func() time.Time
}

// NewRunner creates a reminder runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Store == nil {
		panic("reminder: store cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if len(cfg.PhoneFields) == 0 {
		cfg.PhoneFields = []string{"phone", "whatsapp", "telefono"}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		store:       cfg.Store,
		gateway:     cfg.Gateway,
		normalizer:  cfg.Normalizer,
		phoneFields: cfg.PhoneFields,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
}

// Run executes one full reminder pass. Preview mode performs the identical
// evaluation but issues no writes and no sends. A per-member dispatch failure
// is recorded in the report and never aborts the run.
func (r *Runner) Run(ctx context.Context, policy Policy, mode Mode) (*RunReport, error) {
	if mode == ModeApply && r.gateway == nil {
		return nil, errors.New("reminder: apply mode requires a messaging gateway")
	}

	started := r.now()
	all, err := r.store.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reminder: fetch members: %w", err)
	}

	report := &RunReport{
		Mode:   mode,
		DryRun: mode != ModeApply,
	}
	now := r.now()

	for i := range all {
		m := &all[i]

		dialable := r.firstDialable(m)
		if dialable == "" {
			continue
		}

		candidate, daysLeft := Evaluate(m, now, policy)
		if !candidate {
			continue
		}

		// Cooldown is always checked against the stored lastReminderAt,
		// never against anything produced earlier in this run.
		if !CooldownAllowed(m.LastReminderAt, policy.CooldownDays, now) {
			continue
		}

		message := ComposeMessage(m, daysLeft)
		report.CandidateCount++
		r.metrics.ObserveCandidate()

		detail := Detail{
			MemberID: m.ID,
			Name:     m.DisplayName(),
			Phone:    dialable,
			DaysLeft: daysLeft,
			Message:  message,
		}

		if mode == ModePreview {
			detail.Outcome = OutcomePreviewed
			report.Details = append(report.Details, detail)
			continue
		}

		done := r.dispatch(ctx, m, detail, now, policy.CooldownDays)
		if done.Outcome == OutcomeSent {
			report.SentCount++
		}
		report.Details = append(report.Details, done)
	}

	r.metrics.ObserveRun("reminders", string(mode))
	r.metrics.ObserveRunDuration("reminders", r.now().Sub(started).Seconds())
	r.logger.Info("reminder run finished",
		"mode", mode,
		"scanned", len(all),
		"candidates", report.CandidateCount,
		"sent", report.SentCount,
	)

	return report, nil
}

// dispatch claims the member's cooldown slot with a conditional write, then
// sends. Claiming first means two overlapping runs cannot both message the
// same member: the losing run sees the condition fail and reports blocked.
func (r *Runner) dispatch(ctx context.Context, m *members.Member, detail Detail, now time.Time, cooldownDays int) Detail {
	if err := r.store.MarkReminded(ctx, m.ID, now, cooldownDays); err != nil {
		if errors.Is(err, members.ErrReminderBlocked) {
			detail.Outcome = OutcomeBlocked
			detail.Err = "cooldown no longer satisfied at write time"
			r.metrics.ObserveSend("blocked")
			return detail
		}
		detail.Outcome = OutcomeSendFailed
		detail.Err = err.Error()
		r.metrics.ObserveSend("error")
		r.logger.Error("reminder: claim failed", "member_id", m.ID, "error", err)
		return detail
	}

	if _, err := r.gateway.Send(ctx, messaging.Outbound{To: detail.Phone, Body: detail.Message}); err != nil {
		detail.Outcome = OutcomeSendFailed
		detail.Err = err.Error()
		r.metrics.ObserveSend("error")
		r.logger.Error("reminder: dispatch failed", "member_id", m.ID, "phone", detail.Phone, "error", err)
		return detail
	}

	detail.Outcome = OutcomeSent
	r.metrics.ObserveSend("sent")
	return detail
}

// firstDialable normalizes the member's raw phone fields in priority order
// and returns the first canonical number, or "".
func (r *Runner) firstDialable(m *members.Member) string {
	for _, field := range r.phoneFields {
		raw := m.Field(field)
		if raw == "" {
			continue
		}
		if normalized := r.normalizer.Normalize(raw); normalized != "" {
			return normalized
		}
	}
	return ""
}
