// Package phones repairs raw contact-number fields in place, normalizing
// them to canonical dialable form while preserving the original values.
package phones

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mfracassi/clubdesk/internal/members"
	"github.com/mfracassi/clubdesk/internal/observability/metrics"
	"github.com/mfracassi/clubdesk/internal/phone"
	"github.com/mfracassi/clubdesk/pkg/logging"
)

// ErrApplyNotEnabled indicates a mutating run was requested without the
// enablement flag and without an explicit dry-run. The runner fails closed
// instead of silently downgrading.
var ErrApplyNotEnabled = errors.New("phones: apply not enabled; request dryRun explicitly or enable mutation")

// Params configures one phone-apply run.
type Params struct {
	// Fields lists the raw contact fields to scan on each member document.
	Fields []string
	// Limit caps how many member documents are scanned.
	Limit int
	// ApplyAllowed is the deployment-level enablement flag for mutation.
	ApplyAllowed bool
	// DryRunRequested forces evaluation without any writes.
	DryRunRequested bool
}

// MemberDetail is the per-member audit entry for changed or invalid fields.
type MemberDetail struct {
	MemberID string
	Changes  []members.FieldChange
}

// Report summarizes one phone-apply run.
type Report struct {
	DryRun        bool
	Scanned       int
	DocsToUpdate  int
	FieldsUpdated int
	InvalidFields int
	Details       []MemberDetail
}

// Store is the slice of the member store the apply runner needs.
type Store interface {
	Scan(ctx context.Context, limit int) ([]members.Member, error)
	CommitPhoneBatch(ctx context.Context, runID string, updates []members.PhoneUpdate) error
}

// ApplyRunner scans raw phone fields, normalizes them, and batches the
// resulting field updates into one atomic commit.
type ApplyRunner struct {
	store      Store
	normalizer phone.Normalizer
	metrics    *metrics.RunMetrics
	logger     *logging.Logger
	now        func() time.Time
}

// ApplyRunnerConfig wires an ApplyRunner.
type ApplyRunnerConfig struct {
	Store      Store
	Normalizer phone.Normalizer
	Metrics    *metrics.RunMetrics
	Logger     *logging.Logger
	Now        func() time.Time
}

// NewApplyRunner creates a phone-apply runner.
func NewApplyRunner(cfg ApplyRunnerConfig) *ApplyRunner {
	if cfg.Store == nil {
		panic("phones: store cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ApplyRunner{
		store:      cfg.Store,
		normalizer: cfg.Normalizer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
}

// Run evaluates up to p.Limit member documents. Dry-run performs the exact
// same evaluation and staging but commits nothing. The staged batch stops at
// the store's transaction bound; dry-run stops at the same point so its
// report predicts a real apply.
func (r *ApplyRunner) Run(ctx context.Context, p Params) (*Report, error) {
	if !p.ApplyAllowed && !p.DryRunRequested {
		return nil, ErrApplyNotEnabled
	}
	if len(p.Fields) == 0 {
		return nil, errors.New("phones: no fields configured")
	}
	if p.Limit <= 0 {
		return nil, fmt.Errorf("phones: limit must be positive, got %d", p.Limit)
	}

	dryRun := p.DryRunRequested || !p.ApplyAllowed
	started := r.now()

	scanned, err := r.store.Scan(ctx, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("phones: fetch members: %w", err)
	}

	report := &Report{DryRun: dryRun}
	var updates []members.PhoneUpdate

	for i := range scanned {
		m := &scanned[i]
		report.Scanned++

		update := r.evaluateMember(m, p.Fields, report)
		if len(update.Changes) > 0 {
			report.Details = append(report.Details, MemberDetail{
				MemberID: m.ID,
				Changes:  update.Changes,
			})
		}
		if len(update.Set) > 0 {
			report.DocsToUpdate++
			updates = append(updates, update)
			if len(updates) >= members.MaxBatchMembers {
				r.logger.Warn("phones: batch bound reached, stopping scan early",
					"staged", len(updates),
					"scanned", report.Scanned,
				)
				break
			}
		}
	}

	if !dryRun && len(updates) > 0 {
		runID := uuid.NewString()
		if err := r.store.CommitPhoneBatch(ctx, runID, updates); err != nil {
			return nil, fmt.Errorf("phones: commit: %w", err)
		}
		r.logger.Info("phones: updates committed",
			"run_id", runID,
			"docs", report.DocsToUpdate,
			"fields", report.FieldsUpdated,
		)
	}

	r.metrics.ObserveRun("phones", mode(dryRun))
	r.metrics.ObserveRunDuration("phones", r.now().Sub(started).Seconds())

	return report, nil
}

// evaluateMember normalizes each configured field on one member. Three
// outcomes per field: unchanged, changed (staged with a raw-value audit
// copy), invalid (recorded, never mutated).
func (r *ApplyRunner) evaluateMember(m *members.Member, fields []string, report *Report) members.PhoneUpdate {
	update := members.PhoneUpdate{MemberID: m.ID, Set: map[string]string{}}

	for _, field := range fields {
		raw := m.Field(field)
		if raw == "" {
			continue
		}

		normalized := r.normalizer.Normalize(raw)
		switch {
		case normalized == "":
			report.InvalidFields++
			r.metrics.ObservePhoneField("invalid")
			update.Changes = append(update.Changes, members.FieldChange{
				Field:   field,
				Before:  raw,
				Invalid: true,
			})
		case normalized == raw:
			r.metrics.ObservePhoneField("ok")
		default:
			report.FieldsUpdated++
			r.metrics.ObservePhoneField("changed")
			update.Set[field] = normalized
			// Keep the original value once; never clobber an earlier copy.
			if m.Field(field+"Raw") == "" {
				update.Set[field+"Raw"] = raw
			}
			update.Changes = append(update.Changes, members.FieldChange{
				Field:  field,
				Before: raw,
				After:  normalized,
			})
		}
	}

	return update
}

func mode(dryRun bool) string {
	if dryRun {
		return "preview"
	}
	return "apply"
}
