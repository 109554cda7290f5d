package handlers

import (
	"context"
	"net/http"

	"github.com/mfracassi/clubdesk/internal/reminder"
	"github.com/mfracassi/clubdesk/pkg/logging"
)

// ReminderRunner abstracts the reminder orchestrator for testing.
type ReminderRunner interface {
	Run(ctx context.Context, policy reminder.Policy, mode reminder.Mode) (*reminder.RunReport, error)
}

// RemindersHandler serves the expiry-preview and send-reminders operations.
type RemindersHandler struct {
	runner ReminderRunner
	policy reminder.Policy
	dryRun bool
	logger *logging.Logger
}

// NewRemindersHandler creates the reminders HTTP handler. The policy comes
// from process configuration, not from the request.
func NewRemindersHandler(runner ReminderRunner, policy reminder.Policy, dryRun bool, logger *logging.Logger) *RemindersHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RemindersHandler{runner: runner, policy: policy, dryRun: dryRun, logger: logger}
}

type previewResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	DaysLeft int    `json:"daysLeft"`
	Message  string `json:"message"`
}

// PreviewExpiries lists every member who would receive a reminder right now.
// Route: GET /reminders/preview
func (h *RemindersHandler) PreviewExpiries(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.Run(r.Context(), h.policy, reminder.ModePreview)
	if err != nil {
		h.logger.Error("reminders: preview run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "reminder preview failed")
		return
	}

	results := make([]previewResult, 0, len(report.Details))
	for _, d := range report.Details {
		results = append(results, previewResult{
			ID:       d.MemberID,
			Name:     d.Name,
			Phone:    d.Phone,
			DaysLeft: d.DaysLeft,
			Message:  d.Message,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"onlyExpired":  h.policy.OnlyExpired,
		"cooldownDays": h.policy.CooldownDays,
		"count":        len(results),
		"results":      results,
	})
}

type sendDetail struct {
	ID       string `json:"id"`
	Phone    string `json:"phone"`
	DaysLeft int    `json:"daysLeft"`
	Sent     bool   `json:"sent"`
	Error    string `json:"error,omitempty"`
}

// SendReminders runs a full reminder pass. With the global dry-run flag set
// it performs the identical evaluation but dispatches nothing.
// Route: GET/POST /reminders/send
func (h *RemindersHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	mode := reminder.ModeApply
	if h.dryRun {
		mode = reminder.ModePreview
	}

	report, err := h.runner.Run(r.Context(), h.policy, mode)
	if err != nil {
		h.logger.Error("reminders: send run failed", "error", err, "mode", mode)
		writeError(w, http.StatusInternalServerError, "reminder run failed")
		return
	}

	details := make([]sendDetail, 0, len(report.Details))
	for _, d := range report.Details {
		details = append(details, sendDetail{
			ID:       d.MemberID,
			Phone:    d.Phone,
			DaysLeft: d.DaysLeft,
			Sent:     d.Outcome == reminder.OutcomeSent,
			Error:    d.Err,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"dryRun":     report.DryRun,
		"candidates": report.CandidateCount,
		"sent":       report.SentCount,
		"details":    details,
	})
}
