package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mfracassi/clubdesk/internal/reminder"
	"github.com/mfracassi/clubdesk/pkg/logging"
)

// Service emails the outcome of scheduled reminder runs to the operator.
type Service struct {
	email     EmailSender
	recipient string
	logger    *logging.Logger
}

// NewService creates a run-summary notifier. With an empty recipient every
// notification becomes a no-op.
func NewService(email EmailSender, recipient string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, recipient: recipient, logger: logger}
}

// NotifyReminderRun emails a summary of one completed reminder pass.
func (s *Service) NotifyReminderRun(ctx context.Context, report *reminder.RunReport) error {
	if s.email == nil || s.recipient == "" {
		s.logger.Debug("notify: summary recipient not configured, skipping")
		return nil
	}

	failed := 0
	blocked := 0
	for _, d := range report.Details {
		switch d.Outcome {
		case reminder.OutcomeSendFailed:
			failed++
		case reminder.OutcomeBlocked:
			blocked++
		}
	}

	mode := "invio"
	if report.DryRun || report.Mode == reminder.ModePreview {
		mode = "anteprima"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Riepilogo promemoria scadenze (%s) del %s\n\n", mode, time.Now().Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "Candidati: %d\n", report.CandidateCount)
	fmt.Fprintf(&b, "Inviati: %d\n", report.SentCount)
	fmt.Fprintf(&b, "Bloccati dal cooldown: %d\n", blocked)
	fmt.Fprintf(&b, "Falliti: %d\n", failed)

	if failed > 0 {
		b.WriteString("\nErrori:\n")
		for _, d := range report.Details {
			if d.Outcome == reminder.OutcomeSendFailed {
				fmt.Fprintf(&b, "- %s (%s): %s\n", d.Name, d.Phone, d.Err)
			}
		}
	}

	subject := fmt.Sprintf("Promemoria scadenze: %d inviati, %d falliti", report.SentCount, failed)
	msg := EmailMessage{To: s.recipient, Subject: subject, Body: b.String()}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: reminder run summary: %w", err)
	}
	s.logger.Info("reminder run summary sent", "to", s.recipient, "sent", report.SentCount, "failed", failed)
	return nil
}
