package reminder

import (
	"fmt"
	"strings"

	"github.com/mfracassi/clubdesk/internal/members"
)

// ComposeMessage generates the renewal reminder text for a member. Three
// variants: expiring in N days, expiring today, expired N days ago.
func ComposeMessage(m *members.Member, daysLeft int) string {
	greeting := "Ciao!"
	if name := firstName(m); name != "" {
		greeting = fmt.Sprintf("Ciao %s!", name)
	}

	plan := "abbonamento"
	if label := strings.TrimSpace(m.Plan); label != "" {
		plan = fmt.Sprintf("abbonamento %s", label)
	}

	switch {
	case daysLeft > 0:
		return fmt.Sprintf(
			"%s Il tuo %s scade tra %s. Passa in segreteria o rispondi a questo messaggio per rinnovarlo!",
			greeting, plan, giorni(daysLeft),
		)
	case daysLeft == 0:
		return fmt.Sprintf(
			"%s Il tuo %s scade oggi. Rinnovalo subito per continuare ad allenarti senza interruzioni!",
			greeting, plan,
		)
	default:
		return fmt.Sprintf(
			"%s Il tuo %s è scaduto da %s. Ti aspettiamo per riattivarlo quando vuoi!",
			greeting, plan, giorni(-daysLeft),
		)
	}
}

// firstName extracts the first whitespace-delimited token of the
// best-available name field.
func firstName(m *members.Member) string {
	name := m.DisplayName()
	if name == "" {
		return ""
	}
	return strings.Fields(name)[0]
}

func giorni(n int) string {
	if n == 1 {
		return "1 giorno"
	}
	return fmt.Sprintf("%d giorni", n)
}
