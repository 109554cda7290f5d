// Package reminder decides which members are due a renewal reminder and
// produces the message to send them.
package reminder

import (
	"time"

	"github.com/mfracassi/clubdesk/internal/members"
)

// Policy configures one reminder run.
type Policy struct {
	// DaysAhead is the look-ahead window: members expiring within this many
	// days (or already expired) are candidates.
	DaysAhead int
	// OnlyExpired restricts candidates to members already past due.
	OnlyExpired bool
	// CooldownDays is the minimum gap between two reminders to one member.
	CooldownDays int
}

// DaysLeft returns the whole days between today and expiry, both taken at
// UTC midnight. Negative means already expired.
func DaysLeft(expiry, today time.Time) int {
	e := midnightUTC(expiry)
	t := midnightUTC(today)
	return int(e.Sub(t) / (24 * time.Hour))
}

// Evaluate decides whether a member falls inside the reminder window.
// Members without an expiry date are never candidates.
func Evaluate(m *members.Member, today time.Time, p Policy) (candidate bool, daysLeft int) {
	if m.Expiry == nil {
		return false, 0
	}
	daysLeft = DaysLeft(*m.Expiry, today)
	if p.OnlyExpired {
		return daysLeft < 0, daysLeft
	}
	return daysLeft <= p.DaysAhead, daysLeft
}

// CooldownAllowed reports whether enough time has passed since the stored
// lastReminderAt. The window is measured in raw calendar days from the
// recorded instant, not normalized to midnight.
func CooldownAllowed(lastReminderAt *time.Time, cooldownDays int, now time.Time) bool {
	if lastReminderAt == nil {
		return true
	}
	nextAllowed := lastReminderAt.Add(time.Duration(cooldownDays) * 24 * time.Hour)
	return !now.Before(nextAllowed)
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
