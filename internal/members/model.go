package members

import (
	"strings"
	"time"
)

// Member is a club member document as read from the store. Raw contact
// fields stay in Fields because their names are deployment-configurable.
type Member struct {
	ID             string
	FirstName      string
	LastName       string
	FullName       string
	Plan           string
	Expiry         *time.Time
	LastReminderAt *time.Time
	Fields         map[string]string
}

// Field returns the raw value of a named contact field, or "".
func (m *Member) Field(name string) string {
	if m.Fields == nil {
		return ""
	}
	return m.Fields[name]
}

// DisplayName returns the best-available name for greeting the member:
// the full name when present, otherwise first + last name.
func (m *Member) DisplayName() string {
	if name := strings.TrimSpace(m.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(m.FirstName) + " " + strings.TrimSpace(m.LastName))
}
