// Package messaging delivers composed reminder texts through an outbound
// chat gateway.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mfracassi/clubdesk/internal/phone"
)

// MaxBodyLength is the gateway's hard cap on a single message body.
const MaxBodyLength = 4096

var (
	// ErrInvalidRecipient indicates the destination is not a canonical dialable number.
	ErrInvalidRecipient = errors.New("messaging: recipient is not a valid dialable number")
	// ErrEmptyBody indicates a blank message body.
	ErrEmptyBody = errors.New("messaging: message body is empty")
	// ErrBodyTooLong indicates the body exceeds MaxBodyLength.
	ErrBodyTooLong = errors.New("messaging: message body too long")
	// ErrNotConfigured indicates gateway credentials are missing.
	ErrNotConfigured = errors.New("messaging: gateway credentials not configured")
)

// Outbound is one message to deliver.
type Outbound struct {
	To         string
	Body       string
	PreviewURL bool
}

// SendResult reports a completed (or simulated) delivery.
type SendResult struct {
	MessageID string
	DryRun    bool
}

// Gateway abstracts the outbound message delivery service.
type Gateway interface {
	Send(ctx context.Context, msg Outbound) (*SendResult, error)
}

// UpstreamError carries the gateway's own failure status and message so
// callers can surface them verbatim.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("messaging: gateway returned status %d: %s", e.StatusCode, e.Message)
}

// ValidateOutbound rejects a message before any network or store work begins.
func ValidateOutbound(msg Outbound) error {
	if !phone.IsNormalized(msg.To) {
		return ErrInvalidRecipient
	}
	if strings.TrimSpace(msg.Body) == "" {
		return ErrEmptyBody
	}
	if len(msg.Body) > MaxBodyLength {
		return ErrBodyTooLong
	}
	return nil
}
