package messaging

import (
	"context"

	"github.com/mfracassi/clubdesk/pkg/logging"
)

// DryRunGateway runs the full validation path of a real send but performs no
// network call and reports a synthetic result.
type DryRunGateway struct {
	logger *logging.Logger
}

// NewDryRunGateway builds a gateway that only simulates delivery.
func NewDryRunGateway(logger *logging.Logger) *DryRunGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &DryRunGateway{logger: logger}
}

var _ Gateway = (*DryRunGateway)(nil)

// Send validates msg exactly like a live gateway, then stops short of the
// network call.
func (g *DryRunGateway) Send(ctx context.Context, msg Outbound) (*SendResult, error) {
	if err := ValidateOutbound(msg); err != nil {
		return nil, err
	}
	g.logger.Info("dry-run: message not sent", "to", msg.To, "body_length", len(msg.Body))
	return &SendResult{MessageID: "dry-run", DryRun: true}, nil
}
