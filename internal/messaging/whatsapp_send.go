package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mfracassi/clubdesk/pkg/logging"
)

var whatsappSendTracer = otel.Tracer("clubdesk.internal.messaging.whatsapp_send")

// WhatsAppSender posts messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	token         string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

// NewWhatsAppSender builds a sender for the WhatsApp Cloud API.
func NewWhatsAppSender(token, phoneNumberID, baseURL string, logger *logging.Logger) *WhatsAppSender {
	if logger == nil {
		logger = logging.Default()
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	return &WhatsAppSender{
		token:         token,
		phoneNumberID: phoneNumberID,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ Gateway = (*WhatsAppSender)(nil)

// Send dispatches a single text message. There is no retry here: bulk runs
// record per-member failures and move on, single sends surface the gateway
// status to the caller.
func (s *WhatsAppSender) Send(ctx context.Context, msg Outbound) (*SendResult, error) {
	if s.token == "" || s.phoneNumberID == "" {
		return nil, ErrNotConfigured
	}
	if err := ValidateOutbound(msg); err != nil {
		return nil, err
	}

	ctx, span := whatsappSendTracer.Start(ctx, "messaging.whatsapp.send",
		trace.WithAttributes(
			attribute.String("clubdesk.to", msg.To),
			attribute.Int("clubdesk.body_length", len(msg.Body)),
		))
	defer span.End()

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                strings.TrimPrefix(msg.To, "+"),
		"type":              "text",
		"text": map[string]interface{}{
			"body":        msg.Body,
			"preview_url": msg.PreviewURL,
		},
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("messaging: marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("messaging: build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("messaging: whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstream := &UpstreamError{StatusCode: resp.StatusCode, Message: extractAPIError(respBody)}
		span.RecordError(upstream)
		s.logger.Error("whatsapp send failed", "status", resp.StatusCode, "to", msg.To, "error", upstream.Message)
		return nil, upstream
	}

	result := &SendResult{}
	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &parsed); err == nil && len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}

	s.logger.Info("whatsapp message sent", "to", msg.To, "message_id", result.MessageID)
	return result, nil
}

func extractAPIError(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(body) > 0 {
		return string(body)
	}
	return "unknown gateway error"
}
