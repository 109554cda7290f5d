package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mfracassi/clubdesk/internal/messaging"
	"github.com/mfracassi/clubdesk/internal/phone"
	"github.com/mfracassi/clubdesk/pkg/logging"
)

// SendHandler serves one-off message sends, mostly used to verify gateway
// credentials and number formatting.
type SendHandler struct {
	gateway    messaging.Gateway
	normalizer phone.Normalizer
	logger     *logging.Logger
}

// NewSendHandler creates the single-send HTTP handler.
func NewSendHandler(gateway messaging.Gateway, normalizer phone.Normalizer, logger *logging.Logger) *SendHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SendHandler{gateway: gateway, normalizer: normalizer, logger: logger}
}

type sendRequest struct {
	To         string `json:"to"`
	Message    string `json:"message"`
	PreviewURL bool   `json:"preview_url"`
}

// SendMessage dispatches a single message to one recipient.
// Route: POST /messages/send
func (h *SendHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	to := h.normalizer.Normalize(req.To)
	if to == "" {
		writeError(w, http.StatusBadRequest, "invalid recipient number")
		return
	}

	msg := messaging.Outbound{To: to, Body: req.Message, PreviewURL: req.PreviewURL}
	if err := messaging.ValidateOutbound(msg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.gateway.Send(r.Context(), msg)
	if err != nil {
		var upstream *messaging.UpstreamError
		switch {
		case errors.Is(err, messaging.ErrNotConfigured):
			h.logger.Error("send: gateway not configured")
			writeError(w, http.StatusInternalServerError, "messaging gateway not configured")
		case errors.As(err, &upstream):
			// Surface the gateway's own status and message.
			writeError(w, upstream.StatusCode, upstream.Message)
		default:
			h.logger.Error("send: dispatch failed", "to", to, "error", err)
			writeError(w, http.StatusInternalServerError, "message dispatch failed")
		}
		return
	}

	resp := map[string]any{
		"ok":     true,
		"dryRun": result.DryRun,
		"to":     to,
	}
	if result.MessageID != "" && !result.DryRun {
		resp["meta"] = map[string]any{"messageId": result.MessageID}
	}
	writeJSON(w, http.StatusOK, resp)
}
