package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mfracassi/clubdesk/internal/messaging"
	"github.com/mfracassi/clubdesk/internal/phone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	result   messaging.SendResult
	err      error
	lastSend *messaging.Outbound
}

func (s *stubGateway) Send(_ context.Context, msg messaging.Outbound) (*messaging.SendResult, error) {
	s.lastSend = &msg
	if s.err != nil {
		return nil, s.err
	}
	return &s.result, nil
}

func postSend(t *testing.T, h *SendHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/messages/send", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SendMessage(rec, req)
	return rec
}

func TestSendMessageNormalizesRecipient(t *testing.T) {
	gw := &stubGateway{result: messaging.SendResult{MessageID: "wamid.123"}}
	h := NewSendHandler(gw, phone.DefaultNormalizer, nil)

	rec := postSend(t, h, `{"to":"347 000 1111","message":"Ciao!"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gw.lastSend)
	assert.Equal(t, "+393470001111", gw.lastSend.To)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "+393470001111", body["to"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "wamid.123", meta["messageId"])
}

func TestSendMessageDryRunGateway(t *testing.T) {
	gw := &stubGateway{result: messaging.SendResult{MessageID: "dry-run", DryRun: true}}
	h := NewSendHandler(gw, phone.DefaultNormalizer, nil)

	rec := postSend(t, h, `{"to":"+393470001111","message":"Ciao!"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["dryRun"])
	assert.Nil(t, body["meta"], "dry-run responses carry no provider metadata")
}

func TestSendMessageRejectsBadInput(t *testing.T) {
	h := NewSendHandler(&stubGateway{}, phone.DefaultNormalizer, nil)

	cases := map[string]string{
		"malformed JSON":    `{"to":`,
		"invalid recipient": `{"to":"12","message":"Ciao!"}`,
		"empty body":        `{"to":"+393470001111","message":"   "}`,
		"oversized body":    `{"to":"+393470001111","message":"` + strings.Repeat("a", messaging.MaxBodyLength+1) + `"}`,
	}
	for name, payload := range cases {
		rec := postSend(t, h, payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestSendMessageSurfacesUpstreamError(t *testing.T) {
	gw := &stubGateway{err: &messaging.UpstreamError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}}
	h := NewSendHandler(gw, phone.DefaultNormalizer, nil)

	rec := postSend(t, h, `{"to":"+393470001111","message":"Ciao!"}`)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "rate limited", body["error"])
}

func TestSendMessageGatewayNotConfigured(t *testing.T) {
	gw := &stubGateway{err: messaging.ErrNotConfigured}
	h := NewSendHandler(gw, phone.DefaultNormalizer, nil)

	rec := postSend(t, h, `{"to":"+393470001111","message":"Ciao!"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
