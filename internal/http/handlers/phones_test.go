package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mfracassi/clubdesk/internal/members"
	"github.com/mfracassi/clubdesk/internal/phones"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPhoneRunner struct {
	report     *phones.Report
	err        error
	lastParams phones.Params
}

func (s *stubPhoneRunner) Run(_ context.Context, p phones.Params) (*phones.Report, error) {
	s.lastParams = p
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

var defaultPhoneFields = []string{"phone", "whatsapp", "telefono"}

func TestPhonesPreviewForcesDryRun(t *testing.T) {
	runner := &stubPhoneRunner{report: &phones.Report{
		DryRun:        true,
		Scanned:       3,
		DocsToUpdate:  1,
		FieldsUpdated: 1,
		InvalidFields: 1,
		Details: []phones.MemberDetail{{
			MemberID: "m-1",
			Changes: []members.FieldChange{
				{Field: "phone", Before: "3471234567", After: "+393471234567"},
				{Field: "telefono", Before: "n/a", Invalid: true},
			},
		}},
	}}
	h := NewPhonesHandler(runner, defaultPhoneFields, true, nil)

	rec := httptest.NewRecorder()
	h.PhonesPreview(rec, httptest.NewRequest(http.MethodGet, "/phones/preview", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, runner.lastParams.DryRunRequested, "preview must never request a real apply")
	assert.Equal(t, previewLimitDefault, runner.lastParams.Limit)
	assert.Equal(t, defaultPhoneFields, runner.lastParams.Fields)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["scanned"])
	assert.Equal(t, float64(1), body["toUpdateDocs"])

	results := body["results"].([]any)
	require.Len(t, results, 1)
	changes := results[0].(map[string]any)["changes"].([]any)
	require.Len(t, changes, 2)
	assert.Equal(t, "+393471234567", changes[0].(map[string]any)["after"])
	assert.Equal(t, true, changes[1].(map[string]any)["invalid"])
}

func TestPhonesPreviewParsesFieldsAndLimit(t *testing.T) {
	runner := &stubPhoneRunner{report: &phones.Report{DryRun: true}}
	h := NewPhonesHandler(runner, defaultPhoneFields, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/phones/preview?fields=cellulare,%20fax&limit=50", nil)
	rec := httptest.NewRecorder()
	h.PhonesPreview(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"cellulare", "fax"}, runner.lastParams.Fields)
	assert.Equal(t, 50, runner.lastParams.Limit)
}

func TestPhonesPreviewRejectsBadLimit(t *testing.T) {
	h := NewPhonesHandler(&stubPhoneRunner{}, defaultPhoneFields, false, nil)

	for _, raw := range []string{"abc", "0", "-5", "100000"} {
		rec := httptest.NewRecorder()
		h.PhonesPreview(rec, httptest.NewRequest(http.MethodGet, "/phones/preview?limit="+raw, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", raw)
	}
}

func TestPhonesApplyPassesThroughEnablement(t *testing.T) {
	runner := &stubPhoneRunner{report: &phones.Report{Scanned: 2, DocsToUpdate: 1, FieldsUpdated: 1}}
	h := NewPhonesHandler(runner, defaultPhoneFields, true, nil)

	rec := httptest.NewRecorder()
	h.PhonesApply(rec, httptest.NewRequest(http.MethodPost, "/phones/apply", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, runner.lastParams.ApplyAllowed)
	assert.False(t, runner.lastParams.DryRunRequested)
	assert.Equal(t, applyLimitDefault, runner.lastParams.Limit)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["dryRun"])
	assert.Equal(t, float64(1), body["docsToUpdate"])
}

func TestPhonesApplyNotEnabledIsForbidden(t *testing.T) {
	runner := &stubPhoneRunner{err: phones.ErrApplyNotEnabled}
	h := NewPhonesHandler(runner, defaultPhoneFields, false, nil)

	rec := httptest.NewRecorder()
	h.PhonesApply(rec, httptest.NewRequest(http.MethodPost, "/phones/apply", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["ok"])
	assert.False(t, runner.lastParams.ApplyAllowed)
}

func TestPhonesApplyExplicitDryRun(t *testing.T) {
	runner := &stubPhoneRunner{report: &phones.Report{DryRun: true}}
	h := NewPhonesHandler(runner, defaultPhoneFields, false, nil)

	rec := httptest.NewRecorder()
	h.PhonesApply(rec, httptest.NewRequest(http.MethodPost, "/phones/apply?dryRun=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, runner.lastParams.DryRunRequested)
}

func TestPhonesApplyRejectsBadDryRun(t *testing.T) {
	h := NewPhonesHandler(&stubPhoneRunner{}, defaultPhoneFields, true, nil)

	rec := httptest.NewRecorder()
	h.PhonesApply(rec, httptest.NewRequest(http.MethodPost, "/phones/apply?dryRun=maybe", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPhonesApplyRunFailure(t *testing.T) {
	runner := &stubPhoneRunner{err: errors.New("transaction canceled")}
	h := NewPhonesHandler(runner, defaultPhoneFields, true, nil)

	rec := httptest.NewRecorder()
	h.PhonesApply(rec, httptest.NewRequest(http.MethodPost, "/phones/apply", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
