package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mfracassi/clubdesk/internal/phones"
	"github.com/mfracassi/clubdesk/pkg/logging"
)

const (
	previewLimitDefault = 200
	previewLimitMax     = 1000
	applyLimitDefault   = 100
	applyLimitMax       = 500
)

// PhoneApplyRunner abstracts the phone-apply orchestrator for testing.
type PhoneApplyRunner interface {
	Run(ctx context.Context, p phones.Params) (*phones.Report, error)
}

// PhonesHandler serves the phone-normalization preview and apply operations.
type PhonesHandler struct {
	runner        PhoneApplyRunner
	defaultFields []string
	applyEnabled  bool
	logger        *logging.Logger
}

// NewPhonesHandler creates the phones HTTP handler. applyEnabled is the
// deployment-level mutation-enablement flag.
func NewPhonesHandler(runner PhoneApplyRunner, defaultFields []string, applyEnabled bool, logger *logging.Logger) *PhonesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PhonesHandler{
		runner:        runner,
		defaultFields: defaultFields,
		applyEnabled:  applyEnabled,
		logger:        logger,
	}
}

type phoneChange struct {
	Field   string `json:"field"`
	Before  string `json:"before"`
	After   string `json:"after,omitempty"`
	Invalid bool   `json:"invalid,omitempty"`
}

type phoneDetail struct {
	ID      string        `json:"id"`
	Changes []phoneChange `json:"changes"`
}

// PhonesPreview evaluates normalization without touching the store.
// Route: GET /phones/preview
func (h *PhonesHandler) PhonesPreview(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), previewLimitDefault, previewLimitMax)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := h.parseFields(r.URL.Query().Get("fields"))

	report, err := h.runner.Run(r.Context(), phones.Params{
		Fields:          fields,
		Limit:           limit,
		ApplyAllowed:    h.applyEnabled,
		DryRunRequested: true,
	})
	if err != nil {
		h.logger.Error("phones: preview run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "phone preview failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"scanned":       report.Scanned,
		"fields":        fields,
		"toUpdateDocs":  report.DocsToUpdate,
		"fieldUpdates":  report.FieldsUpdated,
		"invalidFields": report.InvalidFields,
		"results":       detailsPayload(report.Details),
	})
}

// PhonesApply normalizes raw phone fields in place. Real mutation requires
// the enablement flag; without it only an explicit dry-run is accepted.
// Route: GET/POST /phones/apply
func (h *PhonesHandler) PhonesApply(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), applyLimitDefault, applyLimitMax)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := h.parseFields(r.URL.Query().Get("fields"))

	dryRun := false
	if raw := r.URL.Query().Get("dryRun"); raw != "" {
		dryRun, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dryRun must be a boolean")
			return
		}
	}

	report, err := h.runner.Run(r.Context(), phones.Params{
		Fields:          fields,
		Limit:           limit,
		ApplyAllowed:    h.applyEnabled,
		DryRunRequested: dryRun,
	})
	if err != nil {
		if errors.Is(err, phones.ErrApplyNotEnabled) {
			writeError(w, http.StatusForbidden, "phone mutation is not enabled; pass dryRun=true to preview")
			return
		}
		h.logger.Error("phones: apply run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "phone apply failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"dryRun":        report.DryRun,
		"scanned":       report.Scanned,
		"docsToUpdate":  report.DocsToUpdate,
		"fieldsUpdated": report.FieldsUpdated,
		"invalidFields": report.InvalidFields,
		"details":       detailsPayload(report.Details),
	})
}

func (h *PhonesHandler) parseFields(raw string) []string {
	if raw == "" {
		return h.defaultFields
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return h.defaultFields
	}
	return out
}

func parseLimit(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if limit < 1 || limit > max {
		return 0, fmt.Errorf("limit must be between 1 and %d", max)
	}
	return limit, nil
}

func detailsPayload(details []phones.MemberDetail) []phoneDetail {
	out := make([]phoneDetail, 0, len(details))
	for _, d := range details {
		changes := make([]phoneChange, 0, len(d.Changes))
		for _, c := range d.Changes {
			changes = append(changes, phoneChange(c))
		}
		out = append(out, phoneDetail{ID: d.MemberID, Changes: changes})
	}
	return out
}
