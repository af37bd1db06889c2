package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	catalog "phm-catalog/internal/catalog/domain"
	"phm-catalog/internal/catalog/interfaces"
	"phm-catalog/internal/catalog/memory"
	"phm-catalog/internal/catalog/query"
	"phm-catalog/internal/ingest"
	"phm-catalog/internal/observability/metrics"
)

// Archiver persists admitted documents. A nil Archiver disables
// persistence.
type Archiver interface {
	Save(ctx context.Context, identifier string, raw map[string]any) error
	Delete(ctx context.Context, identifier string) error
}

// Handler serves catalog endpoints.
type Handler struct {
	catalog *memory.Catalog
	engine  *query.Engine
	archive Archiver
	logger  *log.Logger
}

// NewHandler constructs a Handler.
func NewHandler(c *memory.Catalog, archive Archiver, logger *log.Logger) (*Handler, error) {
	if c == nil {
		return nil, errors.New("catalog handler: nil catalog")
	}
	if logger == nil {
		return nil, errors.New("catalog handler: nil logger")
	}
	return &Handler{catalog: c, engine: query.New(c), archive: archive, logger: logger}, nil
}

// ServeHTTP routes catalog requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/records":
		switch r.Method {
		case http.MethodPost:
			h.handleAdmit(w, r)
		case http.MethodGet:
			h.handleQuery(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, "/api/v1/records/"):
		identifier := strings.TrimPrefix(path, "/api/v1/records/")
		if identifier == "" || strings.Contains(identifier, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, identifier)
		case http.MethodPut:
			h.handleReplace(w, r, identifier)
		case http.MethodDelete:
			h.handleRemove(w, r, identifier)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case path == "/api/v1/stats" && r.Method == http.MethodGet:
		h.handleStats(w, r)
	case path == "/api/v1/template" && r.Method == http.MethodGet:
		h.handleTemplate(w, r)
	case path == "/api/v1/export/catalog.xlsx" && r.Method == http.MethodGet:
		h.handleExportXLSX(w, r)
	case strings.HasPrefix(path, "/api/v1/export/records/") && strings.HasSuffix(path, ".pdf") && r.Method == http.MethodGet:
		identifier := strings.TrimSuffix(strings.TrimPrefix(path, "/api/v1/export/records/"), ".pdf")
		h.handleExportPDF(w, r, identifier)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type admitResponse struct {
	Identifier string              `json:"identifier"`
	Violations []catalog.Violation `json:"violations,omitempty"`
}

type rejectionResponse struct {
	Error      string              `json:"error"`
	Violations []catalog.Violation `json:"violations,omitempty"`
}

func (h *Handler) handleAdmit(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	raw := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		metrics.ObserveAdmit(metrics.ResultError, time.Since(started))
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	violations, err := h.catalog.Admit(raw)
	countViolations(violations)
	if err != nil {
		metrics.ObserveAdmit(metrics.ResultRejected, time.Since(started))
		respondRejection(w, err, violations)
		return
	}
	identifier, _ := raw["identifier"].(string)
	h.saveArchived(r.Context(), identifier, raw)
	metrics.ObserveAdmit(metrics.ResultSuccess, time.Since(started))
	h.logger.Printf("record admitted: id=%s warnings=%d", identifier, len(violations))
	respondJSON(w, http.StatusCreated, admitResponse{Identifier: identifier, Violations: violations})
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request, identifier string) {
	raw := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if bodyID, _ := raw["identifier"].(string); bodyID != identifier {
		http.Error(w, "identifier mismatch", http.StatusBadRequest)
		return
	}

	violations, err := h.catalog.Replace(raw)
	countViolations(violations)
	if err != nil {
		metrics.IncReplace(metrics.ResultRejected)
		respondRejection(w, err, violations)
		return
	}
	h.saveArchived(r.Context(), identifier, raw)
	metrics.IncReplace(metrics.ResultSuccess)
	h.logger.Printf("record replaced: id=%s warnings=%d", identifier, len(violations))
	respondJSON(w, http.StatusOK, admitResponse{Identifier: identifier, Violations: violations})
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request, identifier string) {
	if err := h.catalog.Remove(identifier); err != nil {
		metrics.IncRemove(metrics.ResultError)
		respondRejection(w, err, nil)
		return
	}
	if h.archive != nil {
		if err := h.archive.Delete(r.Context(), identifier); err != nil {
			h.logger.Printf("archive delete failed: id=%s err=%v", identifier, err)
		}
	}
	metrics.IncRemove(metrics.ResultSuccess)
	h.logger.Printf("record removed: id=%s", identifier)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, identifier string) {
	record, err := h.catalog.Get(identifier)
	if err != nil {
		respondRejection(w, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	filter, err := filterFromRequest(r)
	if err != nil {
		metrics.ObserveQuery(metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("expand") == "true" {
		records, err := h.engine.Records(r.Context(), filter)
		if err != nil {
			metrics.ObserveQuery(metrics.ResultError, time.Since(started))
			respondQueryError(w, err)
			return
		}
		metrics.ObserveQuery(metrics.ResultSuccess, time.Since(started))
		respondJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
		return
	}

	ids, err := h.engine.Find(r.Context(), filter)
	if err != nil {
		metrics.ObserveQuery(metrics.ResultError, time.Since(started))
		respondQueryError(w, err)
		return
	}
	metrics.ObserveQuery(metrics.ResultSuccess, time.Since(started))
	respondJSON(w, http.StatusOK, map[string]any{"identifiers": ids, "count": len(ids)})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	groupBy := r.URL.Query().Get("group_by")
	if groupBy == "" {
		groupBy = string(query.GroupByFaultType)
	}
	counts, err := h.engine.CountBy(r.Context(), filter, query.GroupKey(groupBy))
	if err != nil {
		respondQueryError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total":    h.catalog.Len(),
		"group_by": groupBy,
		"counts":   counts,
	})
}

func (h *Handler) handleTemplate(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, ingest.Template())
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	filter, err := filterFromRequest(r)
	if err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := h.engine.Records(r.Context(), filter)
	if err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
		respondQueryError(w, err)
		return
	}
	payload, err := interfaces.BuildCatalogXLSX(records)
	if err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.xlsx"`)
	_, _ = w.Write(payload)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, _ *http.Request, identifier string) {
	started := time.Now()
	record, err := h.catalog.Get(identifier)
	if err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
		respondRejection(w, err, nil)
		return
	}
	payload, err := interfaces.BuildRecordPDF(record)
	if err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport("pdf", metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", identifier+".pdf"))
	_, _ = w.Write(payload)
}

func (h *Handler) saveArchived(ctx context.Context, identifier string, raw map[string]any) {
	if h.archive == nil {
		return
	}
	if err := h.archive.Save(ctx, identifier, raw); err != nil {
		h.logger.Printf("archive save failed: id=%s err=%v", identifier, err)
	}
}

func filterFromRequest(r *http.Request) (query.Filter, error) {
	values := r.URL.Query()
	filter := query.Filter{
		FaultTypes:   values["fault_type"],
		Technologies: values["technology"],
		Sort:         query.SortKey(values.Get("sort")),
	}

	var err error
	if filter.SeverityMin, err = floatParam(values.Get("severity_min")); err != nil {
		return filter, fmt.Errorf("severity_min: %w", err)
	}
	if filter.SeverityMax, err = floatParam(values.Get("severity_max")); err != nil {
		return filter, fmt.Errorf("severity_max: %w", err)
	}
	if filter.SpeedMinRPM, err = floatParam(values.Get("speed_min_rpm")); err != nil {
		return filter, fmt.Errorf("speed_min_rpm: %w", err)
	}
	if filter.SpeedMaxRPM, err = floatParam(values.Get("speed_max_rpm")); err != nil {
		return filter, fmt.Errorf("speed_max_rpm: %w", err)
	}
	if filter.ReleasedAfter, err = dateParam(values.Get("released_after")); err != nil {
		return filter, fmt.Errorf("released_after: %w", err)
	}
	if filter.ReleasedBefore, err = dateParam(values.Get("released_before")); err != nil {
		return filter, fmt.Errorf("released_before: %w", err)
	}
	return filter, nil
}

func floatParam(value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, errors.New("not a number")
	}
	return &parsed, nil
}

func dateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, ok := catalog.ParseDate(value)
	if !ok {
		return nil, errors.New("not a date")
	}
	return &parsed, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondRejection(w http.ResponseWriter, err error, violations []catalog.Violation) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalog.ErrDuplicateIdentifier):
		status = http.StatusConflict
	case errors.Is(err, catalog.ErrRejected):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrNotFound):
		status = http.StatusNotFound
	}
	respondJSON(w, status, rejectionResponse{Error: err.Error(), Violations: violations})
}

func respondQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidQuery):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func countViolations(violations []catalog.Violation) {
	for _, v := range violations {
		metrics.IncViolation(string(v.Kind))
	}
}
