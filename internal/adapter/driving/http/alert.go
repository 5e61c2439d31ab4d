package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/internal/core/port"
	"github.com/moniflow/moniflow/pkg/httputil"
	"github.com/moniflow/moniflow/pkg/timeutil"
)

// AlertHandler handles rule CRUD and direct hot-cache metric submission.
type AlertHandler struct {
	rules  port.RuleService
	cache  port.HotCache
	logger *slog.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(rules port.RuleService, cache port.HotCache, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{rules: rules, cache: cache, logger: logger}
}

// Routes registers alert service routes
func (h *AlertHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Root)
	r.Route("/alerts", func(r chi.Router) {
		r.Post("/", h.CreateRule)
		r.Get("/", h.ListRules)
		r.Get("/{id}", h.GetRule)
		r.Delete("/{id}", h.DeleteRule)
	})
	r.Post("/metrics", h.CacheMetric)

	return r
}

// Root reports the service as running.
func (h *AlertHandler) Root(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Alert Service Running"})
}

// CreateRule creates an alert rule from the wire payload.
func (h *AlertHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var input port.CreateRuleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.Detail(w, http.StatusUnprocessableEntity, "invalid rule payload")
		return
	}

	id, err := h.rules.Create(r.Context(), input)
	if err != nil {
		httputil.AppError(w, err)
		return
	}

	h.logger.Info("alert rule created", "rule_id", id, "metric", input.MetricName)
	httputil.JSON(w, http.StatusOK, map[string]string{
		"message": "Alert rule created",
		"rule_id": id,
	})
}

// GetRule returns one rule by id.
func (h *AlertHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.rules.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			httputil.Detail(w, http.StatusNotFound, "Alert rule not found")
			return
		}
		h.logger.Error("loading alert rule failed", "error", err)
		httputil.Detail(w, http.StatusInternalServerError, "failed to load alert rule")
		return
	}
	httputil.JSON(w, http.StatusOK, rule)
}

// ListRules returns all stored rules.
func (h *AlertHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.List(r.Context())
	if err != nil {
		h.logger.Error("listing alert rules failed", "error", err)
		httputil.Detail(w, http.StatusInternalServerError, "failed to list alert rules")
		return
	}
	if rules == nil {
		rules = []*domain.AlertRule{}
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"alert_rules": rules})
}

// DeleteRule removes one rule by id.
func (h *AlertHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	err := h.rules.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			httputil.Detail(w, http.StatusNotFound, "Alert rule not found")
			return
		}
		h.logger.Error("deleting alert rule failed", "error", err)
		httputil.Detail(w, http.StatusInternalServerError, "failed to delete alert rule")
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Alert rule deleted"})
}

// CacheMetric writes one sample, or a list of samples, straight into the
// hot cache for the evaluator. The backend being down is a 503; nothing
// is buffered on this path.
func (h *AlertHandler) CacheMetric(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.Detail(w, http.StatusUnprocessableEntity, "invalid metric payload")
		return
	}

	samples, ok := decodeSamples(w, body)
	if !ok {
		return
	}

	for _, sample := range samples {
		if err := h.cache.Store(r.Context(), sample); err != nil {
			if errors.Is(err, domain.ErrInvalidTimestamp) {
				httputil.Detail(w, http.StatusUnprocessableEntity, "invalid timestamp")
				return
			}
			h.logger.Error("hot cache store failed", "measurement", sample.Measurement, "error", err)
			httputil.Detail(w, http.StatusServiceUnavailable, "Cache is unavailable. Metric not cached.")
			return
		}
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Metric cached"})
}

// decodeSamples accepts either one sample object or a JSON array of
// samples, validating each.
func decodeSamples(w http.ResponseWriter, body []byte) ([]domain.Sample, bool) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		httputil.Detail(w, http.StatusUnprocessableEntity, "invalid metric payload")
		return nil, false
	}

	var samples []domain.Sample
	if trimmed[0] == '[' {
		if err := json.Unmarshal(body, &samples); err != nil {
			httputil.Detail(w, http.StatusUnprocessableEntity, "invalid metric payload")
			return nil, false
		}
	} else {
		var sample domain.Sample
		if err := json.Unmarshal(body, &sample); err != nil {
			httputil.Detail(w, http.StatusUnprocessableEntity, "invalid metric payload")
			return nil, false
		}
		samples = []domain.Sample{sample}
	}

	if len(samples) == 0 {
		httputil.Detail(w, http.StatusUnprocessableEntity, "empty metric list")
		return nil, false
	}
	for i := range samples {
		if !samples[i].IsValid() {
			httputil.Detail(w, http.StatusUnprocessableEntity, "measurement, tags and fields are required")
			return nil, false
		}
		if samples[i].Timestamp == "" {
			samples[i].Timestamp = timeutil.NowISO()
		} else if _, err := timeutil.ParseTimestamp(samples[i].Timestamp); err != nil {
			httputil.Detail(w, http.StatusUnprocessableEntity, "invalid timestamp")
			return nil, false
		}
	}
	return samples, true
}
