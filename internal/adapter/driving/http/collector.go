// Package http implements the driving HTTP adapters for the collector
// and alert services.
package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/moniflow/moniflow/internal/adapter/driven/influx"
	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/internal/core/port"
	"github.com/moniflow/moniflow/internal/ingest"
	"github.com/moniflow/moniflow/pkg/httputil"
	"github.com/moniflow/moniflow/pkg/timeutil"
)

// enqueueWait bounds how long an ingest request blocks on a full queue
// before the client sees a 503.
const enqueueWait = 100 * time.Millisecond

// CollectorHandler handles metric and log ingestion plus the read
// passthrough over the time-series store.
type CollectorHandler struct {
	metricQueue *ingest.Queue[domain.Sample]
	logQueue    *ingest.Queue[domain.LogEvent]
	cache       port.HotCache
	reader      port.TimeSeriesReader
	logger      *slog.Logger
}

// NewCollectorHandler creates a new collector handler
func NewCollectorHandler(
	metricQueue *ingest.Queue[domain.Sample],
	logQueue *ingest.Queue[domain.LogEvent],
	cache port.HotCache,
	reader port.TimeSeriesReader,
	logger *slog.Logger,
) *CollectorHandler {
	return &CollectorHandler{
		metricQueue: metricQueue,
		logQueue:    logQueue,
		cache:       cache,
		reader:      reader,
		logger:      logger,
	}
}

// Routes registers collector routes
func (h *CollectorHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Root)
	r.Route("/metrics", func(r chi.Router) {
		r.Post("/", h.IngestMetric)
		r.Get("/", h.QueryMetrics)
	})
	r.Route("/logs", func(r chi.Router) {
		r.Post("/", h.IngestLog)
		r.Get("/", h.QueryLogs)
	})

	return r
}

// Root reports the service as running.
func (h *CollectorHandler) Root(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Metrics Collector Service Running"})
}

// IngestMetric enqueues one sample for the durable store and mirrors it
// onto the hot-cache ingest list for the evaluator.
func (h *CollectorHandler) IngestMetric(w http.ResponseWriter, r *http.Request) {
	sample, ok := decodeSample(w, r.Body)
	if !ok {
		return
	}

	if err := h.metricQueue.Enqueue(r.Context(), sample, enqueueWait); err != nil {
		h.logger.Warn("metric queue full, rejecting sample", "measurement", sample.Measurement)
		httputil.Detail(w, http.StatusServiceUnavailable, "ingest queue full")
		return
	}

	// Best effort: the durable write is already committed to the queue.
	if err := h.cache.PushIngest(r.Context(), sample); err != nil {
		h.logger.Error("hot cache ingest push failed", "error", err)
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// IngestLog enqueues one log event for the durable store.
func (h *CollectorHandler) IngestLog(w http.ResponseWriter, r *http.Request) {
	var event domain.LogEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		httputil.Detail(w, http.StatusUnprocessableEntity, "invalid log payload")
		return
	}

	if !event.Level.IsValid() {
		httputil.Detail(w, http.StatusBadRequest, "invalid log level")
		return
	}
	if event.Message == "" {
		httputil.Detail(w, http.StatusUnprocessableEntity, "message is required")
		return
	}
	if event.Timestamp == "" {
		event.Timestamp = timeutil.NowISO()
	} else if _, err := timeutil.ParseTimestamp(event.Timestamp); err != nil {
		httputil.Detail(w, http.StatusUnprocessableEntity, "invalid timestamp")
		return
	}

	if err := h.logQueue.Enqueue(r.Context(), event, enqueueWait); err != nil {
		h.logger.Warn("log queue full, rejecting event", "level", event.Level)
		httputil.Detail(w, http.StatusServiceUnavailable, "ingest queue full")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// QueryMetrics runs a filtered read over the time-series store and
// returns the generated query alongside the results.
func (h *CollectorHandler) QueryMetrics(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	measurement := params.Get("measurement")
	if measurement == "" {
		httputil.Detail(w, http.StatusUnprocessableEntity, "measurement is required")
		return
	}

	q := domain.MetricReadQuery{
		Measurement:     measurement,
		Start:           params.Get("start"),
		End:             params.Get("end"),
		Aggregate:       params.Get("aggregate"),
		AggregateWindow: params.Get("aggregate_window"),
	}

	if tagsStr := params.Get("tags"); tagsStr != "" {
		var tags map[string]string
		if err := json.Unmarshal([]byte(tagsStr), &tags); err != nil {
			httputil.Detail(w, http.StatusUnprocessableEntity, "invalid tags format")
			return
		}
		q.Tags = tags
	}
	if limitStr := params.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			httputil.Detail(w, http.StatusUnprocessableEntity, "invalid limit")
			return
		}
		q.Limit = limit
	}

	query, results, err := h.reader.QueryMetrics(r.Context(), q)
	if err != nil {
		h.logger.Error("metric query failed", "error", err)
		httputil.Detail(w, http.StatusServiceUnavailable, "time-series store unavailable")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]any{"query": query, "results": results})
}

// QueryLogs reads log records and groups them by service, optionally by
// (service, level) when group_by=level is passed.
func (h *CollectorHandler) QueryLogs(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := domain.LogReadQuery{
		Start:   params.Get("start"),
		End:     params.Get("end"),
		Level:   params.Get("level"),
		Service: params.Get("service"),
	}
	if q.Level != "" && !domain.LogLevel(q.Level).IsValid() {
		httputil.Detail(w, http.StatusBadRequest, "invalid log level")
		return
	}

	logs, err := h.reader.QueryLogs(r.Context(), q)
	if err != nil {
		h.logger.Error("log query failed", "error", err)
		httputil.Detail(w, http.StatusServiceUnavailable, "time-series store unavailable")
		return
	}

	if params.Get("group_by") == "level" {
		httputil.JSON(w, http.StatusOK, influx.GroupLogsByServiceAndLevel(logs))
		return
	}
	httputil.JSON(w, http.StatusOK, influx.GroupLogsByService(logs))
}

// decodeSample decodes and validates one sample payload, writing the
// error response itself on failure.
func decodeSample(w http.ResponseWriter, body io.Reader) (domain.Sample, bool) {
	var sample domain.Sample
	if err := json.NewDecoder(body).Decode(&sample); err != nil {
		httputil.Detail(w, http.StatusUnprocessableEntity, "invalid metric payload")
		return sample, false
	}
	if !sample.IsValid() {
		httputil.Detail(w, http.StatusUnprocessableEntity, "measurement, tags and fields are required")
		return sample, false
	}
	if sample.Timestamp == "" {
		sample.Timestamp = timeutil.NowISO()
	} else if _, err := timeutil.ParseTimestamp(sample.Timestamp); err != nil {
		httputil.Detail(w, http.StatusUnprocessableEntity, "invalid timestamp")
		return sample, false
	}
	return sample, true
}
