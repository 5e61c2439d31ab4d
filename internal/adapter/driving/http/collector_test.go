package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/internal/core/service/mocks"
	"github.com/moniflow/moniflow/internal/ingest"
)

type collectorFixture struct {
	metricQueue *ingest.Queue[domain.Sample]
	logQueue    *ingest.Queue[domain.LogEvent]
	cache       *mocks.MockHotCache
	reader      *mocks.MockTimeSeriesReader
	router      http.Handler
}

func newCollectorFixture(queueCap int) *collectorFixture {
	f := &collectorFixture{
		metricQueue: ingest.NewQueue[domain.Sample]("metrics", queueCap),
		logQueue:    ingest.NewQueue[domain.LogEvent]("logs", queueCap),
		cache:       mocks.NewMockHotCache(),
		reader:      mocks.NewMockTimeSeriesReader(),
	}
	h := NewCollectorHandler(f.metricQueue, f.logQueue, f.cache, f.reader, slog.Default())
	f.router = h.Routes()
	return f
}

func (f *collectorFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestCollector_IngestMetric(t *testing.T) {
	validSample := `{"measurement":"cpu","tags":{"host":"s1"},"fields":{"usage":90.3},"timestamp":"2025-02-26T12:00:00Z"}`

	t.Run("valid sample is enqueued and mirrored to the cache list", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodPost, "/metrics/", validSample)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
		assert.Equal(t, 1, f.metricQueue.Len())
		assert.Len(t, f.cache.Ingest, 1)
	})

	t.Run("integer fields widen to float", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodPost, "/metrics/",
			`{"measurement":"cpu","tags":{"host":"s1"},"fields":{"usage":90}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing tags rejects with 422", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodPost, "/metrics/",
			`{"measurement":"cpu","tags":{},"fields":{"usage":90.3}}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("timestamp without zone rejects with 422", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodPost, "/metrics/",
			`{"measurement":"cpu","tags":{"host":"s1"},"fields":{"usage":90.3},"timestamp":"2025-02-26T12:00:00"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("numeric timestamp rejects with 422", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodPost, "/metrics/",
			`{"measurement":"cpu","tags":{"host":"s1"},"fields":{"usage":90.3},"timestamp":1740571200}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("full queue returns 503", func(t *testing.T) {
		f := newCollectorFixture(1)

		require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/metrics/", validSample).Code)
		rec := f.do(http.MethodPost, "/metrics/", validSample)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCollector_IngestLog(t *testing.T) {
	t.Run("valid log is enqueued", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodPost, "/logs/",
			`{"message":"disk nearly full","level":"WARNING","tags":{"service":"collector"}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, f.logQueue.Len())
	})

	t.Run("invalid level returns 400", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodPost, "/logs/",
			`{"message":"x","level":"TRACE","tags":{}}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing message returns 422", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodPost, "/logs/", `{"level":"INFO","tags":{}}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed body returns 422", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodPost, "/logs/", `{"message":`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestCollector_QueryMetrics(t *testing.T) {
	t.Run("returns query and results", func(t *testing.T) {
		f := newCollectorFixture(8)
		f.reader.MetricResults = []map[string]any{{"time": "2025-02-26T12:00:00Z", "value": 90.3}}

		rec := f.do(http.MethodGet, "/metrics/?measurement=cpu&start=-1h&aggregate=mean", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"query"`)
		assert.Contains(t, rec.Body.String(), `"results"`)
		assert.Equal(t, "cpu", f.reader.LastMetricQuery.Measurement)
		assert.Equal(t, "mean", f.reader.LastMetricQuery.Aggregate)
	})

	t.Run("tags filter decodes from JSON", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodGet, `/metrics/?measurement=cpu&tags={"host":"s1"}`, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]string{"host": "s1"}, f.reader.LastMetricQuery.Tags)
	})

	t.Run("missing measurement returns 422", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodGet, "/metrics/?start=-1h", "")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestCollector_QueryLogs(t *testing.T) {
	logs := []map[string]any{
		{"service": "collector", "level": "INFO", "message": "a"},
		{"service": "collector", "level": "ERROR", "message": "b"},
		{"service": "gateway", "level": "INFO", "message": "c"},
	}

	t.Run("groups by service by default", func(t *testing.T) {
		f := newCollectorFixture(8)
		f.reader.LogResults = logs

		rec := f.do(http.MethodGet, "/logs/", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"collector":[`)
		assert.Contains(t, rec.Body.String(), `"gateway":[`)
	})

	t.Run("groups by service and level on request", func(t *testing.T) {
		f := newCollectorFixture(8)
		f.reader.LogResults = logs

		rec := f.do(http.MethodGet, "/logs/?group_by=level", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"ERROR":[`)
	})

	t.Run("invalid level filter returns 400", func(t *testing.T) {
		f := newCollectorFixture(8)

		rec := f.do(http.MethodGet, "/logs/?level=LOUD", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCollector_Root(t *testing.T) {
	f := newCollectorFixture(8)
	rec := f.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Metrics Collector Service Running"}`, rec.Body.String())
}
