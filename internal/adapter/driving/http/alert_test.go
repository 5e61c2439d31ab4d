package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/internal/core/service"
	"github.com/moniflow/moniflow/internal/core/service/mocks"
)

type alertFixture struct {
	repo   *mocks.MockRuleRepository
	cache  *mocks.MockHotCache
	router http.Handler
}

func newAlertFixture() *alertFixture {
	f := &alertFixture{
		repo:  mocks.NewMockRuleRepository(),
		cache: mocks.NewMockHotCache(),
	}
	h := NewAlertHandler(service.NewRuleService(f.repo), f.cache, slog.Default())
	f.router = h.Routes()
	return f
}

func (f *alertFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

const validRule = `{
	"metric_name": "cpu_usage",
	"tags": {"host": "server1"},
	"field_name": "usage",
	"threshold": 80.0,
	"duration_value": 5,
	"duration_unit": "minutes",
	"comparison": ">"
}`

func TestAlert_CreateRule(t *testing.T) {
	t.Run("creates a rule and returns its id", func(t *testing.T) {
		f := newAlertFixture()

		rec := f.do(http.MethodPost, "/alerts/", validRule)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Alert rule created", resp["message"])
		assert.NotEmpty(t, resp["rule_id"])

		rule := f.repo.Rules[resp["rule_id"]]
		require.NotNil(t, rule)
		assert.Equal(t, 300, rule.DurationSeconds)
	})

	t.Run("schema failure returns 422", func(t *testing.T) {
		f := newAlertFixture()

		rec := f.do(http.MethodPost, "/alerts/",
			`{"metric_name":"cpu_usage","tags":{},"field_name":"usage","threshold":80,"duration_value":5,"duration_unit":"minutes","comparison":">"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("extended comparison rejected on the wire", func(t *testing.T) {
		f := newAlertFixture()

		rec := f.do(http.MethodPost, "/alerts/",
			strings.Replace(validRule, `">"`, `">="`, 1))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed body returns 422", func(t *testing.T) {
		f := newAlertFixture()

		rec := f.do(http.MethodPost, "/alerts/", `{"metric_name":`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAlert_RuleLifecycle(t *testing.T) {
	f := newAlertFixture()

	rec := f.do(http.MethodPost, "/alerts/", validRule)
	require.Equal(t, http.StatusOK, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["rule_id"]

	t.Run("get returns the rule", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/alerts/"+id, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"cpu_usage"`)
	})

	t.Run("list contains the rule", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/alerts/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"alert_rules"`)
		assert.Contains(t, rec.Body.String(), id)
	})

	t.Run("delete removes the rule", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/alerts/"+id, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Alert rule deleted"}`, rec.Body.String())
	})

	t.Run("get after delete is 404", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/alerts/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"detail":"Alert rule not found"}`, rec.Body.String())
	})

	t.Run("delete after delete is 404", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/alerts/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAlert_CacheMetric(t *testing.T) {
	validSample := `{"measurement":"cpu","tags":{"host":"s1"},"fields":{"usage":90.3},"timestamp":"2025-02-26T12:00:00Z"}`

	t.Run("single sample lands in the cache", func(t *testing.T) {
		f := newAlertFixture()

		rec := f.do(http.MethodPost, "/metrics", validSample)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Metric cached"}`, rec.Body.String())
		require.Len(t, f.cache.Stored, 1)
		assert.Equal(t, "cpu", f.cache.Stored[0].Measurement)
	})

	t.Run("list of samples all land in the cache", func(t *testing.T) {
		f := newAlertFixture()

		rec := f.do(http.MethodPost, "/metrics", "["+validSample+","+validSample+"]")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, f.cache.Stored, 2)
	})

	t.Run("empty list returns 422", func(t *testing.T) {
		f := newAlertFixture()

		rec := f.do(http.MethodPost, "/metrics", "[]")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("backend down returns 503", func(t *testing.T) {
		f := newAlertFixture()
		f.cache.StoreErr = domain.ErrStorageUnavailable

		rec := f.do(http.MethodPost, "/metrics", validSample)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("invalid sample returns 422", func(t *testing.T) {
		f := newAlertFixture()

		rec := f.do(http.MethodPost, "/metrics",
			`{"measurement":"cpu","tags":{"host":"s1"},"fields":{}}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAlert_Root(t *testing.T) {
	f := newAlertFixture()
	rec := f.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Alert Service Running"}`, rec.Body.String())
}
