// Package mocks provides hand-rolled test doubles for the secondary ports.
package mocks

import (
	"context"
	"sync"

	"github.com/moniflow/moniflow/internal/core/domain"
)

// MockRuleRepository implements port.RuleRepository backed by a map.
type MockRuleRepository struct {
	mu     sync.Mutex
	Rules  map[string]*domain.AlertRule
	nextID int

	CreateErr    error
	FindErr      error
	CreateCalled bool
	DeleteCalled bool
}

func NewMockRuleRepository() *MockRuleRepository {
	return &MockRuleRepository{Rules: make(map[string]*domain.AlertRule)}
}

func (m *MockRuleRepository) Create(ctx context.Context, rule *domain.AlertRule) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalled = true
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.nextID++
	id := string(rune('a'+m.nextID-1)) + "00000000000000000000000"
	rule.ID = id
	m.Rules[id] = rule
	return id, nil
}

func (m *MockRuleRepository) FindByID(ctx context.Context, id string) (*domain.AlertRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	rule, ok := m.Rules[id]
	if !ok {
		return nil, domain.ErrRuleNotFound
	}
	return rule, nil
}

func (m *MockRuleRepository) FindAll(ctx context.Context) ([]*domain.AlertRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	out := make([]*domain.AlertRule, 0, len(m.Rules))
	for _, r := range m.Rules {
		out = append(out, r)
	}
	return out, nil
}

func (m *MockRuleRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalled = true
	if _, ok := m.Rules[id]; !ok {
		return domain.ErrRuleNotFound
	}
	delete(m.Rules, id)
	return nil
}

// MockHistoryRepository implements port.HistoryRepository.
type MockHistoryRepository struct {
	mu        sync.Mutex
	Entries   []*domain.HistoryEntry
	AppendErr error
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{}
}

func (m *MockHistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

// ByStatus returns recorded entries with the given status.
func (m *MockHistoryRepository) ByStatus(status domain.HistoryStatus) []*domain.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.HistoryEntry
	for _, e := range m.Entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// MockHotCache implements port.HotCache with canned query results.
type MockHotCache struct {
	mu sync.Mutex

	StoreErr    error
	StoreCalled bool
	Stored      []domain.Sample

	// QueryResults maps metric name to the values returned by Query.
	QueryResults map[string][]float64
	QueryErr     error

	Ingest []domain.Sample
}

func NewMockHotCache() *MockHotCache {
	return &MockHotCache{QueryResults: make(map[string][]float64)}
}

func (m *MockHotCache) Store(ctx context.Context, sample domain.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreCalled = true
	if m.StoreErr != nil {
		return m.StoreErr
	}
	m.Stored = append(m.Stored, sample)
	return nil
}

func (m *MockHotCache) Query(ctx context.Context, metric string, tags map[string]string, field string, durationSeconds int) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.QueryResults[metric], nil
}

func (m *MockHotCache) PushIngest(ctx context.Context, sample domain.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ingest = append(m.Ingest, sample)
	return nil
}

func (m *MockHotCache) PopIngest(ctx context.Context) (*domain.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Ingest) == 0 {
		return nil, nil
	}
	s := m.Ingest[0]
	m.Ingest = m.Ingest[1:]
	return &s, nil
}

// MockAlertStateStore implements port.AlertStateStore in memory, without
// TTL expiry. Tests drive expiry by clearing the maps.
type MockAlertStateStore struct {
	mu         sync.Mutex
	Alerts     map[string]int
	Recoveries map[string]int
	SetErr     error
}

func NewMockAlertStateStore() *MockAlertStateStore {
	return &MockAlertStateStore{
		Alerts:     make(map[string]int),
		Recoveries: make(map[string]int),
	}
}

func (m *MockAlertStateStore) SetAlert(ctx context.Context, ruleID string, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Alerts[ruleID] = ttlSeconds
	return nil
}

func (m *MockAlertStateStore) HasAlert(ctx context.Context, ruleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Alerts[ruleID]
	return ok, nil
}

func (m *MockAlertStateStore) SetRecovery(ctx context.Context, ruleID string, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Recoveries[ruleID] = ttlSeconds
	return nil
}

func (m *MockAlertStateStore) HasRecovery(ctx context.Context, ruleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Recoveries[ruleID]
	return ok, nil
}

// ClearAlert simulates TTL expiry of an alert marker.
func (m *MockAlertStateStore) ClearAlert(ruleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Alerts, ruleID)
}

// MockNotifier implements port.Notifier, recording every delivery.
type MockNotifier struct {
	mu        sync.Mutex
	Sent      []MockNotification
	NotifyErr error
}

type MockNotification struct {
	RuleID string
	Status domain.HistoryStatus
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, rule *domain.AlertRule, status domain.HistoryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NotifyErr != nil {
		return m.NotifyErr
	}
	m.Sent = append(m.Sent, MockNotification{RuleID: rule.ID, Status: status})
	return nil
}

// MockTimeSeriesWriter implements port.TimeSeriesWriter.
type MockTimeSeriesWriter struct {
	mu       sync.Mutex
	Samples  [][]domain.Sample
	Logs     [][]domain.LogEvent
	WriteErr error
}

func NewMockTimeSeriesWriter() *MockTimeSeriesWriter {
	return &MockTimeSeriesWriter{}
}

func (m *MockTimeSeriesWriter) WriteSamples(ctx context.Context, samples []domain.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	batch := make([]domain.Sample, len(samples))
	copy(batch, samples)
	m.Samples = append(m.Samples, batch)
	return nil
}

func (m *MockTimeSeriesWriter) WriteLogs(ctx context.Context, events []domain.LogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	batch := make([]domain.LogEvent, len(events))
	copy(batch, events)
	m.Logs = append(m.Logs, batch)
	return nil
}

// BatchCount returns how many sample batches were written.
func (m *MockTimeSeriesWriter) BatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Samples)
}

// MockTimeSeriesReader implements port.TimeSeriesReader with canned rows.
type MockTimeSeriesReader struct {
	Query         string
	MetricResults []map[string]any
	LogResults    []map[string]any
	ReadErr       error

	LastMetricQuery domain.MetricReadQuery
	LastLogQuery    domain.LogReadQuery
}

func NewMockTimeSeriesReader() *MockTimeSeriesReader {
	return &MockTimeSeriesReader{Query: "from(bucket: \"moniflow\")"}
}

func (m *MockTimeSeriesReader) QueryMetrics(ctx context.Context, q domain.MetricReadQuery) (string, []map[string]any, error) {
	m.LastMetricQuery = q
	if m.ReadErr != nil {
		return "", nil, m.ReadErr
	}
	return m.Query, m.MetricResults, nil
}

func (m *MockTimeSeriesReader) QueryLogs(ctx context.Context, q domain.LogReadQuery) ([]map[string]any, error) {
	m.LastLogQuery = q
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.LogResults, nil
}
