package testutil

import (
	"context"
	"sync"

	"gridbot/internal/backend"
	"gridbot/internal/query"
)

// MockBackend is a thread-safe in-memory backend.DocumentStore for testing.
type MockBackend struct {
	mu sync.Mutex

	// Results is keyed by collection.
	Results map[string]backend.Aggregations
	Health  backend.Health
	// CountFunc answers Count; nil answers zero.
	CountFunc func(query.CountRange) int64

	SearchErr error
	CountErr  error
	HealthErr error
	PingErr   error

	Searches    []query.StatusQuery
	SearchCalls int
	CountCalls  int
	HealthCalls int
	PingCalls   int
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		Results: make(map[string]backend.Aggregations),
		Health:  backend.Health{Status: "green"},
	}
}

// SetStatuses installs the all_statuses grouping for a collection.
func (m *MockBackend) SetStatuses(collection string, buckets ...query.Bucket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	aggs := m.Results[collection]
	if aggs == nil {
		aggs = backend.Aggregations{}
		m.Results[collection] = aggs
	}
	aggs[query.GroupingStatuses] = buckets
}

func (m *MockBackend) Search(_ context.Context, q query.StatusQuery) (backend.Aggregations, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	m.Searches = append(m.Searches, q)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	out := backend.Aggregations{}
	for name, buckets := range m.Results[q.Collection] {
		out[name] = append([]query.Bucket(nil), buckets...)
	}
	return out, nil
}

func (m *MockBackend) Count(_ context.Context, r query.CountRange) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CountCalls++
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	if m.CountFunc == nil {
		return 0, nil
	}
	return m.CountFunc(r), nil
}

func (m *MockBackend) ClusterHealth(context.Context) (backend.Health, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HealthCalls++
	if m.HealthErr != nil {
		return backend.Health{}, m.HealthErr
	}
	return m.Health, nil
}

func (m *MockBackend) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PingCalls++
	return m.PingErr
}

// Calls returns the total number of backend calls made so far.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SearchCalls + m.CountCalls + m.HealthCalls + m.PingCalls
}

// LastSearch returns the most recent query, or the zero value.
func (m *MockBackend) LastSearch() query.StatusQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Searches) == 0 {
		return query.StatusQuery{}
	}
	return m.Searches[len(m.Searches)-1]
}
