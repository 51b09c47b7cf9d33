package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridbot/internal/query"
)

type recordingObserver struct {
	mu   sync.Mutex
	ops  []string
	errs []error
}

func (r *recordingObserver) ObserveBackend(op string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

type capturedRequest struct {
	method string
	path   string
	body   map[string]any
}

func newFakeCluster(t *testing.T, status int, reply string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func newTestElastic(t *testing.T, url string, obs Observer) *Elastic {
	t.Helper()
	e, err := NewElastic(Config{Addresses: []string{url}}, obs, zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestSearchDecodesBucketsInOrder(t *testing.T) {
	reply := `{"aggregations":{"all_statuses":{"buckets":[
		{"key":"finished","doc_count":12},
		{"key":"failed","doc_count":3}
	]}}}`
	srv, reqs := newFakeCluster(t, http.StatusOK, reply)
	obs := &recordingObserver{}
	e := newTestElastic(t, srv.URL, obs)

	aggs, err := e.Search(context.Background(), query.JobsByUser("alice01", 100))
	require.NoError(t, err)
	assert.Equal(t, []query.Bucket{{Key: "finished", Count: 12}, {Key: "failed", Count: 3}}, aggs[query.GroupingStatuses])

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, "/jobs/_search", got.path)
	assert.EqualValues(t, 0, got.body["size"])
	assert.Contains(t, got.body, "aggs")
	assert.Equal(t, []string{"search"}, obs.ops)
	assert.NoError(t, obs.errs[0])
}

func TestCountUsesIndexAndRange(t *testing.T) {
	srv, reqs := newFakeCluster(t, http.StatusOK, `{"count":57}`)
	e := newTestElastic(t, srv.URL, nil)

	n, err := e.Count(context.Background(), query.CountRange{Index: "ps_owd", Field: query.FieldTimestamp, GtMs: 1, LteMs: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(57), n)
	require.Len(t, *reqs, 1)
	assert.Equal(t, "/ps_owd/_count", (*reqs)[0].path)
}

func TestClusterHealth(t *testing.T) {
	srv, _ := newFakeCluster(t, http.StatusOK, `{"cluster_name":"atlas","status":"yellow","unassigned_shards":4}`)
	e := newTestElastic(t, srv.URL, nil)

	h, err := e.ClusterHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Health{Status: "yellow", UnassignedShards: 4}, h)
}

func TestErrorStatusMapsToUnavailable(t *testing.T) {
	srv, _ := newFakeCluster(t, http.StatusServiceUnavailable, `{"error":"cluster_block_exception"}`)
	obs := &recordingObserver{}
	e := newTestElastic(t, srv.URL, obs)

	_, err := e.Count(context.Background(), query.CountRange{Index: "ps_meta", Field: query.FieldTimestamp})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackendUnavailable))
	assert.True(t, strings.Contains(err.Error(), "503"))
	require.Len(t, obs.errs, 1)
	assert.Error(t, obs.errs[0])
}

func TestUnreachableClusterMapsToUnavailable(t *testing.T) {
	e := newTestElastic(t, "http://127.0.0.1:1", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := e.Ping(ctx)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}
