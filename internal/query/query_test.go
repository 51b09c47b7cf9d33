package query

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobsByUser(t *testing.T) {
	t.Parallel()

	q := JobsByUser("alice01", 1000)
	assert.Equal(t, CollectionJobs, q.Collection)
	assert.Equal(t, int64(1000), q.WindowStartMs)
	require.Len(t, q.Filters, 2)
	assert.Equal(t, Filter{Field: FieldUser, Op: OpExact, Value: "alice01"}, q.Filters[0])
	assert.Equal(t, Filter{Field: FieldModified, Op: OpSince, SinceMs: 1000}, q.Filters[1])
	assert.Equal(t, []Grouping{{Name: GroupingStatuses, Field: FieldJobStatus}}, q.Groupings)
}

func TestTasksByUserGroupsOnTaskStatus(t *testing.T) {
	t.Parallel()

	q := TasksByUser("alice01", 5)
	assert.Equal(t, CollectionTasks, q.Collection)
	assert.Equal(t, []Grouping{{Name: GroupingStatuses, Field: FieldTaskStatus}}, q.Groupings)
}

func TestJobsBySiteAddsQueueGrouping(t *testing.T) {
	t.Parallel()

	q := JobsBySite("CERN", 7)
	require.Len(t, q.Filters, 2)
	assert.Equal(t, OpContains, q.Filters[0].Op)
	assert.Equal(t, FieldSite, q.Filters[0].Field)
	require.Len(t, q.Groupings, 2)
	assert.Equal(t, Grouping{Name: GroupingQueues, Field: FieldSite}, q.Groupings[1])
}

func TestStatusQueryBody(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(JobsBySite("CERN", 42).Body())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"size": 0,
		"query": {"bool": {"must": [
			{"wildcard": {"computingsite": "*CERN*"}},
			{"range": {"modificationtime": {"gte": 42}}}
		]}},
		"aggs": {
			"all_statuses": {"terms": {"field": "jobstatus"}},
			"all_queues": {"terms": {"field": "computingsite"}}
		}
	}`, string(raw))

	raw, err = json.Marshal(TasksByUser("alice01", 1).Body())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"size": 0,
		"query": {"bool": {"must": [
			{"match": {"produsername": "alice01"}},
			{"range": {"modificationtime": {"gte": 1}}}
		]}},
		"aggs": {"all_statuses": {"terms": {"field": "status"}}}
	}`, string(raw))
}

func TestCountRangeBody(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(CountRange{Index: "ps_owd", Field: FieldTimestamp, GtMs: 10, LteMs: 20}.Body())
	require.NoError(t, err)
	assert.JSONEq(t, `{"query": {"bool": {"filter": {"range": {"timestamp": {"gt": 10, "lte": 20}}}}}}`, string(raw))
}

func TestWindowStartNeverAfterNow(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_000_000)
	assert.Equal(t, int64(1_000_000-86_400_000), WindowStart(now, 86_400_000))
	assert.Equal(t, now.UnixMilli(), WindowStart(now, -5))
}

func TestNewReportTotals(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		buckets []Bucket
		total   int64
	}{
		{name: "empty", buckets: nil, total: 0},
		{name: "single", buckets: []Bucket{{Key: "running", Count: 4}}, total: 4},
		{name: "many", buckets: []Bucket{{Key: "finished", Count: 10}, {Key: "failed", Count: 3}, {Key: "running", Count: 1}}, total: 14},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReport(tc.buckets)
			var sum int64
			for _, b := range r.Buckets {
				sum += b.Count
			}
			assert.Equal(t, tc.total, r.Total)
			assert.Equal(t, sum, r.Total)
		})
	}
}

func TestReportLinesPreserveBackendOrder(t *testing.T) {
	t.Parallel()

	r := NewReport([]Bucket{{Key: "finished", Count: 10}, {Key: "failed", Count: 3}})
	assert.Equal(t, "Jobs are in following states:\nfinished 10,\nfailed 3,\n", r.Lines("Jobs"))
	assert.Equal(t, "", NewReport(nil).Lines("Jobs"))
	assert.Equal(t, "", NewReport([]Bucket{{Key: "running", Count: 0}}).Lines("Tasks"))
}

func TestReportContains(t *testing.T) {
	t.Parallel()

	r := NewReport([]Bucket{{Key: "CERN-PROD_UCORE", Count: 1}})
	assert.True(t, r.Contains("CERN"))
	assert.False(t, r.Contains("BNL"))
}
