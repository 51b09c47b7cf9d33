// Package query builds backend-agnostic aggregation descriptors for the
// status reports and renders them into the document store's query DSL.
package query

import (
	"time"
)

const (
	CollectionJobs  = "jobs"
	CollectionTasks = "tasks"

	FieldUser       = "produsername"
	FieldSite       = "computingsite"
	FieldModified   = "modificationtime"
	FieldJobStatus  = "jobstatus"
	FieldTaskStatus = "status"
	FieldTimestamp  = "timestamp"

	GroupingStatuses = "all_statuses"
	GroupingQueues   = "all_queues"
)

type Op int

const (
	OpExact Op = iota
	OpContains
	OpSince
)

type Filter struct {
	Field   string
	Op      Op
	Value   string
	SinceMs int64
}

type Grouping struct {
	Name  string
	Field string
}

// StatusQuery asks for document counts grouped by a status field. The
// caller guarantees an identity filter is present.
type StatusQuery struct {
	Collection    string
	Filters       []Filter
	WindowStartMs int64
	Groupings     []Grouping
}

// WindowStart returns the epoch-millisecond start of a window ending now.
func WindowStart(now time.Time, windowMs int64) int64 {
	start := now.UnixMilli() - windowMs
	if start > now.UnixMilli() {
		return now.UnixMilli()
	}
	return start
}

func since(windowStartMs int64) Filter {
	return Filter{Field: FieldModified, Op: OpSince, SinceMs: windowStartMs}
}

// JobsBySite also groups by computing site so the caller can confirm the
// requested site actually shows up in the results.
func JobsBySite(siteID string, windowStartMs int64) StatusQuery {
	return StatusQuery{
		Collection: CollectionJobs,
		Filters: []Filter{
			{Field: FieldSite, Op: OpContains, Value: siteID},
			since(windowStartMs),
		},
		WindowStartMs: windowStartMs,
		Groupings: []Grouping{
			{Name: GroupingStatuses, Field: FieldJobStatus},
			{Name: GroupingQueues, Field: FieldSite},
		},
	}
}

func JobsByUser(userID string, windowStartMs int64) StatusQuery {
	return byUser(CollectionJobs, FieldJobStatus, userID, windowStartMs)
}

func TasksByUser(userID string, windowStartMs int64) StatusQuery {
	return byUser(CollectionTasks, FieldTaskStatus, userID, windowStartMs)
}

func byUser(collection, statusField, userID string, windowStartMs int64) StatusQuery {
	return StatusQuery{
		Collection: collection,
		Filters: []Filter{
			{Field: FieldUser, Op: OpExact, Value: userID},
			since(windowStartMs),
		},
		WindowStartMs: windowStartMs,
		Groupings:     []Grouping{{Name: GroupingStatuses, Field: statusField}},
	}
}

// Body renders q as an Elasticsearch search body: bool/must filters and one
// terms aggregation per grouping, no hits.
func (q StatusQuery) Body() map[string]any {
	must := make([]map[string]any, 0, len(q.Filters))
	for _, f := range q.Filters {
		switch f.Op {
		case OpExact:
			must = append(must, map[string]any{"match": map[string]any{f.Field: f.Value}})
		case OpContains:
			must = append(must, map[string]any{"wildcard": map[string]any{f.Field: "*" + f.Value + "*"}})
		case OpSince:
			must = append(must, map[string]any{"range": map[string]any{f.Field: map[string]any{"gte": f.SinceMs}}})
		}
	}
	aggs := make(map[string]any, len(q.Groupings))
	for _, g := range q.Groupings {
		aggs[g.Name] = map[string]any{"terms": map[string]any{"field": g.Field}}
	}
	return map[string]any{
		"size": 0,
		"query": map[string]any{
			"bool": map[string]any{"must": must},
		},
		"aggs": aggs,
	}
}

// CountRange counts documents of Index with Field in (GtMs, LteMs].
type CountRange struct {
	Index string
	Field string
	GtMs  int64
	LteMs int64
}

func (r CountRange) Body() map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": map[string]any{
					"range": map[string]any{r.Field: map[string]any{"gt": r.GtMs, "lte": r.LteMs}},
				},
			},
		},
	}
}
