package query

import (
	"strconv"
	"strings"
)

type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"doc_count"`
}

// Report keeps buckets in the order the backend returned them. Total is
// always summed here, never taken from the backend.
type Report struct {
	Buckets []Bucket
	Total   int64
}

func NewReport(buckets []Bucket) Report {
	r := Report{Buckets: make([]Bucket, 0, len(buckets))}
	for _, b := range buckets {
		if b.Count < 0 {
			continue
		}
		r.Buckets = append(r.Buckets, b)
		r.Total += b.Count
	}
	return r
}

// Lines renders one "<key> <count>," line per bucket under a heading such as
// "Jobs are in following states:". Nothing is rendered for an empty report.
func (r Report) Lines(noun string) string {
	if r.Total == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(noun)
	sb.WriteString(" are in following states:\n")
	for _, b := range r.Buckets {
		sb.WriteString(b.Key)
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatInt(b.Count, 10))
		sb.WriteString(",\n")
	}
	return sb.String()
}

// Contains reports whether any bucket key contains s.
func (r Report) Contains(s string) bool {
	for _, b := range r.Buckets {
		if strings.Contains(b.Key, s) {
			return true
		}
	}
	return false
}
