package backend

import (
	"context"
	"errors"

	"gridbot/internal/query"
)

var ErrBackendUnavailable = errors.New("document store unavailable")

// Aggregations maps a grouping name to its buckets in backend order.
type Aggregations map[string][]query.Bucket

type Health struct {
	Status           string `json:"status"`
	UnassignedShards int    `json:"unassigned_shards"`
}

// DocumentStore is the read-only query surface consumed by the dialogue and
// freshness packages. The concrete implementation is *Elastic.
type DocumentStore interface {
	Search(ctx context.Context, q query.StatusQuery) (Aggregations, error)
	Count(ctx context.Context, r query.CountRange) (int64, error)
	ClusterHealth(ctx context.Context) (Health, error)
	Ping(ctx context.Context) error
}
