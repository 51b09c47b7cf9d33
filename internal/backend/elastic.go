package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog"

	"gridbot/internal/query"
)

// Observer receives one call per backend request.
type Observer interface {
	ObserveBackend(op string, took time.Duration, err error)
}

type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
}

// Elastic runs status queries against an Elasticsearch cluster.
type Elastic struct {
	es  *elasticsearch.Client
	obs Observer
	log zerolog.Logger
}

func NewElastic(cfg Config, obs Observer, log zerolog.Logger) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Elastic{
		es:  es,
		obs: obs,
		log: log.With().Str("component", "elastic").Logger(),
	}, nil
}

type searchResponse struct {
	Aggregations map[string]struct {
		Buckets []query.Bucket `json:"buckets"`
	} `json:"aggregations"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (e *Elastic) Search(ctx context.Context, q query.StatusQuery) (Aggregations, error) {
	body, err := encode(q.Body())
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("index", q.Collection).RawJSON("body", body).Msg("search")

	var out searchResponse
	err = e.do("search", &out, func() (*esapi.Response, error) {
		return e.es.Search(
			e.es.Search.WithContext(ctx),
			e.es.Search.WithIndex(q.Collection),
			e.es.Search.WithBody(bytes.NewReader(body)),
		)
	})
	if err != nil {
		return nil, err
	}

	aggs := make(Aggregations, len(out.Aggregations))
	for name, agg := range out.Aggregations {
		aggs[name] = agg.Buckets
	}
	return aggs, nil
}

func (e *Elastic) Count(ctx context.Context, r query.CountRange) (int64, error) {
	body, err := encode(r.Body())
	if err != nil {
		return 0, err
	}

	var out countResponse
	err = e.do("count", &out, func() (*esapi.Response, error) {
		return e.es.Count(
			e.es.Count.WithContext(ctx),
			e.es.Count.WithIndex(r.Index),
			e.es.Count.WithBody(bytes.NewReader(body)),
		)
	})
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (e *Elastic) ClusterHealth(ctx context.Context) (Health, error) {
	var out Health
	err := e.do("cluster_health", &out, func() (*esapi.Response, error) {
		return e.es.Cluster.Health(e.es.Cluster.Health.WithContext(ctx))
	})
	return out, err
}

func (e *Elastic) Ping(ctx context.Context) error {
	return e.do("ping", nil, func() (*esapi.Response, error) {
		return e.es.Ping(e.es.Ping.WithContext(ctx))
	})
}

// do runs one request, decodes the body into out (when non-nil) and maps
// every failure onto ErrBackendUnavailable.
func (e *Elastic) do(op string, out any, call func() (*esapi.Response, error)) (err error) {
	start := time.Now()
	defer func() {
		if e.obs != nil {
			e.obs.ObserveBackend(op, time.Since(start), err)
		}
	}()

	res, err := call()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, op, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%w: %s returned %d: %s", ErrBackendUnavailable, op, res.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrBackendUnavailable, op, err)
	}
	return nil
}

func encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return b, nil
}
