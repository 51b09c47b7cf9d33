// Package freshness checks whether the perfSONAR indices are still being fed.
//
// For every catalogued stream the document count of a reference window is
// compared against the count of the bin that follows it, both shifted nine
// days into the past so ordinary indexing lag does not register. The
// thresholds are calibration constants and must not be tuned.
package freshness

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gridbot/internal/backend"
	"gridbot/internal/query"
)

const (
	StalenessOffset = 9 * 24 * time.Hour
	MinDocuments    = 10
	MinRatio        = 0.25
)

// ErrBackendUnavailable is returned when any count fails; there is no
// partial verdict.
var ErrBackendUnavailable = backend.ErrBackendUnavailable

// Counter is the slice of the document store the detector needs.
type Counter interface {
	Count(ctx context.Context, r query.CountRange) (int64, error)
}

type Stream struct {
	Name     string  `toml:"name"`
	BinHours float64 `toml:"bin_hours"`
}

// DefaultCatalogue lists the perfSONAR indices and their expected cadence.
func DefaultCatalogue() []Stream {
	return []Stream{
		{Name: "ps_meta", BinHours: 24},
		{Name: "ps_owd", BinHours: 1},
		{Name: "ps_packet_loss", BinHours: 1},
		{Name: "ps_retransmits", BinHours: 1},
		{Name: "ps_status", BinHours: 1},
		{Name: "ps_throughput", BinHours: 1},
		{Name: "ps_trace", BinHours: 1},
	}
}

type Status int

const (
	StatusSkipped Status = iota
	StatusHealthy
	StatusAnomalous
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusAnomalous:
		return "anomalous"
	default:
		return "skipped"
	}
}

// Evaluate is the whole anomaly rule.
func Evaluate(prior, recent int64) Status {
	if prior < MinDocuments {
		return StatusSkipped
	}
	if recent < MinDocuments || float64(recent)/float64(prior) < MinRatio {
		return StatusAnomalous
	}
	return StatusHealthy
}

type Health struct {
	Stream      Stream
	PriorCount  int64
	RecentCount int64
	Status      Status
}

// Baseline is the prior count normalized to one bin; the reference window
// is two bins wide. Halves round up.
func (h Health) Baseline() int64 { return (h.PriorCount + 1) / 2 }

type Verdict struct {
	Streams []Health
}

func (v Verdict) Flagged() []Health {
	var out []Health
	for _, h := range v.Streams {
		if h.Status == StatusAnomalous {
			out = append(out, h)
		}
	}
	return out
}

func (v Verdict) IssuesFound() bool { return len(v.Flagged()) > 0 }

func (v Verdict) Text() string {
	flagged := v.Flagged()
	if len(flagged) == 0 {
		return "No issues with perfsonar data collection."
	}
	var sb strings.Builder
	sb.WriteString("Issues detected in perfsonar data indexing.")
	for _, h := range flagged {
		sb.WriteString(" Index ")
		sb.WriteString(h.Stream.Name)
		sb.WriteString(" now has ")
		sb.WriteString(strconv.FormatInt(h.RecentCount, 10))
		sb.WriteString(" documents, previously it had ")
		sb.WriteString(strconv.FormatInt(h.Baseline(), 10))
		sb.WriteString(".")
	}
	return sb.String()
}

type Option func(*Detector)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

type Detector struct {
	counter   Counter
	catalogue []Stream
	now       func() time.Time
}

func NewDetector(counter Counter, catalogue []Stream, opts ...Option) *Detector {
	if len(catalogue) == 0 {
		catalogue = DefaultCatalogue()
	}
	d := &Detector{
		counter:   counter,
		catalogue: append([]Stream(nil), catalogue...),
		now:       time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Detector) Catalogue() []Stream { return append([]Stream(nil), d.catalogue...) }

// Windows returns the reference (prior) and recent count ranges for s.
func Windows(s Stream, now time.Time) (prior, recent query.CountRange) {
	subEnd := now.Add(-StalenessOffset).UnixMilli()
	bin := int64(s.BinHours * float64(time.Hour/time.Millisecond))
	refEnd := subEnd - bin
	refStart := subEnd - 3*bin
	prior = query.CountRange{Index: s.Name, Field: query.FieldTimestamp, GtMs: refStart, LteMs: refEnd}
	recent = query.CountRange{Index: s.Name, Field: query.FieldTimestamp, GtMs: refEnd, LteMs: subEnd}
	return prior, recent
}

// Check counts every stream concurrently and waits for all of them.
func (d *Detector) Check(ctx context.Context) (Verdict, error) {
	now := d.now()
	results := make([]Health, len(d.catalogue))
	g, gctx := errgroup.WithContext(ctx)

	for i, s := range d.catalogue {
		results[i].Stream = s
		prior, recent := Windows(s, now)
		g.Go(func() error {
			n, err := d.counter.Count(gctx, prior)
			if err != nil {
				return fmt.Errorf("count %s reference window: %w", s.Name, err)
			}
			results[i].PriorCount = n
			return nil
		})
		g.Go(func() error {
			n, err := d.counter.Count(gctx, recent)
			if err != nil {
				return fmt.Errorf("count %s recent window: %w", s.Name, err)
			}
			results[i].RecentCount = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	for i := range results {
		results[i].Status = Evaluate(results[i].PriorCount, results[i].RecentCount)
	}
	return Verdict{Streams: results}, nil
}
