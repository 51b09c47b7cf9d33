package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const DefaultSchedule = "*/5 * * * *"

type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeResult is the outcome of the most recent backend probe.
type ProbeResult struct {
	Up        bool      `json:"up"`
	CheckedAt time.Time `json:"checked_at"`
	Took      string    `json:"took,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Scheduler pings the document store on a cron schedule and keeps the last
// result for the health endpoint.
type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	pinger   Pinger
	schedule string
	timeout  time.Duration
	onProbe  func(up bool)
	log      zerolog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	last ProbeResult
}

type Option func(*Scheduler)

// WithObserver is called after every probe, e.g. to set a gauge.
func WithObserver(f func(up bool)) Option { return func(s *Scheduler) { s.onProbe = f } }

func WithLogger(l zerolog.Logger) Option { return func(s *Scheduler) { s.log = l } }

func WithTimeout(d time.Duration) Option { return func(s *Scheduler) { s.timeout = d } }

func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }

func New(p Pinger, schedule string, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if schedule == "" {
		schedule = DefaultSchedule
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		ctx:      ctx,
		cancel:   cancel,
		pinger:   p,
		schedule: schedule,
		timeout:  10 * time.Second,
		onProbe:  func(bool) {},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start registers the probe and runs one immediately.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Probe(s.ctx) }); err != nil {
		return err
	}
	s.Probe(s.ctx)
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("backend probe scheduled")
	return nil
}

// Probe pings once and records the result.
func (s *Scheduler) Probe(ctx context.Context) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	err := s.pinger.Ping(ctx)
	res := ProbeResult{Up: err == nil, CheckedAt: start.UTC(), Took: s.now().Sub(start).String()}
	if err != nil {
		res.Error = err.Error()
		s.log.Warn().Err(err).Msg("backend probe failed")
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()
	s.onProbe(res.Up)
	return res
}

func (s *Scheduler) Last() ProbeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info().Msg("backend probe stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
