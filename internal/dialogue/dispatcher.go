package dialogue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gridbot/internal/backend"
	"gridbot/internal/duration"
	"gridbot/internal/freshness"
	"gridbot/internal/query"
	"gridbot/internal/session"
	"gridbot/internal/storage"
)

const (
	textUnknown = "I couldn't understand. Can you say that again?"
	textGlitch  = "I encountered a glitch. Can you say that again?"
)

// Backend is the slice of the document store the dialogue needs.
type Backend interface {
	Search(ctx context.Context, q query.StatusQuery) (backend.Aggregations, error)
	ClusterHealth(ctx context.Context) (backend.Health, error)
}

type FreshnessChecker interface {
	Check(ctx context.Context) (freshness.Verdict, error)
}

// Observer receives one call per finished turn.
type Observer interface {
	ObserveTurn(intent, outcome string)
	SetFlaggedStreams(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveTurn(string, string) {}
func (nopObserver) SetFlaggedStreams(int)      {}

// Handler serves one canonical intent.
type Handler func(ctx context.Context, t *Turn) (Outcome, error)

// Turn is the handler's view of the current turn.
type Turn struct {
	SessionID string
	State     session.State
	Slots     map[string]Slot

	update session.Update
}

// Slot returns the first non-empty slot among names.
func (t *Turn) Slot(names ...string) (Slot, bool) {
	for _, n := range names {
		if s, ok := t.Slots[n]; ok && !s.Empty() {
			return s, true
		}
	}
	return Slot{}, false
}

// Update records a session change. It is visible in t.State immediately
// and persisted once the handler returns.
func (t *Turn) Update(u session.Update) {
	t.State = t.State.Merge(u)
	t.update = session.Update(session.State(t.update).Merge(u))
}

type Option func(*Dispatcher)

func WithClock(now func() time.Time) Option { return func(d *Dispatcher) { d.now = now } }

func WithSuggester(s Suggester) Option { return func(d *Dispatcher) { d.suggest = s } }

func WithLogger(l zerolog.Logger) Option { return func(d *Dispatcher) { d.log = l } }

func WithObserver(o Observer) Option { return func(d *Dispatcher) { d.obs = o } }

func WithRecorder(r storage.Recorder) Option { return func(d *Dispatcher) { d.rec = r } }

// WithDefaultWindows overrides the lookback used when no duration slot is
// given.
func WithDefaultWindows(jobs, tasks time.Duration) Option {
	return func(d *Dispatcher) {
		if jobs > 0 {
			d.jobsWindow = duration.FromDuration(jobs)
		}
		if tasks > 0 {
			d.tasksWindow = duration.FromDuration(tasks)
		}
	}
}

// Dispatcher routes recognized intents to handlers. It holds no per-session
// state and is safe for concurrent use.
type Dispatcher struct {
	backend  Backend
	detector FreshnessChecker
	handlers map[string]Handler
	suggest  Suggester
	now      func() time.Time
	log      zerolog.Logger
	obs      Observer
	rec      storage.Recorder

	jobsWindow  duration.Window
	tasksWindow duration.Window
}

func NewDispatcher(b Backend, detector FreshnessChecker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend:     b,
		detector:    detector,
		suggest:     NewSuggester(uint64(time.Now().UnixNano())),
		now:         time.Now,
		log:         zerolog.Nop(),
		obs:         nopObserver{},
		rec:         storage.Discard{},
		jobsWindow:  duration.FromDuration(24 * time.Hour),
		tasksWindow: duration.FromDuration(7 * 24 * time.Hour),
	}
	for _, o := range opts {
		o(d)
	}
	d.handlers = map[string]Handler{
		IntentWelcome:      d.welcome,
		IntentHelp:         d.help,
		IntentSetUsername:  d.setUsername,
		IntentSetSite:      d.setSite,
		IntentJobsStatus:   d.jobsStatus,
		IntentTasksStatus:  d.tasksStatus,
		IntentSiteStatus:   d.siteStatus,
		IntentSystemStatus: d.systemStatus,
		IntentData:         d.data,
		IntentTransfers:    d.transfers,
		IntentStop:         d.stop,
		IntentSessionEnded: d.sessionEnded,
	}
	return d
}

// Dispatch runs one turn against store. It never returns an error: every
// failure becomes a spoken response.
func (d *Dispatcher) Dispatch(ctx context.Context, store session.Store, ev Event) Response {
	intent := Canonical(ev.Intent)
	if _, ok := d.handlers[intent]; !ok {
		intent = IntentUnknown
	}
	log := d.log.With().Str("session_id", ev.SessionID).Str("intent", intent).Logger()

	resp := d.dispatch(ctx, log, store, intent, ev)

	d.obs.ObserveTurn(intent, resp.Kind.String())
	if err := d.rec.AppendTurn(storage.Event{
		Timestamp: d.now().UTC(),
		SessionID: ev.SessionID,
		Channel:   ev.Channel,
		Intent:    intent,
		Outcome:   resp.Kind.String(),
		Speech:    resp.SpeechText,
	}); err != nil {
		log.Warn().Err(err).Msg("turn log append failed")
	}
	log.Info().Str("outcome", resp.Kind.String()).Msg("turn")
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, log zerolog.Logger, store session.Store, intent string, ev Event) Response {
	h, ok := d.handlers[intent]
	if !ok {
		log.Debug().Str("raw_intent", ev.Intent).Msg("no handler")
		return Response{SpeechText: textUnknown, RepromptText: d.suggest.Suggest(), Kind: KindUnknownIntent}
	}

	state, err := store.Get(ctx, ev.SessionID)
	if err != nil {
		log.Error().Err(err).Msg("load session")
		return d.glitch()
	}
	turn := &Turn{SessionID: ev.SessionID, State: state, Slots: ev.CanonicalSlots()}

	out, err := d.call(ctx, h, turn)

	if !turn.update.Empty() {
		if serr := store.Set(ctx, ev.SessionID, turn.update); serr != nil {
			log.Error().Err(serr).Msg("save session")
			return d.glitch()
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("handler failed")
		return d.glitch()
	}
	if out.Kind == KindEnded {
		if cerr := store.Clear(ctx, ev.SessionID); cerr != nil {
			log.Warn().Err(cerr).Msg("clear session")
		}
	}
	if out.Kind == KindPreconditionFailed {
		log.Debug().Str("reason", out.Reason).Msg("precondition failed")
	}
	return d.render(out)
}

func (d *Dispatcher) call(ctx context.Context, h Handler, t *Turn) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, t)
}

func (d *Dispatcher) render(out Outcome) Response {
	resp := Response{
		SpeechText:    out.Text,
		RepromptText:  out.Reprompt,
		ExpectingSlot: out.Slot,
		Kind:          out.Kind,
	}
	switch out.Kind {
	case KindFulfilled:
		resp.SpeechText += d.suggest.Suggest()
		if resp.RepromptText == "" {
			resp.RepromptText = d.suggest.Suggest()
		}
	case KindEnded:
		resp.EndSession = true
		resp.RepromptText = ""
	}
	return resp
}

func (d *Dispatcher) glitch() Response {
	return Response{SpeechText: textGlitch, RepromptText: d.suggest.Suggest(), Kind: KindBackendUnavailable}
}

// window turns the duration slot into a lookback, falling back to def when
// absent or unusable.
func (d *Dispatcher) window(t *Turn, def duration.Window) duration.Window {
	s, ok := t.Slot(SlotDuration, SlotInterval)
	if !ok {
		return def
	}
	w, err := duration.FromSlot(s.Value, s.Amount, s.Unit)
	if err != nil {
		d.log.Warn().Err(err).Str("session_id", t.SessionID).Str("value", s.Value).Msg("duration not understood, using default")
		return def
	}
	return w
}
