package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gridbot/internal/analytics"
	"gridbot/internal/dialogue"
	"gridbot/internal/scheduler"
	"gridbot/internal/session"
	"gridbot/internal/storage"
)

const Channel = "webhook"

// maxRequestBytes caps a fulfilment request body.
const maxRequestBytes = 1 << 20

type Dispatcher interface {
	Dispatch(ctx context.Context, store session.Store, ev dialogue.Event) dialogue.Response
}

type ProbeSource interface {
	Last() scheduler.ProbeResult
}

type TurnLoader interface {
	LoadTurns() ([]storage.Event, error)
}

// Request is the fulfilment envelope. Session carries the attributes the
// front end persists between turns.
type Request struct {
	SessionID string                   `json:"session_id"`
	Intent    string                   `json:"intent"`
	Slots     map[string]dialogue.Slot `json:"slots,omitempty"`
	Session   session.State            `json:"session"`
}

type Response struct {
	dialogue.Response
	SessionID string        `json:"session_id"`
	Session   session.State `json:"session"`
}

type Server struct {
	dispatcher Dispatcher
	probe      ProbeSource
	turns      TurnLoader
	metrics    http.Handler
	log        zerolog.Logger
	router     chi.Router
	port       int
}

type Option func(*Server)

func WithProbe(p ProbeSource) Option { return func(s *Server) { s.probe = p } }

func WithTurns(t TurnLoader) Option { return func(s *Server) { s.turns = t } }

func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

func WithLogger(l zerolog.Logger) Option { return func(s *Server) { s.log = l } }

func NewServer(d Dispatcher, port int, opts ...Option) *Server {
	srv := &Server{
		dispatcher: d,
		port:       port,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(srv)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", srv.handleLiveness)
	r.Post("/fulfillment", srv.handleFulfillment)
	if srv.metrics != nil {
		r.Method(http.MethodGet, "/metrics", srv.metrics)
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", srv.handleHealth)
		r.Get("/stats", srv.handleStats)
	})

	srv.router = r
	return srv
}

func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	hs := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", hs.Addr).Msg("starting HTTP webhook")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleFulfillment(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Intent == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "intent is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	store := session.NewAttributeStore(req.SessionID, req.Session)
	resp := s.dispatcher.Dispatch(r.Context(), store, dialogue.Event{
		SessionID: req.SessionID,
		Channel:   Channel,
		Intent:    req.Intent,
		Slots:     req.Slots,
	})
	state, _ := store.Snapshot()

	writeJSON(w, http.StatusOK, Response{Response: resp, SessionID: req.SessionID, Session: state})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"service": "gridbot",
	}
	if s.probe != nil {
		last := s.probe.Last()
		body["backend"] = last
		if !last.CheckedAt.IsZero() && !last.Up {
			body["status"] = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.turns == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "turn log disabled"})
		return
	}
	date := time.Now().UTC()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	events, err := s.turns.LoadTurns()
	if err != nil {
		s.log.Error().Err(err).Msg("load turns failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, analytics.AnalyzeDailyTurns(events, date))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
