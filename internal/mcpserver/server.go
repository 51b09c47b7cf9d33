// Package mcpserver exposes the dialogue as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"gridbot/internal/dialogue"
	"gridbot/internal/session"
)

const (
	Channel          = "mcp"
	DefaultSessionID = "mcp"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, store session.Store, ev dialogue.Event) dialogue.Response
}

type SetUsernameParams struct {
	SessionID  string `json:"session_id,omitempty" mcp:"conversation id; tools sharing it share username and site"`
	Username   string `json:"username" mcp:"grid username as spoken, e.g. alice"`
	ResolvedID string `json:"resolved_id,omitempty" mcp:"canonical user id when it differs from the spoken name"`
}

type SetSiteParams struct {
	SessionID  string `json:"session_id,omitempty" mcp:"conversation id"`
	Site       string `json:"site" mcp:"computing site name, e.g. CERN"`
	ResolvedID string `json:"resolved_id,omitempty" mcp:"site id used in the job records, e.g. CERN-PROD"`
}

type WindowParams struct {
	SessionID string `json:"session_id,omitempty" mcp:"conversation id"`
	Duration  string `json:"duration,omitempty" mcp:"lookback window, e.g. P2D, PT6H or '3 days'"`
}

type SiteStatusParams struct {
	SessionID string `json:"session_id,omitempty" mcp:"conversation id"`
	Site      string `json:"site,omitempty" mcp:"site to report on; defaults to the stored site"`
	Duration  string `json:"duration,omitempty" mcp:"lookback window, e.g. P1D"`
}

type SystemStatusParams struct {
	SessionID string `json:"session_id,omitempty" mcp:"conversation id"`
	System    string `json:"system" mcp:"one of elastic, fts, perfsonar, frontier"`
}

type Server struct {
	dispatcher Dispatcher
	sessions   *session.MemoryStore
	server     *mcp.Server
	log        zerolog.Logger
}

func New(d Dispatcher, version string, log zerolog.Logger) *Server {
	s := &Server{
		dispatcher: d,
		sessions:   session.NewMemoryStore(),
		log:        log,
	}
	s.server = mcp.NewServer(&mcp.Implementation{Name: "gridbot", Version: version}, nil)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_username",
		Description: "Remember the grid username for later job and task reports",
	}, s.SetUsername)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_site",
		Description: "Remember the computing site for later site reports",
	}, s.SetSite)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "jobs_status",
		Description: "Count the user's grid jobs by state over a lookback window (default one day)",
	}, s.JobsStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "tasks_status",
		Description: "Count the user's production tasks by state over a lookback window (default seven days)",
	}, s.TasksStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "site_status",
		Description: "Count jobs at a computing site by state",
	}, s.SiteStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "system_status",
		Description: "Report the status of an ADC system: elastic, fts, perfsonar or frontier",
	}, s.SystemStatus)
	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info().Msg("serving MCP on stdio")
	return s.server.Run(ctx, mcp.NewStdioTransport())
}

func (s *Server) SetUsername(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SetUsernameParams]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	return s.turn(ctx, a.SessionID, dialogue.IntentSetUsername, map[string]dialogue.Slot{
		dialogue.SlotUsername: {Value: a.Username, ResolvedID: a.ResolvedID},
	}), nil
}

func (s *Server) SetSite(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SetSiteParams]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	return s.turn(ctx, a.SessionID, dialogue.IntentSetSite, map[string]dialogue.Slot{
		dialogue.SlotSite: {Value: a.Site, ResolvedID: a.ResolvedID},
	}), nil
}

func (s *Server) JobsStatus(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[WindowParams]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	return s.turn(ctx, a.SessionID, dialogue.IntentJobsStatus, durationSlot(a.Duration, nil)), nil
}

func (s *Server) TasksStatus(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[WindowParams]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	return s.turn(ctx, a.SessionID, dialogue.IntentTasksStatus, durationSlot(a.Duration, nil)), nil
}

func (s *Server) SiteStatus(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SiteStatusParams]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	var slots map[string]dialogue.Slot
	if a.Site != "" {
		slots = map[string]dialogue.Slot{dialogue.SlotSite: {Value: a.Site}}
	}
	return s.turn(ctx, a.SessionID, dialogue.IntentSiteStatus, durationSlot(a.Duration, slots)), nil
}

func (s *Server) SystemStatus(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SystemStatusParams]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	return s.turn(ctx, a.SessionID, dialogue.IntentSystemStatus, map[string]dialogue.Slot{
		dialogue.SlotSystem: {Value: a.System},
	}), nil
}

func durationSlot(d string, slots map[string]dialogue.Slot) map[string]dialogue.Slot {
	if d == "" {
		return slots
	}
	if slots == nil {
		slots = map[string]dialogue.Slot{}
	}
	slots[dialogue.SlotDuration] = dialogue.Slot{Value: d}
	return slots
}

func (s *Server) turn(ctx context.Context, sessionID, intent string, slots map[string]dialogue.Slot) *mcp.CallToolResultFor[any] {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	resp := s.dispatcher.Dispatch(ctx, s.sessions, dialogue.Event{
		SessionID: sessionID,
		Channel:   Channel,
		Intent:    intent,
		Slots:     slots,
	})
	return &mcp.CallToolResultFor[any]{
		IsError: resp.Kind == dialogue.KindBackendUnavailable,
		Content: []mcp.Content{&mcp.TextContent{Text: resp.SpeechText}},
	}
}
