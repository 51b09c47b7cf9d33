package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"gridbot/internal/backend"
	"gridbot/internal/dialogue"
	"gridbot/internal/query"
	"gridbot/internal/testutil"
)

func newTestServer(mb *testutil.MockBackend) *Server {
	d := dialogue.NewDispatcher(mb, nil,
		dialogue.WithSuggester(dialogue.SuggesterFunc(func() string { return "" })),
	)
	return New(d, "test", zerolog.Nop())
}

func text(t *testing.T, res *mcp.CallToolResultFor[any]) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T", res.Content[0])
	}
	return tc.Text
}

func TestToolsShareSessionByID(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.SetStatuses(query.CollectionTasks, query.Bucket{Key: "done", Count: 3})
	s := newTestServer(mb)
	ctx := context.Background()

	res, err := s.SetUsername(ctx, nil, &mcp.CallToolParamsFor[SetUsernameParams]{Arguments: SetUsernameParams{Username: "alice"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := text(t, res); got != "Your username has been set to alice." {
		t.Fatalf("set_username: %q", got)
	}

	res, _ = s.TasksStatus(ctx, nil, &mcp.CallToolParamsFor[WindowParams]{Arguments: WindowParams{Duration: "P2D"}})
	if got := text(t, res); !strings.HasPrefix(got, "During last 2 days,\nuser alice,\nhad 3 tasks.\n") {
		t.Fatalf("tasks_status: %q", got)
	}

	res, _ = s.JobsStatus(ctx, nil, &mcp.CallToolParamsFor[WindowParams]{Arguments: WindowParams{SessionID: "other"}})
	if got := text(t, res); !strings.Contains(got, "set your username first") {
		t.Fatalf("other session leaked state: %q", got)
	}
}

func TestSiteStatusTool(t *testing.T) {
	s := newTestServer(testutil.NewMockBackend())
	res, _ := s.SiteStatus(context.Background(), nil, &mcp.CallToolParamsFor[SiteStatusParams]{Arguments: SiteStatusParams{Site: "BNL", Duration: "6 hours"}})
	if got := text(t, res); got != "During last 6 hours,\nsite BNL,\nhad 0 jobs.\n" {
		t.Fatalf("site_status: %q", got)
	}
}

func TestSystemStatusToolErrors(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.HealthErr = backend.ErrBackendUnavailable
	s := newTestServer(mb)

	res, _ := s.SystemStatus(context.Background(), nil, &mcp.CallToolParamsFor[SystemStatusParams]{Arguments: SystemStatusParams{System: "elastic"}})
	if !res.IsError {
		t.Fatalf("backend failure should mark the result as an error")
	}
	if got := text(t, res); got != "I encountered a glitch. Can you say that again?" {
		t.Fatalf("system_status: %q", got)
	}

	res, _ = s.SystemStatus(context.Background(), nil, &mcp.CallToolParamsFor[SystemStatusParams]{Arguments: SystemStatusParams{System: "fts"}})
	if res.IsError || text(t, res) != "fts status lookup not yet implemented." {
		t.Fatalf("fts: %+v", res)
	}
}
