package dialogue

import (
	"context"
	"fmt"
	"strings"

	"gridbot/internal/duration"
	"gridbot/internal/query"
	"gridbot/internal/session"
)

const helpText = "You can set your username or your site, ask about your jobs or tasks, " +
	"ask for the state of your site, or check the status of Elastic, FTS, perfSONAR or Frontier."

// Systems the SystemStatus intent knows about.
const (
	SystemSearchCluster     = "search-cluster"
	SystemFileTransfer      = "file-transfer"
	SystemNetworkMonitoring = "network-monitoring"
	SystemMetadataCatalog   = "metadata-catalog"
)

var systemAliases = map[string]string{
	"elastic":            SystemSearchCluster,
	"elasticsearch":      SystemSearchCluster,
	"search-cluster":     SystemSearchCluster,
	"fts":                SystemFileTransfer,
	"file-transfer":      SystemFileTransfer,
	"perfsonar":          SystemNetworkMonitoring,
	"network-monitoring": SystemNetworkMonitoring,
	"frontier":           SystemMetadataCatalog,
	"metadata-catalog":   SystemMetadataCatalog,
}

// ResolveSystem maps a spoken system name onto its identifier.
func ResolveSystem(s Slot) (string, bool) {
	for _, v := range []string{s.ResolvedID, s.Value} {
		if id, ok := systemAliases[strings.ToLower(strings.TrimSpace(v))]; ok {
			return id, true
		}
	}
	return "", false
}

func (d *Dispatcher) welcome(context.Context, *Turn) (Outcome, error) {
	return Fulfilled("Welcome to the ATLAS computing info system! "), nil
}

func (d *Dispatcher) help(context.Context, *Turn) (Outcome, error) {
	return Fulfilled(helpText), nil
}

func (d *Dispatcher) setUsername(_ context.Context, t *Turn) (Outcome, error) {
	s, ok := t.Slot(SlotUsername)
	if !ok || strings.TrimSpace(s.Value) == "" {
		return NeedsSlot(SlotUsername, "What is your username?"), nil
	}
	t.Update(session.Update{
		Username: s.Value,
		UserID:   strings.Replace(s.ID(), "^", " ", 1),
	})
	return Fulfilled(fmt.Sprintf("Your username has been set to %s.", s.Value)).
		WithReprompt(`To get your jobs, say "get my jobs."`), nil
}

func (d *Dispatcher) setSite(_ context.Context, t *Turn) (Outcome, error) {
	s, ok := t.Slot(SlotSite)
	if !ok || strings.TrimSpace(s.Value) == "" {
		return NeedsSlot(SlotSite, "Which site would you like to use?"), nil
	}
	t.Update(session.Update{Site: s.Value, SiteID: s.ID()})
	return Fulfilled(fmt.Sprintf("Your site has been set to %s.", s.Value)).
		WithReprompt(`To get jobs states at your site, say "get my site state."`), nil
}

func needUsername() Outcome {
	return PreconditionFailed("username not set", `You need to set your username first. Try saying "set my username".`).
		WithReprompt("Please set your username.").
		Eliciting(SlotUsername)
}

func needSite() Outcome {
	return PreconditionFailed("site not set", `You need to set site first. Try saying "set my site".`).
		WithReprompt("Please set your site.").
		Eliciting(SlotSite)
}

func (d *Dispatcher) jobsStatus(ctx context.Context, t *Turn) (Outcome, error) {
	if !t.State.HasUser() {
		return needUsername(), nil
	}
	w := d.window(t, d.jobsWindow)
	return d.userReport(ctx, t, w, query.JobsByUser(t.State.UserID, query.WindowStart(d.now(), w.Millis)), "jobs")
}

func (d *Dispatcher) tasksStatus(ctx context.Context, t *Turn) (Outcome, error) {
	if !t.State.HasUser() {
		return needUsername(), nil
	}
	w := d.window(t, d.tasksWindow)
	return d.userReport(ctx, t, w, query.TasksByUser(t.State.UserID, query.WindowStart(d.now(), w.Millis)), "tasks")
}

func (d *Dispatcher) userReport(ctx context.Context, t *Turn, w duration.Window, q query.StatusQuery, noun string) (Outcome, error) {
	aggs, err := d.backend.Search(ctx, q)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s for %s: %w", noun, t.State.UserID, err)
	}
	r := query.NewReport(aggs[query.GroupingStatuses])
	text := fmt.Sprintf("During last %s,\nuser %s,\nhad %d %s.\n", w.Label, t.State.Username, r.Total, noun)
	return Fulfilled(text + r.Lines(capitalize(noun))), nil
}

func (d *Dispatcher) siteStatus(ctx context.Context, t *Turn) (Outcome, error) {
	if s, ok := t.Slot(SlotSite); ok && strings.TrimSpace(s.Value) != "" {
		t.Update(session.Update{Site: s.Value, SiteID: s.ID()})
	}
	if !t.State.HasSite() {
		return needSite(), nil
	}
	w := d.window(t, d.jobsWindow)
	aggs, err := d.backend.Search(ctx, query.JobsBySite(t.State.SiteID, query.WindowStart(d.now(), w.Millis)))
	if err != nil {
		return Outcome{}, fmt.Errorf("site %s: %w", t.State.SiteID, err)
	}
	r := query.NewReport(aggs[query.GroupingStatuses])
	if queues := query.NewReport(aggs[query.GroupingQueues]); r.Total > 0 && !queues.Contains(t.State.SiteID) {
		d.log.Warn().Str("session_id", t.SessionID).Str("site_id", t.State.SiteID).Msg("site missing from queue grouping")
	}
	text := fmt.Sprintf("During last %s,\nsite %s,\nhad %d jobs.\n", w.Label, t.State.Site, r.Total)
	return Fulfilled(text + r.Lines("Jobs")), nil
}

func (d *Dispatcher) systemStatus(ctx context.Context, t *Turn) (Outcome, error) {
	s, _ := t.Slot(SlotSystem)
	system, ok := ResolveSystem(s)
	if !ok {
		return NeedsSlot(SlotSystem, "Which system would you like to check? You can say Elastic, FTS, perfSONAR or Frontier."), nil
	}
	switch system {
	case SystemSearchCluster:
		h, err := d.backend.ClusterHealth(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("cluster health: %w", err)
		}
		text := fmt.Sprintf("Elastic status is %s.", h.Status)
		if h.Status != "green" {
			text += fmt.Sprintf(" There are %d unassigned shards.", h.UnassignedShards)
		}
		return Fulfilled(text), nil
	case SystemNetworkMonitoring:
		v, err := d.detector.Check(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("freshness check: %w", err)
		}
		d.obs.SetFlaggedStreams(len(v.Flagged()))
		return Fulfilled(v.Text()), nil
	case SystemFileTransfer:
		return Fulfilled("fts status lookup not yet implemented."), nil
	default:
		return Fulfilled("Frontier status lookup not yet implemented."), nil
	}
}

func (d *Dispatcher) data(context.Context, *Turn) (Outcome, error) {
	return Fulfilled("data volume lookup not yet implemented."), nil
}

func (d *Dispatcher) transfers(context.Context, *Turn) (Outcome, error) {
	return Fulfilled("transfer lookup not yet implemented."), nil
}

func (d *Dispatcher) stop(context.Context, *Turn) (Outcome, error) {
	return Ended("Goodbye!"), nil
}

func (d *Dispatcher) sessionEnded(context.Context, *Turn) (Outcome, error) {
	return Ended(""), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
