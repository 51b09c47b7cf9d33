package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gridbot/internal/storage"
)

// DailyStats summarizes one UTC day of the turn log.
type DailyStats struct {
	Date           string                  `json:"date"`
	TotalTurns     int                     `json:"total_turns"`
	UniqueSessions int                     `json:"unique_sessions"`
	ByIntent       map[string]int          `json:"by_intent"`
	ByOutcome      map[string]int          `json:"by_outcome"`
	ByChannel      map[string]int          `json:"by_channel"`
	Sessions       map[string]SessionStats `json:"sessions"`
}

type SessionStats struct {
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
	Failures  int    `json:"failures"`
}

// failure outcomes count against a session.
var failureOutcomes = map[string]bool{
	"backend_unavailable": true,
	"unknown_intent":      true,
}

// AnalyzeDailyTurns aggregates the events that fall on targetDate.
func AnalyzeDailyTurns(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		ByIntent:  make(map[string]int),
		ByOutcome: make(map[string]int),
		ByChannel: make(map[string]int),
		Sessions:  make(map[string]SessionStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.Intent == "" {
			continue
		}

		stats.TotalTurns++
		stats.ByIntent[event.Intent]++
		stats.ByOutcome[event.Outcome]++
		if event.Channel != "" {
			stats.ByChannel[event.Channel]++
		}

		s := stats.Sessions[event.SessionID]
		s.SessionID = event.SessionID
		s.Turns++
		if failureOutcomes[event.Outcome] {
			s.Failures++
		}
		stats.Sessions[event.SessionID] = s
	}

	stats.UniqueSessions = len(stats.Sessions)
	return stats
}

// Summary renders a short plain-text report.
func (ds *DailyStats) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage for %s:\n", ds.Date)
	fmt.Fprintf(&sb, "- turns: %d\n", ds.TotalTurns)
	fmt.Fprintf(&sb, "- sessions: %d\n", ds.UniqueSessions)

	writeCounts(&sb, "Intents", ds.ByIntent)
	writeCounts(&sb, "Outcomes", ds.ByOutcome)
	writeCounts(&sb, "Channels", ds.ByChannel)
	return sb.String()
}

func writeCounts(sb *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(sb, "- %s: %d\n", k, counts[k])
	}
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
