package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"gridbot/internal/testutil"
)

func TestProbeRecordsResult(t *testing.T) {
	mb := testutil.NewMockBackend()
	var observed []bool
	s := New(mb, "", WithObserver(func(up bool) { observed = append(observed, up) }))

	res := s.Probe(context.Background())
	if !res.Up || res.Error != "" {
		t.Fatalf("expected healthy probe, got %+v", res)
	}

	mb.PingErr = errors.New("connection refused")
	res = s.Probe(context.Background())
	if res.Up || res.Error != "connection refused" {
		t.Fatalf("expected failed probe, got %+v", res)
	}
	if s.Last() != res {
		t.Fatalf("Last() = %+v, want %+v", s.Last(), res)
	}
	if len(observed) != 2 || !observed[0] || observed[1] {
		t.Fatalf("observer saw %v", observed)
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	mb := testutil.NewMockBackend()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(mb, "@every 1h", WithClock(func() time.Time { return fixed }))

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatalf("scheduler should have an entry")
	}
	if mb.PingCalls != 1 {
		t.Fatalf("expected one immediate probe, got %d", mb.PingCalls)
	}
	if !s.Last().CheckedAt.Equal(fixed) {
		t.Fatalf("checked at %v", s.Last().CheckedAt)
	}
	s.Stop()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(testutil.NewMockBackend(), "not a cron line")
	if err := s.Start(); err == nil {
		t.Fatalf("expected error for bad schedule")
	}
}
