package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "logs", "turns.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}

	ev1 := Event{Timestamp: time.Unix(1, 0).UTC(), SessionID: "a", Channel: "webhook", Intent: "JobsStatus", Outcome: "fulfilled"}
	ev2 := Event{Timestamp: time.Unix(2, 0).UTC(), SessionID: "b", Channel: "telegram", Intent: "Stop", Outcome: "ended"}
	if err := rec.AppendTurn(ev1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := rec.AppendTurn(ev2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	events, err := rec.LoadTurns()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2, got %d", len(events))
	}
	if events[0].SessionID != "a" || events[1].Intent != "Stop" {
		t.Fatalf("order mismatch: %+v", events)
	}

	st, err := os.Stat(p)
	if err != nil || st.Size() == 0 {
		t.Fatalf("file not written")
	}
}

func TestFileRecorder_SkipsCorruptLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "turns.jsonl")
	if err := os.WriteFile(p, []byte("{not json\n\n{\"intent\":\"Help\"}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatal(err)
	}
	events, err := rec.LoadTurns()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 1 || events[0].Intent != "Help" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestFileRecorder_ConcurrentAppends(t *testing.T) {
	rec, err := NewFileRecorder(filepath.Join(t.TempDir(), "turns.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rec.AppendTurn(Event{Intent: "Help", Outcome: "fulfilled"})
		}()
	}
	wg.Wait()
	events, _ := rec.LoadTurns()
	if len(events) != 20 {
		t.Fatalf("want 20 events, got %d", len(events))
	}
}
