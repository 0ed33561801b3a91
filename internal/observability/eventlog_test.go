package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLog(t *testing.T) EventLog {
	t.Helper()
	log, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func writeEvents(t *testing.T, log EventLog, events ...Event) {
	t.Helper()
	for _, e := range events {
		if e.Level == "" {
			e.Level = LevelInfo
		}
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

var baseTime = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func ev(minute int, eventType string, data map[string]any) Event {
	return Event{Time: baseTime.Add(time.Duration(minute) * time.Minute), Type: eventType, Data: data}
}

func TestEventLog_WriteRead(t *testing.T) {
	log := newTestLog(t)
	writeEvents(t, log,
		ev(0, "game.started", map[string]any{"game_id": "g1"}),
		ev(1, "question.asked", map[string]any{"game_id": "g1", "turn": 1, "question": "Is your character fictional?"}),
		ev(2, "game.started", map[string]any{"game_id": "g2"}),
		Event{Time: baseTime.Add(3 * time.Minute), Level: LevelError, Type: "llm.failed", Data: map[string]any{"game_id": "g2"}},
	)

	all, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Read returned %d events, want 4", len(all))
	}
	if all[1].Data["question"] != "Is your character fictional?" {
		t.Errorf("question data = %v", all[1].Data["question"])
	}

	since := baseTime.Add(90 * time.Second)
	tests := []struct {
		name   string
		filter EventFilter
		want   int
	}{
		{"by type", EventFilter{Type: "game.started"}, 2},
		{"by game", EventFilter{GameID: "g1"}, 2},
		{"by level", EventFilter{Level: LevelError}, 1},
		{"since", EventFilter{Since: &since}, 2},
		{"combined", EventFilter{Type: "game.started", GameID: "g2"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := log.Read(tt.filter)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Read(%+v) returned %d events, want %d", tt.filter, len(got), tt.want)
			}
		})
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"time":"2026-02-10T09:00:00Z","level":"INFO","type":"game.started","msg":"","data":{"game_id":"g1"}}
not json at all

{"time":"2026-02-10T09:01:00Z","level":"INFO","type":"game.won","msg":"","data":{"game_id":"g1","turn":7}}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Read returned %d events, want 2", len(got))
	}
}
