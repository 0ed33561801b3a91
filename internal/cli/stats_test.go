package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valter-silva-au/lemon-detective/internal/observability"
	"github.com/valter-silva-au/lemon-detective/internal/storage"
	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// withStatsState restores the stats globals after the test.
func withStatsState(t *testing.T) {
	t.Helper()
	origMC, origAE, origNotifier, origStore := MetricsCalc, AlertEngine, Notifier, Transcripts
	origJSON, origSince, origNotify, origLimit, origDir := statsJSON, statsSince, alertNotify, gamesLimit, gamesDir
	t.Cleanup(func() {
		MetricsCalc, AlertEngine, Notifier, Transcripts = origMC, origAE, origNotifier, origStore
		statsJSON, statsSince, alertNotify, gamesLimit, gamesDir = origJSON, origSince, origNotify, origLimit, origDir
	})
	MetricsCalc, AlertEngine, Notifier, Transcripts = nil, nil, nil, nil
	statsJSON, statsSince, alertNotify, gamesLimit, gamesDir = false, "7d", false, 20, ""
}

func TestStatsCmd(t *testing.T) {
	withStatsState(t)
	mc := &mockMetrics{metrics: sampleMetrics()}
	MetricsCalc = mc
	statsSince = "24h"

	out, err := runCommand(t, statsCmd)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Started:", "75%", "14.5", "duplicate_topic:", "Model failures:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if d := time.Since(mc.since); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("metrics window starts %v ago, want about 24h", d)
	}
}

func TestStatsCmd_JSON(t *testing.T) {
	withStatsState(t)
	MetricsCalc = &mockMetrics{metrics: sampleMetrics()}
	statsJSON = true

	out, err := runCommand(t, statsCmd)
	if err != nil {
		t.Fatalf("stats --json: %v", err)
	}
	var got observability.Metrics
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if got.GamesWon != 3 || got.ReplacementsByReason["duplicate_topic"] != 4 {
		t.Errorf("decoded metrics = %+v", got)
	}
}

func TestStatsCmd_Errors(t *testing.T) {
	withStatsState(t)

	if _, err := runCommand(t, statsCmd); err == nil {
		t.Error("expected an error without a metrics calculator")
	}

	MetricsCalc = &mockMetrics{metrics: sampleMetrics()}
	statsSince = "7x"
	if _, err := runCommand(t, statsCmd); err == nil || !strings.Contains(err.Error(), "--since") {
		t.Errorf("err = %v, want a --since error", err)
	}

	MetricsCalc = &mockMetrics{err: errors.New("disk gone")}
	statsSince = "7d"
	if _, err := runCommand(t, statsCmd); err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Errorf("err = %v, want the calculator error", err)
	}
}

func sampleAlerts() []observability.Alert {
	now := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	return []observability.Alert{
		{ID: "a1", Condition: "high_replacement_rate", Severity: observability.SeverityMedium, Message: "40% of questions replaced", TriggeredAt: now},
		{ID: "a2", Condition: "repeated_llm_failures", Severity: observability.SeverityHigh, Message: "3 model failures in one game", TriggeredAt: now},
	}
}

func TestStatsAlertsCmd(t *testing.T) {
	withStatsState(t)

	if _, err := runCommand(t, statsAlertsCmd); err == nil {
		t.Error("expected an error without an alert engine")
	}

	AlertEngine = &mockAlerts{}
	out, err := runCommand(t, statsAlertsCmd)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if !strings.Contains(out, "No active alerts.") {
		t.Errorf("output = %q", out)
	}

	AlertEngine = &mockAlerts{alerts: sampleAlerts()}
	out, err = runCommand(t, statsAlertsCmd)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	for _, want := range []string{"2 active alert(s)", "[MEDIUM]", "[HIGH]", "3 model failures in one game", "2026-10-01 09:30 UTC"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	AlertEngine = &mockAlerts{err: errors.New("corrupt log")}
	if _, err := runCommand(t, statsAlertsCmd); err == nil {
		t.Error("expected the evaluation error")
	}
}

func TestStatsAlertsCmd_Notify(t *testing.T) {
	withStatsState(t)
	AlertEngine = &mockAlerts{alerts: sampleAlerts()}
	alertNotify = true

	if _, err := runCommand(t, statsAlertsCmd); err == nil || !strings.Contains(err.Error(), "webhook_url") {
		t.Errorf("err = %v, want a missing webhook error", err)
	}

	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	Notifier = observability.NewWebhookNotifier(srv.URL)
	out, err := runCommand(t, statsAlertsCmd)
	if err != nil {
		t.Fatalf("alerts --notify: %v", err)
	}
	if !strings.Contains(out, "Sent 2 alert(s) to the webhook.") {
		t.Errorf("output missing the sent line:\n%s", out)
	}
	if posts.Load() != 1 {
		t.Errorf("webhook received %d posts, want 1", posts.Load())
	}

	AlertEngine = &mockAlerts{}
	if _, err := runCommand(t, statsAlertsCmd); err != nil {
		t.Fatalf("alerts --notify with nothing to send: %v", err)
	}
	if posts.Load() != 1 {
		t.Error("no alerts should post nothing")
	}
}

func TestStatsAlertsCmd_NotifyFailure(t *testing.T) {
	withStatsState(t)
	AlertEngine = &mockAlerts{alerts: sampleAlerts()}
	alertNotify = true

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	Notifier = observability.NewWebhookNotifier(srv.URL)

	_, err := runCommand(t, statsAlertsCmd)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v, want the webhook status", err)
	}
}

func saveTranscripts(t *testing.T, store storage.TranscriptStore, games ...models.Transcript) {
	t.Helper()
	for _, g := range games {
		if _, err := store.Save(g); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
}

func TestStatsGamesCmd(t *testing.T) {
	withStatsState(t)
	dir := t.TempDir()
	finished := time.Date(2026, 9, 30, 20, 15, 0, 0, time.UTC)
	saveTranscripts(t, storage.NewTranscriptStore(dir),
		models.Transcript{GameID: "g1", FinishedAt: finished, Won: true, FinalGuess: "Batman",
			Turns: []models.Turn{{TurnNumber: 1, Question: "Is your character fictional?", Answer: models.AnswerYes}}},
		models.Transcript{GameID: "g2", FinishedAt: finished.Add(time.Hour), Won: true, FinalGuess: "Sherlock Holmes"},
	)
	gamesDir = dir

	out, err := runCommand(t, statsGamesCmd)
	if err != nil {
		t.Fatalf("games: %v", err)
	}
	first, second := strings.Index(out, "G-00002"), strings.Index(out, "G-00001")
	if first < 0 || second < 0 || first > second {
		t.Errorf("want both games, newest first:\n%s", out)
	}
	for _, want := range []string{"FINAL GUESS", "Batman", "Sherlock Holmes", "2026-09-30 20:15", "won"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	gamesLimit = 1
	out, err = runCommand(t, statsGamesCmd)
	if err != nil {
		t.Fatalf("games --limit 1: %v", err)
	}
	if !strings.Contains(out, "G-00002") || strings.Contains(out, "G-00001") {
		t.Errorf("limit 1 should keep only the newest:\n%s", out)
	}

	gamesLimit, statsJSON = 0, true
	out, err = runCommand(t, statsGamesCmd)
	if err != nil {
		t.Fatalf("games --json: %v", err)
	}
	var decoded []models.Transcript
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(decoded) != 2 || decoded[0].ID != "G-00002" || decoded[1].FinalGuess != "Batman" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestStatsGamesCmd_EmptyAndMissingStore(t *testing.T) {
	withStatsState(t)

	if _, err := runCommand(t, statsGamesCmd); err == nil {
		t.Error("expected an error without a transcript store")
	}

	Transcripts = storage.NewTranscriptStore(t.TempDir())
	out, err := runCommand(t, statsGamesCmd)
	if err != nil {
		t.Fatalf("games: %v", err)
	}
	if !strings.Contains(out, "No transcripts found.") {
		t.Errorf("output = %q", out)
	}
}
