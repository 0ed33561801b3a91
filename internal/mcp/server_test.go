package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/lemon-detective/internal/core"
	"github.com/valter-silva-au/lemon-detective/internal/observability"
	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// --- Fake implementations ---

type fakeTable map[string]models.CharacterFacts

func (f fakeTable) Find(name string) (models.CharacterFacts, bool) {
	facts, ok := f[models.NameKey(name)]
	return facts, ok
}

type fakeLookup struct {
	facts *models.CharacterFacts
	err   error
}

func (f *fakeLookup) Lookup(_ context.Context, _ string) (*models.CharacterFacts, error) {
	return f.facts, f.err
}

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
}

func (f *fakeMetricsCalculator) Calculate(_ time.Time) (*observability.Metrics, error) {
	return f.metrics, nil
}

type fakeAlertEngine struct {
	alerts []observability.Alert
}

func (f *fakeAlertEngine) Evaluate() ([]observability.Alert, error) {
	return f.alerts, nil
}

// --- Test helpers ---

func newTestServer(lookup core.CharacterLookup, mc observability.MetricsCalculator, ae observability.AlertEngine) *Server {
	table := fakeTable{
		"superman": {Powers: true, Gender: "male", Species: "kryptonian", Fictional: true, Alignment: "hero"},
		"batman":   {Powers: false, Gender: "male", Species: "human", Fictional: true, Alignment: "hero"},
	}
	filter := core.NewGuessFilter(table, lookup, nil, nil)
	return NewServer(core.NewEngine(models.EngineConfig{}, nil), filter, mc, ae, "test")
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// decodeResult reads a tool's structured output, falling back to the text
// content the SDK also fills in.
func decodeResult(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	if result.StructuredContent != nil {
		data, _ := json.Marshal(result.StructuredContent)
		if err := json.Unmarshal(data, out); err == nil {
			return
		}
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("unmarshalling output: %v (text was: %s)", err, text)
	}
}

// --- Tests ---

func TestValidateQuestion(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	tests := []struct {
		name       string
		args       map[string]any
		wantValid  bool
		wantReason string
		wantRepair string
	}{
		{
			name:       "fresh question",
			args:       map[string]any{"question": "Does your character wear a cape?"},
			wantValid:  true,
			wantRepair: "Does your character wear a cape?",
		},
		{
			name:       "alternative repaired",
			args:       map[string]any{"question": "Is your character from a movie or a TV show?"},
			wantValid:  true,
			wantRepair: "Is your character from a movie?",
		},
		{
			name:       "forbidden pattern",
			args:       map[string]any{"question": "Does your character have a background in journalism?"},
			wantReason: "forbidden_pattern",
		},
		{
			name: "confirmed trait",
			args: map[string]any{
				"question": "Is your character a woman?",
				"traits":   []string{"gender=male"},
			},
			wantReason: "confirmed_trait",
		},
		{
			name: "incompatible with species",
			args: map[string]any{
				"question": "Does your character have a tail?",
				"traits":   []string{"species=human"},
			},
			wantReason: "logically_incompatible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out validateQuestionOutput
			decodeResult(t, callTool(t, srv, "validate_question", tt.args), &out)

			if out.Valid != tt.wantValid {
				t.Errorf("valid = %v, want %v (reason %q)", out.Valid, tt.wantValid, out.Reason)
			}
			if out.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", out.Reason, tt.wantReason)
			}
			if tt.wantRepair != "" && out.Repaired != tt.wantRepair {
				t.Errorf("repaired = %q, want %q", out.Repaired, tt.wantRepair)
			}
			if !out.Valid && out.Fallback == "" {
				t.Error("rejected question should name a fallback")
			}
		})
	}
}

func TestValidateQuestionBadTrait(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	result := callTool(t, srv, "validate_question", map[string]any{
		"question": "Is your character human?",
		"traits":   []string{"height=tall"},
	})
	if !result.IsError {
		t.Fatal("expected error result for unknown trait key")
	}
	if !strings.Contains(extractText(result), "height") {
		t.Errorf("error should name the key, got %q", extractText(result))
	}
}

func TestPickFallback(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	var out pickFallbackOutput
	decodeResult(t, callTool(t, srv, "pick_fallback", map[string]any{
		"prior":  []string{"Is your character fictional?"},
		"traits": []string{"gender=male"},
	}), &out)

	if out.Question != "Is your character human?" {
		t.Errorf("question = %q, want the human fallback", out.Question)
	}
}

func TestInferTrait(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	tests := []struct {
		question string
		answer   string
		want     inferTraitOutput
	}{
		{"Is your character male?", "no", inferTraitOutput{Found: true, Key: "gender", Value: "female", Confidence: 0.85}},
		{"Is your character human?", "yes", inferTraitOutput{Found: true, Key: "species", Value: "human", Confidence: 0.85}},
		{"Is your character human?", "no", inferTraitOutput{}},
		{"Is your character male?", "dont_know", inferTraitOutput{}},
		{"Does your character wear a cape?", "yes", inferTraitOutput{}},
	}

	for _, tt := range tests {
		t.Run(tt.question+"/"+tt.answer, func(t *testing.T) {
			var out inferTraitOutput
			decodeResult(t, callTool(t, srv, "infer_trait", map[string]any{
				"question": tt.question,
				"answer":   tt.answer,
			}), &out)
			if out != tt.want {
				t.Errorf("infer_trait = %+v, want %+v", out, tt.want)
			}
		})
	}
}

func TestInferTraitBadAnswer(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	result := callTool(t, srv, "infer_trait", map[string]any{
		"question": "Is your character male?",
		"answer":   "perhaps",
	})
	if !result.IsError {
		t.Fatal("expected error result for unknown answer")
	}
}

func TestCheckGuess(t *testing.T) {
	lookup := &fakeLookup{facts: &models.CharacterFacts{Gender: "female", Species: "human", Fictional: false}}
	srv := newTestServer(lookup, nil, nil)

	tests := []struct {
		name       string
		guess      string
		traits     []string
		compatible bool
		source     string
	}{
		{"table contradiction", "Superman", []string{"has_powers=false"}, false, "table"},
		{"table match", "Batman", []string{"has_powers=false", "gender=male"}, true, "table"},
		{"lookup contradiction", "Marie Curie", []string{"gender=male"}, false, "lookup"},
		{"lookup match", "Ada Lovelace", []string{"fictional=false"}, true, "lookup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out checkGuessOutput
			decodeResult(t, callTool(t, srv, "check_guess", map[string]any{
				"name":   tt.guess,
				"traits": tt.traits,
			}), &out)

			if out.Compatible != tt.compatible {
				t.Errorf("compatible = %v, want %v (reason %q)", out.Compatible, tt.compatible, out.Reason)
			}
			if out.Source != tt.source {
				t.Errorf("source = %q, want %q", out.Source, tt.source)
			}
			if !out.Compatible && out.Reason == "" {
				t.Error("incompatible guess should carry a reason")
			}
		})
	}
}

func TestCheckGuessLookupFailureAllows(t *testing.T) {
	srv := newTestServer(&fakeLookup{err: errors.New("offline")}, nil, nil)

	var out checkGuessOutput
	decodeResult(t, callTool(t, srv, "check_guess", map[string]any{
		"name":   "Nobody Known",
		"traits": []string{"gender=male"},
	}), &out)

	if !out.Compatible {
		t.Errorf("a failed lookup should not rule the guess out: %+v", out)
	}
}

func TestCheckGuessNoFilter(t *testing.T) {
	srv := NewServer(core.NewEngine(models.EngineConfig{}, nil), nil, nil, nil, "test")

	result := callTool(t, srv, "check_guess", map[string]any{"name": "Superman"})
	if !result.IsError {
		t.Fatal("expected error when guess filter is nil")
	}
}

func TestGetMetrics(t *testing.T) {
	now := time.Now().UTC()
	mc := &fakeMetricsCalculator{
		metrics: &observability.Metrics{
			GamesStarted:         4,
			GamesWon:             3,
			AvgTurnsToWin:        12.5,
			QuestionsAsked:       40,
			QuestionsReplaced:    10,
			ReplacementRate:      0.25,
			ReplacementsByReason: map[string]int{"duplicate_topic": 7, "confirmed_trait": 3},
			EventCount:           42,
			OldestEvent:          &now,
			NewestEvent:          &now,
		},
	}
	srv := newTestServer(nil, mc, nil)

	var m metricsOutput
	decodeResult(t, callTool(t, srv, "get_metrics", map[string]any{"since": "30d"}), &m)

	if m.GamesWon != 3 || m.WinRate != 0.75 {
		t.Errorf("games won = %d, win rate = %g, want 3 and 0.75", m.GamesWon, m.WinRate)
	}
	if m.ReplacementsByReason["duplicate_topic"] != 7 {
		t.Errorf("replacements by reason = %v", m.ReplacementsByReason)
	}
	if m.EventCount != 42 {
		t.Errorf("expected 42 events, got %d", m.EventCount)
	}
	if m.OldestEvent == "" {
		t.Error("expected oldest event timestamp")
	}
}

func TestGetMetricsErrors(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	if result := callTool(t, srv, "get_metrics", map[string]any{}); !result.IsError {
		t.Fatal("expected error when metrics calculator is nil")
	}

	srv = newTestServer(nil, &fakeMetricsCalculator{metrics: &observability.Metrics{}}, nil)
	result := callTool(t, srv, "get_metrics", map[string]any{"since": "7w"})
	if !result.IsError {
		t.Fatal("expected error for bad since window")
	}
}

func TestGetAlerts(t *testing.T) {
	now := time.Now().UTC()
	ae := &fakeAlertEngine{
		alerts: []observability.Alert{
			{
				ID:          "llm-failures-G-00003",
				Condition:   "repeated_llm_failures",
				Severity:    observability.SeverityHigh,
				Message:     "game G-00003 hit 3 model failures",
				TriggeredAt: now,
			},
		},
	}
	srv := newTestServer(nil, nil, ae)

	var out getAlertsOutput
	decodeResult(t, callTool(t, srv, "get_alerts", map[string]any{}), &out)

	if out.Count != 1 {
		t.Fatalf("expected 1 alert, got %d", out.Count)
	}
	if out.Alerts[0].Severity != "high" {
		t.Errorf("expected high severity, got %s", out.Alerts[0].Severity)
	}
}

func TestGetAlertsDisabled(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error when alert engine is nil")
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
