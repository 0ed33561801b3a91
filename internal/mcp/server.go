// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the detective's question rules and gameplay metrics as MCP tools, so an
// assistant driving its own game can reuse them.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/lemon-detective/internal/core"
	"github.com/valter-silva-au/lemon-detective/internal/observability"
	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// Server wraps the engine services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	engine      *core.Engine
	filter      *core.GuessFilter
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server. filter, metricsCalc and alertEngine may
// be nil; the tools that need them then report an error result.
func NewServer(engine *core.Engine, filter *core.GuessFilter, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		engine:      engine,
		filter:      filter,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "detective", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type validateQuestionInput struct {
	Question string   `json:"question" jsonschema:"required,the proposed yes/no question"`
	Prior    []string `json:"prior,omitempty" jsonschema:"questions already asked this game"`
	Traits   []string `json:"traits,omitempty" jsonschema:"confirmed traits as key=value (e.g. gender=male)"`
}

type validateQuestionOutput struct {
	Question string   `json:"question"`
	Repaired string   `json:"repaired"`
	Valid    bool     `json:"valid"`
	Reason   string   `json:"reason,omitempty"`
	Fallback string   `json:"fallback,omitempty"`
	Realms   []string `json:"realms,omitempty"`
}

type pickFallbackInput struct {
	Prior  []string `json:"prior,omitempty" jsonschema:"questions already asked this game"`
	Traits []string `json:"traits,omitempty" jsonschema:"confirmed traits as key=value"`
}

type pickFallbackOutput struct {
	Question string `json:"question"`
}

type inferTraitInput struct {
	Question string `json:"question" jsonschema:"required,the question that was answered"`
	Answer   string `json:"answer" jsonschema:"required,one of yes, no, probably, probably_not, dont_know"`
}

type inferTraitOutput struct {
	Found      bool    `json:"found"`
	Key        string  `json:"key,omitempty"`
	Value      string  `json:"value,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type checkGuessInput struct {
	Name   string   `json:"name" jsonschema:"required,the candidate character name"`
	Traits []string `json:"traits,omitempty" jsonschema:"confirmed traits as key=value"`
}

type checkGuessOutput struct {
	Name       string `json:"name"`
	Compatible bool   `json:"compatible"`
	Reason     string `json:"reason,omitempty"`
	Source     string `json:"source"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	GamesStarted         int            `json:"games_started"`
	GamesWon             int            `json:"games_won"`
	WinRate              float64        `json:"win_rate"`
	AvgTurnsToWin        float64        `json:"avg_turns_to_win"`
	TurnsAnswered        int            `json:"turns_answered"`
	QuestionsAsked       int            `json:"questions_asked"`
	QuestionsReplaced    int            `json:"questions_replaced"`
	ReplacementRate      float64        `json:"replacement_rate"`
	ReplacementsByReason map[string]int `json:"replacements_by_reason"`
	GuessesPresented     int            `json:"guesses_presented"`
	GuessesRejected      int            `json:"guesses_rejected"`
	LLMFailures          int            `json:"llm_failures"`
	EventCount           int            `json:"event_count"`
	OldestEvent          string         `json:"oldest_event,omitempty"`
	NewestEvent          string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "validate_question",
		Description: "Check a proposed yes/no question against the questions already asked and the confirmed traits. Repairs 'A or B' questions and names a fallback when the question would be replaced.",
	}, s.handleValidateQuestion)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "pick_fallback",
		Description: "Pick the next curated fallback question that has not been asked and does not touch a confirmed trait.",
	}, s.handlePickFallback)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "infer_trait",
		Description: "Infer a trait from a binary question and its answer (e.g. 'Is your character male?' + no gives gender=female) without calling a model.",
	}, s.handleInferTrait)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "check_guess",
		Description: "Check whether a candidate character is compatible with the confirmed traits, using the known-character table and the web lookup.",
	}, s.handleCheckGuess)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get gameplay metrics: games, wins, turns to win, question replacement rate and model failures.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate alert conditions over recent games and return any triggered alerts.",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleValidateQuestion(_ context.Context, _ *gomcp.CallToolRequest, input validateQuestionInput) (*gomcp.CallToolResult, validateQuestionOutput, error) {
	if input.Question == "" {
		return errorResult("question is required"), validateQuestionOutput{}, nil
	}
	traits, err := core.ParseTraits(input.Traits)
	if err != nil {
		return errorResult(err.Error()), validateQuestionOutput{}, nil
	}

	r := s.engine.Check(input.Question, input.Prior, traits)
	return nil, validateQuestionOutput{
		Question: r.Question,
		Repaired: r.Repaired,
		Valid:    r.Valid,
		Reason:   string(r.Reason),
		Fallback: r.Fallback,
		Realms:   r.Realms,
	}, nil
}

func (s *Server) handlePickFallback(_ context.Context, _ *gomcp.CallToolRequest, input pickFallbackInput) (*gomcp.CallToolResult, pickFallbackOutput, error) {
	traits, err := core.ParseTraits(input.Traits)
	if err != nil {
		return errorResult(err.Error()), pickFallbackOutput{}, nil
	}
	q := s.engine.PickFallback(input.Prior, models.TraitKeys(traits), traits)
	return nil, pickFallbackOutput{Question: q}, nil
}

func (s *Server) handleInferTrait(_ context.Context, _ *gomcp.CallToolRequest, input inferTraitInput) (*gomcp.CallToolResult, inferTraitOutput, error) {
	answer, err := models.ParseAnswer(input.Answer)
	if err != nil {
		return errorResult(err.Error()), inferTraitOutput{}, nil
	}
	t := core.InferSecondaryTrait(input.Question, answer, nil)
	if t == nil {
		return nil, inferTraitOutput{}, nil
	}
	return nil, inferTraitOutput{
		Found:      true,
		Key:        string(t.Key),
		Value:      t.Value,
		Confidence: t.Confidence,
	}, nil
}

func (s *Server) handleCheckGuess(ctx context.Context, _ *gomcp.CallToolRequest, input checkGuessInput) (*gomcp.CallToolResult, checkGuessOutput, error) {
	if s.filter == nil {
		return errorResult("guess filter not available"), checkGuessOutput{}, nil
	}
	if input.Name == "" {
		return errorResult("name is required"), checkGuessOutput{}, nil
	}
	traits, err := core.ParseTraits(input.Traits)
	if err != nil {
		return errorResult(err.Error()), checkGuessOutput{}, nil
	}

	out := checkGuessOutput{Name: input.Name, Compatible: true}
	facts, source := s.filter.Facts(ctx, input.Name)
	out.Source = source
	if facts != nil {
		if reason := core.Contradiction(*facts, traits); reason != "" {
			out.Compatible = false
			out.Reason = reason
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := observability.ParseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	m, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		GamesStarted:         m.GamesStarted,
		GamesWon:             m.GamesWon,
		WinRate:              m.WinRate(),
		AvgTurnsToWin:        m.AvgTurnsToWin,
		TurnsAnswered:        m.TurnsAnswered,
		QuestionsAsked:       m.QuestionsAsked,
		QuestionsReplaced:    m.QuestionsReplaced,
		ReplacementRate:      m.ReplacementRate,
		ReplacementsByReason: m.ReplacementsByReason,
		GuessesPresented:     m.GuessesPresented,
		GuessesRejected:      m.GuessesRejected,
		LLMFailures:          m.LLMFailures,
		EventCount:           m.EventCount,
	}
	if m.OldestEvent != nil {
		out.OldestEvent = m.OldestEvent.Format(time.RFC3339)
	}
	if m.NewestEvent != nil {
		out.NewestEvent = m.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (event log may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{ReplacementsByReason: map[string]int{}}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
