package core

import (
	"context"
	"errors"
	"testing"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

func newTestSession(c Completer, events EventLogger, cfg models.GameConfig) *Session {
	engine := NewEngine(models.EngineConfig{}, nil)
	filter := NewGuessFilter(testTable, nil, events, nil)
	d := NewDetective(engine, c, filter, DefaultConfig().LLM, events, nil)
	return NewSession(d, filter, cfg, events, nil)
}

var neverGuess = models.GameConfig{GuessThreshold: 1, MinTraitsForGuess: 100, MaxTurns: 1000}

func TestSession_PlaysTurns(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	c := &scriptedCompleter{
		traits: []string{`{"key":"fictional","value":"true","confidence":0.9}`},
		questions: []string{
			`{"question":"Is your character fictional?"}`,
			`{"question":"Does your character wear a cape?"}`,
		},
	}
	s := newTestSession(c, events, neverGuess)

	if err := s.Answer(ctx, models.AnswerYes); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("Answer before Begin error = %v, want ErrNoActiveGame", err)
	}

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	g := s.Game()
	if g.Turn != 1 || g.CurrentQuestion != "Is your character fictional?" || g.Phase != models.PhaseWaitingForAnswer {
		t.Fatalf("after Begin: turn=%d question=%q phase=%q", g.Turn, g.CurrentQuestion, g.Phase)
	}

	if err := s.Answer(ctx, models.AnswerYes); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if g.Turn != 2 || g.CurrentQuestion != "Does your character wear a cape?" {
		t.Errorf("after Answer: turn=%d question=%q", g.Turn, g.CurrentQuestion)
	}
	if len(g.Turns) != 1 || g.Turns[0].TurnNumber != 1 {
		t.Errorf("Turns = %+v, want one turn numbered 1", g.Turns)
	}
	if len(g.Traits) != 1 || g.Traits[0].Key != models.KeyFictional || g.Traits[0].TurnAdded != 1 {
		t.Errorf("Traits = %+v", g.Traits)
	}

	for eventType, want := range map[string]int{
		"game.started":   1,
		"question.asked": 2,
		"turn.answered":  1,
		"trait.added":    1,
	} {
		if got := events.count(eventType); got != want {
			t.Errorf("%s events = %d, want %d", eventType, got, want)
		}
	}
}

func TestSession_ErrorLeavesStateAndResumes(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	c := &scriptedCompleter{questions: []string{
		`{"question":"Is your character fictional?"}`,
		`{"question":"Does your character wear a cape?"}`,
	}}
	s := newTestSession(c, events, neverGuess)
	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	c.failNext = 1
	err := s.Answer(ctx, models.AnswerNo)
	if !errors.Is(err, ErrCompletion) {
		t.Fatalf("Answer error = %v, want ErrCompletion", err)
	}
	g := s.Game()
	if g.Err == "" {
		t.Error("game error not set")
	}
	if g.Turn != 1 || g.CurrentQuestion != "Is your character fictional?" || len(g.Traits) != 0 {
		t.Errorf("failed turn changed state: turn=%d question=%q traits=%v", g.Turn, g.CurrentQuestion, g.Traits)
	}
	if events.count("llm.failed") != 1 {
		t.Errorf("llm.failed events = %d, want 1", events.count("llm.failed"))
	}

	if err := s.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if g.Err != "" || g.Turn != 2 || g.CurrentQuestion != "Does your character wear a cape?" {
		t.Errorf("after Resume: err=%q turn=%d question=%q", g.Err, g.Turn, g.CurrentQuestion)
	}
	if len(g.Turns) != 1 {
		t.Errorf("Turns = %d, want 1", len(g.Turns))
	}

	if err := s.Resume(ctx); err != nil {
		t.Errorf("Resume without error = %v, want nil", err)
	}
	if g.Turn != 2 {
		t.Errorf("idle Resume advanced the turn to %d", g.Turn)
	}
}

func TestSession_GuessDecision(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	c := &scriptedCompleter{questions: []string{
		`{"question":"Is your character fictional?","top_guesses":[{"name":"Batman","confidence":0.5},{"name":"Sherlock Holmes","confidence":0.9}]}`,
		`{"question":"Does your character wear a cape?","top_guesses":[{"name":"Sherlock Holmes","confidence":0.95}]}`,
	}}
	s := newTestSession(c, events, models.GameConfig{GuessThreshold: 0.85, MinTraitsForGuess: 0, MaxTurns: 60})

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	g := s.Game()
	if g.Phase != models.PhaseGuessing || g.FinalGuess != "Sherlock Holmes" {
		t.Fatalf("phase=%q final=%q, want guessing Sherlock Holmes", g.Phase, g.FinalGuess)
	}

	if err := s.RespondToGuess(ctx, false); err != nil {
		t.Fatalf("RespondToGuess(false): %v", err)
	}
	if g.Phase != models.PhaseWaitingForAnswer || g.CurrentQuestion != "Does your character wear a cape?" {
		t.Errorf("after rejection phase=%q question=%q", g.Phase, g.CurrentQuestion)
	}
	if len(g.TopGuesses) != 0 {
		t.Errorf("rejected guess proposed again: %v", g.TopGuesses)
	}
	if events.count("guess.rejected") != 1 || events.count("guess.presented") != 1 {
		t.Errorf("events = %v", events.events)
	}
}

func TestSession_GuessAtMaxTurns(t *testing.T) {
	ctx := context.Background()
	c := &scriptedCompleter{questions: []string{
		`{"question":"Is your character fictional?","top_guesses":[{"name":"Batman","confidence":0.2}]}`,
	}}
	s := newTestSession(c, nil, models.GameConfig{GuessThreshold: 0.85, MinTraitsForGuess: 0, MaxTurns: 0})
	s.cfg.MaxTurns = 1

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.Answer(ctx, models.AnswerYes); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	g := s.Game()
	if g.Phase != models.PhaseGuessing || g.FinalGuess != "Batman" {
		t.Fatalf("phase=%q final=%q, want a guess at the turn limit", g.Phase, g.FinalGuess)
	}

	if err := s.RespondToGuess(ctx, true); err != nil {
		t.Fatalf("RespondToGuess(true): %v", err)
	}
	if g.Phase != models.PhaseRevealed {
		t.Errorf("phase = %q, want revealed", g.Phase)
	}
	if err := s.CompleteHeroRender(); err != nil {
		t.Errorf("CompleteHeroRender: %v", err)
	}
}

func TestSession_BeginResetsLearning(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	c := &scriptedCompleter{questions: []string{`{"question":"Is your character fictional?"}`}}
	s := newTestSession(c, events, neverGuess)

	_ = s.Begin(ctx)
	_ = s.Answer(ctx, models.AnswerDontKnow)
	if len(s.Game().Learning.AmbiguousQuestions) != 1 {
		t.Fatalf("expected one ambiguous question")
	}

	_ = s.Begin(ctx)
	if len(s.Game().Learning.AmbiguousQuestions) != 0 {
		t.Error("Begin kept learning from the previous game")
	}
	if events.count("game.reset") != 1 {
		t.Errorf("game.reset events = %d, want 1", events.count("game.reset"))
	}

	s.Reset()
	if s.Game().Phase != models.PhaseIdle {
		t.Errorf("phase after Reset = %q", s.Game().Phase)
	}
}
