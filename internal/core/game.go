package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// Game is the state of one round. Its methods enforce the phase
// transitions; the fields are exported for display and export only.
type Game struct {
	ID              string                 `yaml:"id"`
	Phase           models.Phase           `yaml:"phase"`
	Turn            int                    `yaml:"turn"`
	Seed            int64                  `yaml:"seed"`
	StartedAt       time.Time              `yaml:"started_at"`
	Traits          []models.Trait         `yaml:"traits"`
	Turns           []models.Turn          `yaml:"turns"`
	CurrentQuestion string                 `yaml:"current_question,omitempty"`
	TopGuesses      []models.Guess         `yaml:"top_guesses,omitempty"`
	FinalGuess      string                 `yaml:"final_guess,omitempty"`
	RejectedGuesses []string               `yaml:"rejected_guesses,omitempty"`
	GuessAttempts   []models.GuessAttempt  `yaml:"guess_attempts,omitempty"`
	Err             string                 `yaml:"error,omitempty"`
	Learning        models.SessionLearning `yaml:"learning"`
}

// NewGame returns an idle game.
func NewGame() *Game {
	return &Game{Phase: models.PhaseIdle}
}

func (g *Game) require(action string, phases ...models.Phase) error {
	for _, p := range phases {
		if g.Phase == p {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s in phase %s", ErrInvalidTransition, action, g.Phase)
}

// Start begins a new round from any phase, discarding all prior state.
func (g *Game) Start(seed int64) {
	*g = Game{
		ID:        uuid.NewString(),
		Phase:     models.PhaseProcessing,
		Seed:      seed,
		StartedAt: time.Now().UTC(),
	}
}

// SetQuestion surfaces the next question. The turn counter advances here, so
// the turn number belongs to the question, not to its answer.
func (g *Game) SetQuestion(question string, newTraits []models.Trait, guesses []models.Guess) error {
	if err := g.require("set question", models.PhaseProcessing); err != nil {
		return err
	}
	g.Turn++
	g.CurrentQuestion = question
	g.Traits = MergeTraits(g.Traits, newTraits)
	g.TopGuesses = guesses
	g.Phase = models.PhaseWaitingForAnswer
	return nil
}

// SubmitAnswer closes the current question into a Turn numbered with the
// current turn.
func (g *Game) SubmitAnswer(answer models.AnswerValue) (models.Turn, error) {
	if err := g.require("submit answer", models.PhaseWaitingForAnswer); err != nil {
		return models.Turn{}, err
	}
	turn := models.Turn{
		TurnNumber: g.Turn,
		Question:   g.CurrentQuestion,
		Answer:     answer,
		TopGuesses: g.TopGuesses,
	}
	g.Turns = append(g.Turns, turn)
	if answer == models.AnswerDontKnow {
		g.Learning.RecordAmbiguous(turn.Question, turn.TurnNumber)
	}
	g.Phase = models.PhaseProcessing
	return turn, nil
}

// MakeGuess presents name as the final guess instead of another question.
func (g *Game) MakeGuess(name string, newTraits []models.Trait) error {
	if err := g.require("make guess", models.PhaseProcessing); err != nil {
		return err
	}
	g.Traits = MergeTraits(g.Traits, newTraits)
	g.FinalGuess = name
	g.Phase = models.PhaseGuessing
	return nil
}

// lastTurnNumber is the number of the last answered turn.
func (g *Game) lastTurnNumber() int {
	if n := len(g.Turns); n > 0 {
		return g.Turns[n-1].TurnNumber
	}
	return g.Turn
}

// ConfirmGuess records the player's verdict on the final guess. A rejected
// guess is remembered and never proposed again this round.
func (g *Game) ConfirmGuess(correct bool) (models.GuessAttempt, error) {
	if err := g.require("confirm guess", models.PhaseGuessing); err != nil {
		return models.GuessAttempt{}, err
	}
	attempt := models.GuessAttempt{
		Guess:      g.FinalGuess,
		Correct:    correct,
		TurnNumber: g.lastTurnNumber(),
	}
	g.GuessAttempts = append(g.GuessAttempts, attempt)
	if correct {
		g.Phase = models.PhaseRevealed
		return attempt, nil
	}
	g.RejectedGuesses = append(g.RejectedGuesses, g.FinalGuess)
	g.Learning.RecordRejected(g.FinalGuess, g.Traits, attempt.TurnNumber)
	g.FinalGuess = ""
	g.Phase = models.PhaseProcessing
	return attempt, nil
}

// Won reports whether a guess was confirmed correct.
func (g *Game) Won() bool {
	for _, a := range g.GuessAttempts {
		if a.Correct {
			return true
		}
	}
	return false
}

// CompleteHeroRender marks the final portrait as done. It requires a correct
// guess.
func (g *Game) CompleteHeroRender() error {
	if !g.Won() {
		return fmt.Errorf("%w: cannot complete hero render without a correct guess", ErrInvalidTransition)
	}
	g.Phase = models.PhaseHeroRender
	return nil
}

// SetError records a failure without touching any other state.
func (g *Game) SetError(msg string) {
	g.Err = msg
}

// ClearError forgets the last failure.
func (g *Game) ClearError() {
	g.Err = ""
}

// Reset returns the game to idle, including what was learned.
func (g *Game) Reset() {
	*g = Game{Phase: models.PhaseIdle}
}

// Prior returns the questions asked so far.
func (g *Game) Prior() []string {
	prior := make([]string, len(g.Turns))
	for i, t := range g.Turns {
		prior[i] = t.Question
	}
	return prior
}

// Transcript snapshots the game for export. The ID is assigned by the store.
func (g *Game) Transcript(finishedAt time.Time) models.Transcript {
	return models.Transcript{
		GameID:          g.ID,
		StartedAt:       g.StartedAt,
		FinishedAt:      finishedAt,
		Won:             g.Won(),
		FinalGuess:      g.FinalGuess,
		Turns:           append([]models.Turn(nil), g.Turns...),
		Traits:          append([]models.Trait(nil), g.Traits...),
		GuessAttempts:   append([]models.GuessAttempt(nil), g.GuessAttempts...),
		RejectedGuesses: append([]string(nil), g.RejectedGuesses...),
	}
}
