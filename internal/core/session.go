package core

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// Session drives one player's games: it owns the Game and feeds it through
// the Detective turn by turn.
type Session struct {
	game      *Game
	detective *Detective
	filter    *GuessFilter
	cfg       models.GameConfig
	events    EventLogger
	logger    *zap.Logger

	// pending is the answered turn whose detective call failed, kept so
	// Resume can retry it.
	pending  *models.Turn
	retrying bool
}

// NewSession creates a Session with an idle game. events may be nil.
func NewSession(detective *Detective, filter *GuessFilter, cfg models.GameConfig, events EventLogger, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		game:      NewGame(),
		detective: detective,
		filter:    filter,
		cfg:       cfg,
		events:    events,
		logger:    logger,
	}
}

// Game returns the current game. Callers must not modify it.
func (s *Session) Game() *Game {
	return s.game
}

// Begin starts a new game and asks the first question.
func (s *Session) Begin(ctx context.Context) error {
	if s.game.Phase != models.PhaseIdle {
		logEvent(s.events, "game.reset", map[string]any{"game_id": s.game.ID, "turn": s.game.Turn})
	}
	s.game.Start(rand.Int64())
	s.filter.Reset()
	s.pending = nil
	s.retrying = false
	logEvent(s.events, "game.started", map[string]any{"game_id": s.game.ID})
	s.logger.Info("game started", zap.String("game_id", s.game.ID))
	return s.advance(ctx, nil)
}

// Reset abandons the current game.
func (s *Session) Reset() {
	if s.game.Phase != models.PhaseIdle {
		logEvent(s.events, "game.reset", map[string]any{"game_id": s.game.ID, "turn": s.game.Turn})
	}
	s.game.Reset()
	s.filter.Reset()
	s.pending = nil
	s.retrying = false
}

// Answer submits the player's answer to the current question and advances to
// the next question or a final guess.
func (s *Session) Answer(ctx context.Context, answer models.AnswerValue) error {
	if s.game.Phase == models.PhaseIdle {
		return ErrNoActiveGame
	}
	turn, err := s.game.SubmitAnswer(answer)
	if err != nil {
		return err
	}
	logEvent(s.events, "turn.answered", map[string]any{
		"game_id":  s.game.ID,
		"turn":     turn.TurnNumber,
		"question": turn.Question,
		"answer":   string(answer),
	})
	return s.advance(ctx, &turn)
}

// RespondToGuess records whether the final guess was right. A wrong guess
// resumes questioning.
func (s *Session) RespondToGuess(ctx context.Context, correct bool) error {
	if s.game.Phase == models.PhaseIdle {
		return ErrNoActiveGame
	}
	attempt, err := s.game.ConfirmGuess(correct)
	if err != nil {
		return err
	}
	if correct {
		logEvent(s.events, "game.won", map[string]any{
			"game_id": s.game.ID,
			"guess":   attempt.Guess,
			"turn":    attempt.TurnNumber,
		})
		s.logger.Info("game won", zap.String("guess", attempt.Guess), zap.Int("turn", attempt.TurnNumber))
		return nil
	}
	logEvent(s.events, "guess.rejected", map[string]any{
		"game_id": s.game.ID,
		"guess":   attempt.Guess,
		"turn":    attempt.TurnNumber,
	})
	return s.advance(ctx, nil)
}

// Resume retries the detective call that last failed. It is a no-op when
// the game is not in an error state.
func (s *Session) Resume(ctx context.Context) error {
	if s.game.Phase == models.PhaseIdle {
		return ErrNoActiveGame
	}
	if !s.retrying {
		return nil
	}
	s.game.ClearError()
	return s.advance(ctx, s.pending)
}

// CompleteHeroRender finishes a won game.
func (s *Session) CompleteHeroRender() error {
	return s.game.CompleteHeroRender()
}

func (s *Session) advance(ctx context.Context, last *models.Turn) error {
	res, err := s.detective.Next(ctx, Input{
		GameID:          s.game.ID,
		Traits:          s.game.Traits,
		Turns:           s.game.Turns,
		TurnNumber:      s.game.Turn,
		RejectedGuesses: s.game.RejectedGuesses,
		Learning:        s.game.Learning,
		LastAnswer:      last,
	})
	if err != nil {
		s.pending = last
		s.retrying = true
		s.game.SetError(err.Error())
		logEvent(s.events, "llm.failed", map[string]any{
			"game_id": s.game.ID,
			"turn":    s.game.Turn,
			"error":   err.Error(),
		})
		s.logger.Error("detective turn failed", zap.Int("turn", s.game.Turn), zap.Error(err))
		return err
	}
	s.pending = nil
	s.retrying = false

	if guess, ok := s.shouldGuess(res); ok {
		if err := s.game.MakeGuess(guess.Name, res.NewTraits); err != nil {
			return err
		}
		logEvent(s.events, "guess.presented", map[string]any{
			"game_id":    s.game.ID,
			"guess":      guess.Name,
			"confidence": guess.Confidence,
			"turn":       s.game.Turn,
		})
		return nil
	}

	if err := s.game.SetQuestion(res.Question, res.NewTraits, res.TopGuesses); err != nil {
		return fmt.Errorf("applying detective result: %w", err)
	}
	logEvent(s.events, "question.asked", map[string]any{
		"game_id":  s.game.ID,
		"turn":     s.game.Turn,
		"question": res.Question,
		"replaced": res.Replaced != RejectNone,
	})
	return nil
}

// shouldGuess picks the top guess when it is confident enough with enough
// confirmed traits, or when the turn limit is reached.
func (s *Session) shouldGuess(res Result) (models.Guess, bool) {
	if len(res.TopGuesses) == 0 {
		return models.Guess{}, false
	}
	top := res.TopGuesses[0]
	for _, g := range res.TopGuesses[1:] {
		if g.Confidence > top.Confidence {
			top = g
		}
	}
	traits := MergeTraits(s.game.Traits, res.NewTraits)
	if top.Confidence >= s.cfg.GuessThreshold && len(traits) >= s.cfg.MinTraitsForGuess {
		return top, true
	}
	if s.cfg.MaxTurns > 0 && s.game.Turn >= s.cfg.MaxTurns {
		return top, true
	}
	return models.Guess{}, false
}
