package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// Input is the game state one detective turn works from.
type Input struct {
	GameID          string
	Traits          []models.Trait
	Turns           []models.Turn
	TurnNumber      int
	RejectedGuesses []string
	Learning        models.SessionLearning
	// LastAnswer is the freshly answered turn to extract traits from. It is
	// nil when the turn follows a rejected guess.
	LastAnswer *models.Turn
}

// Result is what one detective turn produces.
type Result struct {
	Question   string
	NewTraits  []models.Trait
	TopGuesses []models.Guess
	// Proposed is the model's question before validation and Replaced the
	// reason it was swapped for a fallback, if it was.
	Proposed string
	Replaced RejectReason
}

// Detective runs one turn: extract traits from the last answer, ask the
// model for the next question, validate it and filter the guesses.
type Detective struct {
	engine      *Engine
	extractor   *TraitExtractor
	completer   Completer
	filter      *GuessFilter
	events      EventLogger
	logger      *zap.Logger
	temperature float64
	maxTokens   int
}

// NewDetective wires a Detective. events may be nil.
func NewDetective(engine *Engine, completer Completer, filter *GuessFilter, cfg models.LLMConfig, events EventLogger, logger *zap.Logger) *Detective {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detective{
		engine:      engine,
		extractor:   NewTraitExtractor(completer, cfg, logger),
		completer:   completer,
		filter:      filter,
		events:      events,
		logger:      logger,
		temperature: cfg.QuestionTemperature,
		maxTokens:   cfg.QuestionMaxTokens,
	}
}

// Next runs one turn. The only error is a completion transport failure
// wrapped in ErrCompletion; no partial result is returned with it.
func (d *Detective) Next(ctx context.Context, in Input) (Result, error) {
	var newTraits []models.Trait
	if in.LastAnswer != nil {
		var err error
		newTraits, err = d.traitsFromAnswer(ctx, in)
		if err != nil {
			return Result{}, err
		}
	}
	traits := MergeTraits(in.Traits, newTraits)

	prompt := QuestionContext{
		Traits:          traits,
		Turns:           in.Turns,
		Learning:        in.Learning,
		RejectedGuesses: in.RejectedGuesses,
	}.Render()

	raw, err := d.completer.Complete(ctx, DetectiveSystemPrompt, prompt, d.temperature, d.maxTokens)
	if err != nil {
		return Result{}, fmt.Errorf("%w: asking next question: %w", ErrCompletion, err)
	}

	obj := ExtractJSON(raw)
	if obj == nil {
		d.logger.Warn("question proposal returned no JSON", zap.Int("turn", in.TurnNumber))
	}

	proposed := RepairAlternativeQuestion(scalarString(obj["question"]))
	res := Result{Proposed: proposed, Question: proposed, NewTraits: newTraits}

	prior := make([]string, len(in.Turns))
	for i, t := range in.Turns {
		prior[i] = t.Question
	}
	if reason := d.engine.Validate(proposed, prior, traits); reason != RejectNone {
		res.Replaced = reason
		res.Question = d.engine.PickFallback(prior, models.TraitKeys(traits), traits)
		logEvent(d.events, "question.replaced", map[string]any{
			"game_id":  in.GameID,
			"proposed": proposed,
			"question": res.Question,
			"reason":   string(reason),
			"turn":     in.TurnNumber,
		})
	}

	res.TopGuesses = d.filter.Filter(ctx, in.GameID, parseGuesses(obj["top_guesses"]), traits, in.RejectedGuesses)
	return res, nil
}

func (d *Detective) traitsFromAnswer(ctx context.Context, in Input) ([]models.Trait, error) {
	last := in.LastAnswer
	primary, err := d.extractor.Extract(ctx, last.Question, last.Answer)
	if err != nil {
		return nil, err
	}
	secondary := InferSecondaryTrait(last.Question, last.Answer, primary)

	var out []models.Trait
	if primary != nil {
		primary.TurnAdded = in.TurnNumber
		out = append(out, *primary)
	}
	if secondary != nil {
		have := models.TraitKeys(in.Traits)
		if !have[secondary.Key] && (primary == nil || primary.Key != secondary.Key) {
			secondary.TurnAdded = in.TurnNumber
			out = append(out, *secondary)
			d.logger.Info("secondary trait inferred",
				zap.String("question", last.Question),
				zap.String("trait_key", string(secondary.Key)),
				zap.String("trait_value", secondary.Value),
			)
		}
	}
	for _, t := range out {
		logEvent(d.events, "trait.added", map[string]any{
			"game_id": in.GameID,
			"key":     string(t.Key),
			"value":   t.Value,
			"turn":    in.TurnNumber,
		})
	}
	return out, nil
}

// parseGuesses keeps entries with a name and a numeric confidence.
func parseGuesses(v any) []models.Guess {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var guesses []models.Guess
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		conf, isNum := m["confidence"].(float64)
		if name == "" || !isNum {
			continue
		}
		guesses = append(guesses, models.Guess{Name: name, Confidence: conf})
	}
	return guesses
}
