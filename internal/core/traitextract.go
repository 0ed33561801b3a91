package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

const defaultTraitConfidence = 0.7

var codeFencePattern = regexp.MustCompile("(?i)```(?:json)?\\s*")

// ExtractJSON pulls the first well-formed JSON object out of free model
// output, tolerating code fences and commentary around it. Decoding stops at
// the end of the object, so anything after it is ignored. It returns nil when
// nothing parses.
func ExtractJSON(raw string) map[string]any {
	cleaned := codeFencePattern.ReplaceAllString(raw, "")
	for start := strings.IndexByte(cleaned, '{'); start >= 0; {
		var obj map[string]any
		if err := json.NewDecoder(strings.NewReader(cleaned[start:])).Decode(&obj); err == nil {
			return obj
		}
		next := strings.IndexByte(cleaned[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil
}

// scalarString renders a JSON scalar as a string; other shapes yield "".
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

// numberValue reports v as a float when it is a JSON number or a numeric
// string.
func numberValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// normalizeTraitKey maps "Origin Medium" and "origin-medium" to origin_medium.
func normalizeTraitKey(raw string) models.TraitKey {
	k := strings.ToLower(strings.TrimSpace(raw))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	return models.TraitKey(k)
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

// ValidateExtractedTrait applies the extraction rules to a raw
// {key, value, confidence} object. It returns false when the answer carries
// no usable trait. The returned trait has TurnAdded 0; callers set it.
func ValidateExtractedTrait(question string, answer models.AnswerValue, raw map[string]any) (*models.Trait, bool) {
	if answer == models.AnswerDontKnow || raw == nil {
		return nil, false
	}

	key := normalizeTraitKey(scalarString(raw["key"]))
	value := scalarString(raw["value"])
	if key == "" || value == "" {
		return nil, false
	}
	if !models.IsKnownTraitKey(key) {
		return nil, false
	}

	lower := strings.ToLower(value)
	if blockedTraitValues[lower] || strings.HasPrefix(lower, "not_") || strings.HasPrefix(lower, "non_") {
		return nil, false
	}

	if specificCategoryKeys[key] && answer.IsNegative() {
		return nil, false
	}

	if key == models.KeyFictional {
		if _, asksReal := TopicWords(question)["real"]; asksReal {
			if _, isBool := parseBool(value); isBool {
				// "Is your character real?" answered no means fictional.
				value = strconv.FormatBool(answer.IsNegative())
			}
		}
	}

	confidence := defaultTraitConfidence
	if c, ok := numberValue(raw["confidence"]); ok && c != 0 {
		confidence = c
	}

	return &models.Trait{
		Key:        key,
		Value:      value,
		Confidence: clamp(confidence, 0.1, 0.99),
	}, true
}

// Completer is one chat completion against the language model.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// TraitExtractor asks the model for the single trait an answer reveals.
type TraitExtractor struct {
	completer   Completer
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewTraitExtractor creates a TraitExtractor using the trait sampling
// settings from cfg.
func NewTraitExtractor(completer Completer, cfg models.LLMConfig, logger *zap.Logger) *TraitExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraitExtractor{
		completer:   completer,
		temperature: cfg.TraitTemperature,
		maxTokens:   cfg.TraitMaxTokens,
		logger:      logger,
	}
}

// Extract returns the trait revealed by answering question with answer, or
// nil when there is none. Only transport failures return an error, wrapped
// in ErrCompletion.
func (x *TraitExtractor) Extract(ctx context.Context, question string, answer models.AnswerValue) (*models.Trait, error) {
	if answer == models.AnswerDontKnow {
		return nil, nil
	}

	user := fmt.Sprintf("Q: %q A: %q", question, string(answer))
	raw, err := x.completer.Complete(ctx, TraitExtractorPrompt, user, x.temperature, x.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("%w: extracting trait: %w", ErrCompletion, err)
	}

	obj := ExtractJSON(raw)
	if obj == nil {
		x.logger.Warn("trait extraction returned no JSON", zap.String("question", question))
		return nil, nil
	}

	trait, ok := ValidateExtractedTrait(question, answer, obj)
	if !ok {
		x.logger.Info("extracted trait discarded",
			zap.String("question", question),
			zap.String("answer", string(answer)),
			zap.Any("raw", obj),
		)
		return nil, nil
	}
	x.logger.Info("trait extracted",
		zap.String("question", question),
		zap.String("trait_key", string(trait.Key)),
		zap.String("trait_value", trait.Value),
	)
	return trait, nil
}
