package core

import (
	"strings"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// secondaryConfidence is fixed because the inference is rule based.
const secondaryConfidence = 0.85

// InferSecondaryTrait derives a trait from binary questions ("Is your
// character human?") without another model call. It skips patterns whose key
// primary already covers and never records a negated placeholder such as
// "non-human".
func InferSecondaryTrait(question string, answer models.AnswerValue, primary *models.Trait) *models.Trait {
	if !answer.IsPositive() && !answer.IsNegative() {
		return nil
	}

	padded := phraseText(question)
	for _, p := range binaryPatterns {
		if !containsAnyPhrase(padded, p.Keywords) {
			continue
		}
		if primary != nil && primary.Key == p.Key {
			continue
		}
		value := p.PositiveValue
		if answer.IsNegative() {
			value = p.NegativeValue
		}
		if strings.HasPrefix(value, "not-") || strings.HasPrefix(value, "non-") {
			continue
		}
		return &models.Trait{Key: p.Key, Value: value, Confidence: secondaryConfidence}
	}
	return nil
}
