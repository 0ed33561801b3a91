package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// MergeTraits returns existing updated with incoming. A single-valued key
// keeps one trait, replaced in place by the newest value; a multi-valued key
// accumulates distinct values. Neither input is modified.
func MergeTraits(existing, incoming []models.Trait) []models.Trait {
	merged := make([]models.Trait, 0, len(existing)+len(incoming))
	for _, t := range existing {
		merged = upsertTrait(merged, t)
	}
	for _, t := range incoming {
		merged = upsertTrait(merged, t)
	}
	return merged
}

func upsertTrait(traits []models.Trait, t models.Trait) []models.Trait {
	if t.Key.IsMultiValued() {
		for _, have := range traits {
			if have.Key == t.Key && strings.EqualFold(have.Value, t.Value) {
				return traits
			}
		}
		return append(traits, t)
	}
	for i := range traits {
		if traits[i].Key == t.Key {
			traits[i] = t
			return traits
		}
	}
	return append(traits, t)
}

// ParseTraits reads "key=value" pairs as confirmed traits, as typed on the
// command line or passed to tools. Keys are normalised and must be known.
func ParseTraits(pairs []string) ([]models.Trait, error) {
	var traits []models.Trait
	for _, p := range pairs {
		rawKey, value, ok := strings.Cut(p, "=")
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			return nil, fmt.Errorf("trait %q: want key=value", p)
		}
		key := normalizeTraitKey(rawKey)
		if !models.IsKnownTraitKey(key) {
			return nil, fmt.Errorf("trait %q: unknown key %s", p, key)
		}
		traits = upsertTrait(traits, models.Trait{Key: key, Value: value, Confidence: 1})
	}
	return traits, nil
}
