package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// CharacterTable answers from the built-in known-character facts.
type CharacterTable interface {
	Find(name string) (models.CharacterFacts, bool)
}

// CharacterLookup classifies a name the table does not know. A nil result
// with a nil error means nothing was found.
type CharacterLookup interface {
	Lookup(ctx context.Context, name string) (*models.CharacterFacts, error)
}

// maxConcurrentLookups bounds the parallel external lookups per Filter call.
const maxConcurrentLookups = 4

// lookupEntry lets the cache remember "no result" as well as facts.
type lookupEntry struct {
	facts *models.CharacterFacts
}

// GuessFilter drops candidate guesses whose known facts contradict the
// confirmed traits. Lookup results are cached for the session; call Reset
// when a new game starts.
type GuessFilter struct {
	table  CharacterTable
	lookup CharacterLookup
	cache  *cache.Cache
	events EventLogger
	logger *zap.Logger
}

// NewGuessFilter creates a GuessFilter. lookup and events may be nil.
func NewGuessFilter(table CharacterTable, lookup CharacterLookup, events EventLogger, logger *zap.Logger) *GuessFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuessFilter{
		table:  table,
		lookup: lookup,
		cache:  cache.New(cache.NoExpiration, 0),
		events: events,
		logger: logger,
	}
}

// Reset discards cached lookups.
func (f *GuessFilter) Reset() {
	f.cache.Flush()
}

// Facts returns what is known about name, consulting the table first and
// then the cached external lookup. Only answers are cached: a failed or
// cancelled lookup reports unknown for this call and runs again next time.
func (f *GuessFilter) Facts(ctx context.Context, name string) (*models.CharacterFacts, string) {
	key := models.NameKey(name)
	if f.table != nil {
		if facts, ok := f.table.Find(key); ok {
			return &facts, "table"
		}
	}
	if f.lookup == nil {
		return nil, "none"
	}
	if cached, ok := f.cache.Get(key); ok {
		return cached.(lookupEntry).facts, "cache"
	}

	facts, err := f.lookup.Lookup(ctx, name)
	if err != nil {
		f.logger.Warn("character lookup failed", zap.String("guess", name), zap.Error(err))
		return nil, "lookup"
	}
	if ctx.Err() != nil {
		return facts, "lookup"
	}
	f.cache.Set(key, lookupEntry{facts: facts}, cache.NoExpiration)
	return facts, "lookup"
}

// Contradiction returns the first confirmed trait that facts contradict, or
// "" when the character fits.
func Contradiction(facts models.CharacterFacts, traits []models.Trait) string {
	hasPowers := traitValue(traits, models.KeyHasPowers)
	gender := traitValue(traits, models.KeyGender)
	species := traitValue(traits, models.KeySpecies)
	alignment := traitValue(traits, models.KeyAlignment)
	fictional := traitValue(traits, models.KeyFictional)

	factGender := strings.ToLower(facts.Gender)
	factSpecies := strings.ToLower(facts.Species)
	factAlignment := strings.ToLower(facts.Alignment)

	switch {
	case (hasPowers == "false" || hasPowers == "no") && facts.Powers:
		return "has powers but the character has none"
	case (hasPowers == "true" || hasPowers == "yes") && !facts.Powers:
		return "has no powers but the character has some"
	}

	if factGender != "" && factGender != "unknown" {
		switch gender {
		case "male", "man", "boy":
			if factGender != "male" {
				return "not male"
			}
		case "female", "woman", "girl":
			if factGender != "female" {
				return "not female"
			}
		}
	}

	if species == "human" || species == "person" || species == "mortal" {
		if factSpecies != "human" && factSpecies != "demigod" {
			return fmt.Sprintf("not human (species %s)", factSpecies)
		}
	}

	switch {
	case alignment == "hero" && factAlignment == "villain":
		return "a villain but the character is a hero"
	case alignment == "villain" && factAlignment == "hero":
		return "a hero but the character is a villain"
	}

	switch {
	case (fictional == "false" || fictional == "no" || fictional == "real") && facts.Fictional:
		return "fictional but the character is real"
	case (fictional == "true" || fictional == "yes") && !facts.Fictional:
		return "a real person but the character is fictional"
	}
	return ""
}

// IsCompatible reports whether name fits traits. Unknown names are allowed
// through.
func (f *GuessFilter) IsCompatible(ctx context.Context, name string, traits []models.Trait) bool {
	return f.compatible(ctx, "", name, traits)
}

func (f *GuessFilter) compatible(ctx context.Context, gameID, name string, traits []models.Trait) bool {
	facts, source := f.Facts(ctx, name)
	if facts == nil {
		f.logger.Info("guess unknown, allowing", zap.String("guess", name))
		return true
	}
	if reason := Contradiction(*facts, traits); reason != "" {
		f.logger.Info("guess filtered",
			zap.String("guess", name),
			zap.String("reason", reason),
			zap.String("source", source),
		)
		logEvent(f.events, "guess.filtered", map[string]any{
			"game_id": gameID,
			"guess":   name,
			"reason":  reason,
			"source":  source,
		})
		return false
	}
	return true
}

// Filter drops rejected and incompatible candidates and clamps the
// confidence of the rest to [0.01, 0.99]. Compatibility checks run
// concurrently; the result keeps candidate order. gameID tags the
// guess.filtered events.
func (f *GuessFilter) Filter(ctx context.Context, gameID string, candidates []models.Guess, traits []models.Trait, rejected []string) []models.Guess {
	rejectedKeys := make(map[string]bool, len(rejected))
	for _, r := range rejected {
		rejectedKeys[models.NameKey(r)] = true
	}

	var pending []models.Guess
	for _, c := range candidates {
		if strings.TrimSpace(c.Name) == "" || rejectedKeys[models.NameKey(c.Name)] {
			continue
		}
		pending = append(pending, c)
	}

	compatible := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, c := range pending {
		g.Go(func() error {
			compatible[i] = f.compatible(gctx, gameID, c.Name, traits)
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]models.Guess, 0, len(pending))
	for i, c := range pending {
		if !compatible[i] {
			continue
		}
		kept = append(kept, models.Guess{Name: c.Name, Confidence: clamp(c.Confidence, 0.01, 0.99)})
	}
	return kept
}
