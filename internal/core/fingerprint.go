// Package core contains the detective engine: question fingerprinting,
// redundancy and realm checks, trait extraction and inference, fallback
// selection, guess filtering, the game state machine, and the per-turn
// orchestration that ties them to the language model.
package core

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

var (
	nonAlnumPattern  = regexp.MustCompile(`[^a-z0-9\s]`)
	nonLetterPattern = regexp.MustCompile(`[^a-z\s]`)
	nonWordPattern   = regexp.MustCompile(`[^a-z0-9]+`)
)

// foldText strips combining marks so "Pokémon" and "Pokemon" compare equal.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// TopicWords returns the fingerprint of a question: the lowercased words
// longer than two letters that are not stop words.
func TopicWords(question string) map[string]struct{} {
	cleaned := nonAlnumPattern.ReplaceAllString(strings.ToLower(foldText(question)), "")
	words := make(map[string]struct{})
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

// normalizeQuestion is the exact-match form: lowercase letters and spaces only.
func normalizeQuestion(q string) string {
	return strings.TrimSpace(nonLetterPattern.ReplaceAllString(strings.ToLower(foldText(q)), ""))
}

// phraseText lowercases q and turns every run of non-alphanumerics into a
// single space, padded at both ends so phrases can be matched on word
// boundaries with strings.Contains.
func phraseText(q string) string {
	return " " + strings.TrimSpace(nonWordPattern.ReplaceAllString(strings.ToLower(foldText(q)), " ")) + " "
}

func containsPhrase(padded, phrase string) bool {
	return strings.Contains(padded, " "+phrase+" ")
}

func containsAnyPhrase(padded string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(padded, p) {
			return true
		}
	}
	return false
}

// Engine runs the deterministic question checks. The zero value is not
// usable; construct with NewEngine.
type Engine struct {
	looseSubstring bool
	logger         *zap.Logger
}

// NewEngine creates an Engine. A nil logger disables logging.
func NewEngine(cfg models.EngineConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{looseSubstring: cfg.LooseSubstringMatch, logger: logger}
}

// Related reports whether two fingerprint words refer to the same topic:
// equal words, members of one synonym group, or a substring relation.
//
// By default the substring relation is tightened to "the longer word starts
// with the shorter one, which has at least four letters", so power/powers
// and super/superhero relate but man/woman and male/female do not. With
// loose matching any containment counts.
func (e *Engine) Related(a, b string) bool {
	if a == b {
		return true
	}
	for _, group := range synonymGroups {
		_, okA := group[a]
		_, okB := group[b]
		if okA && okB {
			return true
		}
	}
	if e.looseSubstring {
		return strings.Contains(a, b) || strings.Contains(b, a)
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	return len(short) >= 4 && strings.HasPrefix(long, short)
}
