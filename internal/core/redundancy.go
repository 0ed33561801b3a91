package core

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// RejectReason explains why a proposed question was replaced.
type RejectReason string

const (
	RejectNone             RejectReason = ""
	RejectEmpty            RejectReason = "empty"
	RejectForbiddenPattern RejectReason = "forbidden_pattern"
	RejectDuplicateTopic   RejectReason = "duplicate_topic"
	RejectConfirmedTrait   RejectReason = "confirmed_trait"
	RejectIncompatible     RejectReason = "logically_incompatible"
	RejectExploredRealm    RejectReason = "explored_realm"
)

// IsDuplicateTopic reports whether question repeats the topic of any prior
// question: an exact match after normalisation, or at least two related
// fingerprint words, or a related-word ratio of 0.8 or more.
func (e *Engine) IsDuplicateTopic(question string, prior []string) bool {
	normalized := normalizeQuestion(question)
	for _, p := range prior {
		if normalized == normalizeQuestion(p) {
			e.logger.Debug("exact duplicate question", zap.String("question", question), zap.String("prior", p))
			return true
		}
	}

	newWords := TopicWords(question)
	if len(newWords) == 0 {
		return false
	}

	for _, p := range prior {
		priorWords := TopicWords(p)
		overlap := 0
		for nw := range newWords {
			for pw := range priorWords {
				if e.Related(nw, pw) {
					overlap++
					break
				}
			}
		}
		ratio := float64(overlap) / float64(max(len(newWords), len(priorWords)))
		if overlap >= 2 || ratio >= 0.8 {
			e.logger.Debug("semantic duplicate question",
				zap.String("question", question),
				zap.String("prior", p),
				zap.Int("overlap", overlap),
				zap.Float64("ratio", ratio),
			)
			return true
		}
	}
	return false
}

// IsAboutConfirmedTrait reports whether any fingerprint word of question is
// a keyword of an already confirmed trait key.
func IsAboutConfirmedTrait(question string, confirmed map[models.TraitKey]bool) bool {
	words := TopicWords(question)
	for key, ok := range confirmed {
		if !ok {
			continue
		}
		keywords, tracked := traitKeywords[key]
		if !tracked {
			continue
		}
		for w := range words {
			if _, hit := keywords[w]; hit {
				return true
			}
		}
	}
	return false
}

// IsLogicallyIncompatible reports whether question asks about something the
// confirmed species, has_powers or fictional values already rule out.
func IsLogicallyIncompatible(question string, traits []models.Trait) bool {
	return incompatibleRule(question, traits) != ""
}

func incompatibleRule(question string, traits []models.Trait) string {
	species := traitValue(traits, models.KeySpecies)
	hasPowers := traitValue(traits, models.KeyHasPowers)
	fictional := traitValue(traits, models.KeyFictional)

	padded := phraseText(question)
	for _, rule := range incompatibilityRules {
		if !rule.When(species, hasPowers, fictional) {
			continue
		}
		for _, term := range rule.Terms {
			if containsPhrase(padded, term) || containsPhrase(padded, term+"s") {
				return rule.Name
			}
		}
	}
	return ""
}

// traitValue returns the lowercased value of the first trait with key.
func traitValue(traits []models.Trait, key models.TraitKey) string {
	if t := models.FindTrait(traits, key); t != nil {
		return strings.ToLower(strings.TrimSpace(t.Value))
	}
	return ""
}

// HasForbiddenPattern reports whether question uses phrasing that is too
// narrow to be useful ("background in", "career as", ...).
func HasForbiddenPattern(question string) bool {
	for _, p := range forbiddenPatterns {
		if p.MatchString(question) {
			return true
		}
	}
	return false
}

var alternativePattern = regexp.MustCompile(`(?i)\s+or\s+[^?]*`)

// RepairAlternativeQuestion turns "Is it a movie or a show?" into
// "Is it a movie?". Only the first alternative is cut.
func RepairAlternativeQuestion(question string) string {
	if !strings.Contains(strings.ToLower(question), " or ") {
		return question
	}
	loc := alternativePattern.FindStringIndex(question)
	if loc == nil {
		return question
	}
	repaired := question[:loc[0]] + question[loc[1]:]
	if !strings.HasSuffix(repaired, "?") {
		repaired += "?"
	}
	return repaired
}

// Validate runs every question check in order and returns the first reason
// the question should be replaced, or RejectNone.
func (e *Engine) Validate(question string, prior []string, traits []models.Trait) RejectReason {
	reason := e.validate(question, prior, traits)
	if reason != RejectNone {
		e.logger.Info("question rejected",
			zap.String("question", question),
			zap.String("reason", string(reason)),
		)
	}
	return reason
}

func (e *Engine) validate(question string, prior []string, traits []models.Trait) RejectReason {
	switch {
	case strings.TrimSpace(question) == "":
		return RejectEmpty
	case HasForbiddenPattern(question):
		return RejectForbiddenPattern
	case e.IsDuplicateTopic(question, prior):
		return RejectDuplicateTopic
	case IsAboutConfirmedTrait(question, models.TraitKeys(traits)):
		return RejectConfirmedTrait
	case IsLogicallyIncompatible(question, traits):
		return RejectIncompatible
	case IsInAlreadyExploredRealm(question, prior):
		return RejectExploredRealm
	}
	return RejectNone
}
