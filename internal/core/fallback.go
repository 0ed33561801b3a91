package core

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// FallbackQuestions are tried in order when the model's question is
// unusable. The order runs from broad splits to narrow details.
var FallbackQuestions = []string{
	"Is your character fictional?",
	"Is your character male?",
	"Is your character human?",
	"Did your character originate in an anime or manga series?",
	"Did your character originate in a video game?",
	"Did your character originate in a comic book?",
	"Did your character originate in a movie?",
	"Did your character originate in a TV show?",
	"Does your character have supernatural powers or abilities?",
	"Does your character have a distinctive hair color (not black or brown)?",
	"Does your character typically wear armor or a costume?",
	"Is your character known for being a villain or antagonist?",
	"Is your character part of a team or group?",
	"Does your character use a weapon?",
	"Is your character associated with a specific color or symbol?",
	"Does your character have any distinctive accessories?",
	"Does your character have facial hair?",
	"Is your character known for a specific catchphrase or saying?",
	"Does your character have a distinctive eye color?",
	"Is your character associated with a specific location or place?",
	"Does your character have a sidekick or companion?",
	"Is your character bald or have a shaved head?",
	"Does your character wear glasses or eyewear?",
	"Is your character known for a specific fighting style?",
	"Does your character have tattoos or body markings?",
	"Is your character royalty or nobility?",
	"Does your character have a specific occupation or job?",
	"Is your character known for being intelligent or clever?",
	"Does your character have a specific weakness or vulnerability?",
	"Is your character associated with a specific element (fire, water, etc.)?",

	"Does your character have long hair?",
	"Does your character have short hair?",
	"Does your character wear a hat or headgear?",
	"Does your character have scars or injuries?",
	"Does your character have a muscular build?",
	"Does your character wear a cape or cloak?",
	"Does your character have wings?",
	"Does your character have a tail?",
	"Does your character have pointed ears?",
	"Does your character have glowing eyes?",

	"Is your character funny or comedic?",
	"Is your character serious or stern?",
	"Is your character brave or courageous?",
	"Is your character mysterious or secretive?",
	"Is your character friendly or outgoing?",
	"Is your character aggressive or violent?",
	"Is your character wise or knowledgeable?",
	"Is your character naive or innocent?",
	"Is your character arrogant or prideful?",
	"Is your character humble or modest?",

	"Is your character from a fantasy setting?",
	"Is your character from a sci-fi setting?",
	"Is your character from ancient times?",
	"Is your character from modern times?",
	"Is your character from the future?",
	"Does your character come from wealth or poverty?",
	"Is your character famous or well-known in their world?",
	"Is your character an orphan?",
	"Does your character have a tragic backstory?",
	"Does your character have family members who are important to the story?",

	"Is your character physically strong?",
	"Is your character fast or agile?",
	"Can your character fly?",
	"Can your character teleport or move instantly?",
	"Can your character read minds or use telepathy?",
	"Can your character control time?",
	"Can your character become invisible?",
	"Is your character immortal or very long-lived?",
	"Can your character heal others?",
	"Does your character have enhanced senses?",

	"Does your character have a romantic partner?",
	"Does your character have a mentor or teacher?",
	"Does your character have a rival or nemesis?",
	"Is your character a leader?",
	"Is your character a loner?",
	"Does your character work with law enforcement?",
	"Is your character a student?",
	"Does your character have children?",
	"Does your character have a pet or animal companion?",
	"Is your character part of a family dynasty?",
}

// ExtendedFallbackQuestions cycle by turn number once FallbackQuestions are
// exhausted. Each use is tagged with the turn so it never repeats verbatim.
var ExtendedFallbackQuestions = []string{
	"Does your character use technology or gadgets?",
	"Is your character a scientist or inventor?",
	"Does your character have a secret identity?",
	"Is your character wealthy or rich?",
	"Does your character live in a city?",
	"Is your character from space or another planet?",
	"Does your character wear a mask?",
	"Is your character athletic or sporty?",
	"Does your character have a specific accent or way of speaking?",
	"Is your character religious or spiritual?",
	"Does your character have a disability?",
	"Is your character a parent?",
	"Does your character smoke or drink?",
	"Is your character a criminal?",
	"Does your character have military training?",
	"Is your character a doctor or medic?",
	"Does your character have artistic talents?",
	"Is your character a musician?",
	"Does your character have magical abilities?",
	"Is your character connected to nature or animals?",
	"Does your character have a dual personality?",
	"Is your character from nobility or high society?",
	"Does your character have cybernetic enhancements?",
	"Is your character undead or a ghost?",
	"Does your character have a tragic love story?",
	"Is your character seeking revenge?",
	"Does your character have amnesia or memory loss?",
	"Is your character a shapeshifter?",
	"Does your character have a cursed or blessed item?",
	"Is your character prophesied or destined for something?",
}

// PickFallback returns the first FallbackQuestions entry that is not an
// exact repeat, not a duplicate topic, not about a confirmed trait and not
// incompatible with traits. When none qualifies it returns an extended
// question chosen by turn number, where the turn is len(prior)+1.
func (e *Engine) PickFallback(prior []string, confirmed map[models.TraitKey]bool, traits []models.Trait) string {
	asked := make(map[string]bool, len(prior))
	for _, p := range prior {
		asked[normalizeQuestion(p)] = true
	}

	for i, q := range FallbackQuestions {
		if asked[normalizeQuestion(q)] {
			continue
		}
		var skip string
		switch {
		case e.IsDuplicateTopic(q, prior):
			skip = "duplicate"
		case IsAboutConfirmedTrait(q, confirmed):
			skip = "confirmed_trait"
		case IsLogicallyIncompatible(q, traits):
			skip = "incompatible"
		}
		if skip != "" {
			e.logger.Debug("fallback skipped", zap.Int("index", i), zap.String("question", q), zap.String("reason", skip))
			continue
		}
		e.logger.Info("fallback selected", zap.Int("index", i), zap.String("question", q))
		return q
	}

	turn := len(prior) + 1
	q := fmt.Sprintf("%s (T%d)", ExtendedFallbackQuestions[turn%len(ExtendedFallbackQuestions)], turn)
	e.logger.Warn("fallback questions exhausted, using extended pool", zap.Int("turn", turn), zap.String("question", q))
	return q
}
