package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// DetectiveSystemPrompt instructs the model proposing the next question.
const DetectiveSystemPrompt = `You are "The Detective" in a character-guessing game like Akinator. Identify the player's secret character, fictional or real, with yes/no questions that split the remaining candidates roughly in half.

Strategy by turn:
- Turns 1-10: broad splits (fictional or real, gender, human or not, origin medium, powers, hero or villain).
- Turns 11-30: appearance, role, personality, setting.
- Turns 31+: distinctive features and rare traits.

Rules:
- Ask exactly ONE question answerable with yes or no. Never ask "X or Y" questions.
- Never ask about a trait key listed under "Confirmed traits". Single-value traits (origin_medium, gender, species, fictional) are settled once confirmed.
- Never repeat or rephrase a question already asked. Each question explores a new topic.
- Within a topic realm (hair, clothing, accessories, eyes, powers, weapons, personality) never follow a specific question with a broader one.
- Never ask about backgrounds, experience, history, training, careers, specific job titles, specific places or specific organisations.
- Respect logical constraints: a human has no wings, tail or horns; a character without powers cannot fly or teleport; a real person has no magic.
- For origin medium ask where the character ORIGINATED, for example "Did your character originate in a video game?".

Guessing:
- Include up to 3 top_guesses with confidence = matching traits / confirmed traits.
- Never include a character that contradicts a confirmed trait or appears in "Rejected guesses".

Respond with ONLY a JSON object, no commentary or code fences:
{"question":"Your yes/no question?","top_guesses":[{"name":"Character Name","confidence":0.4}]}
`

// TraitExtractorPrompt instructs the model extracting one trait from an
// answered question.
const TraitExtractorPrompt = `You extract a single character trait from a yes/no question and its answer.

Respond with ONLY a JSON object: {"key":"trait_key","value":"trait_value","confidence":0.95}
If no clear trait can be extracted respond with exactly: {}

Rules:
- "yes" or "probably" means the thing asked is true.
- "no" or "probably_not" to a binary question (male/female, human/non-human, real/fictional) records the opposite value.
- "Is your character real?" answered "no" means fictional=true.
- "no" or "probably_not" to a specific-category question (from anime? blonde hair?) gives {}.
- "dont_know" always gives {}.
- Values are concrete words, never "unknown", "not_X" or "non_X".

Allowed keys: gender, species, hair_color, hair_style, clothing, fictional, origin_medium, has_powers, age_group, body_type, skin_color, accessories, facial_hair, eye_color, alignment, morality, category

Examples:
Q: "Is your character fictional?" A: "yes" -> {"key":"fictional","value":"true","confidence":0.95}
Q: "Is your character real?" A: "no" -> {"key":"fictional","value":"true","confidence":0.95}
Q: "Is your character male?" A: "no" -> {"key":"gender","value":"female","confidence":0.95}
Q: "Is your character human?" A: "yes" -> {"key":"species","value":"human","confidence":0.95}
Q: "Did your character originate in a video game?" A: "yes" -> {"key":"origin_medium","value":"video game","confidence":0.95}
Q: "Does your character have blonde hair?" A: "no" -> {}
`

// QuestionContext is everything the question-proposal call sees.
type QuestionContext struct {
	Traits          []models.Trait
	Turns           []models.Turn
	Learning        models.SessionLearning
	RejectedGuesses []string
}

// Render serialises the context into the user message for the model.
func (c QuestionContext) Render() string {
	var parts []string

	if len(c.Traits) == 0 {
		parts = append(parts, "Confirmed traits: none yet")
	} else {
		parts = append(parts, c.renderTraits())
	}

	if len(c.Turns) > 0 {
		var b strings.Builder
		b.WriteString("Questions already asked with answers (never repeat these topics):")
		for i, t := range c.Turns {
			fmt.Fprintf(&b, "\n  %d. Q: %q A: %s", i+1, t.Question, t.Answer)
		}
		parts = append(parts, b.String())
	}

	if len(c.Learning.RejectedCharacters) > 0 {
		var b strings.Builder
		b.WriteString("Learned from wrong guesses:")
		for _, r := range c.Learning.RejectedCharacters {
			summary := make([]string, len(r.TraitsWhenGuessed))
			for i, t := range r.TraitsWhenGuessed {
				summary[i] = fmt.Sprintf("%s=%s", t.Key, t.Value)
			}
			fmt.Fprintf(&b, "\n  - %s was guessed at turn %d with traits: %s", r.Name, r.TurnRejected, strings.Join(summary, ", "))
			fmt.Fprintf(&b, "\n    %s does NOT match these traits. Avoid similar characters.", r.Name)
		}
		parts = append(parts, b.String())
	}

	if len(c.Learning.AmbiguousQuestions) > 0 {
		var b strings.Builder
		b.WriteString(`Ambiguous questions (answered "dont_know", avoid similar phrasing):`)
		for _, a := range c.Learning.AmbiguousQuestions {
			fmt.Fprintf(&b, "\n  Turn %d: %q", a.Turn, a.Question)
		}
		parts = append(parts, b.String())
	}

	if len(c.RejectedGuesses) > 0 {
		parts = append(parts, "Rejected guesses (never guess these): "+strings.Join(c.RejectedGuesses, ", "))
	}

	parts = append(parts, fmt.Sprintf(
		"Turn: %d. Ask ONE NEW yes/no question exploring a completely different topic. Return JSON only.",
		len(c.Turns)+1,
	))
	return strings.Join(parts, "\n\n")
}

func (c QuestionContext) renderTraits() string {
	seen := make(map[models.TraitKey]bool)
	var keys []string
	for _, t := range c.Traits {
		if !seen[t.Key] {
			seen[t.Key] = true
			keys = append(keys, string(t.Key))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Confirmed traits (never ask about these keys again: %s):", strings.Join(keys, ", "))
	for _, t := range c.Traits {
		fmt.Fprintf(&b, "\n  %s = %s (confidence: %d%%, turn %d)", t.Key, t.Value, int(math.Round(t.Confidence*100)), t.TurnAdded)
	}

	if seen[models.KeyOriginMedium] {
		b.WriteString("\n  WARNING: origin_medium is confirmed. Do not ask about anime, manga, games, movies, TV shows or comics.")
	}
	if seen[models.KeyGender] {
		b.WriteString("\n  WARNING: gender is confirmed. Do not ask about male/female.")
	}
	if seen[models.KeySpecies] {
		b.WriteString("\n  WARNING: species is confirmed. Do not ask about human/non-human.")
	}
	if seen[models.KeyFictional] {
		b.WriteString("\n  WARNING: fictional status is confirmed. Do not ask about real/fictional.")
	}

	switch traitValue(c.Traits, models.KeySpecies) {
	case "human", "person", "mortal":
		b.WriteString("\n  FORBIDDEN: the character is HUMAN. No wings, tail, scales, pointed ears, horns, claws or other non-human features.")
	}
	switch traitValue(c.Traits, models.KeyHasPowers) {
	case "false", "no":
		b.WriteString("\n  FORBIDDEN: the character has NO POWERS. No flight, teleportation, telepathy, super strength or other powers.")
	}
	switch traitValue(c.Traits, models.KeyFictional) {
	case "false", "no", "real":
		b.WriteString("\n  FORBIDDEN: the character is REAL. No magic, supernatural abilities, vampires, dragons or fantasy creatures.")
	}
	return b.String()
}
