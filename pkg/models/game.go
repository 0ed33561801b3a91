package models

// Phase is a state of the game state machine.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseProcessing       Phase = "processing"
	PhaseWaitingForAnswer Phase = "waiting_for_answer"
	PhaseGuessing         Phase = "guessing"
	PhaseRevealed         Phase = "revealed"
	PhaseHeroRender       Phase = "hero_render"
)

// Guess is a candidate character with the model's confidence. Guesses are
// recomputed every turn.
type Guess struct {
	Name       string  `json:"name" yaml:"name"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Turn records one answered question. TurnNumber is the turn at which the
// question was shown, not the turn at which it was answered.
type Turn struct {
	TurnNumber int         `json:"turn_number" yaml:"turn_number"`
	Question   string      `json:"question" yaml:"question"`
	Answer     AnswerValue `json:"answer" yaml:"answer"`
	TopGuesses []Guess     `json:"top_guesses,omitempty" yaml:"top_guesses,omitempty"`
}

// GuessAttempt records a final guess the player confirmed or rejected.
type GuessAttempt struct {
	Guess      string `json:"guess" yaml:"guess"`
	Correct    bool   `json:"correct" yaml:"correct"`
	TurnNumber int    `json:"turn_number" yaml:"turn_number"`
}

// RejectedCharacter is a wrong final guess together with the traits that
// were confirmed when it was made.
type RejectedCharacter struct {
	Name              string  `json:"name" yaml:"name"`
	TraitsWhenGuessed []Trait `json:"traits_when_guessed" yaml:"traits_when_guessed"`
	TurnRejected      int     `json:"turn_rejected" yaml:"turn_rejected"`
}

// AmbiguousQuestion is a question the player answered with dont_know.
type AmbiguousQuestion struct {
	Question string `json:"question" yaml:"question"`
	Turn     int    `json:"turn" yaml:"turn"`
}

// SessionLearning is per-game feedback handed to the question-proposal call.
// It never feeds the deterministic detectors.
type SessionLearning struct {
	RejectedCharacters []RejectedCharacter `json:"rejected_characters,omitempty" yaml:"rejected_characters,omitempty"`
	AmbiguousQuestions []AmbiguousQuestion `json:"ambiguous_questions,omitempty" yaml:"ambiguous_questions,omitempty"`
}

// RecordRejected appends a rejected character with a copy of traits.
func (l *SessionLearning) RecordRejected(name string, traits []Trait, turn int) {
	snapshot := make([]Trait, len(traits))
	copy(snapshot, traits)
	l.RejectedCharacters = append(l.RejectedCharacters, RejectedCharacter{
		Name:              name,
		TraitsWhenGuessed: snapshot,
		TurnRejected:      turn,
	})
}

// RecordAmbiguous appends a dont_know question.
func (l *SessionLearning) RecordAmbiguous(question string, turn int) {
	l.AmbiguousQuestions = append(l.AmbiguousQuestions, AmbiguousQuestion{Question: question, Turn: turn})
}

// Reset clears everything learned.
func (l *SessionLearning) Reset() {
	l.RejectedCharacters = nil
	l.AmbiguousQuestions = nil
}
