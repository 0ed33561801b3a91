package models

import "fmt"

// AnswerValue is the player's reply to a yes/no question.
type AnswerValue string

const (
	AnswerYes         AnswerValue = "yes"
	AnswerNo          AnswerValue = "no"
	AnswerProbably    AnswerValue = "probably"
	AnswerProbablyNot AnswerValue = "probably_not"
	AnswerDontKnow    AnswerValue = "dont_know"
)

// AllAnswers lists the answers in the order the play UI offers them.
var AllAnswers = []AnswerValue{AnswerYes, AnswerNo, AnswerProbably, AnswerProbablyNot, AnswerDontKnow}

// IsPositive reports yes or probably.
func (a AnswerValue) IsPositive() bool {
	return a == AnswerYes || a == AnswerProbably
}

// IsNegative reports no or probably_not.
func (a AnswerValue) IsNegative() bool {
	return a == AnswerNo || a == AnswerProbablyNot
}

// ParseAnswer converts user input into an AnswerValue. It accepts the
// canonical values plus a few short aliases used by the CLI.
func ParseAnswer(s string) (AnswerValue, error) {
	switch s {
	case "yes", "y":
		return AnswerYes, nil
	case "no", "n":
		return AnswerNo, nil
	case "probably", "p":
		return AnswerProbably, nil
	case "probably_not", "probably-not", "pn":
		return AnswerProbablyNot, nil
	case "dont_know", "dont-know", "idk", "?":
		return AnswerDontKnow, nil
	}
	return "", fmt.Errorf("invalid answer %q: must be one of yes, no, probably, probably_not, dont_know", s)
}
