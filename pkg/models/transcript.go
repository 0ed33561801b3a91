package models

import "time"

// Transcript is a finished game as written to disk.
type Transcript struct {
	ID              string         `json:"id" yaml:"id"`
	GameID          string         `json:"game_id" yaml:"game_id"`
	StartedAt       time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time      `json:"finished_at" yaml:"finished_at"`
	Won             bool           `json:"won" yaml:"won"`
	FinalGuess      string         `json:"final_guess,omitempty" yaml:"final_guess,omitempty"`
	Turns           []Turn         `json:"turns" yaml:"turns"`
	Traits          []Trait        `json:"traits" yaml:"traits"`
	GuessAttempts   []GuessAttempt `json:"guess_attempts,omitempty" yaml:"guess_attempts,omitempty"`
	RejectedGuesses []string       `json:"rejected_guesses,omitempty" yaml:"rejected_guesses,omitempty"`
}
