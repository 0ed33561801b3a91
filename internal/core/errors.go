package core

import "errors"

var (
	// ErrInvalidTransition is returned when a game action is not allowed in
	// the current phase.
	ErrInvalidTransition = errors.New("invalid game transition")

	// ErrNoActiveGame is returned when a session action needs a started game.
	ErrNoActiveGame = errors.New("no active game")

	// ErrCompletion wraps transport failures of the language model call. It
	// is the only error a turn can fail with.
	ErrCompletion = errors.New("completion failed")
)
