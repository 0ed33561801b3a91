package observability

import (
	"fmt"
	"time"
)

// Metrics are gameplay counters derived from the event log.
type Metrics struct {
	GamesStarted         int            `json:"games_started"`
	GamesWon             int            `json:"games_won"`
	GamesReset           int            `json:"games_reset"`
	TurnsAnswered        int            `json:"turns_answered"`
	AnswersByValue       map[string]int `json:"answers_by_value"`
	QuestionsAsked       int            `json:"questions_asked"`
	QuestionsReplaced    int            `json:"questions_replaced"`
	ReplacementsByReason map[string]int `json:"replacements_by_reason"`
	ReplacementRate      float64        `json:"replacement_rate"`
	TraitsAdded          int            `json:"traits_added"`
	GuessesPresented     int            `json:"guesses_presented"`
	GuessesRejected      int            `json:"guesses_rejected"`
	GuessesFiltered      int            `json:"guesses_filtered"`
	LLMFailures          int            `json:"llm_failures"`
	AvgTurnsToWin        float64        `json:"avg_turns_to_win"`
	EventCount           int            `json:"event_count"`
	OldestEvent          *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent          *time.Time     `json:"newest_event,omitempty"`
}

// WinRate is the share of started games that ended with a correct guess.
func (m *Metrics) WinRate() float64 {
	if m.GamesStarted == 0 {
		return 0
	}
	return float64(m.GamesWon) / float64(m.GamesStarted)
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates all events at or after since.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		AnswersByValue:       make(map[string]int),
		ReplacementsByReason: make(map[string]int),
		EventCount:           len(events),
	}

	winTurns := 0
	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case "game.started":
			m.GamesStarted++
		case "game.reset":
			m.GamesReset++
		case "game.won":
			m.GamesWon++
			winTurns += intField(event.Data, "turn")
		case "turn.answered":
			m.TurnsAnswered++
			if a, ok := event.Data["answer"].(string); ok {
				m.AnswersByValue[a]++
			}
		case "question.asked":
			m.QuestionsAsked++
		case "question.replaced":
			m.QuestionsReplaced++
			if r, ok := event.Data["reason"].(string); ok {
				m.ReplacementsByReason[r]++
			}
		case "trait.added":
			m.TraitsAdded++
		case "guess.presented":
			m.GuessesPresented++
		case "guess.rejected":
			m.GuessesRejected++
		case "guess.filtered":
			m.GuessesFiltered++
		case "llm.failed":
			m.LLMFailures++
		}
	}

	if m.QuestionsAsked > 0 {
		m.ReplacementRate = float64(m.QuestionsReplaced) / float64(m.QuestionsAsked)
	}
	if m.GamesWon > 0 {
		m.AvgTurnsToWin = float64(winTurns) / float64(m.GamesWon)
	}
	return m, nil
}

// intField reads a JSON number field, which decodes as float64.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
