package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// minQuestionsForRate is the sample size below which the replacement rate
// is too noisy to alert on.
const minQuestionsForRate = 10

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds models.AlertsConfig
}

// NewAlertEngine creates an AlertEngine using the thresholds in cfg.
func NewAlertEngine(eventLog EventLog, cfg models.AlertsConfig) AlertEngine {
	return &alertEngine{eventLog: eventLog, thresholds: cfg}
}

// gameState is what the alert rules need to know about one game.
type gameState struct {
	lastTurn    int
	llmFailures int
	won         bool
}

// Evaluate reads the whole log and returns triggered alerts sorted by ID.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}

	now := time.Now().UTC()
	games := make(map[string]*gameState)
	state := func(id string) *gameState {
		g, ok := games[id]
		if !ok {
			g = &gameState{}
			games[id] = g
		}
		return g
	}

	asked, replaced := 0, 0
	for _, event := range events {
		id := event.GameID()
		switch event.Type {
		case "question.asked":
			asked++
		case "question.replaced":
			replaced++
		case "turn.answered":
			if id != "" {
				state(id).lastTurn = max(state(id).lastTurn, intField(event.Data, "turn"))
			}
		case "llm.failed":
			if id != "" {
				state(id).llmFailures++
			}
		case "game.won":
			if id != "" {
				state(id).won = true
			}
		}
	}

	var alerts []Alert
	if asked >= minQuestionsForRate {
		rate := float64(replaced) / float64(asked)
		if rate > ae.thresholds.MaxReplacementRate {
			alerts = append(alerts, Alert{
				ID:          "replacement-rate",
				Condition:   "high_replacement_rate",
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("%.0f%% of proposed questions were replaced by fallbacks (limit %.0f%%)", rate*100, ae.thresholds.MaxReplacementRate*100),
				TriggeredAt: now,
			})
		}
	}

	for id, g := range games {
		if ae.thresholds.MaxLLMFailures > 0 && g.llmFailures >= ae.thresholds.MaxLLMFailures {
			alerts = append(alerts, Alert{
				ID:          "llm-failures-" + id,
				Condition:   "repeated_llm_failures",
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("game %s had %d completion failures", id, g.llmFailures),
				TriggeredAt: now,
			})
		}
		if ae.thresholds.LongGameTurns > 0 && !g.won && g.lastTurn >= ae.thresholds.LongGameTurns {
			alerts = append(alerts, Alert{
				ID:          "long-game-" + id,
				Condition:   "long_game_without_win",
				Severity:    SeverityLow,
				Message:     fmt.Sprintf("game %s reached turn %d without a correct guess", id, g.lastTurn),
				TriggeredAt: now,
			})
		}
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID < alerts[j].ID })
	return alerts, nil
}
