package models

import "time"

// LLMConfig configures the OpenAI-compatible chat-completions endpoint.
type LLMConfig struct {
	BaseURL             string        `yaml:"base_url" mapstructure:"base_url"`
	Model               string        `yaml:"model" mapstructure:"model"`
	APIKey              string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Timeout             time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond   float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	QuestionTemperature float64       `yaml:"question_temperature" mapstructure:"question_temperature"`
	QuestionMaxTokens   int           `yaml:"question_max_tokens" mapstructure:"question_max_tokens"`
	TraitTemperature    float64       `yaml:"trait_temperature" mapstructure:"trait_temperature"`
	TraitMaxTokens      int           `yaml:"trait_max_tokens" mapstructure:"trait_max_tokens"`
}

// LookupConfig configures the web character lookup and the optional
// user-supplied character table.
type LookupConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CharactersFile string        `yaml:"characters_file,omitempty" mapstructure:"characters_file"`
}

// EngineConfig tunes the deterministic question checks.
type EngineConfig struct {
	LooseSubstringMatch bool `yaml:"loose_substring_match" mapstructure:"loose_substring_match"`
}

// GameConfig controls when the detective commits to a final guess.
type GameConfig struct {
	GuessThreshold    float64 `yaml:"guess_threshold" mapstructure:"guess_threshold"`
	MinTraitsForGuess int     `yaml:"min_traits_for_guess" mapstructure:"min_traits_for_guess"`
	MaxTurns          int     `yaml:"max_turns" mapstructure:"max_turns"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
	File        string `yaml:"file,omitempty" mapstructure:"file"`
}

// EventsConfig locates the JSONL game event log.
type EventsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AlertsConfig holds thresholds for gameplay health alerts and the webhook
// they are posted to.
type AlertsConfig struct {
	MaxReplacementRate float64 `yaml:"max_replacement_rate" mapstructure:"max_replacement_rate"`
	MaxLLMFailures     int     `yaml:"max_llm_failures" mapstructure:"max_llm_failures"`
	LongGameTurns      int     `yaml:"long_game_turns" mapstructure:"long_game_turns"`
	WebhookURL         string  `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// Config is the full application configuration read from .detective.yaml.
type Config struct {
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Lookup  LookupConfig  `yaml:"lookup" mapstructure:"lookup"`
	Engine  EngineConfig  `yaml:"engine" mapstructure:"engine"`
	Game    GameConfig    `yaml:"game" mapstructure:"game"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Events  EventsConfig  `yaml:"events" mapstructure:"events"`
	Alerts  AlertsConfig  `yaml:"alerts" mapstructure:"alerts"`
}
