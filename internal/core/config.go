package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// ConfigFileName is the configuration file looked up in the base path.
const ConfigFileName = ".detective"

// EnvPrefix prefixes environment overrides, e.g. DETECTIVE_LLM_BASE_URL.
const EnvPrefix = "DETECTIVE"

// ConfigurationManager loads and validates the application configuration.
type ConfigurationManager interface {
	Load() (*models.Config, error)
	Validate(cfg *models.Config) error
}

type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .detective.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *models.Config {
	return &models.Config{
		LLM: models.LLMConfig{
			BaseURL:             "http://localhost:8000/api/v1",
			Model:               "Qwen3-4B-Instruct-2507-GGUF",
			Timeout:             60 * time.Second,
			RequestsPerSecond:   2,
			QuestionTemperature: 0.2,
			QuestionMaxTokens:   150,
			TraitTemperature:    0.1,
			TraitMaxTokens:      100,
		},
		Lookup: models.LookupConfig{
			Enabled:  true,
			Endpoint: "https://api.duckduckgo.com/",
			Timeout:  8 * time.Second,
		},
		Game: models.GameConfig{
			GuessThreshold:    0.85,
			MinTraitsForGuess: 5,
			MaxTurns:          60,
		},
		Logging: models.LoggingConfig{Level: "info"},
		Events:  models.EventsConfig{Path: ".detective_events.jsonl"},
		Alerts: models.AlertsConfig{
			MaxReplacementRate: 0.6,
			MaxLLMFailures:     3,
			LongGameTurns:      40,
		},
	}
}

func setDefaults(v *viper.Viper, cfg *models.Config) {
	v.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)
	v.SetDefault("llm.requests_per_second", cfg.LLM.RequestsPerSecond)
	v.SetDefault("llm.question_temperature", cfg.LLM.QuestionTemperature)
	v.SetDefault("llm.question_max_tokens", cfg.LLM.QuestionMaxTokens)
	v.SetDefault("llm.trait_temperature", cfg.LLM.TraitTemperature)
	v.SetDefault("llm.trait_max_tokens", cfg.LLM.TraitMaxTokens)
	v.SetDefault("lookup.enabled", cfg.Lookup.Enabled)
	v.SetDefault("lookup.endpoint", cfg.Lookup.Endpoint)
	v.SetDefault("lookup.timeout", cfg.Lookup.Timeout)
	v.SetDefault("lookup.characters_file", cfg.Lookup.CharactersFile)
	v.SetDefault("engine.loose_substring_match", cfg.Engine.LooseSubstringMatch)
	v.SetDefault("game.guess_threshold", cfg.Game.GuessThreshold)
	v.SetDefault("game.min_traits_for_guess", cfg.Game.MinTraitsForGuess)
	v.SetDefault("game.max_turns", cfg.Game.MaxTurns)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.development", cfg.Logging.Development)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("events.path", cfg.Events.Path)
	v.SetDefault("alerts.max_replacement_rate", cfg.Alerts.MaxReplacementRate)
	v.SetDefault("alerts.max_llm_failures", cfg.Alerts.MaxLLMFailures)
	v.SetDefault("alerts.long_game_turns", cfg.Alerts.LongGameTurns)
	v.SetDefault("alerts.webhook_url", cfg.Alerts.WebhookURL)
}

// Load reads .detective.yaml from the base path, applies DETECTIVE_*
// environment overrides, and validates the result. A missing file yields the
// defaults plus any overrides.
func (cm *viperConfigManager) Load() (*models.Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	cfg := &models.Config{
		LLM: models.LLMConfig{
			BaseURL:             v.GetString("llm.base_url"),
			Model:               v.GetString("llm.model"),
			APIKey:              v.GetString("llm.api_key"),
			Timeout:             v.GetDuration("llm.timeout"),
			RequestsPerSecond:   v.GetFloat64("llm.requests_per_second"),
			QuestionTemperature: v.GetFloat64("llm.question_temperature"),
			QuestionMaxTokens:   v.GetInt("llm.question_max_tokens"),
			TraitTemperature:    v.GetFloat64("llm.trait_temperature"),
			TraitMaxTokens:      v.GetInt("llm.trait_max_tokens"),
		},
		Lookup: models.LookupConfig{
			Enabled:        v.GetBool("lookup.enabled"),
			Endpoint:       v.GetString("lookup.endpoint"),
			Timeout:        v.GetDuration("lookup.timeout"),
			CharactersFile: v.GetString("lookup.characters_file"),
		},
		Engine: models.EngineConfig{
			LooseSubstringMatch: v.GetBool("engine.loose_substring_match"),
		},
		Game: models.GameConfig{
			GuessThreshold:    v.GetFloat64("game.guess_threshold"),
			MinTraitsForGuess: v.GetInt("game.min_traits_for_guess"),
			MaxTurns:          v.GetInt("game.max_turns"),
		},
		Logging: models.LoggingConfig{
			Level:       v.GetString("logging.level"),
			Development: v.GetBool("logging.development"),
			File:        v.GetString("logging.file"),
		},
		Events: models.EventsConfig{Path: v.GetString("events.path")},
		Alerts: models.AlertsConfig{
			MaxReplacementRate: v.GetFloat64("alerts.max_replacement_rate"),
			MaxLLMFailures:     v.GetInt("alerts.max_llm_failures"),
			LongGameTurns:      v.GetInt("alerts.long_game_turns"),
			WebhookURL:         v.GetString("alerts.webhook_url"),
		},
	}

	if err := cm.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg for out-of-range values and names the offending key.
func (cm *viperConfigManager) Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	if cfg.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url must not be empty")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if cfg.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %s", cfg.LLM.Timeout)
	}
	if cfg.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requests_per_second must not be negative, got %g", cfg.LLM.RequestsPerSecond)
	}
	if t := cfg.LLM.QuestionTemperature; t < 0 || t > 2 {
		return fmt.Errorf("llm.question_temperature must be within [0, 2], got %g", t)
	}
	if t := cfg.LLM.TraitTemperature; t < 0 || t > 2 {
		return fmt.Errorf("llm.trait_temperature must be within [0, 2], got %g", t)
	}
	if cfg.LLM.QuestionMaxTokens <= 0 {
		return fmt.Errorf("llm.question_max_tokens must be positive, got %d", cfg.LLM.QuestionMaxTokens)
	}
	if cfg.LLM.TraitMaxTokens <= 0 {
		return fmt.Errorf("llm.trait_max_tokens must be positive, got %d", cfg.LLM.TraitMaxTokens)
	}
	if cfg.Lookup.Enabled && cfg.Lookup.Timeout <= 0 {
		return fmt.Errorf("lookup.timeout must be positive, got %s", cfg.Lookup.Timeout)
	}
	if t := cfg.Game.GuessThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("game.guess_threshold must be within (0, 1], got %g", t)
	}
	if cfg.Game.MinTraitsForGuess < 0 {
		return fmt.Errorf("game.min_traits_for_guess must not be negative, got %d", cfg.Game.MinTraitsForGuess)
	}
	if cfg.Game.MaxTurns < 1 {
		return fmt.Errorf("game.max_turns must be at least 1, got %d", cfg.Game.MaxTurns)
	}
	if r := cfg.Alerts.MaxReplacementRate; r <= 0 || r > 1 {
		return fmt.Errorf("alerts.max_replacement_rate must be within (0, 1], got %g", r)
	}
	return nil
}
