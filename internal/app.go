// Package internal provides the App struct that wires all components of the
// detective together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/valter-silva-au/lemon-detective/internal/cli"
	"github.com/valter-silva-au/lemon-detective/internal/core"
	"github.com/valter-silva-au/lemon-detective/internal/integration"
	"github.com/valter-silva-au/lemon-detective/internal/logging"
	"github.com/valter-silva-au/lemon-detective/internal/observability"
	"github.com/valter-silva-au/lemon-detective/internal/storage"
	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// HomeEnv names the environment variable that overrides base path discovery.
const HomeEnv = "DETECTIVE_HOME"

// TranscriptDirName is the directory under the base path finished games are
// written to.
const TranscriptDirName = "transcripts"

// App holds all service dependencies of the detective.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	Logger   *zap.Logger
	LogLevel zap.AtomicLevel

	// Storage layer
	Characters  *storage.CharacterTable
	Transcripts storage.TranscriptStore

	// Integration services
	Chat   *integration.ChatClient
	Lookup *integration.WebLookup

	// Core services
	Engine    *core.Engine
	Filter    *core.GuessFilter
	Detective *core.Detective
	Session   *core.Session

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components. basePath is where
// .detective.yaml, the event log and transcripts live.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	app.Logger, app.LogLevel, err = logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	logger := app.Logger

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(resolvePath(basePath, cfg.Events.Path))
	if err != nil {
		// Non-fatal: the game runs without stats.
		logger.Warn("event log disabled", zap.Error(err))
		app.EventLog = nil
	}
	var events core.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, cfg.Alerts)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Alerts.WebhookURL != "" {
		app.Notifier = observability.NewWebhookNotifier(cfg.Alerts.WebhookURL)
	}

	// --- Storage layer ---
	charactersFile := cfg.Lookup.CharactersFile
	if charactersFile != "" {
		charactersFile = resolvePath(basePath, charactersFile)
	}
	app.Characters, err = storage.LoadCharacterTable(charactersFile)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("loading character table: %w", err)
	}
	app.Transcripts = storage.NewTranscriptStore(filepath.Join(basePath, TranscriptDirName))

	// --- Integration services ---
	app.Chat = integration.NewChatClient(cfg.LLM, logger.Named("llm"))
	var lookup core.CharacterLookup
	if cfg.Lookup.Enabled {
		app.Lookup = integration.NewWebLookup(cfg.Lookup, logger.Named("lookup"))
		lookup = app.Lookup
	}

	// --- Core services ---
	app.Engine = core.NewEngine(cfg.Engine, logger.Named("engine"))
	app.Filter = core.NewGuessFilter(app.Characters, lookup, events, logger.Named("filter"))
	app.Detective = core.NewDetective(app.Engine, app.Chat, app.Filter, cfg.LLM, events, logger.Named("detective"))
	app.Session = core.NewSession(app.Detective, app.Filter, cfg.Game, events, logger.Named("session"))

	logger.Debug("app wired",
		zap.String("base_path", basePath),
		zap.Int("known_characters", app.Characters.Len()),
		zap.Bool("lookup", cfg.Lookup.Enabled),
		zap.Bool("event_log", app.EventLog != nil),
	)

	// --- Wire CLI package-level variables ---
	cli.Config = cfg
	cli.Logger = logger
	cli.LogLevel = app.LogLevel
	cli.Engine = app.Engine
	cli.Filter = app.Filter
	cli.Session = app.Session
	cli.Transcripts = app.Transcripts

	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.Logger != nil {
		_ = a.Logger.Sync() // stderr cannot always be synced
	}
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the detective's data directory: DETECTIVE_HOME
// when set, else the nearest directory upward holding .detective.yaml, else
// the current directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   eventLevel(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

func eventLevel(eventType string) string {
	switch eventType {
	case "llm.failed":
		return observability.LevelError
	case "question.replaced", "guess.filtered":
		return observability.LevelWarn
	default:
		return observability.LevelInfo
	}
}
