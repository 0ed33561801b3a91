package cli

import (
	"go.uber.org/zap"

	"github.com/valter-silva-au/lemon-detective/internal/core"
	"github.com/valter-silva-au/lemon-detective/internal/observability"
	"github.com/valter-silva-au/lemon-detective/internal/storage"
	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// Engine services, set during app initialization in app.go.
var (
	Config      *models.Config
	Engine      *core.Engine
	Filter      *core.GuessFilter
	Session     *core.Session
	Transcripts storage.TranscriptStore
	Logger      *zap.Logger
	LogLevel    zap.AtomicLevel
)

// Observability service instances, set during app initialization in app.go.
var (
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
