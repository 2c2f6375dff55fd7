package xref

import (
	"os"

	"github.com/rs/zerolog"
)

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a Logger writing one structured entry per event.
// Successful operations log at debug level, failures at warn.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return zerologLogger{logger: logger}
}

func (l zerologLogger) LogEvent(event Event) {
	entry := l.logger.Debug()
	if event.Err != nil {
		entry = l.logger.Warn().Err(event.Err)
	}
	entry = entry.
		Str("op", string(event.Op)).
		Str("kind", event.KindName()).
		Int("depth", event.Depth).
		Dur("duration", event.Duration)
	if event.RunID != "" {
		entry = entry.Str("run_id", event.RunID)
	}
	if event.Name != "" {
		entry = entry.Str("name", event.Name)
	}
	if event.Err == nil && event.Op != OpEvaluate {
		entry = entry.Int("index", event.Index)
	}
	if event.Path != nil {
		entry = entry.Ints("path", event.Path)
	}
	if event.Tracked {
		entry = entry.Bool("tracked", true)
	}
	if event.Expr != "" {
		entry = entry.Str("engine", event.Engine).Str("expr", event.Expr)
	}
	entry.Msg("xref " + string(event.Op))
}

// applyLogLevel sets the level requested by WithConfig on the zerolog logger
// of the Context. Without a logger it starts one writing to stderr.
func applyLogLevel(cfg *config) {
	if cfg.logLevel == nil {
		return
	}
	level := *cfg.logLevel
	switch logger := cfg.logger.(type) {
	case nil:
		cfg.logger = zerologLogger{logger: zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)}
	case zerologLogger:
		logger.logger = logger.logger.Level(level)
		cfg.logger = logger
	}
}
