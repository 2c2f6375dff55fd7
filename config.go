package xref

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-xref/internal/hydrate"
	"github.com/goliatone/go-xref/pkg/activity"
	"github.com/rs/zerolog"
)

// Config is the file form of the Context options.
type Config struct {
	Engine                string         `json:"engine,omitempty" yaml:"engine,omitempty" toml:"engine,omitempty"`
	TagName               string         `json:"tag_name,omitempty" yaml:"tag_name,omitempty" toml:"tag_name,omitempty"`
	DisallowUnknownFields bool           `json:"disallow_unknown_fields,omitempty" yaml:"disallow_unknown_fields,omitempty" toml:"disallow_unknown_fields,omitempty"`
	RunID                 string         `json:"run_id,omitempty" yaml:"run_id,omitempty" toml:"run_id,omitempty"`
	Actor                 string         `json:"actor,omitempty" yaml:"actor,omitempty" toml:"actor,omitempty"`
	LogLevel              string         `json:"log_level,omitempty" yaml:"log_level,omitempty" toml:"log_level,omitempty"`
	Activity              ActivityConfig `json:"activity" yaml:"activity" toml:"activity"`
}

// ActivityConfig controls activity emission. Enabled defaults to true.
type ActivityConfig struct {
	Enabled *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Channel string   `json:"channel,omitempty" yaml:"channel,omitempty" toml:"channel,omitempty"`
	Verbs   []string `json:"verbs,omitempty" yaml:"verbs,omitempty" toml:"verbs,omitempty"`
}

// Validate checks the engine name and log level.
func (c Config) Validate() error {
	switch strings.ToLower(c.Engine) {
	case "", EngineExpr, EngineCEL, EngineJS:
	default:
		return fmt.Errorf("%w %q", ErrUnknownEngine, c.Engine)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() (zerolog.Level, error) {
	if strings.TrimSpace(c.LogLevel) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("xref: log level: %w", err)
	}
	return level, nil
}

// LoadConfig reads a JSON, YAML or TOML config file. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	raw, err := hydrate.NewDecoder().DecodeFile(path)
	if err != nil {
		return Config{}, err
	}
	return Convert[Config](NewContext(WithDisallowUnknownFields(true)), raw)
}

// WithConfig applies a Config. Options passed after it override its values.
// LogLevel filters the zerolog logger of the Context, or starts one on
// stderr when no logger is configured.
func WithConfig(cfg Config) Option {
	return func(c *config) {
		if cfg.Engine != "" {
			c.engine = cfg.Engine
		}
		if cfg.TagName != "" {
			c.tagName = cfg.TagName
		}
		if cfg.DisallowUnknownFields {
			c.disallowUnknown = true
		}
		if cfg.RunID != "" {
			c.runID = cfg.RunID
		}
		if cfg.Actor != "" {
			c.actorID = cfg.Actor
		}
		if strings.TrimSpace(cfg.LogLevel) != "" {
			level, err := cfg.Level()
			if err != nil {
				c.optionErrs = append(c.optionErrs, err)
			} else {
				c.logLevel = &level
			}
		}
		enabled := true
		if cfg.Activity.Enabled != nil {
			enabled = *cfg.Activity.Enabled
		}
		c.activityConfig = activity.Config{Enabled: enabled, Channel: cfg.Activity.Channel, Verbs: cfg.Activity.Verbs}
	}
}
