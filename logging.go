package xref

import "time"

// Op names the registry operation an Event describes.
type Op string

const (
	OpDeclare  Op = "declare"
	OpResolve  Op = "resolve"
	OpImport   Op = "import"
	OpEvaluate Op = "evaluate"
	OpActivity Op = "activity"
)

// Event describes one registry operation for logging.
type Event struct {
	Op       Op
	RunID    string
	Kind     Key
	Name     string
	Index    int
	Path     []int
	Tracked  bool
	Depth    int
	Engine   string
	Expr     string
	Duration time.Duration
	Err      error
}

// KindName returns the printable kind of the event.
func (e Event) KindName() string {
	if e.Kind == nil {
		return ""
	}
	return KindName(e.Kind)
}

// Logger records registry events.
type Logger interface {
	LogEvent(Event)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(Event)

// LogEvent implements Logger.
func (f LoggerFunc) LogEvent(event Event) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvent(Event) {}

// MultiLogger fans events out to every non-nil logger.
func MultiLogger(loggers ...Logger) Logger {
	filtered := make([]Logger, 0, len(loggers))
	for _, logger := range loggers {
		if logger != nil {
			filtered = append(filtered, logger)
		}
	}
	return LoggerFunc(func(event Event) {
		for _, logger := range filtered {
			logger.LogEvent(event)
		}
	})
}

// WithLogger attaches a logger to the Context.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

func (c *Context) logger() Logger {
	if c.cfg.logger != nil {
		return c.cfg.logger
	}
	return noopLogger{}
}

// observe logs event and forwards declarations and resolutions to the
// activity emitter.
func (c *Context) observe(event Event) {
	event.RunID = c.cfg.runID
	c.logger().LogEvent(event)
	if event.Err != nil {
		return
	}
	switch event.Op {
	case OpDeclare, OpResolve:
		c.emitActivity(event)
	}
}
