package activity

import (
	"context"
	"slices"
	"strings"
)

// DefaultChannel is stamped on events emitted without a channel.
const DefaultChannel = "xref"

// Config controls emission. An empty Verbs list lets every verb through.
type Config struct {
	Enabled bool
	Channel string
	Verbs   []string
}

// Emitter applies Config to events before handing them to hooks.
type Emitter struct {
	hooks   Hooks
	channel string
	verbs   []string
}

// NewEmitter returns an emitter over the non-nil hooks. A disabled config
// or an empty hook set yields an emitter that drops everything.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	e := &Emitter{channel: strings.TrimSpace(cfg.Channel)}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	if cfg.Enabled {
		e.hooks = hooks.Compact()
	}
	for _, verb := range cfg.Verbs {
		if verb = strings.TrimSpace(verb); verb != "" {
			e.verbs = append(e.verbs, verb)
		}
	}
	return e
}

// Enabled reports whether Emit can reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Accepts reports whether events with verb pass the verb filter.
func (e *Emitter) Accepts(verb string) bool {
	if e == nil {
		return false
	}
	return len(e.verbs) == 0 || slices.Contains(e.verbs, strings.TrimSpace(verb))
}

// Emit stamps the default channel when event has none and notifies hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() || !e.Accepts(event.Verb) {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
