package xref

import (
	"github.com/goliatone/go-xref/pkg/activity"
)

// ActivityHooks returns a copy of the non-nil activity hooks configured on
// the Context.
func (c *Context) ActivityHooks() activity.Hooks {
	if c == nil {
		return nil
	}
	return c.cfg.activityHooks.Compact()
}

// emitActivity forwards a successful declaration or resolution to the
// configured hooks. Hook failures are logged and never abort the run.
func (c *Context) emitActivity(event Event) {
	verb := activity.VerbIdentifierResolved
	if event.Op == OpDeclare {
		verb = activity.VerbIdentifierDeclared
	}
	emitter := c.cfg.emitter
	if !emitter.Enabled() || !emitter.Accepts(verb) {
		return
	}
	input := activity.IdentifierEventInput{
		ActorID: c.cfg.actorID,
		RunID:   event.RunID,
		Kind:    event.KindName(),
		Name:    event.Name,
		Index:   event.Index,
		Path:    event.Path,
		Tracked: event.Tracked,
	}
	built := activity.BuildIdentifierResolvedEvent(input)
	if event.Op == OpDeclare {
		built = activity.BuildIdentifierDeclaredEvent(input)
	}
	if err := emitter.Emit(c.cfg.baseContext, built); err != nil {
		c.logger().LogEvent(Event{
			Op:    OpActivity,
			RunID: event.RunID,
			Kind:  event.Kind,
			Name:  event.Name,
			Depth: event.Depth,
			Err:   err,
		})
	}
}
