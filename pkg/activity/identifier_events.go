package activity

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// VerbIdentifierDeclared is emitted when a name is declared in its scope.
	VerbIdentifierDeclared = "identifier.declared"
	// VerbIdentifierResolved is emitted when a name reference resolves.
	VerbIdentifierResolved = "identifier.resolved"
)

// IdentifierEventInput describes a single declaration or resolution.
type IdentifierEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	RunID      string
	Kind       string
	Name       string
	Index      int
	Path       []int
	Tracked    bool
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// objectType is "identifier" qualified by the kind when one is known.
func (in IdentifierEventInput) objectType() string {
	if kind := strings.TrimSpace(in.Kind); kind != "" {
		return "identifier." + kind
	}
	return "identifier"
}

// objectID is the identifier name, or the handle index for anonymous
// declarations.
func (in IdentifierEventInput) objectID() string {
	if name := strings.TrimSpace(in.Name); name != "" {
		return name
	}
	return strconv.Itoa(in.Index)
}

func (in IdentifierEventInput) metadata() map[string]any {
	meta := make(map[string]any, len(in.Metadata)+4)
	for key, value := range in.Metadata {
		meta[key] = value
	}
	meta["index"] = in.Index
	if kind := strings.TrimSpace(in.Kind); kind != "" {
		meta["kind"] = kind
	}
	if in.Path != nil {
		meta["path"] = slices.Clone(in.Path)
	}
	if in.Tracked {
		meta["tracked"] = true
	}
	return meta
}

// BuildIdentifierDeclaredEvent returns the event for a declaration.
func BuildIdentifierDeclaredEvent(in IdentifierEventInput) Event {
	return in.event(VerbIdentifierDeclared)
}

// BuildIdentifierResolvedEvent returns the event for a resolution.
func BuildIdentifierResolvedEvent(in IdentifierEventInput) Event {
	return in.event(VerbIdentifierResolved)
}

func (in IdentifierEventInput) event(verb string) Event {
	return NormalizeEvent(Event{
		Verb:       verb,
		RunID:      in.RunID,
		ActorID:    in.ActorID,
		UserID:     in.UserID,
		TenantID:   in.TenantID,
		ObjectType: in.objectType(),
		ObjectID:   in.objectID(),
		Channel:    in.Channel,
		Metadata:   in.metadata(),
		OccurredAt: in.OccurredAt,
	})
}
