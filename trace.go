package xref

import (
	"encoding/json"
	"sync"
)

// Trace captures the provenance of every handle produced during a run.
type Trace struct {
	RunID   string       `json:"run_id,omitempty"`
	Entries []Provenance `json:"entries"`
}

// Provenance records how one name became a handle.
type Provenance struct {
	Op      Op     `json:"op"`
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Index   int    `json:"index"`
	Path    []int  `json:"path,omitempty"`
	Tracked bool   `json:"tracked,omitempty"`
	Depth   int    `json:"depth"`
	Error   string `json:"error,omitempty"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// Filter returns the entries recorded for kind.
func (t Trace) Filter(kind string) []Provenance {
	var out []Provenance
	for _, entry := range t.Entries {
		if entry.Kind == kind {
			out = append(out, entry)
		}
	}
	return out
}

// TraceRecorder is a Logger that accumulates a Trace of declarations,
// resolutions and imports.
type TraceRecorder struct {
	mu    sync.Mutex
	trace Trace
}

// NewTraceRecorder returns an empty recorder.
func NewTraceRecorder() *TraceRecorder {
	return &TraceRecorder{}
}

// LogEvent implements Logger.
func (r *TraceRecorder) LogEvent(event Event) {
	switch event.Op {
	case OpDeclare, OpResolve, OpImport:
	default:
		return
	}
	entry := Provenance{
		Op:      event.Op,
		Kind:    event.KindName(),
		Name:    event.Name,
		Index:   event.Index,
		Path:    append([]int(nil), event.Path...),
		Tracked: event.Tracked,
		Depth:   event.Depth,
	}
	if event.Err != nil {
		entry.Error = event.Err.Error()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trace.RunID == "" {
		r.trace.RunID = event.RunID
	}
	r.trace.Entries = append(r.trace.Entries, entry)
}

// Trace returns a copy of the recorded trace.
func (r *TraceRecorder) Trace() Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Trace{RunID: r.trace.RunID}
	out.Entries = append([]Provenance(nil), r.trace.Entries...)
	return out
}
