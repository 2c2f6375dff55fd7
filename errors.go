package xref

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateIdentifier reports a declaration whose name already exists
	// in its scope.
	ErrDuplicateIdentifier = errors.New("xref: duplicate identifier")
	// ErrMultipleDeclarations reports a second declaration for the same
	// object instance.
	ErrMultipleDeclarations = errors.New("xref: multiple declarations")
	// ErrUnknownIdentifier reports a reference to a name that was never
	// declared in the reachable scope.
	ErrUnknownIdentifier = errors.New("xref: unknown identifier")
	// ErrUntrackedScope reports a cross-scope reference whose target
	// declarations were not persisted.
	ErrUntrackedScope = errors.New("xref: untracked scope")
	// ErrNoActiveOrImportedScope reports a reference made while the declaring
	// scope is neither active nor imported.
	ErrNoActiveOrImportedScope = errors.New("xref: no active or imported scope")
	// ErrNoCurrentDeclaration reports a Name lookup outside a declaring object.
	ErrNoCurrentDeclaration = errors.New("xref: no current declaration")

	// ErrMissingField reports an identifier field absent from the raw input.
	ErrMissingField = errors.New("xref: missing field")
	// ErrUnknownField reports a raw key with no matching field.
	ErrUnknownField = errors.New("xref: unknown field")
	// ErrInvalidRaw reports a raw value whose shape does not fit the target.
	ErrInvalidRaw = errors.New("xref: invalid raw value")
	// ErrUnknownKind reports an import tag naming a kind that is not reachable.
	ErrUnknownKind = errors.New("xref: unknown kind")
	// ErrInvalidTag reports a malformed conversion tag.
	ErrInvalidTag = errors.New("xref: invalid tag")
)

// IdentifierError describes a registry failure for one name of one kind.
type IdentifierError struct {
	Kind     Key
	Name     string
	Index    int
	Existing int
	Err      error
}

func (e *IdentifierError) Error() string {
	if e == nil {
		return "<nil>"
	}
	kind := KindName(e.Kind)
	switch {
	case errors.Is(e.Err, ErrDuplicateIdentifier):
		return fmt.Sprintf("xref: duplicate identifier %q for %s", e.Name, kind)
	case errors.Is(e.Err, ErrMultipleDeclarations):
		return fmt.Sprintf("xref: multiple new identifiers defined for %s (%d, %d)", kind, e.Index, e.Existing)
	case errors.Is(e.Err, ErrUnknownIdentifier):
		return fmt.Sprintf("xref: unknown identifier %q for %s", e.Name, kind)
	case errors.Is(e.Err, ErrUntrackedScope):
		return fmt.Sprintf("xref: identifiers of %s referenced as %q were not tracked", kind, e.Name)
	case errors.Is(e.Err, ErrNoActiveOrImportedScope):
		return fmt.Sprintf("xref: no active or imported scope for %s referenced as %q", kind, e.Name)
	case errors.Is(e.Err, ErrNoCurrentDeclaration):
		return fmt.Sprintf("xref: no current identifier for %s", kind)
	default:
		return fmt.Sprintf("xref: %s %q: %v", kind, e.Name, e.Err)
	}
}

func (e *IdentifierError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConversionError locates a failure inside the raw tree.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("xref: convert %s: %s", path, strings.TrimPrefix(e.Err.Error(), "xref: "))
}

func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapConversionError(path string, err error) error {
	if err == nil {
		return nil
	}
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return err
	}
	return &ConversionError{Path: path, Err: err}
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Path   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("xref: %s evaluator %s path=%s: %v", e.Engine, describeExpression(e.Expr), e.Path, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "xref:") {
		return err
	}
	return fmt.Errorf("xref: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, path string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Path == "" {
			evalErr.Path = path
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Path:   path,
		Err:    err,
	}
}
