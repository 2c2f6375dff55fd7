package xref

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errTask struct{}

func (errTask) IdentifierScope() Key { return RootKey }

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "flag && missing", "stages[1].timeout", base)

	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "expr", evalErr.Engine)
	assert.Equal(t, "flag && missing", evalErr.Expr)
	assert.Equal(t, "stages[1].timeout", evalErr.Path)
	assert.ErrorIs(t, evalErr.Err, base)
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{Engine: "expr", Err: base}

	err := wrapEvaluationError("cel", "rule", "owner", existing)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "expr", existing.Engine, "engine is kept")
	assert.Equal(t, "rule", existing.Expr)
	assert.Equal(t, "owner", existing.Path)
}

func TestIdentifierErrorMessages(t *testing.T) {
	kind := KeyOf[errTask]()
	cases := []struct {
		err  *IdentifierError
		want string
	}{
		{&IdentifierError{Kind: kind, Name: "x", Err: ErrDuplicateIdentifier}, `xref: duplicate identifier "x" for errTask`},
		{&IdentifierError{Kind: kind, Index: 1, Existing: 0, Err: ErrMultipleDeclarations}, "xref: multiple new identifiers defined for errTask (1, 0)"},
		{&IdentifierError{Kind: kind, Name: "y", Err: ErrUnknownIdentifier}, `xref: unknown identifier "y" for errTask`},
		{&IdentifierError{Kind: kind, Name: "z", Err: ErrUntrackedScope}, `xref: identifiers of errTask referenced as "z" were not tracked`},
		{&IdentifierError{Kind: kind, Name: "w", Err: ErrNoActiveOrImportedScope}, `xref: no active or imported scope for errTask referenced as "w"`},
		{&IdentifierError{Kind: kind, Err: ErrNoCurrentDeclaration}, "xref: no current identifier for errTask"},
	}
	for _, tc := range cases {
		assert.EqualError(t, tc.err, tc.want)
		assert.ErrorIs(t, tc.err, tc.err.Err)
	}
}

func TestConversionErrorWrapsOnce(t *testing.T) {
	inner := &IdentifierError{Kind: KeyOf[errTask](), Name: "a", Err: ErrUnknownIdentifier}
	err := wrapConversionError("stages[0].after", inner)
	again := wrapConversionError("stages", fmt.Errorf("outer: %w", err))

	var convErr *ConversionError
	require.ErrorAs(t, again, &convErr)
	assert.Equal(t, "stages[0].after", convErr.Path, "innermost path is kept")
	assert.ErrorIs(t, again, ErrUnknownIdentifier)
	assert.EqualError(t, err, `xref: convert stages[0].after: unknown identifier "a" for errTask`)
	assert.NoError(t, wrapConversionError("x", nil))
}
