package xref

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDOrderingFollowsIndex(t *testing.T) {
	ids := []ID[Stage]{NewID[Stage](3), NewID[Stage](0), NewID[Stage](2)}
	slices.SortFunc(ids, ID[Stage].Compare)

	got := make([]int, len(ids))
	for i, id := range ids {
		got[i] = id.Index()
	}
	assert.Equal(t, []int{0, 2, 3}, got)
	assert.True(t, ids[0].Less(ids[1]))
	assert.False(t, ids[1].Less(ids[0]))
	assert.Equal(t, NewID[Stage](4), NewID[Stage](4))
}

func TestIDStringAndKind(t *testing.T) {
	id := NewID[Step](7)
	assert.Equal(t, "ID(7)", id.String())
	assert.Equal(t, "Step", KindName(id.Kind()))
}

func TestIDJSONRoundTrip(t *testing.T) {
	type holder struct {
		Stage ID[Stage] `json:"stage"`
	}
	payload, err := json.Marshal(holder{Stage: NewID[Stage](5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":5}`, string(payload))

	var decoded holder
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, 5, decoded.Stage.Index())

	var bad ID[Stage]
	assert.Error(t, json.Unmarshal([]byte(`"five"`), &bad))
}

func TestNewIDRejectsNegativeIndex(t *testing.T) {
	assert.Panics(t, func() { NewID[Stage](-1) })
}

func TestNameMarshalsValue(t *testing.T) {
	name := Name[Stage]{value: "build"}
	payload, err := json.Marshal(name)
	require.NoError(t, err)
	assert.Equal(t, `"build"`, string(payload))
	assert.Equal(t, "build", name.String())
	assert.Equal(t, "build", name.Value())
}
