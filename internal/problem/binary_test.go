package problem

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abt/internal/types"
)

// pathDef is 1—2—3: agents 1 and 3 are not adjacent.
func pathDef() *Definition {
	return &Definition{
		Name: "path",
		Domains: map[types.AgentID][]types.Value{
			1: {1, 2},
			2: {1, 2},
			3: {1, 2},
		},
		Constraints: [][2]types.AgentID{{1, 2}, {2, 3}},
	}
}

func TestBinaryInit(t *testing.T) {
	a := NewBinaryAdapter(pathDef())

	view, err := a.Init(2)
	require.NoError(t, err)
	assert.True(t, view.Equal(types.View{{Agent: 2, Value: 1}}), "first domain value is the opening guess")

	_, err = a.Init(9)
	assert.Error(t, err, "undeclared agent")
}

func TestBinaryIsConsistent(t *testing.T) {
	a := NewBinaryAdapter(pathDef())

	t.Run("no own value", func(t *testing.T) {
		assert.False(t, a.IsConsistent(2, types.View{{Agent: 1, Value: 1}}))
	})
	t.Run("clashing neighbor", func(t *testing.T) {
		assert.False(t, a.IsConsistent(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 1}}))
	})
	t.Run("distinct neighbors", func(t *testing.T) {
		assert.True(t, a.IsConsistent(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 2}, {Agent: 3, Value: 1}}))
	})
	t.Run("non-adjacent clash is fine", func(t *testing.T) {
		assert.True(t, a.IsConsistent(3, types.View{{Agent: 1, Value: 1}, {Agent: 3, Value: 1}}))
	})
	t.Run("unassigned neighbor imposes nothing", func(t *testing.T) {
		assert.True(t, a.IsConsistent(2, types.View{{Agent: 2, Value: 1}}))
	})
}

func TestBinaryTryAdjust(t *testing.T) {
	a := NewBinaryAdapter(pathDef())
	store := types.NewNogoodStore()

	v, ok := a.TryAdjust(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 1}}, store)
	require.True(t, ok)
	assert.Equal(t, types.Value(2), v, "first consistent domain value wins")

	// A nogood matching the context rules out the only surviving value.
	store.Add(types.Nogood{{Agent: 1, Value: 1}, {Agent: 2, Value: 2}})
	_, ok = a.TryAdjust(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 1}}, store)
	assert.False(t, ok)

	// The same nogood with a different context does not apply.
	v, ok = a.TryAdjust(2, types.View{{Agent: 1, Value: 2}, {Agent: 2, Value: 2}}, store)
	require.True(t, ok)
	assert.Equal(t, types.Value(1), v)
}

func TestBinaryNogoods(t *testing.T) {
	a := NewBinaryAdapter(pathDef())

	ngs := a.Nogoods(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 2}})
	require.Len(t, ngs, 1)
	want := types.Nogood{{Agent: 1, Value: 1}}
	if diff := cmp.Diff(want, ngs[0]); diff != "" {
		t.Errorf("nogood mismatch (-want +got):\n%s", diff)
	}

	ngs = a.Nogoods(1, types.View{{Agent: 1, Value: 1}})
	require.Len(t, ngs, 1)
	assert.True(t, ngs[0].Empty(), "no context left means unsatisfiable")
}

func TestBinaryDependentAgents(t *testing.T) {
	a := NewBinaryAdapter(pathDef())

	assert.Equal(t, []types.AgentID{2}, a.DependentAgents(1))
	assert.Equal(t, []types.AgentID{3}, a.DependentAgents(2))
	assert.Empty(t, a.DependentAgents(3), "highest id has no lower-priority neighbors")
}
