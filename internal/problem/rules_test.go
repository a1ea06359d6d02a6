package problem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abt/internal/types"
)

// edgeDef is a single not-equal edge between agents 1 and 2.
func edgeDef() *Definition {
	return &Definition{
		Name: "edge",
		Domains: map[types.AgentID][]types.Value{
			1: {1, 2},
			2: {1, 2},
		},
		Constraints: [][2]types.AgentID{{1, 2}},
	}
}

func TestRulesAdapterDefaultViolationRule(t *testing.T) {
	a, err := NewRulesAdapter(edgeDef())
	require.NoError(t, err)

	t.Run("equal adjacent values violate", func(t *testing.T) {
		assert.False(t, a.IsConsistent(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 1}}))
		assert.False(t, a.IsConsistent(1, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 1}}), "violations fire on both endpoints")
	})
	t.Run("distinct values pass", func(t *testing.T) {
		assert.True(t, a.IsConsistent(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 2}}))
	})
	t.Run("no own value", func(t *testing.T) {
		assert.False(t, a.IsConsistent(2, types.View{{Agent: 1, Value: 1}}))
	})
}

func TestRulesAdapterTryAdjust(t *testing.T) {
	a, err := NewRulesAdapter(edgeDef())
	require.NoError(t, err)

	v, ok := a.TryAdjust(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 1}}, types.NewNogoodStore())
	require.True(t, ok)
	assert.Equal(t, types.Value(2), v)

	store := types.NewNogoodStore()
	store.Add(types.Nogood{{Agent: 1, Value: 1}, {Agent: 2, Value: 2}})
	_, ok = a.TryAdjust(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 1}}, store)
	assert.False(t, ok, "nogood store prunes the rules adapter too")
}

func TestRulesAdapterCustomRule(t *testing.T) {
	def := edgeDef()
	// Forbid value 2 outright for every agent, on top of the default rule.
	def.Rules = "violation(A) :- assigned(A, 2)."

	a, err := NewRulesAdapter(def)
	require.NoError(t, err)

	assert.False(t, a.IsConsistent(1, types.View{{Agent: 1, Value: 2}}))
	assert.True(t, a.IsConsistent(1, types.View{{Agent: 1, Value: 1}}))

	// Agent 2 now has no value: 1 clashes with the neighbor, 2 is banned.
	_, ok := a.TryAdjust(2, types.View{{Agent: 1, Value: 1}, {Agent: 2, Value: 2}}, types.NewNogoodStore())
	assert.False(t, ok)
}

func TestCheckRules(t *testing.T) {
	assert.NoError(t, CheckRules("violation(A) :- assigned(A, V), conflict_pair(A, B), assigned(B, V)."))
	assert.Error(t, CheckRules("violation(X) :- assigned(A, V)."), "unbound head variable must fail analysis")
	assert.Error(t, CheckRules("this is not datalog"))
}
