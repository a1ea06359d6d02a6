package problem

import (
	"fmt"

	"abt/internal/logging"
	"abt/internal/types"
)

// BinaryAdapter implements the adapter contract for binary not-equal
// constraints (graph coloring style): two adjacent agents must hold
// different values.
type BinaryAdapter struct {
	def      *Definition
	adjacent map[types.AgentID][]types.AgentID
}

// NewBinaryAdapter builds an adapter over the definition's constraint graph.
func NewBinaryAdapter(def *Definition) *BinaryAdapter {
	return &BinaryAdapter{
		def:      def,
		adjacent: def.neighbors(),
	}
}

// Init picks the first domain value as the agent's opening guess.
func (a *BinaryAdapter) Init(id types.AgentID) (types.View, error) {
	dom, ok := a.def.Domains[id]
	if !ok {
		return nil, fmt.Errorf("agent %d not declared in problem %q", id, a.def.Name)
	}
	return types.View{}.Upsert(id, dom[0]), nil
}

// IsConsistent checks every constraint involving id whose both endpoints are
// assigned in the view. An agent with no own value is inconsistent by
// definition; it has nothing to defend.
func (a *BinaryAdapter) IsConsistent(id types.AgentID, view types.View) bool {
	own, ok := view.Get(id)
	if !ok {
		return false
	}
	for _, nb := range a.adjacent[id] {
		if v, ok := view.Get(nb); ok && v == own {
			return false
		}
	}
	return true
}

// TryAdjust scans the domain in order for a value that is consistent with the
// view and not forbidden by a stored nogood.
func (a *BinaryAdapter) TryAdjust(id types.AgentID, view types.View, store *types.NogoodStore) (types.Value, bool) {
	for _, v := range a.def.Domains[id] {
		candidate := view.Upsert(id, v)
		if !a.IsConsistent(id, candidate) {
			continue
		}
		if store.Forbids(id, candidate) {
			logging.Adapter("agent %d: value %d ruled out by nogood store", id, v)
			continue
		}
		return v, true
	}
	return 0, false
}

// Nogoods explains the dead end: the context that killed every domain value
// is the agent's view minus its own binding. With no context at all, the
// empty nogood signals unsatisfiability.
func (a *BinaryAdapter) Nogoods(id types.AgentID, view types.View) []types.Nogood {
	context := view.Remove(id)
	ng := make(types.Nogood, len(context))
	copy(ng, context)
	return []types.Nogood{ng}
}

// DependentAgents returns the lower-priority neighbors: agents whose
// consistency depends on this agent's value.
func (a *BinaryAdapter) DependentAgents(id types.AgentID) []types.AgentID {
	var deps []types.AgentID
	for _, nb := range a.adjacent[id] {
		if nb > id {
			deps = append(deps, nb)
		}
	}
	return deps
}

