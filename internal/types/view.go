package types

import "sort"

// View is an agent's current belief about assigned values, one entry per
// agent id. It stays sorted ascending by id with no duplicates; merge and
// priority comparisons downstream rely on that ordering.
type View []VarValue

// Get returns the value assigned to id, if present.
func (v View) Get(id AgentID) (Value, bool) {
	i := v.search(id)
	if i < len(v) && v[i].Agent == id {
		return v[i].Value, true
	}
	return 0, false
}

// Upsert returns a view with id bound to val, replacing any existing entry.
// The receiver is not modified.
func (v View) Upsert(id AgentID, val Value) View {
	i := v.search(id)
	out := make(View, len(v), len(v)+1)
	copy(out, v)
	if i < len(out) && out[i].Agent == id {
		out[i].Value = val
		return out
	}
	out = append(out, VarValue{})
	copy(out[i+1:], out[i:])
	out[i] = VarValue{Agent: id, Value: val}
	return out
}

// Remove returns a view without an entry for id. Removing an absent id is a
// no-op.
func (v View) Remove(id AgentID) View {
	i := v.search(id)
	if i >= len(v) || v[i].Agent != id {
		return v
	}
	out := make(View, 0, len(v)-1)
	out = append(out, v[:i]...)
	out = append(out, v[i+1:]...)
	return out
}

// Merge unions two views. Ids present in both must agree; callers only merge
// views where agreement is structurally guaranteed (nogood fragments, done
// chains), so a disagreement is reported as false and the merge aborted.
func (v View) Merge(other View) (View, bool) {
	out := v
	for _, vv := range other {
		if existing, ok := out.Get(vv.Agent); ok {
			if existing != vv.Value {
				return nil, false
			}
			continue
		}
		out = out.Upsert(vv.Agent, vv.Value)
	}
	return out, true
}

// Clone returns an independent copy.
func (v View) Clone() View {
	out := make(View, len(v))
	copy(out, v)
	return out
}

// Equal reports whether two views hold exactly the same bindings.
func (v View) Equal(other View) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}

// MaxAgent returns the highest id present, or 0 for an empty view.
func (v View) MaxAgent() AgentID {
	if len(v) == 0 {
		return 0
	}
	return v[len(v)-1].Agent
}

// Sorted reports whether the ordering invariant holds: ascending ids, no
// duplicates.
func (v View) Sorted() bool {
	for i := 1; i < len(v); i++ {
		if v[i-1].Agent >= v[i].Agent {
			return false
		}
	}
	return true
}

func (v View) String() string {
	return joinBindings(v)
}

// search returns the insertion index for id.
func (v View) search(id AgentID) int {
	return sort.Search(len(v), func(i int) bool { return v[i].Agent >= id })
}
