package types

// Nogood is a combination of bindings proven mutually inconsistent. Entries
// are kept sorted ascending by agent id, like View. An empty nogood is the
// sentinel for "no value exists at all": global unsatisfiability from the
// deriving agent's perspective.
type Nogood []VarValue

// Empty reports whether this is the unsatisfiability sentinel.
func (n Nogood) Empty() bool {
	return len(n) == 0
}

// Culprit returns the lowest-priority participant: the entry with the maximum
// agent id. That agent receives the nogood and must recompute. Entries are
// sorted, so the culprit is the last one. Calling Culprit on an empty nogood
// is a programming error; it returns the zero VarValue.
func (n Nogood) Culprit() VarValue {
	if len(n) == 0 {
		return VarValue{}
	}
	return n[len(n)-1]
}

// AsView returns the nogood's bindings as a View fragment for merging.
func (n Nogood) AsView() View {
	out := make(View, len(n))
	copy(out, n)
	return out
}

// Equal reports binding-for-binding equality.
func (n Nogood) Equal(other Nogood) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if n[i] != other[i] {
			return false
		}
	}
	return true
}

func (n Nogood) String() string {
	return joinBindings(n)
}

// NogoodStore is the set of nogoods an agent has learned. It only ever grows;
// duplicates are suppressed. The store is consulted by problem adapters to
// avoid proposing values already proven bad, never interpreted by the core
// beyond counting and membership.
type NogoodStore struct {
	nogoods []Nogood
}

// NewNogoodStore returns an empty store.
func NewNogoodStore() *NogoodStore {
	return &NogoodStore{}
}

// Add records a nogood. Returns true if it was new.
func (s *NogoodStore) Add(n Nogood) bool {
	if s.Contains(n) {
		return false
	}
	s.nogoods = append(s.nogoods, n)
	return true
}

// Contains reports whether an identical nogood is already stored.
func (s *NogoodStore) Contains(n Nogood) bool {
	for _, existing := range s.nogoods {
		if existing.Equal(n) {
			return true
		}
	}
	return false
}

// Len returns the number of stored nogoods.
func (s *NogoodStore) Len() int {
	return len(s.nogoods)
}

// All returns the stored nogoods in insertion order. The returned slice is
// shared; callers must not mutate it.
func (s *NogoodStore) All() []Nogood {
	return s.nogoods
}

// Binding returns the value a nogood binds id to, if id participates.
func (n Nogood) Binding(id AgentID) (Value, bool) {
	for _, vv := range n {
		if vv.Agent == id {
			return vv.Value, true
		}
	}
	return 0, false
}

// Forbids reports whether some stored nogood involving id is fully matched
// by the view: every binding the nogood carries, id's own included, agrees
// with the view. A match means the view reproduces a combination already
// proven bad and id must look for a different value.
func (s *NogoodStore) Forbids(id AgentID, view View) bool {
	for _, ng := range s.nogoods {
		if ng.Empty() {
			continue
		}
		if _, ok := ng.Binding(id); !ok {
			continue
		}
		matched := true
		for _, vv := range ng {
			cur, ok := view.Get(vv.Agent)
			if !ok || cur != vv.Value {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}
