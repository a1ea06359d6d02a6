// Package problem supplies the pluggable constraint-problem strategy the
// agent core calls into: problem definitions loaded from YAML plus the
// adapters implementing consistency, value adjustment, nogood derivation,
// and the dependency graph.
package problem

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"abt/internal/types"
)

// Adapter is the contract the agent core requires from a constraint problem.
// An adapter is bound to one problem definition at construction; all methods
// must be deterministic and side-effect free.
type Adapter interface {
	// Init returns the agent's initial view fragment (its first guess).
	// Called once at agent construction.
	Init(id types.AgentID) (types.View, error)

	// IsConsistent reports whether the view is consistent from the given
	// agent's perspective.
	IsConsistent(id types.AgentID, view types.View) bool

	// TryAdjust proposes a new value for the agent's own variable that is
	// consistent with the view and not ruled out by the nogood store.
	// Returns false when no adjustment exists.
	TryAdjust(id types.AgentID, view types.View, store *types.NogoodStore) (types.Value, bool)

	// Nogoods derives the conflict explanations implied by the view. May
	// contain the empty nogood, signalling unsatisfiability.
	Nogoods(id types.AgentID, view types.View) []types.Nogood

	// DependentAgents returns the agents that must hear about this agent's
	// value changes. The dependency graph is static for the run.
	DependentAgents(id types.AgentID) []types.AgentID
}

// Definition is one constraint problem: per-agent domains plus binary
// not-equal constraints, optionally augmented with Mangle datalog rules.
type Definition struct {
	Name        string
	Domains     map[types.AgentID][]types.Value
	Constraints [][2]types.AgentID
	Rules       string
}

// rawDefinition is the YAML shape before validation.
type rawDefinition struct {
	Name        string        `yaml:"name"`
	Domains     map[int][]int `yaml:"domains"`
	Constraints [][]int       `yaml:"constraints"`
	Rules       string        `yaml:"rules"`
}

// Load reads and validates a problem definition from a YAML file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read problem file: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML problem definition.
func Parse(data []byte) (*Definition, error) {
	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse problem file: %w", err)
	}

	if len(raw.Domains) == 0 {
		return nil, fmt.Errorf("problem %q declares no variables", raw.Name)
	}

	def := &Definition{
		Name:    raw.Name,
		Domains: make(map[types.AgentID][]types.Value, len(raw.Domains)),
		Rules:   raw.Rules,
	}
	for id, dom := range raw.Domains {
		if id <= 0 {
			return nil, fmt.Errorf("agent ids must be positive, got %d", id)
		}
		if len(dom) == 0 {
			return nil, fmt.Errorf("agent %d has an empty domain", id)
		}
		values := make([]types.Value, len(dom))
		for i, v := range dom {
			values[i] = types.Value(v)
		}
		def.Domains[types.AgentID(id)] = values
	}

	for i, edge := range raw.Constraints {
		if len(edge) != 2 {
			return nil, fmt.Errorf("constraint %d: want an [a, b] pair, got %v", i, edge)
		}
		a, b := types.AgentID(edge[0]), types.AgentID(edge[1])
		if a == b {
			return nil, fmt.Errorf("constraint %d: self-loop on agent %d", i, a)
		}
		for _, id := range []types.AgentID{a, b} {
			if _, ok := def.Domains[id]; !ok {
				return nil, fmt.Errorf("constraint %d references undeclared agent %d", i, id)
			}
		}
		def.Constraints = append(def.Constraints, [2]types.AgentID{a, b})
	}

	return def, nil
}

// Agents returns the declared agent ids in ascending order.
func (d *Definition) Agents() []types.AgentID {
	ids := make([]types.AgentID, 0, len(d.Domains))
	for id := range d.Domains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// neighbors builds the symmetric adjacency map of the constraint graph.
func (d *Definition) neighbors() map[types.AgentID][]types.AgentID {
	adj := make(map[types.AgentID]map[types.AgentID]bool)
	add := func(a, b types.AgentID) {
		if adj[a] == nil {
			adj[a] = make(map[types.AgentID]bool)
		}
		adj[a][b] = true
	}
	for _, edge := range d.Constraints {
		add(edge[0], edge[1])
		add(edge[1], edge[0])
	}

	out := make(map[types.AgentID][]types.AgentID, len(adj))
	for id, set := range adj {
		for nb := range set {
			out[id] = append(out[id], nb)
		}
		sort.Slice(out[id], func(i, j int) bool { return out[id][i] < out[id][j] })
	}
	return out
}

// NewAdapter builds the adapter for a definition: the Mangle rules adapter
// when datalog rules are present, otherwise the plain binary-constraint
// adapter.
func NewAdapter(def *Definition) (Adapter, error) {
	if def.Rules != "" {
		return NewRulesAdapter(def)
	}
	return NewBinaryAdapter(def), nil
}
