// Package types holds the protocol data types shared by the agent, problem,
// and solver packages. Keeping them here avoids import cycles between the
// core loop and the problem adapters.
package types

import (
	"fmt"
	"strings"
)

// AgentID identifies one agent. IDs are positive and define a total priority
// order: a lower id is a higher priority. Higher-priority agents impose
// constraints that lower-priority agents must satisfy.
type AgentID int

// Value is one assigned domain value.
type Value int

// VarValue is a single (agent, value) binding.
type VarValue struct {
	Agent AgentID
	Value Value
}

func (vv VarValue) String() string {
	return fmt.Sprintf("%d=%d", vv.Agent, vv.Value)
}

// Phase is the coarse agent lifecycle phase.
type Phase int

const (
	// PhaseInitial is the entry phase; only the roster message is useful here.
	PhaseInitial Phase = iota
	// PhaseStep is the active repair phase.
	PhaseStep
	// PhaseDone means the agent currently believes the system is quiescent.
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "initial"
	case PhaseStep:
		return "step"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Report is one terminal outcome delivered to the result sink. A success
// report carries the full merged assignment, a failure report only the
// origin agent.
type Report struct {
	Solved     bool
	Assignment View    // full merged assignment when Solved
	Origin     AgentID // agent that produced the report
}

func (r Report) String() string {
	if r.Solved {
		return fmt.Sprintf("solved %s (reported by agent %d)", r.Assignment, r.Origin)
	}
	return fmt.Sprintf("unsatisfiable (reported by agent %d)", r.Origin)
}

// joinBindings renders a binding list as {1=2, 3=1}.
func joinBindings(bindings []VarValue) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = b.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
