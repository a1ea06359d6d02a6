package agent

import (
	"abt/internal/logging"
	"abt/internal/types"
)

// Termination detection and result propagation: the chained done handshake.
// The lowest-priority agent periodically sends its view one priority level
// up; every hop merges, checks consistency, and forwards until agent 1
// reports the solved assignment. The whole chain is driven by idle-timer
// resends and must therefore be safe to run repeatedly.

// initiateDone starts (or restarts) the handshake from the chain's tail.
func (a *Agent) initiateDone() {
	logging.AgentDebug("agent %d: quiescent, initiating done handshake", a.id)
	if a.id == a.firstAgent {
		// Single-agent problem: the chain is trivial.
		if a.adapter.IsConsistent(a.id, a.view) {
			a.pendingDone = a.view.Clone()
			a.reportSuccess(a.pendingDone)
		}
		return
	}
	a.forwardDone(a.view)
}

// receiveDone processes one hop of the handshake. The merged view is
// computed without touching the working view, so reprocessing a requeued
// protocol message later starts from unmodified state.
func (a *Agent) receiveDone(in types.View) {
	a.phase = types.PhaseDone

	merged, ok := a.view.Merge(in)
	if !ok {
		// Done views carry disjoint downstream knowledge by construction; a
		// conflict is a design or adapter bug. Observe only.
		logging.ProtocolWarn("agent %d: done view %s conflicts with own view %s", a.id, in, a.view)
		return
	}

	if !a.adapter.IsConsistent(a.id, merged) {
		// No retry here: the next timer-driven resend arrives with fresher
		// views, or new is_ok traffic retracts the quiescence claim.
		logging.Protocol("agent %d: merged done view %s inconsistent, waiting for resend", a.id, merged)
		return
	}

	a.pendingDone = merged
	if a.id == a.firstAgent {
		a.reportSuccess(merged)
		return
	}
	a.forwardDone(merged)
}

// forwardDone sends a done view one priority level up the chain: to the
// next-lower agent id present in the roster.
func (a *Agent) forwardDone(view types.View) {
	if a.id == a.firstAgent {
		if a.pendingDone != nil {
			a.reportSuccess(a.pendingDone)
		}
		return
	}
	a.send(a.prevAgent, DoneMsg{View: view.Clone()})
}

// reportSuccess hands the merged assignment to the result sink. The sink
// may see this more than once across resends; consumers take the first.
func (a *Agent) reportSuccess(merged types.View) {
	logging.Solver("agent %d: reporting solution %s", a.id, merged)
	a.sink.Report(types.Report{Solved: true, Assignment: merged.Clone(), Origin: a.id})
}
