package agent

import (
	"abt/internal/logging"
	"abt/internal/types"
)

// recheck is the consistency and backtrack engine. It loops to a fixed
// point: a consistent view, or a backtrack that shrank the view, or a
// declared failure. An already-consistent view passes through untouched, so
// repeated calls are idempotent.
func (a *Agent) recheck() {
	for {
		// Consistent means both: the adapter's constraints hold and the view
		// does not reproduce a combination the nogood store proved bad.
		if a.adapter.IsConsistent(a.id, a.view) && !a.nogoods.Forbids(a.id, a.view) {
			return
		}

		if v, ok := a.adapter.TryAdjust(a.id, a.view, a.nogoods); ok {
			logging.Engine("agent %d: adjusting to %d (view %s)", a.id, v, a.view)
			a.view = a.view.Upsert(a.id, v)
			a.broadcastOK()
			continue
		}

		if !a.backtrack() {
			return
		}
	}
}

// backtrack distributes the nogoods implied by the dead-end view. Each
// nogood goes to its lowest-priority participant, whose entry is removed
// from the local view to force a recomputation. An empty nogood means no
// value exists at all: the failure is reported and repair abandoned for this
// cycle. Returns false when that happened.
func (a *Agent) backtrack() bool {
	nogoods := a.adapter.Nogoods(a.id, a.view)
	logging.Engine("agent %d: backtracking with %d nogood(s)", a.id, len(nogoods))

	for _, ng := range nogoods {
		if ng.Empty() {
			a.reportFailure()
			return false
		}

		culprit := ng.Culprit()
		a.nogoods.Add(ng)
		a.view = a.view.Remove(culprit.Agent)
		a.send(culprit.Agent, NogoodMsg{From: a.id, Nogood: ng})
	}
	return true
}

// receiveNogood merges the carried bindings, records the nogood, and reruns
// the engine. If the agent's own value survived unchanged, the sender's
// premise still holds and it gets a direct is_ok confirmation; a changed
// value is already broadcast by the repair step.
func (a *Agent) receiveNogood(m NogoodMsg) {
	merged, ok := a.view.Merge(m.Nogood.AsView())
	if !ok {
		// Bindings carried by a nogood are supposed to agree with the local
		// view; a conflict is an adapter contract violation. Observe only.
		logging.ProtocolWarn("agent %d: nogood %s conflicts with view %s, ignoring", a.id, m.Nogood, a.view)
		return
	}
	a.view = merged
	a.nogoods.Add(m.Nogood)

	before, hadValue := a.view.Get(a.id)
	a.recheck()
	after, ok := a.view.Get(a.id)
	if ok && hadValue && after == before {
		a.send(m.From, OKMsg{From: a.id, Value: after})
	}
}

// reportFailure notifies the result sink of unsatisfiability, once per agent.
func (a *Agent) reportFailure() {
	if a.failed {
		return
	}
	a.failed = true
	logging.Engine("agent %d: empty nogood, problem unsatisfiable", a.id)
	a.sink.Report(types.Report{Solved: false, Origin: a.id})
}
