// Package agent implements one participant of the asynchronous backtracking
// protocol: a single goroutine owning one constraint variable, reacting to
// mailbox messages and an idle timer, with no shared mutable state.
package agent

import (
	"fmt"
	"sync"
	"time"

	"abt/internal/logging"
	"abt/internal/problem"
	"abt/internal/types"
)

// Options configures one agent.
type Options struct {
	// IdleTimeout is the quiescence-check interval. Every time it elapses
	// without mailbox traffic the agent runs its idle handler.
	IdleTimeout time.Duration
	// MailboxSize is the mailbox channel capacity. Deliveries into a full
	// mailbox are dropped; the resend cycle recovers the loss.
	MailboxSize int
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		IdleTimeout: 1 * time.Second,
		MailboxSize: 256,
	}
}

// Agent is one ABT participant. All fields below the mailbox are owned
// exclusively by the run goroutine; external callers interact only through
// Deliver, Go, and Stop.
type Agent struct {
	id      types.AgentID
	adapter problem.Adapter
	sink    ResultSink
	opts    Options

	mailbox  chan Message
	stopCh   chan struct{}
	stopOnce sync.Once
	exited   chan struct{}

	// State owned by the run goroutine.
	phase       types.Phase
	view        types.View
	nogoods     *types.NogoodStore
	peers       map[types.AgentID]Handle
	firstAgent  types.AgentID
	lastAgent   types.AgentID
	prevAgent   types.AgentID // next-lower id present in the roster
	pendingDone types.View
	failed      bool
}

// Start creates the agent, asks the adapter for its first guess, and launches
// the run loop. The agent stays in the initial phase until the roster
// arrives.
func Start(id types.AgentID, adapter problem.Adapter, sink ResultSink, opts Options) (*Agent, error) {
	if id <= 0 {
		return nil, fmt.Errorf("agent id must be positive, got %d", id)
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultOptions().IdleTimeout
	}
	if opts.MailboxSize <= 0 {
		opts.MailboxSize = DefaultOptions().MailboxSize
	}

	view, err := adapter.Init(id)
	if err != nil {
		return nil, fmt.Errorf("agent %d init: %w", id, err)
	}

	a := &Agent{
		id:      id,
		adapter: adapter,
		sink:    sink,
		opts:    opts,
		mailbox: make(chan Message, opts.MailboxSize),
		stopCh:  make(chan struct{}),
		exited:  make(chan struct{}),
		phase:   types.PhaseInitial,
		view:    view,
		nogoods: types.NewNogoodStore(),
	}

	logging.Agent("agent %d: started, initial view %s", id, view)
	go a.run()
	return a, nil
}

// ID implements Handle.
func (a *Agent) ID() types.AgentID {
	return a.id
}

// Deliver implements Handle: a non-blocking push into the mailbox.
func (a *Agent) Deliver(msg Message) bool {
	select {
	case a.mailbox <- msg:
		return true
	default:
		logging.ProtocolWarn("agent %d: mailbox full, dropped %s", a.id, describe(msg))
		return false
	}
}

// Go delivers the peer roster, unlocking protocol traffic.
func (a *Agent) Go(peers map[types.AgentID]Handle) {
	a.Deliver(GoMsg{Peers: peers})
}

// Stop terminates the agent. In-flight mailbox messages are dropped; there is
// no graceful drain. Safe to call more than once.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}

// Exited is closed when the run goroutine has returned.
func (a *Agent) Exited() <-chan struct{} {
	return a.exited
}

// run is the actor loop: block on the mailbox or the idle timer, handle one
// event to completion, rearm the timer. Exactly one timer is live at a time.
func (a *Agent) run() {
	defer close(a.exited)

	timer := time.NewTimer(a.opts.IdleTimeout)
	defer timer.Stop()

	for {
		select {
		case <-a.stopCh:
			logging.Agent("agent %d: stopped", a.id)
			return
		case msg := <-a.mailbox:
			if _, ok := msg.(StopMsg); ok {
				logging.Agent("agent %d: stopped via message", a.id)
				return
			}
			a.handle(msg)
		case <-timer.C:
			a.handleIdle()
		}
		rearm(timer, a.opts.IdleTimeout)
	}
}

// rearm resets the timer for the next interval, draining an already-fired
// channel so a stale tick is never observed after a state change.
func rearm(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func (a *Agent) handle(msg Message) {
	switch a.phase {
	case types.PhaseInitial:
		a.handleInitial(msg)
	case types.PhaseStep:
		a.handleStep(msg)
	case types.PhaseDone:
		a.handleDoneState(msg)
	}
}

// handleInitial accepts only the roster; anything else is a protocol anomaly
// because no protocol message can be processed before the peers are known.
func (a *Agent) handleInitial(msg Message) {
	m, ok := msg.(GoMsg)
	if !ok {
		logging.Protocol("agent %d: ignoring %s in %s phase", a.id, describe(msg), a.phase)
		return
	}

	a.peers = m.Peers
	a.firstAgent, a.lastAgent = a.id, a.id
	for id := range m.Peers {
		if id < a.firstAgent {
			a.firstAgent = id
		}
		if id > a.lastAgent {
			a.lastAgent = id
		}
		// Ids need not be contiguous; the done chain hops to whatever lower
		// id actually exists.
		if id < a.id && id > a.prevAgent {
			a.prevAgent = id
		}
	}

	a.broadcastOK()
	a.phase = types.PhaseStep
	logging.Agent("agent %d: roster received (%d peers), entering step phase", a.id, len(m.Peers))
}

func (a *Agent) handleStep(msg Message) {
	switch m := msg.(type) {
	case OKMsg:
		logging.ProtocolDebug("agent %d: recv %s", a.id, describe(m))
		a.view = a.view.Upsert(m.From, m.Value)
		a.recheck()
	case NogoodMsg:
		logging.ProtocolDebug("agent %d: recv %s", a.id, describe(m))
		a.receiveNogood(m)
	case DoneMsg:
		a.receiveDone(m.View)
	default:
		logging.Protocol("agent %d: ignoring %s in %s phase", a.id, describe(msg), a.phase)
	}
}

// handleDoneState retracts the quiescence claim when late protocol traffic
// arrives: the message is re-enqueued to self and reprocessed in the step
// phase, so nothing is lost.
func (a *Agent) handleDoneState(msg Message) {
	switch m := msg.(type) {
	case OKMsg, NogoodMsg:
		logging.Protocol("agent %d: %s arrived in done phase, requeueing and stepping down", a.id, describe(m))
		a.pendingDone = nil
		a.phase = types.PhaseStep
		a.Deliver(m)
	case DoneMsg:
		a.receiveDone(m.View)
	default:
		logging.Protocol("agent %d: ignoring %s in %s phase", a.id, describe(msg), a.phase)
	}
}

// handleIdle runs on every idle-timer expiry. The lowest-priority agent
// initiates (and keeps re-initiating) the quiescence handshake; agents
// holding a merged view re-forward it. Repetition is intentional: resending
// is the only liveness safeguard.
func (a *Agent) handleIdle() {
	switch a.phase {
	case types.PhaseStep:
		if a.id == a.lastAgent && a.peers != nil {
			a.initiateDone()
			a.phase = types.PhaseDone
		}
	case types.PhaseDone:
		if a.id == a.lastAgent {
			a.initiateDone()
		} else if a.pendingDone != nil {
			a.forwardDone(a.pendingDone)
		}
	}
}

// send delivers a message to one peer, fire and forget.
func (a *Agent) send(to types.AgentID, msg Message) {
	peer, ok := a.peers[to]
	if !ok {
		logging.ProtocolWarn("agent %d: no handle for agent %d, dropping %s", a.id, to, describe(msg))
		return
	}
	logging.ProtocolDebug("agent %d: send %s to %d", a.id, describe(msg), to)
	peer.Deliver(msg)
}

// broadcastOK announces the agent's current value to every dependent.
func (a *Agent) broadcastOK() {
	own, ok := a.view.Get(a.id)
	if !ok {
		return
	}
	for _, dep := range a.adapter.DependentAgents(a.id) {
		a.send(dep, OKMsg{From: a.id, Value: own})
	}
}
