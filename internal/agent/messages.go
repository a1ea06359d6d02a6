package agent

import (
	"fmt"

	"abt/internal/types"
)

// Message is one item in an agent mailbox. Messages from the same sender
// arrive in send order; no ordering across senders is assumed.
type Message interface {
	kind() string
}

// GoMsg delivers the peer roster and unlocks message traffic. Sent once,
// out-of-band, by the driver. The roster excludes the receiving agent.
type GoMsg struct {
	Peers map[types.AgentID]Handle
}

// OKMsg tells dependents the sender's variable is now bound to Value.
type OKMsg struct {
	From  types.AgentID
	Value types.Value
}

// NogoodMsg carries a derived conflict to its lowest-priority participant.
type NogoodMsg struct {
	From   types.AgentID
	Nogood types.Nogood
}

// DoneMsg is one hop of the quiescence handshake, carrying the merged
// downstream view toward agent 1.
type DoneMsg struct {
	View types.View
}

// StopMsg terminates the agent. Unprocessed mailbox messages are dropped.
type StopMsg struct{}

func (GoMsg) kind() string     { return "go" }
func (OKMsg) kind() string     { return "is_ok" }
func (NogoodMsg) kind() string { return "nogood" }
func (DoneMsg) kind() string   { return "done" }
func (StopMsg) kind() string   { return "stop" }

// Handle is a communication endpoint for one agent. Deliver must never block
// the caller; a false return means the message was dropped (the periodic
// resend cycle is the only retry mechanism).
type Handle interface {
	ID() types.AgentID
	Deliver(Message) bool
}

// ResultSink receives the terminal outcome: one success report carrying the
// merged assignment, or one failure report signalling unsatisfiability.
type ResultSink interface {
	Report(types.Report)
}

// SinkFunc adapts a function to the ResultSink interface.
type SinkFunc func(types.Report)

// Report implements ResultSink.
func (f SinkFunc) Report(r types.Report) { f(r) }

func describe(msg Message) string {
	switch m := msg.(type) {
	case OKMsg:
		return fmt.Sprintf("is_ok(%d, %d)", m.From, m.Value)
	case NogoodMsg:
		return fmt.Sprintf("nogood(%d, %s)", m.From, m.Nogood)
	case DoneMsg:
		return fmt.Sprintf("done(%s)", m.View)
	default:
		return msg.kind()
	}
}
