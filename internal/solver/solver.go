// Package solver builds an agent network from a problem definition, delivers
// the roster, owns the result sink, and harvests the outcome.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"abt/internal/agent"
	"abt/internal/config"
	"abt/internal/logging"
	"abt/internal/problem"
	"abt/internal/types"
)

// Solver runs ABT agent networks. One Solver can run many solves; each solve
// builds a fresh network.
type Solver struct {
	cfg    config.SolverConfig
	logger *zap.Logger
}

// New creates a solver. A nil logger is replaced by a no-op logger.
func New(cfg config.SolverConfig, logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := config.Default().Solver
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = def.MailboxSize
	}
	return &Solver{cfg: cfg, logger: logger}
}

// Outcome is the terminal result of one solve run.
type Outcome struct {
	RunID      string
	Solved     bool
	Assignment map[types.AgentID]types.Value // populated when Solved
	Origin     types.AgentID                 // agent that reported
	Elapsed    time.Duration
}

// Solve runs the network until the first terminal report or context end.
// The network is always torn down completely before returning; agent
// goroutines never outlive the call.
func (s *Solver) Solve(ctx context.Context, def *problem.Definition) (*Outcome, error) {
	runID := uuid.New().String()[:8]

	adapter, err := problem.NewAdapter(def)
	if err != nil {
		return nil, fmt.Errorf("build adapter: %w", err)
	}

	ids := def.Agents()
	s.logger.Info("starting solve",
		zap.String("run_id", runID),
		zap.String("problem", def.Name),
		zap.Int("agents", len(ids)))
	logging.Solver("run %s: starting %d agents for problem %q", runID, len(ids), def.Name)

	// The sink is written from agent goroutines; first report wins, later
	// resends of the same outcome are dropped on the floor.
	reports := make(chan types.Report, 1)
	sink := agent.SinkFunc(func(r types.Report) {
		select {
		case reports <- r:
		default:
		}
	})

	opts := agent.Options{
		IdleTimeout: s.cfg.IdleTimeout,
		MailboxSize: s.cfg.MailboxSize,
	}

	agents := make(map[types.AgentID]*agent.Agent, len(ids))
	for _, id := range ids {
		ag, err := agent.Start(id, adapter, sink, opts)
		if err != nil {
			stopAll(agents)
			return nil, fmt.Errorf("start agent %d: %w", id, err)
		}
		agents[id] = ag
	}

	// Deliver each agent its roster (everyone but itself); this unlocks the
	// protocol traffic.
	for id, ag := range agents {
		peers := make(map[types.AgentID]agent.Handle, len(agents)-1)
		for pid, pag := range agents {
			if pid != id {
				peers[pid] = pag
			}
		}
		ag.Go(peers)
	}

	if s.cfg.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SolveTimeout)
		defer cancel()
	}

	start := time.Now()
	var report types.Report
	gotReport := false
	select {
	case report = <-reports:
		gotReport = true
	case <-ctx.Done():
	}

	stopAll(agents)

	if !gotReport {
		s.logger.Warn("solve ended without outcome", zap.String("run_id", runID), zap.Error(ctx.Err()))
		return nil, fmt.Errorf("solve %s: %w", runID, ctx.Err())
	}

	out := &Outcome{
		RunID:   runID,
		Solved:  report.Solved,
		Origin:  report.Origin,
		Elapsed: time.Since(start),
	}
	if report.Solved {
		out.Assignment = make(map[types.AgentID]types.Value, len(report.Assignment))
		for _, vv := range report.Assignment {
			out.Assignment[vv.Agent] = vv.Value
		}
	}

	s.logger.Info("solve finished",
		zap.String("run_id", runID),
		zap.Bool("solved", out.Solved),
		zap.Duration("elapsed", out.Elapsed))
	logging.Solver("run %s: finished, solved=%v elapsed=%v", runID, out.Solved, out.Elapsed)
	return out, nil
}

// stopAll signals every agent and waits for all run goroutines to exit.
func stopAll(agents map[types.AgentID]*agent.Agent) {
	g := new(errgroup.Group)
	for _, ag := range agents {
		ag := ag
		ag.Stop()
		g.Go(func() error {
			<-ag.Exited()
			return nil
		})
	}
	_ = g.Wait()
}

// Verify re-checks an assignment under every agent's own consistency
// predicate. A true result means the assignment satisfies every agent.
func Verify(def *problem.Definition, assignment map[types.AgentID]types.Value) (bool, error) {
	adapter, err := problem.NewAdapter(def)
	if err != nil {
		return false, err
	}

	var view types.View
	for id, v := range assignment {
		view = view.Upsert(id, v)
	}
	for _, id := range def.Agents() {
		if !adapter.IsConsistent(id, view) {
			return false, nil
		}
	}
	return true, nil
}
