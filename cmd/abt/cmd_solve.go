package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"abt/internal/config"
	"abt/internal/problem"
	"abt/internal/solver"
	"abt/internal/types"
)

var (
	solveTimeout time.Duration
	watchMode    bool
)

var solveCmd = &cobra.Command{
	Use:   "solve [problem.yaml]",
	Short: "Solve a constraint problem",
	Long: `Starts one agent per declared variable, delivers the peer roster, and
runs the asynchronous backtracking protocol until agent 1 reports a
globally consistent assignment or some agent proves unsatisfiability.

With --watch the problem file is re-solved on every change.`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().DurationVar(&solveTimeout, "timeout", 0, "override solve timeout (0 = config value)")
	solveCmd.Flags().BoolVar(&watchMode, "watch", false, "re-solve whenever the problem file changes")
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if solveTimeout > 0 {
		cfg.Solver.SolveTimeout = solveTimeout
	}

	s := solver.New(cfg.Solver, logger)
	path := args[0]

	if watchMode {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		err := s.Watch(ctx, path, func(out *solver.Outcome, err error) {
			printOutcome(out, err)
		})
		if err == context.Canceled {
			return nil
		}
		return err
	}

	def, err := problem.Load(path)
	if err != nil {
		return err
	}

	out, err := s.Solve(context.Background(), def)
	printOutcome(out, err)
	if err != nil {
		return err
	}
	if !out.Solved {
		os.Exit(2)
	}
	return nil
}

func printOutcome(out *solver.Outcome, err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "solve failed:", err)
		return
	}
	if !out.Solved {
		fmt.Printf("unsatisfiable (proven by agent %d, %v)\n", out.Origin, out.Elapsed.Round(time.Millisecond))
		return
	}

	ids := make([]int, 0, len(out.Assignment))
	for id := range out.Assignment {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	fmt.Printf("solved in %v:\n", out.Elapsed.Round(time.Millisecond))
	for _, id := range ids {
		fmt.Printf("  agent %d = %d\n", id, out.Assignment[types.AgentID(id)])
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(workspace, ".abt", "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded",
		zap.Duration("idle_timeout", cfg.Solver.IdleTimeout),
		zap.Duration("solve_timeout", cfg.Solver.SolveTimeout))
	return cfg, nil
}
