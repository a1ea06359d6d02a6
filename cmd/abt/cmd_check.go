package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"abt/internal/problem"
	"abt/internal/solver"
	"abt/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check [problem.yaml]",
	Short: "Validate a problem file without solving",
	Long: `Parses the problem definition, validates domains and constraints, and
analyzes any Mangle rules block. With --assignment a candidate solution
is verified against every agent's consistency predicate.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var checkAssignment []int

func init() {
	checkCmd.Flags().IntSliceVar(&checkAssignment, "assignment", nil,
		"candidate values in agent-id order, e.g. --assignment 1,2,1")
}

func runCheck(cmd *cobra.Command, args []string) error {
	def, err := problem.Load(args[0])
	if err != nil {
		return err
	}

	if def.Rules != "" {
		if err := problem.CheckRules(def.Rules); err != nil {
			return fmt.Errorf("rules block: %w", err)
		}
	}

	ids := def.Agents()
	fmt.Printf("problem %q: %d agents, %d constraints, rules=%v\n",
		def.Name, len(ids), len(def.Constraints), def.Rules != "")

	if len(checkAssignment) == 0 {
		return nil
	}
	if len(checkAssignment) != len(ids) {
		return fmt.Errorf("assignment has %d values, problem has %d agents", len(checkAssignment), len(ids))
	}

	assignment := make(map[types.AgentID]types.Value, len(ids))
	for i, id := range ids {
		assignment[id] = types.Value(checkAssignment[i])
	}
	ok, err := solver.Verify(def, assignment)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("assignment violates at least one agent's constraints")
	}
	fmt.Println("assignment is consistent for every agent")
	return nil
}
