package problem

import (
	"fmt"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"abt/internal/logging"
	"abt/internal/types"
)

// baseProgram declares the predicates every rules problem shares. Assignment
// and constraint-graph facts are asserted per evaluation; user rules derive
// violation/1 facts on top.
const baseProgram = `
Decl assigned(A, V).
Decl conflict_pair(A, B).
Decl violation(A).
`

// defaultViolationRule flags any agent holding the same value as a
// conflicting peer. Problems can replace or extend it via their rules block.
const defaultViolationRule = `
violation(A) :- assigned(A, V), assigned(B, V), conflict_pair(A, B).
`

// RulesAdapter evaluates consistency with a Mangle datalog program instead of
// hard-coded binary constraints. Each consistency check runs the analyzed
// program against a fresh fact store holding the view's assignments and the
// constraint graph, then reads the derived violation facts.
type RulesAdapter struct {
	*BinaryAdapter // value ordering, nogood derivation, dependency graph

	program   *analysis.ProgramInfo
	preds     map[string]ast.PredicateSym
	edgeAtoms []ast.Atom
}

// NewRulesAdapter parses and analyzes the definition's rules once; evaluation
// state is rebuilt per call so the adapter itself stays stateless.
func NewRulesAdapter(def *Definition) (*RulesAdapter, error) {
	program, preds, err := analyzeRules(def.Rules)
	if err != nil {
		return nil, err
	}

	a := &RulesAdapter{
		BinaryAdapter: NewBinaryAdapter(def),
		program:       program,
		preds:         preds,
	}

	// The constraint graph is static for the run; build its atoms once, both
	// directions so rules need not care about edge orientation.
	conflictSym, ok := preds["conflict_pair"]
	if !ok {
		return nil, fmt.Errorf("rules program lost the conflict_pair declaration")
	}
	for _, edge := range def.Constraints {
		a.edgeAtoms = append(a.edgeAtoms,
			pairAtom(conflictSym, int64(edge[0]), int64(edge[1])),
			pairAtom(conflictSym, int64(edge[1]), int64(edge[0])),
		)
	}

	return a, nil
}

// CheckRules parses and analyzes a rules block without building an adapter.
// Used by `abt check` to validate problem files.
func CheckRules(rules string) error {
	_, _, err := analyzeRules(rules)
	return err
}

func analyzeRules(rules string) (*analysis.ProgramInfo, map[string]ast.PredicateSym, error) {
	src := baseProgram + defaultViolationRule + "\n" + rules
	unit, err := parse.Unit(strings.NewReader(src))
	if err != nil {
		return nil, nil, fmt.Errorf("parse rules: %w", err)
	}

	program, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("analyze rules: %w", err)
	}

	preds := make(map[string]ast.PredicateSym, len(program.Decls))
	for sym := range program.Decls {
		preds[sym.Symbol] = sym
	}
	return program, preds, nil
}

// IsConsistent evaluates the program against the view and reports whether a
// violation(id) fact was derived.
func (a *RulesAdapter) IsConsistent(id types.AgentID, view types.View) bool {
	if _, ok := view.Get(id); !ok {
		return false
	}

	store := factstore.NewSimpleInMemoryStore()
	assignedSym := a.preds["assigned"]
	for _, vv := range view {
		store.Add(pairAtom(assignedSym, int64(vv.Agent), int64(vv.Value)))
	}
	for _, atom := range a.edgeAtoms {
		store.Add(atom)
	}

	if _, err := mengine.EvalProgramWithStats(a.program, store); err != nil {
		// An evaluation failure means the rules are unusable for this view;
		// treat the view as inconsistent so the agent keeps searching.
		logging.AdapterError("rules evaluation failed: %v", err)
		return false
	}

	violated := false
	violationSym := a.preds["violation"]
	err := store.GetFacts(ast.NewQuery(violationSym), func(atom ast.Atom) error {
		if len(atom.Args) != 1 {
			return nil
		}
		if c, ok := atom.Args[0].(ast.Constant); ok && c.Type == ast.NumberType {
			if types.AgentID(c.NumValue) == id {
				violated = true
			}
		}
		return nil
	})
	if err != nil {
		logging.AdapterError("violation lookup failed: %v", err)
		return false
	}
	return !violated
}

// TryAdjust mirrors the binary adapter's domain scan but consults the rules
// program for consistency.
func (a *RulesAdapter) TryAdjust(id types.AgentID, view types.View, store *types.NogoodStore) (types.Value, bool) {
	for _, v := range a.def.Domains[id] {
		candidate := view.Upsert(id, v)
		if !a.IsConsistent(id, candidate) {
			continue
		}
		if store.Forbids(id, candidate) {
			continue
		}
		return v, true
	}
	return 0, false
}

func pairAtom(sym ast.PredicateSym, args ...int64) ast.Atom {
	terms := make([]ast.BaseTerm, len(args))
	for i, v := range args {
		terms[i] = ast.Number(v)
	}
	return ast.Atom{Predicate: sym, Args: terms}
}
