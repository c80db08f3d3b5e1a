package solver

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crillab/incsat/ipasir"
)

// EngineName is the name the solver is registered under in package ipasir.
const EngineName = "gophersat"

const signature = "gophersat-incremental-1.4"

// MaxVar is the highest variable the solver accepts. Each variable owns a slot
// in about ten dense per-variable arrays, which bounds it well below the
// highest variable a session can be configured for.
const MaxVar = 1<<24 - 1

func init() {
	ipasir.Register(EngineName, Open)
}

// Open builds an ipasir.Engine backed by a new Solver.
func Open(options string) (ipasir.Engine, error) {
	opts, err := ParseOptions(options)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger().WithField("engine", EngineName)
	}
	return &engine{s: New(opts)}, nil
}

// engine adapts a Solver to ipasir.Engine.
type engine struct {
	s    *Solver
	lits []Lit // Buffer for clauses and assumptions
	hint int   // Highest variable count announced with SetVariableCount
}

func (e *engine) Signature() string { return signature }

func (e *engine) toLits(ints []int) ([]Lit, error) {
	e.lits = e.lits[:0]
	for _, i := range ints {
		if i > MaxVar || i < -MaxVar {
			return nil, errors.Wrapf(ipasir.ErrUnsupported, "literal %d exceeds max variable %d", i, MaxVar)
		}
		e.lits = append(e.lits, IntToLit(i))
	}
	return e.lits, nil
}

func (e *engine) AddClause(lits []int) error {
	clause, err := e.toLits(lits)
	if err != nil {
		return err
	}
	e.s.AddClause(clause)
	return nil
}

func (e *engine) Solve(assumptions []int, conflictBudget int64) (ipasir.Result, error) {
	lits, err := e.toLits(assumptions)
	if err != nil {
		return ipasir.Interrupted, err
	}
	switch e.s.Solve(lits, int(conflictBudget)) {
	case Sat:
		return ipasir.Satisfiable, nil
	case Unsat:
		return ipasir.Unsatisfiable, nil
	default:
		return ipasir.Interrupted, nil
	}
}

func (e *engine) Value(v int) int {
	if v > MaxVar {
		return 0
	}
	return e.s.Value(IntToVar(v))
}

func (e *engine) Failed(v int) bool {
	return v <= MaxVar && e.s.Failed(IntToVar(v))
}

func (e *engine) SetTerminate(fn func() bool) { e.s.SetTerminate(fn) }

func (e *engine) SetLearn(maxLength int, fn func([]int)) error {
	e.s.SetLearn(maxLength, fn)
	return nil
}

func (e *engine) Simplify() (bool, error) { return e.s.Simplify(), nil }

// SetVariableCount only records n: variables are created when a clause or an
// assumption first mentions them.
func (e *engine) SetVariableCount(n int) { e.hint = max(e.hint, n) }

func (e *engine) VariableCount() int { return max(e.hint, e.s.NbVars()) }

func (e *engine) Release() { e.s = nil }
