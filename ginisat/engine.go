// Package ginisat registers the gini SAT solver as the "gini" engine of package ipasir.
//
// Gini has no conflict budget and does not expose its learned clauses: a
// bounded solve or a learn callback is reported as ipasir.ErrUnsupported.
// Termination requests are polled from the calling goroutine while gini
// searches in its own.
package ginisat

import (
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crillab/incsat/ipasir"
)

// EngineName is the name the engine is registered under.
const EngineName = "gini"

const signature = "gini-1.0.4"

// Options tune the engine.
type Options struct {
	Poll     time.Duration `mapstructure:"poll"`     // Delay between two calls to the terminate predicate
	Capacity int           `mapstructure:"capacity"` // Expected number of variables
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Poll: 10 * time.Millisecond}
}

// ParseOptions parses an option string such as "poll=1ms,capacity=1000".
func ParseOptions(str string) (Options, error) {
	opts := DefaultOptions()
	if err := ipasir.DecodeOptions(str, &opts); err != nil {
		return opts, err
	}
	if opts.Poll <= 0 {
		return opts, errors.Errorf("invalid poll delay %v", opts.Poll)
	}
	if opts.Capacity < 0 {
		return opts, errors.Errorf("invalid capacity %d", opts.Capacity)
	}
	return opts, nil
}

func init() {
	ipasir.Register(EngineName, Open)
}

// Open builds an ipasir.Engine backed by a new gini solver.
func Open(options string) (ipasir.Engine, error) {
	opts, err := ParseOptions(options)
	if err != nil {
		return nil, err
	}
	g := gini.New()
	if opts.Capacity > 0 {
		g = gini.NewV(opts.Capacity)
	}
	return &engine{
		g:    g,
		opts: opts,
		log:  logrus.StandardLogger().WithField("engine", EngineName),
	}, nil
}

type engine struct {
	g         *gini.Gini
	opts      Options
	log       logrus.FieldLogger
	terminate func() bool
	unsat     bool           // The clauses alone are unsatisfiable.
	last      ipasir.Result  // Verdict of the last solve.
	failed    map[z.Var]bool // Failed assumptions of the last Unsatisfiable verdict.
	why       []z.Lit
	hint      int // Highest variable count announced with SetVariableCount
}

func (e *engine) Signature() string { return signature }

func (e *engine) AddClause(lits []int) error {
	if len(lits) == 0 {
		e.unsat = true
	}
	e.last = ipasir.Interrupted
	for _, lit := range lits {
		e.g.Add(z.Dimacs2Lit(lit))
	}
	e.g.Add(z.LitNull)
	return nil
}

func (e *engine) Solve(assumptions []int, conflictBudget int64) (ipasir.Result, error) {
	if conflictBudget > 0 {
		return ipasir.Interrupted, errors.Wrap(ipasir.ErrUnsupported, "gini has no conflict budget")
	}
	e.failed = nil
	if e.unsat {
		e.last = ipasir.Unsatisfiable
		return e.last, nil
	}
	if e.terminate != nil && e.terminate() {
		e.last = ipasir.Interrupted
		return e.last, nil
	}
	for _, a := range assumptions {
		for v := max(a, -a); int(e.g.MaxVar()) < v; {
			e.g.Lit()
		}
		e.g.Assume(z.Dimacs2Lit(a))
	}
	var res int
	if e.terminate == nil {
		res = e.g.Solve()
	} else {
		res = e.pollSolve()
	}
	switch res {
	case 1:
		e.last = ipasir.Satisfiable
	case -1:
		e.last = ipasir.Unsatisfiable
		e.why = e.g.Why(e.why[:0])
		e.failed = make(map[z.Var]bool, len(e.why))
		for _, m := range e.why {
			e.failed[m.Var()] = true
		}
		if len(e.why) == 0 {
			e.unsat = true
		}
	default:
		e.last = ipasir.Interrupted
	}
	return e.last, nil
}

// pollSolve runs gini in the background and polls the terminate predicate until a verdict is reached.
func (e *engine) pollSolve() int {
	handle := e.g.GoSolve()
	ticker := time.NewTicker(e.opts.Poll)
	defer ticker.Stop()
	for range ticker.C {
		if res, done := handle.Test(); done {
			return res
		}
		if e.terminate() {
			e.log.Debug("search stopped on request")
			return handle.Stop()
		}
	}
	return 0
}

func (e *engine) Value(v int) int {
	if e.last != ipasir.Satisfiable || v > int(e.g.MaxVar()) {
		return 0
	}
	if e.g.Value(z.Var(v).Pos()) {
		return v
	}
	return -v
}

func (e *engine) Failed(v int) bool {
	return e.failed[z.Var(v)]
}

func (e *engine) SetTerminate(fn func() bool) { e.terminate = fn }

func (e *engine) SetLearn(maxLength int, fn func([]int)) error {
	if fn != nil {
		return errors.Wrap(ipasir.ErrUnsupported, "gini does not expose learned clauses")
	}
	return nil
}

// Simplify checks the clauses are consistent under unit propagation.
// It is a no-op right after an Unsatisfiable verdict, whose conflict gini only resolves on the next solve,
// unless clauses were added since.
func (e *engine) Simplify() (bool, error) {
	if e.unsat {
		return false, nil
	}
	if e.last == ipasir.Unsatisfiable {
		return true, nil
	}
	res, _ := e.g.Test(nil)
	if e.g.Untest() == -1 || res == -1 {
		e.unsat = true
	}
	return !e.unsat, nil
}

// SetVariableCount only records n: gini grows its variables as clauses mention them.
func (e *engine) SetVariableCount(n int) { e.hint = max(e.hint, n) }

func (e *engine) VariableCount() int { return max(e.hint, int(e.g.MaxVar())) }

func (e *engine) Release() { e.g = nil }
