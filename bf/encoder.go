package bf

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/crillab/incsat/ipasir"
	_ "github.com/crillab/incsat/solver" // Default engine
)

// An Encoder translates formulas to clauses and streams them into an
// incremental session. A named variable keeps the same index for the whole
// life of the encoder, so formulas can be asserted between two solves.
type Encoder struct {
	s    *ipasir.Session
	vars *vars
}

// NewEncoder returns an encoder feeding s. Variables already known to s are left alone.
func NewEncoder(s *ipasir.Session) (*Encoder, error) {
	offset, err := s.VariableCount()
	if err != nil {
		return nil, err
	}
	return &Encoder{s: s, vars: newVars(offset)}, nil
}

// Assert adds f as a permanent constraint.
func (e *Encoder) Assert(f Formula) error {
	for _, clause := range e.vars.clauses(f.nnf()) {
		for _, lit := range clause {
			if err := e.s.AddLiteral(lit); err != nil {
				return err
			}
		}
		if err := e.s.AddLiteral(0); err != nil {
			return err
		}
	}
	return nil
}

// Lit returns the DIMACS index of the named variable, creating it if needed.
func (e *Encoder) Lit(name string) int {
	return e.vars.indexOf(variable{name: name})
}

// assumption returns the DIMACS literal of f, which must be a possibly negated variable.
func (e *Encoder) assumption(f Formula) (int, error) {
	l, ok := f.nnf().(lit)
	if !ok {
		return 0, errors.Errorf("cannot assume %s, only variables and their negations can", f)
	}
	return e.vars.litValue(l), nil
}

// Solve solves the asserted formulas, the given assumptions holding for this call only.
// Assumptions are variables or negations of variables.
func (e *Encoder) Solve(assumptions ...Formula) (ipasir.Result, error) {
	for _, f := range assumptions {
		a, err := e.assumption(f)
		if err != nil {
			return ipasir.Interrupted, err
		}
		if err := e.s.Assume(a); err != nil {
			return ipasir.Interrupted, err
		}
	}
	return e.s.Solve()
}

// Model returns the binding of each named variable in the model found by the last call to Solve.
func (e *Encoder) Model() (map[string]bool, error) {
	model := make(map[string]bool, len(e.vars.named))
	for name, idx := range e.vars.named {
		val, err := e.s.Value(idx)
		if err != nil {
			return nil, err
		}
		model[name] = val > 0
	}
	return model, nil
}

// Failed returns the sorted names of the variables of the assumptions that made the last call to Solve unsatisfiable.
func (e *Encoder) Failed() ([]string, error) {
	var names []string
	for name, idx := range e.vars.named {
		failed, err := e.s.AssumptionFailed(idx)
		if err != nil {
			return nil, err
		}
		if failed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Solve solves the given formula with a fresh session using the default engine.
// It returns whether f is satisfiable and, if it is, a model associating each variable name with its binding.
func Solve(f Formula) (sat bool, model map[string]bool, err error) {
	s, err := ipasir.New(ipasir.Config{})
	if err != nil {
		return false, nil, err
	}
	defer func() { _ = s.Release() }()
	enc, err := NewEncoder(s)
	if err != nil {
		return false, nil, err
	}
	if err := enc.Assert(f); err != nil {
		return false, nil, err
	}
	res, err := enc.Solve()
	if err != nil || res != ipasir.Satisfiable {
		return false, nil, err
	}
	model, err = enc.Model()
	return err == nil, model, err
}
