package ipasir

import "fmt"

// State is the lifecycle state of a Session.
type State byte

const (
	// StateInput means the problem may have changed since the last verdict.
	StateInput = State(iota)
	// StateSat means the last call to Solve found a model.
	StateSat
	// StateUnsat means the last call to Solve proved the problem unsatisfiable under its assumptions.
	StateUnsat
)

func (st State) String() string {
	switch st {
	case StateInput:
		return "INPUT"
	case StateSat:
		return "SAT"
	case StateUnsat:
		return "UNSAT"
	default:
		return fmt.Sprintf("State(%d)", byte(st))
	}
}

// Result is the verdict of a solve call.
// Its values follow the exit codes used by SAT competitions.
type Result int

const (
	// Interrupted means the search stopped before a verdict was reached.
	Interrupted Result = 0
	// Satisfiable means a model was found.
	Satisfiable Result = 10
	// Unsatisfiable means no model exists under the given assumptions.
	Unsatisfiable Result = 20
)

func (r Result) String() string {
	switch r {
	case Interrupted:
		return "UNKNOWN"
	case Satisfiable:
		return "SATISFIABLE"
	case Unsatisfiable:
		return "UNSATISFIABLE"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

func (r Result) valid() bool {
	return r == Interrupted || r == Satisfiable || r == Unsatisfiable
}

// Simplification is the outcome of Session.Simplify.
type Simplification int

const (
	// EmptyClauseDetected means top-level propagation derived the empty clause.
	EmptyClauseDetected Simplification = 0
	// SimplifyOK means no contradiction was found.
	SimplifyOK Simplification = 1
)

func (sp Simplification) String() string {
	if sp == SimplifyOK {
		return "OK"
	}
	return "EMPTY-CLAUSE"
}
