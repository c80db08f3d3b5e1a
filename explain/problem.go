// Package explain provides facilities to check and understand UNSAT instances.
package explain

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/crillab/incsat/dimacs"
	"github.com/crillab/incsat/ipasir"
	_ "github.com/crillab/incsat/solver" // Default engine
)

// ErrSatisfiable is returned when asked to explain a problem that has a model.
var ErrSatisfiable = errors.New("problem is satisfiable")

// Options tune how problems are solved while being explained.
type Options struct {
	// Config is used to open the sessions the problem is solved with.
	Config ipasir.Config
}

// A Problem is a conjunction of Clauses.
// This package keeps its own representation, and its own unit propagation,
// so that checking a proof does not rely on the engine that produced it.
type Problem struct {
	Clauses [][]int
	NbVars  int
	// Indices are the positions, in the problem they were extracted from, of
	// the clauses of a subset. They are nil for a parsed problem.
	Indices []int
	Options Options
}

// ParseCNF parses a CNF and returns the associated problem.
func ParseCNF(r io.Reader) (*Problem, error) {
	pb, err := dimacs.ReadProblem(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse problem")
	}
	return &Problem{Clauses: pb.Clauses, NbVars: pb.NbVars}, nil
}

// CNF returns a representation of the problem using the DIMACS syntax.
func (pb *Problem) CNF() string {
	var sb strings.Builder
	_ = dimacs.Write(&sb, pb.NbVars, pb.Clauses)
	return strings.TrimSuffix(sb.String(), "\n")
}

// subset returns the problem made of the clauses at the given indices.
func (pb *Problem) subset(indices []int) *Problem {
	return &Problem{
		Clauses: lo.Map(indices, func(i int, _ int) []int { return pb.Clauses[i] }),
		NbVars:  pb.NbVars,
		Indices: indices,
		Options: pb.Options,
	}
}

func (pb *Problem) log() logrus.FieldLogger {
	if pb.Options.Config.Logger != nil {
		return pb.Options.Config.Logger
	}
	return logrus.StandardLogger()
}

// load opens a session and adds each clause of pb to it. When guarded is
// true, clause i is extended with the negation of its selector, variable
// NbVars+i+1, so that it only holds when its selector is assumed.
func (pb *Problem) load(guarded bool) (*ipasir.Session, error) {
	s, err := ipasir.New(pb.Options.Config)
	if err != nil {
		return nil, err
	}
	nbVars := pb.NbVars
	if guarded {
		nbVars += len(pb.Clauses)
	}
	err = s.SetVariableCount(nbVars)
	for i := 0; err == nil && i < len(pb.Clauses); i++ {
		for _, lit := range pb.Clauses[i] {
			if err = s.AddLiteral(lit); err != nil {
				break
			}
		}
		if err == nil && guarded {
			err = s.AddLiteral(-pb.selector(i))
		}
		if err == nil {
			err = s.AddLiteral(0)
		}
	}
	if err != nil {
		_ = s.Release()
		return nil, errors.Wrap(err, "could not load problem")
	}
	return s, nil
}

func (pb *Problem) selector(i int) int {
	return pb.NbVars + i + 1
}
