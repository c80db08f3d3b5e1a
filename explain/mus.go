package explain

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/crillab/incsat/ipasir"
)

// A guarded session holds every clause of a problem, each one relaxed unless its selector is assumed.
// Subsets of the problem are solved by assuming the matching selectors, so that
// the same session, and what it learned, is kept across calls.
type guarded struct {
	pb  *Problem
	s   *ipasir.Session
	log logrus.FieldLogger

	nbCalls int
}

func (pb *Problem) guard() (*guarded, error) {
	s, err := pb.load(true)
	if err != nil {
		return nil, err
	}
	return &guarded{pb: pb, s: s, log: pb.log()}, nil
}

func (g *guarded) release() {
	_ = g.s.Release()
}

// unsat tells whether the clauses at the given indices are unsatisfiable together.
// When they are, it also returns the indices of the clauses whose selectors
// were needed to prove it.
func (g *guarded) unsat(indices []int) (bool, []int, error) {
	g.nbCalls++
	for _, i := range indices {
		if err := g.s.Assume(g.pb.selector(i)); err != nil {
			return false, nil, err
		}
	}
	res, err := g.s.Solve()
	switch {
	case err != nil:
		return false, nil, err
	case res == ipasir.Satisfiable:
		return false, nil, nil
	case res != ipasir.Unsatisfiable:
		return false, nil, errors.New("search was interrupted")
	}
	var core []int
	for _, i := range indices {
		failed, err := g.s.AssumptionFailed(g.pb.selector(i))
		if err != nil {
			return false, nil, err
		}
		if failed {
			core = append(core, i)
		}
	}
	return true, core, nil
}

// core returns the indices of an unsatisfiable subset of the whole problem.
func (g *guarded) core() ([]int, error) {
	unsat, core, err := g.unsat(lo.Range(len(g.pb.Clauses)))
	if err != nil {
		return nil, errors.Wrap(err, "could not solve problem")
	}
	if !unsat {
		return nil, ErrSatisfiable
	}
	return core, nil
}

// MUSDeletion returns a Minimal Unsatisfiable Subset for the problem using the deletion method.
// A MUS is an unsatisfiable subset such that, if any of its clause is removed,
// the problem becomes satisfiable.
// A MUS can be useful to understand why a problem is UNSAT, but MUSes are expensive to compute since
// a SAT solver must be called several times on parts of the original problem to find them.
// Each clause is removed in turn and put back only if the problem became satisfiable.
// When it stays unsatisfiable, the clauses left out of the new core are removed too,
// so there are at most n calls to the solver, where n is the number of clauses in the problem.
func (pb *Problem) MUSDeletion() (mus *Problem, err error) {
	g, err := pb.guard()
	if err != nil {
		return nil, err
	}
	defer g.release()
	candidates, err := g.core()
	if err != nil {
		return nil, err
	}
	var kept []int // Clauses known to be part of the MUS
	for len(candidates) > 0 {
		i, rest := candidates[0], candidates[1:]
		unsat, core, err := g.unsat(append(append([]int(nil), kept...), rest...))
		if err != nil {
			return nil, errors.Wrap(err, "could not extract MUS")
		}
		if !unsat {
			kept = append(kept, i)
			candidates = rest
			g.log.WithFields(logrus.Fields{"clause": i, "candidates": len(rest)}).Debug("clause kept")
			continue
		}
		candidates = lo.Intersect(core, rest)
		g.log.WithFields(logrus.Fields{"clause": i, "candidates": len(candidates)}).Debug("clause removed")
	}
	g.log.WithFields(logrus.Fields{"size": len(kept), "calls": g.nbCalls}).Debug("MUS extracted")
	return pb.subset(sorted(kept)), nil
}

// MUSInsertion returns a Minimal Unsatisfiable Subset for the problem using the insertion method.
// A MUS is an unsatisfiable subset such that, if any of its clause is removed,
// the problem becomes satisfiable.
// Clauses are added one by one to the part of the MUS found so far, until the
// problem becomes unsatisfiable: the last added clause is part of the MUS.
// The insertion algorithm is efficient when the MUS is small. However, if called
// on a formula that is already a MUS, it will perform n*(n-1)/2 calls to SAT, where
// n is the number of clauses of the problem.
func (pb *Problem) MUSInsertion() (mus *Problem, err error) {
	g, err := pb.guard()
	if err != nil {
		return nil, err
	}
	defer g.release()
	clauses, err := g.core()
	if err != nil {
		return nil, err
	}
	var kept []int
	for {
		unsat, _, err := g.unsat(kept)
		if err != nil {
			return nil, errors.Wrap(err, "could not extract MUS")
		}
		if unsat { // Found the MUS
			g.log.WithFields(logrus.Fields{"size": len(kept), "calls": g.nbCalls}).Debug("MUS extracted")
			return pb.subset(sorted(kept)), nil
		}
		// Add clauses until the problem becomes UNSAT
		idx := 0
		for !unsat {
			if idx == len(clauses) {
				return nil, errors.New("could not extract MUS: subset became satisfiable")
			}
			idx++
			unsat, _, err = g.unsat(append(append([]int(nil), kept...), clauses[:idx]...))
			if err != nil {
				return nil, errors.Wrap(err, "could not extract MUS")
			}
		}
		i := clauses[idx-1]
		kept = append(kept, i)    // Last clause is part of the MUS
		clauses = clauses[:idx-1] // Remaining clauses are not part of the MUS
		g.log.WithFields(logrus.Fields{"clause": i, "candidates": len(clauses)}).Debug("clause kept")
	}
}

// MUS returns a Minimal Unsatisfiable Subset for the problem.
// A MUS is an unsatisfiable subset such that, if any of its clause is removed,
// the problem becomes satisfiable.
// A MUS can be useful to understand why a problem is UNSAT, but MUSes are expensive to compute since
// a SAT solver must be called several times on parts of the original problem to find them.
// The exact algorithm used to compute the MUS is not guaranteed. If you want to use a given algorithm,
// use the relevant functions.
func (pb *Problem) MUS() (mus *Problem, err error) {
	return pb.MUSDeletion()
}

func sorted(indices []int) []int {
	res := slices.Clone(indices)
	slices.Sort(res)
	return res
}
