package explain

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/crillab/incsat/ipasir"
)

// A checker tells whether clauses are consequences of a problem through unit propagation.
// Certified clauses are appended to the problem as they are checked.
type checker struct {
	clauses [][]int // Clauses of the problem, then certified ones
	nbOrig  int     // Number of clauses from the problem
	units   []int   // For each var, 0 if the var is unbound, 1 if true, -1 if false
	tagged  []bool  // Clauses of the problem used by a propagation that ended with a conflict
}

func newChecker(pb *Problem) *checker {
	return &checker{
		clauses: append([][]int(nil), pb.Clauses...),
		nbOrig:  len(pb.Clauses),
		units:   make([]int, pb.NbVars),
		tagged:  make([]bool, len(pb.Clauses)),
	}
}

// rup is true iff falsifying every lit of clause lets unit propagation
// falsify a clause of the problem.
func (ck *checker) rup(clause []int) (bool, error) {
	for i := range ck.units {
		ck.units[i] = 0
	}
	for _, lit := range clause {
		v := lit
		if v < 0 {
			v = -v
		}
		if v == 0 || v > len(ck.units) {
			return false, errors.Errorf("invalid literal %d in clause %v", lit, clause)
		}
		val := -1
		if lit < 0 {
			val = 1
		}
		if ck.units[v-1] == -val { // Tautology
			return true, nil
		}
		ck.units[v-1] = val
	}
	return ck.propagate(), nil
}

// propagate is true iff unit propagation, starting from the current bindings, falsifies a clause.
// Original clauses that became unit or false on the way are tagged when it does.
func (ck *checker) propagate() bool {
	done := make([]bool, len(ck.clauses)) // Clauses that are already satisfied
	var used []int
	for modified := true; modified; {
		modified = false
		for i, clause := range ck.clauses {
			if done[i] {
				continue
			}
			unbound := 0
			var unit int // An unbound literal, if any
			sat := false
			for _, lit := range clause {
				v := lit
				if v < 0 {
					v = -v
				}
				binding := ck.units[v-1]
				if binding == 0 {
					if unbound > 0 && lit == unit { // Duplicate lit
						continue
					}
					unbound++
					if unbound > 1 {
						break
					}
					unit = lit
				} else if binding*lit == v {
					sat = true
					break
				}
			}
			switch {
			case sat:
				done[i] = true
			case unbound == 0:
				used = append(used, i)
				for _, j := range used {
					if j < ck.nbOrig {
						ck.tagged[j] = true
					}
				}
				return true
			case unbound == 1:
				if unit < 0 {
					ck.units[-unit-1] = -1
				} else {
					ck.units[unit-1] = 1
				}
				done[i] = true
				used = append(used, i)
				modified = true
			}
		}
	}
	return false
}

// add checks clause and, if it is a consequence, appends it to the clauses.
func (ck *checker) add(clause []int) (bool, error) {
	ok, err := ck.rup(clause)
	if err != nil || !ok {
		return false, err
	}
	ck.clauses = append(ck.clauses, clause)
	return true, nil
}

// Unsat reads a certificate from cert and returns true iff it proves the problem unsatisfiable.
// A certificate lists one clause per line, terminated by 0. Each clause must
// be implied by unit propagation on the problem and the clauses before it, and
// unit propagation must eventually falsify the problem. Lines that do not start
// with a literal, such as comments or deletions, are ignored.
func (pb *Problem) Unsat(cert io.Reader) (valid bool, err error) {
	ck := newChecker(pb)
	sc := bufio.NewScanner(cert)
	for lineNb := 1; sc.Scan(); lineNb++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		clause, err := parseClause(fields)
		if err != nil {
			return false, errors.Wrapf(err, "line %d", lineNb)
		}
		ok, err := ck.add(clause)
		if err != nil {
			return false, errors.Wrapf(err, "line %d", lineNb)
		}
		if !ok {
			pb.log().WithField("line", lineNb).Debug("certificate clause is not implied")
			return false, nil
		}
		if len(clause) == 0 {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, errors.Wrap(err, "could not read certificate")
	}
	return ck.rup(nil)
}

// parseClause parses the fields of a certificate line, up to the terminating 0.
func parseClause(fields []string) ([]int, error) {
	clause := make([]int, 0, len(fields)-1)
	for _, field := range fields {
		lit, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.Errorf("invalid literal %q", field)
		}
		if lit == 0 {
			return clause, nil
		}
		clause = append(clause, lit)
	}
	return nil, errors.New("clause is not terminated by 0")
}

// UnsatSubset returns an unsatisfiable subset of the problem.
// The subset is not guaranteed to be a MUS, meaning some clauses of the resulting
// problem might be removed while still keeping the unsatisfiability of the problem.
// However, this method is much more efficient than extracting a MUS, as it only calls
// the SAT solver once: the clauses it learns are checked by unit propagation,
// and the problem clauses needed to check them make the subset.
// The engine must support learn callbacks.
func (pb *Problem) UnsatSubset() (subset *Problem, err error) {
	s, err := pb.load(false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Release() }()
	var learned [][]int
	collect := ipasir.LearnerFunc(func(clause []int) {
		learned = append(learned, append([]int(nil), clause[:len(clause)-1]...))
	})
	if err := s.SetLearnCallback(pb.NbVars, collect); err != nil {
		return nil, errors.Wrap(err, "cannot collect learned clauses")
	}
	res, err := s.Solve()
	switch {
	case err != nil:
		return nil, errors.Wrap(err, "could not solve problem")
	case res == ipasir.Satisfiable:
		return nil, ErrSatisfiable
	case res != ipasir.Unsatisfiable:
		return nil, errors.New("search was interrupted")
	}
	ck := newChecker(pb)
	for _, clause := range learned {
		ok, err := ck.add(clause)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Errorf("learned clause %v is not implied by the problem", clause)
		}
	}
	if ok, err := ck.rup(nil); err != nil {
		return nil, err
	} else if !ok {
		return nil, errors.New("learned clauses do not refute the problem")
	}
	indices := lo.Filter(lo.Range(len(pb.Clauses)), func(i int, _ int) bool { return ck.tagged[i] })
	pb.log().WithFields(logrus.Fields{
		"learned": len(learned),
		"subset":  len(indices),
		"clauses": len(pb.Clauses),
	}).Debug("unsat subset extracted")
	return pb.subset(indices), nil
}
