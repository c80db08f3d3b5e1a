package bf

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/crillab/incsat/dimacs"
)

// vars associates variables with DIMACS indices.
type vars struct {
	next  int              // Last index given
	index map[variable]int // All vars, including dummy ones
	named map[string]int   // Only the vars named by the user
}

func newVars(offset int) *vars {
	return &vars{
		next:  offset,
		index: make(map[variable]int),
		named: make(map[string]int),
	}
}

func (vs *vars) indexOf(v variable) int {
	idx, ok := vs.index[v]
	if !ok {
		vs.next++
		idx = vs.next
		vs.index[v] = idx
		if !v.dummy {
			vs.named[v.name] = idx
		}
	}
	return idx
}

func (vs *vars) litValue(l lit) int {
	if l.signed {
		return -vs.indexOf(l.v)
	}
	return vs.indexOf(l.v)
}

// fresh creates an anonymous variable.
func (vs *vars) fresh() int {
	vs.next++
	return vs.next
}

// clauses returns a CNF equisatisfiable with f, which must be in NNF.
// A disjunction containing conjunctions gets one fresh variable per conjunction.
func (vs *vars) clauses(f Formula) [][]int {
	switch f := f.(type) {
	case lit:
		return [][]int{{vs.litValue(f)}}
	case and:
		var res [][]int
		for _, sub := range f {
			res = append(res, vs.clauses(sub)...)
		}
		return res
	case or:
		var (
			res    [][]int
			clause []int
		)
		for _, sub := range f {
			switch sub := sub.(type) {
			case lit:
				clause = append(clause, vs.litValue(sub))
			case and:
				d := vs.fresh()
				clause = append(clause, d)
				for _, c := range vs.clauses(sub) {
					res = append(res, append(c, -d))
				}
			default:
				panic(fmt.Sprintf("unexpected %T in a disjunction", sub))
			}
		}
		return append(res, clause)
	case trueConst:
		return nil
	case falseConst:
		return [][]int{{}}
	default:
		panic(fmt.Sprintf("invalid NNF formula %T", f))
	}
}

// Dimacs writes the DIMACS CNF version of the formula on w.
// The index of each named variable is given in a "c name=index" comment
// before the problem line.
func Dimacs(f Formula, w io.Writer) error {
	vs := newVars(0)
	clauses := vs.clauses(f.nnf())
	names := make([]string, 0, len(vs.named))
	for name := range vs.named {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "c %s=%d\n", name, vs.named[name]); err != nil {
			return errors.Wrap(err, "could not write DIMACS output")
		}
	}
	return dimacs.Write(w, vs.next, clauses)
}
