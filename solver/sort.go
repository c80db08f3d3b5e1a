package solver

import "sort"

// sortLiterals sorts the literals by decreasing decision level,
// i.e. abs(model[lits[i]]) >= abs(model[lits[i+1]]).
func sortLiterals(lits []Lit, model Model) {
	sort.SliceStable(lits, func(i, j int) bool {
		return abs(model[lits[i].Var()]) > abs(model[lits[j].Var()])
	})
}

// normalize sorts lits, removes duplicates and reports whether lits contains both a literal and its negation.
// It works in place and returns the resulting slice.
func normalize(lits []Lit) (res []Lit, tautology bool) {
	sort.Slice(lits, func(i, j int) bool { return lits[i] < lits[j] })
	res = lits[:0]
	for _, lit := range lits {
		if len(res) > 0 {
			last := res[len(res)-1]
			if last == lit {
				continue
			}
			if last == lit.Negation() {
				return nil, true
			}
		}
		res = append(res, lit)
	}
	return res, false
}
