package solver

import "sort"

const (
	incrNbMaxClauses  = 300  // By how much # of learned clauses is incremented at each reduction.
	incrPostponeNbMax = 1000 // By how much # of learned is increased when lots of good clauses are currently learned.
)

type watcher struct {
	other  Lit // Another lit from the clause
	clause *Clause
}

// watchClause watches c. Binary clauses go to their own lists; other
// clauses are watched on their first two literals.
// Lists are indexed by the negation of the watched literal, i.e. the literal whose binding wakes the clause up.
func (s *Solver) watchClause(c *Clause) {
	first, second := c.lits[0], c.lits[1]
	if c.Len() == 2 {
		s.wlistBin[first.Negation()] = append(s.wlistBin[first.Negation()], watcher{clause: c, other: second})
		s.wlistBin[second.Negation()] = append(s.wlistBin[second.Negation()], watcher{clause: c, other: first})
		return
	}
	s.wlist[first.Negation()] = append(s.wlist[first.Negation()], c)
	s.wlist[second.Negation()] = append(s.wlist[second.Negation()], c)
}

func (s *Solver) unwatchClause(c *Clause) {
	if c.Len() == 2 {
		for i := 0; i < 2; i++ {
			neg := c.lits[i].Negation()
			s.wlistBin[neg] = removeWatcher(s.wlistBin[neg], c)
		}
		return
	}
	for i := 0; i < 2; i++ {
		neg := c.lits[i].Negation()
		s.wlist[neg] = removeFrom(s.wlist[neg], c)
	}
}

// Removes the first occurrence of c from lst.
// The element *must* be present into lst.
func removeFrom(lst []*Clause, c *Clause) []*Clause {
	i := 0
	for lst[i] != c {
		i++
	}
	last := len(lst) - 1
	lst[i] = lst[last]
	lst[last] = nil
	return lst[:last]
}

func removeWatcher(lst []watcher, c *Clause) []watcher {
	i := 0
	for lst[i].clause != c {
		i++
	}
	last := len(lst) - 1
	lst[i] = lst[last]
	return lst[:last]
}

// propagate propagates all bindings not propagated yet and returns a conflict clause, or nil if no conflict arose.
func (s *Solver) propagate() *Clause {
	for s.qhead < len(s.trail) {
		lit := s.trail[s.qhead]
		s.qhead++
		for _, w := range s.wlistBin[lit] {
			switch s.litStatus(w.other) {
			case Indet:
				s.assign(w.other, w.clause)
			case Unsat:
				return w.clause
			}
		}
		if confl := s.propagateLong(lit); confl != nil {
			return confl
		}
	}
	return nil
}

// propagateLong visits the non-binary clauses where lit's negation is watched.
func (s *Solver) propagateLong(lit Lit) *Clause {
	falseLit := lit.Negation()
	ws := s.wlist[lit]
	j := 0
	for i := 0; i < len(ws); i++ {
		c := ws[i]
		if c.lits[0] == falseLit {
			c.lits[0], c.lits[1] = c.lits[1], c.lits[0]
		}
		first := c.lits[0]
		if s.litStatus(first) == Sat {
			ws[j] = c
			j++
			continue
		}
		moved := false
		for k := 2; k < len(c.lits); k++ {
			if s.litStatus(c.lits[k]) != Unsat {
				c.lits[1], c.lits[k] = c.lits[k], c.lits[1]
				neg := c.lits[1].Negation()
				s.wlist[neg] = append(s.wlist[neg], c)
				moved = true
				break
			}
		}
		if moved {
			continue
		}
		ws[j] = c
		j++
		if s.litStatus(first) == Unsat {
			j += copy(ws[j:], ws[i+1:])
			s.wlist[lit] = ws[:j]
			return c
		}
		s.assign(first, c)
	}
	s.wlist[lit] = ws[:j]
	return nil
}

// locked is true iff c is the reason of a current binding.
// Binary clauses are never removed, so only the first literal needs checking.
func (s *Solver) locked(c *Clause) bool {
	first := c.lits[0]
	return s.reason[first.Var()] == c && s.litStatus(first) == Sat
}

// Utilities for sorting learned clauses according to their LBD and activities, worst first.
type byUsefulness []*Clause

func (cs byUsefulness) Len() int { return len(cs) }

func (cs byUsefulness) Less(i, j int) bool {
	lbdI := cs[i].lbd()
	lbdJ := cs[j].lbd()
	// Sort by lbd, break ties by activity
	return lbdI > lbdJ || (lbdI == lbdJ && cs[i].activity < cs[j].activity)
}

func (cs byUsefulness) Swap(i, j int) { cs[i], cs[j] = cs[j], cs[i] }

// reduceLearned removes about half of the learned clauses, keeping the ones deemed useful.
func (s *Solver) reduceLearned() {
	sort.Sort(byUsefulness(s.learned))
	length := len(s.learned) / 2
	if length < len(s.learned) && s.learned[length].lbd() <= 3 { // Lots of good clauses, postpone reduction
		s.nbMax += incrPostponeNbMax
	}
	kept := s.learned[:0]
	for i, c := range s.learned {
		if i >= length || c.lbd() <= 2 || s.locked(c) {
			kept = append(kept, c)
			continue
		}
		s.Stats.NbDeleted++
		s.unwatchClause(c)
	}
	for i := len(kept); i < len(s.learned); i++ {
		s.learned[i] = nil
	}
	s.learned = kept
}

// reduceIfNeeded triggers a reduction of the learned clauses when enough conflicts happened since the last one.
func (s *Solver) reduceIfNeeded() {
	if s.Stats.NbConflicts >= s.idxReduce*s.nbMax {
		s.idxReduce = s.Stats.NbConflicts/s.nbMax + 1
		s.reduceLearned()
		s.nbMax += incrNbMaxClauses
	}
}

// removeSatisfied removes from cs every clause satisfied at top level and returns the remaining clauses.
// It must be called at top level once propagation is over.
func (s *Solver) removeSatisfied(cs []*Clause) []*Clause {
	kept := cs[:0]
	for _, c := range cs {
		if s.satisfied(c) {
			s.unwatchClause(c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(cs); i++ {
		cs[i] = nil
	}
	return kept
}

func (s *Solver) satisfied(c *Clause) bool {
	for _, lit := range c.lits {
		if s.litStatus(lit) == Sat {
			return true
		}
	}
	return false
}
