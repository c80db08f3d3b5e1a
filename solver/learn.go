package solver

// analyze builds the first-UIP clause learned from the conflict clause confl.
// It returns the lits of the clause, the asserting literal first and the literal
// with the highest remaining level second, the level to backtrack to and the
// clause's LBD. The returned slice is only valid until the next call.
func (s *Solver) analyze(confl *Clause) (lits []Lit, btLevel decLevel, lbd int) {
	lvl := s.level()
	lits = append(s.learnedBuf[:0], noLit) // Make room for asserting literal
	nbLvl := 0                              // Nb of lits from current level still to deal with
	p := noLit
	ptr := len(s.trail) - 1
	for {
		s.clauseBumpActivity(confl)
		for _, q := range confl.lits {
			v := q.Var()
			if p != noLit && v == p.Var() {
				continue
			}
			if s.seen[v] || abs(s.model[v]) <= 1 {
				continue
			}
			s.seen[v] = true
			s.varBumpActivity(v)
			if abs(s.model[v]) >= lvl {
				nbLvl++
			} else {
				lits = append(lits, q)
			}
		}
		for !s.seen[s.trail[ptr].Var()] { // Look for the last lit from lvl involved in the conflict
			ptr--
		}
		p = s.trail[ptr]
		ptr--
		s.seen[p.Var()] = false
		nbLvl--
		if nbLvl <= 0 {
			break
		}
		confl = s.reason[p.Var()]
	}
	lits[0] = p.Negation()
	s.toClear = append(s.toClear[:0], lits[1:]...)
	lits = s.minimizeLearned(lits)
	for _, l := range s.toClear {
		s.seen[l.Var()] = false
	}
	s.learnedBuf = lits
	if len(lits) == 1 {
		return lits, 1, 1
	}
	sortLiterals(lits[1:], s.model)
	return lits, abs(s.model[lits[1].Var()]), computeLbd(lits, s.model)
}

// minimizeLearned removes the lits implied by other lits of the learned clause.
// The seen flags must be set for all lits of the clause but the first one.
func (s *Solver) minimizeLearned(learned []Lit) []Lit {
	sz := 1
	for i := 1; i < len(learned); i++ {
		if !s.redundant(learned[i]) {
			learned[sz] = learned[i]
			sz++
		}
	}
	return learned[:sz]
}

// redundant is true iff lit's reason only contains lits already in the clause or bound at top level.
func (s *Solver) redundant(lit Lit) bool {
	v := lit.Var()
	reason := s.reason[v]
	if reason == nil {
		return false
	}
	for _, q := range reason.lits {
		if v2 := q.Var(); v2 != v && !s.seen[v2] && abs(s.model[v2]) > 1 {
			return false
		}
	}
	return true
}

// analyzeFinal computes the set of assumptions that made the assumption p false.
// Failed variables are flagged in s.failed.
func (s *Solver) analyzeFinal(p Lit) {
	v := p.Var()
	s.failed[v] = true
	if s.level() == 1 || abs(s.model[v]) <= 1 {
		return
	}
	s.seen[v] = true
	for i := len(s.trail) - 1; i >= s.trailLim[0]; i-- {
		x := s.trail[i].Var()
		if !s.seen[x] {
			continue
		}
		if reason := s.reason[x]; reason == nil {
			s.failed[x] = true // Decisions at these levels are all assumptions.
		} else {
			for _, q := range reason.lits {
				if v2 := q.Var(); v2 != x && abs(s.model[v2]) > 1 {
					s.seen[v2] = true
				}
			}
		}
		s.seen[x] = false
	}
}

// notifyLearned gives a learned clause to the learn callback, if any.
func (s *Solver) notifyLearned(lits []Lit) {
	if s.learn == nil || len(lits) > s.maxLearn {
		return
	}
	s.learnInts = s.learnInts[:0]
	for _, l := range lits {
		s.learnInts = append(s.learnInts, l.Int())
	}
	s.learn(s.learnInts)
}
