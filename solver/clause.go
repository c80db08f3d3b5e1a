package solver

// A Clause is a list of Lit, associated with possible data (for learned clauses).
// Non-binary clauses watch their first two literals.
type Clause struct {
	lits []Lit
	// leftmost bit: learned flag; other bits: LBD value (if learned).
	lbdValue uint32
	activity float32
}

const learnedMask uint32 = 1 << 31

// NewClause returns a clause whose lits are given as an argument.
func NewClause(lits []Lit) *Clause {
	return &Clause{lits: lits}
}

// NewLearnedClause returns a new clause marked as learned.
func NewLearnedClause(lits []Lit) *Clause {
	return &Clause{lits: lits, lbdValue: learnedMask}
}

// Learned returns true iff c was a learned clause.
func (c *Clause) Learned() bool {
	return c.lbdValue&learnedMask == learnedMask
}

func (c *Clause) lbd() int {
	return int(c.lbdValue &^ learnedMask)
}

func (c *Clause) setLbd(lbd int) {
	c.lbdValue = (c.lbdValue & learnedMask) | uint32(lbd)
}

// Len returns the nb of lits in the clause.
func (c *Clause) Len() int {
	return len(c.lits)
}

// computeLbd returns the LBD (Literal Block Distance) of lits, the number of
// distinct decision levels they are bound at.
// Lits must be sorted by decreasing level.
func computeLbd(lits []Lit, model Model) int {
	lbd := 1
	curLvl := abs(model[lits[0].Var()])
	for _, lit := range lits[1:] {
		if lvl := abs(model[lit.Var()]); lvl != curLvl {
			curLvl = lvl
			lbd++
		}
	}
	return lbd
}
