package solver

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	initVarDecay = 0.8             // Variable activity decay at startup; it grows up to Options.VarDecay.
	statsPeriod  = 3 * time.Second // Minimum delay between two verbose statistics lines.
)

// Stats are statistics about the resolution of the problem.
// They are provided for information purpose only.
type Stats struct {
	NbSolves        int
	NbRestarts      int
	NbConflicts     int
	NbDecisions     int
	NbUnitLearned   int // How many unit clauses were learned
	NbBinaryLearned int // How many binary clauses were learned
	NbLearned       int // How many clauses were learned
	NbDeleted       int // How many clauses were deleted
}

// A Solver is an incremental CDCL SAT solver.
// Clauses can be added between calls to Solve, each call having its own assumptions.
// A Solver is not safe for concurrent use.
type Solver struct {
	opts     Options
	log      logrus.FieldLogger
	nbVars   int
	status   Status      // Unsat once the clauses alone are proven unsatisfiable, Indet else.
	clauses  []*Clause   // Original clauses of length >= 2
	learned  []*Clause   // Learned clauses of length >= 2
	wlistBin [][]watcher // For each literal, binary clauses where its negation appears
	wlist    [][]*Clause // For each literal, non-binary clauses where its negation is watched

	trail    []Lit // Current assignment stack
	trailLim []int // Index in trail of the first binding of each level >= 2
	qhead    int   // Index in trail of the next binding to propagate
	model    Model // 0 means unbound, other value is a binding
	// For each var, clause considered when it was unified
	// If the var is not bound yet, or if it was bound by a decision, value is nil.
	reason    []*Clause
	lastModel Model // Model found by the last call to Solve, if it returned Sat.

	activity  []float64 // How often each var is involved in conflicts
	polarity  []bool    // Preferred sign for each var
	varQueue  varOrder
	varInc    float64 // On each var bump, how big the increment should be
	varDecay  float64 // On each var decay, how much the varInc should be decayed
	clauseInc float32 // On each clause bump, how big the increment should be
	lbdStats  lbdStats
	restarts  restartPolicy
	nbMax     int // Max # of learned clauses at current moment
	idxReduce int // # of calls to reduce + 1

	assumptions []Lit
	failed      []bool // For each var, whether it belongs to the final conflict of the last Unsat verdict

	terminate   func() bool
	learn       func([]int)
	maxLearn    int
	budget      int // Conflicts allowed in the current call to Solve; 0 means no limit.
	solveConfl  int // Conflicts at the beginning of the current call to Solve.
	interrupted bool
	lastStats   time.Time

	seen       []bool // Buffer for conflict analysis
	learnedBuf []Lit  // Buffer for lits in analyze
	toClear    []Lit
	learnInts  []int // Buffer for learned clauses given to the learn callback

	Stats Stats // Statistics about the solving process.
}

// New returns an empty solver.
func New(opts Options) *Solver {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Solver{
		opts:      opts,
		log:       logger,
		varInc:    1.0,
		clauseInc: 1.0,
		varDecay:  initVarDecay,
		lbdStats:  newLbdStats(),
		restarts:  opts.restartPolicy(),
		nbMax:     opts.FirstReduce,
		idxReduce: 1,
	}
	if s.varDecay > opts.VarDecay {
		s.varDecay = opts.VarDecay
	}
	s.varQueue = newVarOrder(&s.activity)
	return s
}

// NbVars returns the number of variables known to the solver.
func (s *Solver) NbVars() int {
	return s.nbVars
}

// EnsureVars makes sure the solver knows about the variables 1 to n.
func (s *Solver) EnsureVars(n int) {
	if n <= s.nbVars {
		return
	}
	for v := s.nbVars; v < n; v++ {
		s.model = append(s.model, 0)
		s.reason = append(s.reason, nil)
		s.activity = append(s.activity, 0)
		s.polarity = append(s.polarity, s.opts.Phase == "true")
		s.seen = append(s.seen, false)
		s.failed = append(s.failed, false)
		s.wlistBin = append(s.wlistBin, nil, nil)
		s.wlist = append(s.wlist, nil, nil)
	}
	oldNb := s.nbVars
	s.nbVars = n
	for v := oldNb; v < n; v++ {
		s.varQueue.insert(Var(v))
	}
}

// level returns the current decision level.
func (s *Solver) level() decLevel {
	return decLevel(len(s.trailLim) + 1)
}

func (s *Solver) newLevel() {
	s.trailLim = append(s.trailLim, len(s.trail))
}

// assign binds lit to true at the current level.
func (s *Solver) assign(lit Lit, reason *Clause) {
	v := lit.Var()
	s.model[v] = signedLevel(lit, s.level())
	s.reason[v] = reason
	s.trail = append(s.trail, lit)
}

// litStatus returns whether the literal is made true (Sat) or false (Unsat) by the
// current bindings, or if it is unbounded (Indet).
func (s *Solver) litStatus(l Lit) Status {
	assign := s.model[l.Var()]
	if assign == 0 {
		return Indet
	}
	if assign > 0 == l.IsPositive() {
		return Sat
	}
	return Unsat
}

func (s *Solver) varDecayActivity() {
	s.varInc *= 1 / s.varDecay
}

func (s *Solver) varBumpActivity(v Var) {
	s.activity[v] += s.varInc
	if s.activity[v] > 1e100 { // Rescaling is needed to avoid overflowing
		for i := range s.activity {
			s.activity[i] *= 1e-100
		}
		s.varInc *= 1e-100
	}
	s.varQueue.bumped(v)
}

// Decays each clause's activity
func (s *Solver) clauseDecayActivity() {
	s.clauseInc *= 1 / float32(s.opts.ClauseDecay)
}

// Bumps the given clause's activity.
func (s *Solver) clauseBumpActivity(c *Clause) {
	if !c.Learned() {
		return
	}
	c.activity += s.clauseInc
	if c.activity > 1e30 { // Rescale to avoid overflow
		for _, c2 := range s.learned {
			c2.activity *= 1e-30
		}
		s.clauseInc *= 1e-30
	}
}

// Chooses an unbound literal to be tested, or noLit
// if all the variables are already bound.
func (s *Solver) chooseLit() Lit {
	for !s.varQueue.empty() {
		if v := s.varQueue.removeMax(); s.model[v] == 0 { // Ignore already bound vars
			s.Stats.NbDecisions++
			return v.SignedLit(!s.polarity[v])
		}
	}
	return noLit
}

// backtrack unbinds every variable bound at a level > lvl.
func (s *Solver) backtrack(lvl decLevel) {
	if s.level() <= lvl {
		return
	}
	start := s.trailLim[lvl-1]
	for i := len(s.trail) - 1; i >= start; i-- {
		lit := s.trail[i]
		v := lit.Var()
		s.model[v] = 0
		s.reason[v] = nil
		if s.opts.Phase == "saved" {
			s.polarity[v] = lit.IsPositive()
		}
		if !s.varQueue.contains(v) {
			s.varQueue.insert(v)
		}
	}
	s.trail = s.trail[:start]
	s.trailLim = s.trailLim[:lvl-1]
	s.qhead = start
}

// AddClause adds a permanent clause to the problem and returns Unsat iff the problem is now
// trivially unsatisfiable. lits is not modified. Tautologies are ignored.
func (s *Solver) AddClause(lits []Lit) Status {
	if s.status == Unsat {
		return Unsat
	}
	s.backtrack(1)
	for _, lit := range lits {
		s.EnsureVars(int(lit.Var()) + 1)
	}
	lits, tautology := normalize(append([]Lit(nil), lits...))
	if tautology {
		return s.status
	}
	kept := lits[:0]
	for _, lit := range lits {
		switch s.litStatus(lit) {
		case Sat: // Already satisfied at top level
			return s.status
		case Indet:
			kept = append(kept, lit)
		}
	}
	switch len(kept) {
	case 0:
		s.status = Unsat
	case 1:
		s.assign(kept[0], nil)
		if s.propagate() != nil {
			s.status = Unsat
		}
	default:
		c := NewClause(kept)
		s.clauses = append(s.clauses, c)
		s.watchClause(c)
	}
	return s.status
}

// SetTerminate installs a predicate polled during search. When it returns true, Solve gives up and returns Indet.
func (s *Solver) SetTerminate(fn func() bool) {
	s.terminate = fn
}

// SetLearn installs a function called with each learned clause of at most maxLen literals.
// The clause is only valid during the call.
func (s *Solver) SetLearn(maxLen int, fn func([]int)) {
	s.learn = fn
	s.maxLearn = maxLen
}

// shouldStop is true iff the conflict budget is exhausted or the terminate predicate asks for it.
func (s *Solver) shouldStop() bool {
	if s.interrupted {
		return true
	}
	if s.budget > 0 && s.Stats.NbConflicts-s.solveConfl >= s.budget {
		s.interrupted = true
	} else if s.terminate != nil && s.terminate() {
		s.interrupted = true
	}
	return s.interrupted
}

// record adds the learned clause lits and binds its asserting literal.
// The solver must already have backtracked.
func (s *Solver) record(lits []Lit, lbd int) {
	s.notifyLearned(lits)
	s.lbdStats.addLbd(lbd)
	if len(lits) == 1 {
		s.Stats.NbUnitLearned++
		s.assign(lits[0], nil)
		return
	}
	if len(lits) == 2 {
		s.Stats.NbBinaryLearned++
	}
	s.Stats.NbLearned++
	c := NewLearnedClause(append([]Lit(nil), lits...))
	c.setLbd(lbd)
	s.learned = append(s.learned, c)
	s.watchClause(c)
	s.clauseBumpActivity(c)
	s.assign(c.lits[0], c)
}

// search searches until a model is found, unsatisfiability is proven, a restart is needed or the search must stop.
func (s *Solver) search() Status {
	for {
		if confl := s.propagate(); confl != nil {
			s.Stats.NbConflicts++
			if s.level() == 1 {
				s.status = Unsat
				return Unsat
			}
			if s.Stats.NbConflicts%5000 == 0 && s.varDecay < s.opts.VarDecay {
				s.varDecay += 0.01
			}
			s.lbdStats.addConflict(len(s.trail))
			s.restarts.conflict(s)
			lits, btLevel, lbd := s.analyze(confl)
			s.backtrack(btLevel)
			s.record(lits, lbd)
			s.varDecayActivity()
			s.clauseDecayActivity()
			if s.shouldStop() {
				return Indet
			}
			continue
		}
		if s.restarts.due(s) {
			s.lbdStats.clear()
			s.restarts.restarted()
			s.backtrack(1)
			return Indet
		}
		s.reduceIfNeeded()
		next := noLit
		for next == noLit && len(s.trailLim) < len(s.assumptions) {
			a := s.assumptions[len(s.trailLim)]
			switch s.litStatus(a) {
			case Sat: // Already true: open a dummy level
				s.newLevel()
			case Unsat:
				s.analyzeFinal(a)
				return Unsat
			default:
				next = a
			}
		}
		if next == noLit {
			if next = s.chooseLit(); next == noLit {
				return Sat
			}
		}
		s.newLevel()
		s.assign(next, nil)
	}
}

// Solve searches for a model of the clauses under the given assumptions, which only hold for this call.
// It returns Sat, Unsat, or Indet if the search was interrupted by the terminate predicate or the conflict budget.
// conflictBudget <= 0 means no budget.
func (s *Solver) Solve(assumptions []Lit, conflictBudget int) Status {
	s.Stats.NbSolves++
	s.lastModel = nil
	for i := range s.failed {
		s.failed[i] = false
	}
	if s.status == Unsat {
		return Unsat
	}
	for _, a := range assumptions {
		s.EnsureVars(int(a.Var()) + 1)
	}
	s.assumptions = append(s.assumptions[:0], assumptions...)
	s.budget = conflictBudget
	s.solveConfl = s.Stats.NbConflicts
	s.interrupted = false
	s.lastStats = time.Now()
	status := Indet
	for status == Indet && !s.shouldStop() {
		status = s.search()
		if status == Indet && !s.interrupted {
			s.Stats.NbRestarts++
			s.logStats()
		}
	}
	if status == Sat {
		s.lastModel = make(Model, len(s.model))
		copy(s.lastModel, s.model)
	}
	s.backtrack(1)
	if s.opts.Verbose {
		s.log.WithFields(s.statsFields()).WithField("status", status).Info("solve done")
	}
	return status
}

// Value returns the binding of v in the last model: v.Int() if true, -v.Int() if false, 0 if there is no model
// or v is not part of the problem.
func (s *Solver) Value(v Var) int {
	if int(v) >= len(s.lastModel) {
		return 0
	}
	switch lvl := s.lastModel[v]; {
	case lvl > 0:
		return v.Int()
	case lvl < 0:
		return -v.Int()
	default:
		return 0
	}
}

// Model returns the last model found, as a slice associating each variable with its binding.
// It returns nil if the last call to Solve did not return Sat.
func (s *Solver) Model() []bool {
	if s.lastModel == nil {
		return nil
	}
	res := make([]bool, len(s.lastModel))
	for i, lvl := range s.lastModel {
		res[i] = lvl > 0
	}
	return res
}

// Failed returns whether v was one of the assumptions that made the last call to Solve return Unsat.
// It is false for every variable if the clauses alone are unsatisfiable.
func (s *Solver) Failed(v Var) bool {
	return int(v) < len(s.failed) && s.failed[v]
}

// Simplify propagates top-level bindings and removes satisfied clauses.
// It returns false iff the problem was proven unsatisfiable.
func (s *Solver) Simplify() bool {
	if s.status == Unsat {
		return false
	}
	s.backtrack(1)
	if s.propagate() != nil {
		s.status = Unsat
		return false
	}
	s.clauses = s.removeSatisfied(s.clauses)
	s.learned = s.removeSatisfied(s.learned)
	return true
}

// Unsat is true iff the clauses alone are known to be unsatisfiable.
func (s *Solver) Unsat() bool {
	return s.status == Unsat
}

// NbClauses returns the number of original and learned clauses of length at least 2 currently stored.
func (s *Solver) NbClauses() (original, learned int) {
	return len(s.clauses), len(s.learned)
}

func (s *Solver) statsFields() logrus.Fields {
	original, learned := s.NbClauses()
	return logrus.Fields{
		"restarts":  s.Stats.NbRestarts,
		"conflicts": s.Stats.NbConflicts,
		"clauses":   original,
		"learned":   learned,
		"deleted":   s.Stats.NbDeleted,
		"reduce":    s.idxReduce - 1,
		"units":     s.Stats.NbUnitLearned,
		"vars":      s.nbVars,
	}
}

func (s *Solver) logStats() {
	if !s.opts.Verbose || time.Since(s.lastStats) < statsPeriod {
		return
	}
	s.lastStats = time.Now()
	s.log.WithFields(s.statsFields()).Info("search in progress")
}
