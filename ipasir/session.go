package ipasir

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A Session is one incremental SAT problem and the engine solving it.
// It is not safe for concurrent use.
type Session struct {
	cfg    Config
	engine Engine
	log    logrus.FieldLogger
	state  State

	clause      []int // Clause being built, without its terminating 0.
	assumptions []int // Assumptions for the next solve call.

	terminator Terminator
	learner    Learner
	maxLearn   int
	learnBuf   []int // Sentinel-terminated copy of the clause given to learner.

	searching bool  // True while the engine is solving: callbacks must not reenter.
	released  bool  // True once Release was called.
	broken    error // First EngineFailure met; the session can only be released afterwards.
}

// New creates a session in StateInput, using the engine named in cfg.
// Failures are reported as an *InitializationError.
func New(cfg Config) (s *Session, err error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, &InitializationError{Engine: cfg.Engine, Err: err}
	}
	factory, ok := lookupEngine(cfg.Engine)
	if !ok {
		return nil, &InitializationError{
			Engine: cfg.Engine,
			Err:    errors.Errorf("unknown engine (registered: %v)", Engines()),
		}
	}
	engine, err := openEngine(factory, cfg.Options)
	if err != nil {
		return nil, &InitializationError{Engine: cfg.Engine, Err: err}
	}
	defer func() {
		if err != nil {
			_ = protect(engine.Release)
		}
	}()
	if cfg.Variables > 0 {
		if err := protect(func() { engine.SetVariableCount(cfg.Variables) }); err != nil {
			return nil, &InitializationError{Engine: cfg.Engine, Err: err}
		}
	}
	s = &Session{
		cfg:    cfg,
		engine: engine,
		log:    cfg.Logger.WithField("engine", cfg.Engine),
		state:  StateInput,
	}
	cfg.Metrics.sessionOpened()
	s.log.Debug("session created")
	return s, nil
}

func openEngine(factory Factory, options string) (Engine, error) {
	var (
		engine Engine
		ferr   error
	)
	if err := protect(func() { engine, ferr = factory(options) }); err != nil {
		return nil, err
	}
	if ferr != nil {
		if engine != nil {
			_ = protect(engine.Release)
		}
		return nil, ferr
	}
	if engine == nil {
		return nil, errors.New("factory returned no engine")
	}
	return engine, nil
}

// protect runs fn, turning a panic into an error.
func protect(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrap(e, "panic")
			} else {
				err = errors.Errorf("panic: %v", r)
			}
		}
	}()
	fn()
	return err
}

// check makes sure op can be called now.
func (s *Session) check(op string) error {
	if s.released {
		s.log.WithField("op", op).Error("session used after release")
		return errors.Wrap(ErrReleased, op)
	}
	if s.searching {
		return &InvalidStateError{Op: op, State: s.state, Reason: "called from a callback during search"}
	}
	return s.broken
}

// call runs an engine operation. Panics and errors other than ErrUnsupported break the session.
func (s *Session) call(op string, fn func() error) error {
	var opErr error
	if err := protect(func() { opErr = fn() }); err != nil {
		opErr = err
	}
	if opErr == nil || errors.Is(opErr, ErrUnsupported) {
		return opErr
	}
	s.broken = &EngineFailure{Op: op, Err: opErr}
	s.log.WithError(opErr).WithField("op", op).Error("engine failure")
	return s.broken
}

func (s *Session) validLit(op string, lit int, sentinel bool) error {
	if lit == 0 && sentinel {
		return nil
	}
	if lit == 0 || lit == math.MinInt || abs(lit) > s.cfg.MaxVariable {
		return &InvalidLiteralError{Op: op, Lit: lit, Max: s.cfg.MaxVariable}
	}
	return nil
}

func abs(lit int) int {
	if lit < 0 {
		return -lit
	}
	return lit
}

// Release frees the engine. The session must not be used afterwards;
// a second call returns ErrReleased.
func (s *Session) Release() error {
	if s.released {
		s.log.Error("session released twice")
		return errors.Wrap(ErrReleased, "release")
	}
	if s.searching {
		return &InvalidStateError{Op: "release", State: s.state, Reason: "called from a callback during search"}
	}
	err := protect(s.engine.Release)
	s.released = true
	s.engine = nil
	s.clause, s.assumptions, s.learnBuf = nil, nil, nil
	s.terminator, s.learner = nil, nil
	s.cfg.Metrics.sessionClosed()
	s.log.Debug("session released")
	if err != nil {
		return &EngineFailure{Op: "release", Err: err}
	}
	return nil
}

// AddLiteral adds lit to the clause being built. A 0 commits the clause to
// the engine and starts a new one. In every case the session goes back to StateInput.
func (s *Session) AddLiteral(lit int) error {
	const op = "add literal"
	if err := s.check(op); err != nil {
		return err
	}
	if err := s.validLit(op, lit, true); err != nil {
		return err
	}
	s.setState(StateInput)
	if lit != 0 {
		s.clause = append(s.clause, lit)
		return nil
	}
	clause := s.clause
	s.clause = s.clause[:0]
	return s.call(op, func() error { return s.engine.AddClause(clause) })
}

// Assume adds lit to the assumptions of the next solve call.
func (s *Session) Assume(lit int) error {
	const op = "assume"
	if err := s.check(op); err != nil {
		return err
	}
	if err := s.validLit(op, lit, false); err != nil {
		return err
	}
	s.setState(StateInput)
	s.assumptions = append(s.assumptions, lit)
	return nil
}

// SetVariableCount tells the engine n variables will be used.
// It is only a hint and changes neither the problem nor the state.
func (s *Session) SetVariableCount(n int) error {
	const op = "set variable count"
	if err := s.check(op); err != nil {
		return err
	}
	if n < 0 || n > s.cfg.MaxVariable {
		return &InvalidLiteralError{Op: op, Lit: n, Max: s.cfg.MaxVariable}
	}
	return s.call(op, func() error {
		s.engine.SetVariableCount(n)
		return nil
	})
}

// VariableCount returns the highest variable known to the engine.
func (s *Session) VariableCount() (int, error) {
	const op = "variable count"
	if err := s.check(op); err != nil {
		return 0, err
	}
	var n int
	err := s.call(op, func() error {
		n = s.engine.VariableCount()
		return nil
	})
	return n, err
}

// Solve searches for a model of the clauses added so far under the pending assumptions.
// Assumptions are cleared when it returns, whatever the verdict.
func (s *Session) Solve() (Result, error) {
	return s.solve("solve", 0)
}

// SolveBounded is like Solve, but gives up with Interrupted after about
// budget conflicts. A budget <= 0 means no budget.
// An engine without conflict budgets returns an error matching ErrUnsupported;
// the session is then back in StateInput, as after any call without a verdict.
func (s *Session) SolveBounded(budget int64) (Result, error) {
	if budget < 0 {
		budget = 0
	}
	return s.solve("solve bounded", budget)
}

func (s *Session) solve(op string, budget int64) (res Result, err error) {
	if s.released || s.searching {
		return Interrupted, s.check(op)
	}
	defer func() { s.assumptions = s.assumptions[:0] }()
	if err := s.check(op); err != nil {
		return Interrupted, err
	}
	if len(s.clause) != 0 {
		return Interrupted, &InvalidStateError{Op: op, State: s.state, Reason: "last clause is not terminated"}
	}
	log := s.log.WithField("op", op)
	log.WithField("assumptions", len(s.assumptions)).Debug("solving")
	start := time.Now()
	s.searching = true
	err = s.call(op, func() error {
		var err error
		res, err = s.engine.Solve(s.assumptions, budget)
		return err
	})
	s.searching = false
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			log.WithError(err).Warn("engine cannot run this solve")
			s.setState(StateInput)
		}
		return Interrupted, err
	}
	if !res.valid() {
		s.broken = &EngineFailure{Op: op, Err: errors.Errorf("unexpected verdict %d", int(res))}
		return Interrupted, s.broken
	}
	s.cfg.Metrics.observeSolve(s.cfg.Engine, res, time.Since(start))
	switch res {
	case Satisfiable:
		s.setState(StateSat)
	case Unsatisfiable:
		s.setState(StateUnsat)
	default:
		s.setState(StateInput)
	}
	log.WithField("result", res).Debug("solve returned")
	return res, nil
}

// Simplify propagates top-level units and removes satisfied clauses.
// EmptyClauseDetected means the problem is unsatisfiable whatever the assumptions;
// the state is not changed either way.
func (s *Session) Simplify() (Simplification, error) {
	const op = "simplify"
	if err := s.check(op); err != nil {
		return SimplifyOK, err
	}
	var ok bool
	err := s.call(op, func() error {
		var err error
		ok, err = s.engine.Simplify()
		return err
	})
	if err != nil {
		return SimplifyOK, err
	}
	if !ok {
		s.log.Debug("simplification derived the empty clause")
		return EmptyClauseDetected, nil
	}
	return SimplifyOK, nil
}

// Value returns lit if lit is true in the model found by the last solve call,
// -lit if it is false, and 0 if its value does not matter.
// It may only be called in StateSat.
func (s *Session) Value(lit int) (int, error) {
	const op = "value"
	if err := s.check(op); err != nil {
		return 0, err
	}
	if err := s.validLit(op, lit, false); err != nil {
		return 0, err
	}
	if s.state != StateSat {
		return 0, &InvalidStateError{Op: op, State: s.state}
	}
	var val int
	err := s.call(op, func() error {
		val = s.engine.Value(abs(lit))
		return nil
	})
	switch {
	case err != nil:
		return 0, err
	case val == 0:
		return 0, nil
	case (val > 0) == (lit > 0):
		return lit, nil
	default:
		return -lit, nil
	}
}

// AssumptionFailed reports whether lit was used to prove the last Unsatisfiable verdict.
// It may only be called in StateUnsat.
//
// The answer is computed on the variable of lit, not on lit itself: asking
// about the negation of a failed assumption also returns true.
func (s *Session) AssumptionFailed(lit int) (bool, error) {
	const op = "assumption failed"
	if err := s.check(op); err != nil {
		return false, err
	}
	if err := s.validLit(op, lit, false); err != nil {
		return false, err
	}
	if s.state != StateUnsat {
		return false, &InvalidStateError{Op: op, State: s.state}
	}
	var failed bool
	err := s.call(op, func() error {
		failed = s.engine.Failed(abs(lit))
		return nil
	})
	return failed, err
}

// SetTerminationCallback installs t, replacing any previous one.
// A nil t removes it.
func (s *Session) SetTerminationCallback(t Terminator) error {
	const op = "set termination callback"
	if err := s.check(op); err != nil {
		return err
	}
	s.terminator = t
	var fn func() bool
	if t != nil {
		fn = t.Terminate
	}
	return s.call(op, func() error {
		s.engine.SetTerminate(fn)
		return nil
	})
}

// SetLearnCallback installs l, replacing any previous one. l sees every
// learned clause of at most maxLength literals. A nil l removes it.
func (s *Session) SetLearnCallback(maxLength int, l Learner) error {
	const op = "set learn callback"
	if err := s.check(op); err != nil {
		return err
	}
	if maxLength < 0 {
		maxLength = 0
	}
	var fn func([]int)
	if l != nil {
		fn = s.forwardLearned
	}
	err := s.call(op, func() error { return s.engine.SetLearn(maxLength, fn) })
	if err != nil {
		return err
	}
	s.learner, s.maxLearn = l, maxLength
	return nil
}

// forwardLearned gives clause, terminated by 0, to the learner.
func (s *Session) forwardLearned(clause []int) {
	if s.learner == nil || len(clause) > s.maxLearn {
		return
	}
	s.learnBuf = append(append(s.learnBuf[:0], clause...), 0)
	s.learner.Learn(s.learnBuf)
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Signature returns the name and version of the engine.
func (s *Session) Signature() (string, error) {
	const op = "signature"
	if err := s.check(op); err != nil {
		return "", err
	}
	var sig string
	err := s.call(op, func() error {
		sig = s.engine.Signature()
		return nil
	})
	return sig, err
}

func (s *Session) setState(st State) {
	if s.state != st {
		s.log.WithFields(logrus.Fields{"from": s.state, "to": st}).Debug("state change")
		s.state = st
	}
}
