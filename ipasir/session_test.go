package ipasir

import (
	"fmt"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine records what it is given and answers what it is told to.
type fakeEngine struct {
	clauses     [][]int
	assumptions [][]int
	budgets     []int64

	result    Result
	err       error
	panicOn   string
	model     map[int]bool
	failed    map[int]bool
	simplify  bool
	learnErr  error
	toLearn   [][]int
	onSolve   func()
	nbVars    int
	terminate func() bool
	learn     func([]int)
	maxLearn  int
	released  int
}

func (f *fakeEngine) maybePanic(op string) {
	if f.panicOn == op {
		panic("fake engine exploded in " + op)
	}
}

func (f *fakeEngine) Signature() string { return "fake-1.0" }

func (f *fakeEngine) AddClause(lits []int) error {
	f.maybePanic("add")
	f.clauses = append(f.clauses, append([]int{}, lits...))
	return nil
}

func (f *fakeEngine) Solve(assumptions []int, budget int64) (Result, error) {
	f.maybePanic("solve")
	f.assumptions = append(f.assumptions, append([]int{}, assumptions...))
	f.budgets = append(f.budgets, budget)
	if f.onSolve != nil {
		f.onSolve()
	}
	if f.learn != nil {
		for _, clause := range f.toLearn {
			f.learn(clause)
		}
	}
	if f.terminate != nil && f.terminate() {
		return Interrupted, nil
	}
	return f.result, f.err
}

func (f *fakeEngine) Value(v int) int {
	f.maybePanic("value")
	val, ok := f.model[v]
	switch {
	case !ok:
		return 0
	case val:
		return v
	default:
		return -v
	}
}

func (f *fakeEngine) Failed(v int) bool { return f.failed[v] }

func (f *fakeEngine) SetTerminate(fn func() bool) { f.terminate = fn }

func (f *fakeEngine) SetLearn(maxLength int, fn func([]int)) error {
	if f.learnErr != nil {
		return f.learnErr
	}
	f.learn, f.maxLearn = fn, maxLength
	return nil
}

func (f *fakeEngine) Simplify() (bool, error) { return f.simplify, nil }

func (f *fakeEngine) SetVariableCount(n int) {
	if n > f.nbVars {
		f.nbVars = n
	}
}

func (f *fakeEngine) VariableCount() int { return f.nbVars }

func (f *fakeEngine) Release() {
	f.maybePanic("release")
	f.released++
}

var nbFakes int

// newFake registers fe under a new name and opens a session on it.
func newFake(t *testing.T, fe *fakeEngine, cfg Config) *Session {
	t.Helper()
	nbFakes++
	cfg.Engine = fmt.Sprintf("fake-%d", nbFakes)
	Register(cfg.Engine, func(string) (Engine, error) { return fe, nil })
	if cfg.Logger == nil {
		logger, _ := test.NewNullLogger()
		cfg.Logger = logger
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

// registerOnce registers factory unless name is already taken, so that tests can be run several times.
func registerOnce(name string, factory Factory) {
	if _, ok := lookupEngine(name); !ok {
		Register(name, factory)
	}
}

func addLits(t *testing.T, s *Session, lits ...int) {
	t.Helper()
	for _, lit := range lits {
		require.NoError(t, s.AddLiteral(lit))
	}
}

// halfBuilt is the last engine built by the "half-built" factory, which fails after building it.
var halfBuilt *fakeEngine

func TestNewErrors(t *testing.T) {
	_, err := New(Config{Engine: "no-such-engine"})
	require.ErrorIs(t, err, ErrInitialization)
	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "no-such-engine", initErr.Engine)

	registerOnce("failing", func(options string) (Engine, error) {
		return nil, errors.Errorf("bad options %q", options)
	})
	_, err = New(Config{Engine: "failing", Options: "x=1"})
	assert.ErrorIs(t, err, ErrInitialization)
	assert.Contains(t, err.Error(), "bad options")

	halfBuilt = nil
	registerOnce("half-built", func(string) (Engine, error) {
		halfBuilt = &fakeEngine{}
		return halfBuilt, errors.New("construction failed")
	})
	s, err := New(Config{Engine: "half-built"})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrInitialization)
	assert.Contains(t, err.Error(), "construction failed")
	require.NotNil(t, halfBuilt)
	assert.Equal(t, 1, halfBuilt.released, "a half-built engine is released")

	registerOnce("panicking", func(string) (Engine, error) { panic("boom") })
	_, err = New(Config{Engine: "panicking"})
	assert.ErrorIs(t, err, ErrInitialization)

	registerOnce("nil", func(string) (Engine, error) { return nil, nil })
	_, err = New(Config{Engine: "nil"})
	assert.ErrorIs(t, err, ErrInitialization)

	_, err = New(Config{Engine: "nil", MaxVariable: -1})
	assert.ErrorIs(t, err, ErrInitialization)
}

func TestNewVariablesHint(t *testing.T) {
	fe := &fakeEngine{}
	s := newFake(t, fe, Config{Variables: 12})
	n, err := s.VariableCount()
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	require.NoError(t, s.SetVariableCount(20))
	n, err = s.VariableCount()
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.ErrorIs(t, s.SetVariableCount(-1), ErrInvalidLiteral)
}

func TestRegisterPanics(t *testing.T) {
	assert.Panics(t, func() { Register("nil-factory", nil) })
	registerOnce("twice", func(string) (Engine, error) { return &fakeEngine{}, nil })
	assert.Panics(t, func() {
		Register("twice", func(string) (Engine, error) { return &fakeEngine{}, nil })
	})
	assert.Contains(t, Engines(), "twice")
	assert.IsIncreasing(t, Engines())
}

func TestClausesAreCommittedOnZero(t *testing.T) {
	fe := &fakeEngine{}
	s := newFake(t, fe, Config{})
	addLits(t, s, 1, -2, 0, 3, 0, 0, -4, 5)
	assert.Equal(t, [][]int{{1, -2}, {3}, {}}, fe.clauses)
	addLits(t, s, 0)
	assert.Equal(t, []int{-4, 5}, fe.clauses[3])
}

func TestStateMachine(t *testing.T) {
	fe := &fakeEngine{result: Satisfiable, model: map[int]bool{1: true, 2: false}}
	s := newFake(t, fe, Config{})
	assert.Equal(t, StateInput, s.State())

	_, err := s.Value(1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.AssumptionFailed(1)
	assert.ErrorIs(t, err, ErrInvalidState)

	addLits(t, s, 1, 2, 0)
	res, err := s.Solve()
	require.NoError(t, err)
	assert.Equal(t, Satisfiable, res)
	assert.Equal(t, StateSat, s.State())
	for lit, want := range map[int]int{1: 1, -1: 1, 2: -2, -2: -2, 3: 0} {
		got, err := s.Value(lit)
		require.NoError(t, err)
		assert.Equal(t, want, got, "value(%d)", lit)
	}
	_, err = s.AssumptionFailed(1)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, s.Assume(1))
	assert.Equal(t, StateInput, s.State())
	_, err = s.Value(1)
	assert.ErrorIs(t, err, ErrInvalidState)

	fe.result = Unsatisfiable
	fe.failed = map[int]bool{1: true}
	res, err = s.Solve()
	require.NoError(t, err)
	assert.Equal(t, Unsatisfiable, res)
	assert.Equal(t, StateUnsat, s.State())
	for lit, want := range map[int]bool{1: true, -1: true, 2: false} {
		got, err := s.AssumptionFailed(lit)
		require.NoError(t, err)
		assert.Equal(t, want, got, "failed(%d)", lit)
	}
	_, err = s.Value(1)
	assert.ErrorIs(t, err, ErrInvalidState)

	fe.result = Interrupted
	res, err = s.Solve()
	require.NoError(t, err)
	assert.Equal(t, Interrupted, res)
	assert.Equal(t, StateInput, s.State())

	fe.result = Satisfiable
	_, err = s.Solve()
	require.NoError(t, err)
	addLits(t, s, 3)
	assert.Equal(t, StateInput, s.State(), "adding a literal invalidates the model")
}

func TestAssumptionsAreCleared(t *testing.T) {
	fe := &fakeEngine{result: Unsatisfiable}
	s := newFake(t, fe, Config{})
	require.NoError(t, s.Assume(1))
	require.NoError(t, s.Assume(-2))
	_, err := s.Solve()
	require.NoError(t, err)
	_, err = s.SolveBounded(100)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, -2}, {}}, fe.assumptions)
	assert.Equal(t, []int64{0, 100}, fe.budgets)

	_, err = s.SolveBounded(-5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fe.budgets[2], "negative budgets mean no budget")

	fe.err = errors.Wrap(ErrUnsupported, "no budget")
	require.NoError(t, s.Assume(3))
	_, err = s.SolveBounded(10)
	assert.ErrorIs(t, err, ErrUnsupported)
	fe.err = nil
	_, err = s.Solve()
	require.NoError(t, err, "the session stays usable")
	assert.Empty(t, fe.assumptions[len(fe.assumptions)-1])
}

func TestUnsupportedSolveLeavesNoVerdict(t *testing.T) {
	fe := &fakeEngine{result: Satisfiable, model: map[int]bool{1: true}}
	s := newFake(t, fe, Config{})
	addLits(t, s, 1, 0)
	res, err := s.Solve()
	require.NoError(t, err)
	require.Equal(t, Satisfiable, res)
	require.Equal(t, StateSat, s.State())

	fe.err = errors.Wrap(ErrUnsupported, "no budget")
	res, err = s.SolveBounded(10)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, Interrupted, res)
	assert.Equal(t, StateInput, s.State())
	_, err = s.Value(1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSolveWithOpenClause(t *testing.T) {
	fe := &fakeEngine{result: Satisfiable}
	s := newFake(t, fe, Config{})
	addLits(t, s, 1, 2)
	require.NoError(t, s.Assume(3))
	_, err := s.Solve()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, fe.assumptions, "engine must not be called")

	addLits(t, s, 0)
	res, err := s.Solve()
	require.NoError(t, err)
	assert.Equal(t, Satisfiable, res)
	assert.Equal(t, [][]int{{1, 2}}, fe.clauses, "the open clause is kept")
	assert.Equal(t, [][]int{{}}, fe.assumptions, "assumptions were cleared")
}

func TestInvalidLiterals(t *testing.T) {
	fe := &fakeEngine{result: Satisfiable}
	s := newFake(t, fe, Config{MaxVariable: 10})
	for _, lit := range []int{11, -11, math.MinInt} {
		assert.ErrorIs(t, s.AddLiteral(lit), ErrInvalidLiteral, "add %d", lit)
		assert.ErrorIs(t, s.Assume(lit), ErrInvalidLiteral, "assume %d", lit)
	}
	assert.ErrorIs(t, s.Assume(0), ErrInvalidLiteral)
	addLits(t, s, 10, -10, 0)

	_, err := s.Solve()
	require.NoError(t, err)
	_, err = s.Value(0)
	assert.ErrorIs(t, err, ErrInvalidLiteral)
	_, err = s.Value(11)
	var litErr *InvalidLiteralError
	require.ErrorAs(t, err, &litErr)
	assert.Equal(t, 11, litErr.Lit)
	assert.Equal(t, 10, litErr.Max)
	assert.Equal(t, StateSat, s.State(), "invalid literals leave the session untouched")
}

func TestEngineFailure(t *testing.T) {
	tests := []struct {
		name string
		fe   *fakeEngine
		op   func(s *Session) error
	}{
		{"solve error", &fakeEngine{err: errors.New("out of memory")}, func(s *Session) error {
			_, err := s.Solve()
			return err
		}},
		{"solve panic", &fakeEngine{panicOn: "solve"}, func(s *Session) error {
			_, err := s.Solve()
			return err
		}},
		{"add panic", &fakeEngine{panicOn: "add"}, func(s *Session) error {
			return s.AddLiteral(0)
		}},
		{"invalid verdict", &fakeEngine{result: Result(3)}, func(s *Session) error {
			_, err := s.Solve()
			return err
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newFake(t, test.fe, Config{})
			err := test.op(s)
			require.ErrorIs(t, err, ErrEngineFailure)
			assert.Equal(t, err, s.AddLiteral(1), "the session is broken")
			_, err2 := s.Solve()
			assert.Equal(t, err, err2)
			_, err2 = s.Signature()
			assert.Equal(t, err, err2)
			assert.NoError(t, s.Release())
			assert.Equal(t, 1, test.fe.released)
		})
	}
}

func TestValuePanic(t *testing.T) {
	fe := &fakeEngine{result: Satisfiable, panicOn: "value"}
	s := newFake(t, fe, Config{})
	_, err := s.Solve()
	require.NoError(t, err)
	_, err = s.Value(1)
	var failure *EngineFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "value", failure.Op)
	assert.Contains(t, failure.Error(), "exploded")
}

func TestRelease(t *testing.T) {
	logger, hook := test.NewNullLogger()
	fe := &fakeEngine{}
	s := newFake(t, fe, Config{Logger: logger})
	require.NoError(t, s.Release())
	assert.Equal(t, 1, fe.released)

	assert.ErrorIs(t, s.AddLiteral(1), ErrReleased)
	assert.ErrorIs(t, s.Assume(1), ErrReleased)
	_, err := s.Solve()
	assert.ErrorIs(t, err, ErrReleased)
	_, err = s.Value(1)
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, s.Release(), ErrReleased)
	assert.Equal(t, 1, fe.released)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	fe = &fakeEngine{panicOn: "release"}
	s = newFake(t, fe, Config{})
	assert.ErrorIs(t, s.Release(), ErrEngineFailure)
	assert.ErrorIs(t, s.Release(), ErrReleased)
}

func TestTermination(t *testing.T) {
	fe := &fakeEngine{result: Satisfiable}
	s := newFake(t, fe, Config{})
	calls := 0
	require.NoError(t, s.SetTerminationCallback(TerminatorFunc(func() bool {
		calls++
		return true
	})))
	res, err := s.Solve()
	require.NoError(t, err)
	assert.Equal(t, Interrupted, res)
	assert.Equal(t, StateInput, s.State())
	assert.Equal(t, 1, calls)

	require.NoError(t, s.SetTerminationCallback(nil))
	assert.Nil(t, fe.terminate)
	res, err = s.Solve()
	require.NoError(t, err)
	assert.Equal(t, Satisfiable, res)
}

func TestReentrancy(t *testing.T) {
	fe := &fakeEngine{result: Satisfiable}
	s := newFake(t, fe, Config{})
	var errs []error
	fe.onSolve = func() {
		errs = append(errs, s.AddLiteral(1), s.Assume(1), s.Release())
		_, err := s.Solve()
		errs = append(errs, err)
		_, err = s.Value(1)
		errs = append(errs, err)
	}
	res, err := s.Solve()
	require.NoError(t, err)
	assert.Equal(t, Satisfiable, res)
	require.Len(t, errs, 5)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	assert.Empty(t, fe.clauses)
	assert.Zero(t, fe.released)
}

func TestLearn(t *testing.T) {
	fe := &fakeEngine{result: Unsatisfiable, toLearn: [][]int{{1}, {-1, 2}, {1, 2, 3}}}
	s := newFake(t, fe, Config{})
	var learned [][]int
	require.NoError(t, s.SetLearnCallback(2, LearnerFunc(func(clause []int) {
		learned = append(learned, append([]int(nil), clause...))
	})))
	assert.Equal(t, 2, fe.maxLearn)
	_, err := s.Solve()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0}, {-1, 2, 0}}, learned)

	require.NoError(t, s.SetLearnCallback(2, nil))
	assert.Nil(t, fe.learn)

	fe.learnErr = errors.Wrap(ErrUnsupported, "no learn observer")
	err = s.SetLearnCallback(5, LearnerFunc(func([]int) {}))
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = s.Solve()
	assert.NoError(t, err, "the session stays usable")
}

func TestSimplify(t *testing.T) {
	fe := &fakeEngine{simplify: true, result: Satisfiable}
	s := newFake(t, fe, Config{})
	sp, err := s.Simplify()
	require.NoError(t, err)
	assert.Equal(t, SimplifyOK, sp)

	_, err = s.Solve()
	require.NoError(t, err)
	fe.simplify = false
	sp, err = s.Simplify()
	require.NoError(t, err)
	assert.Equal(t, EmptyClauseDetected, sp)
	assert.Equal(t, StateSat, s.State(), "simplify does not change the state")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)
	fe := &fakeEngine{result: Satisfiable}
	s := newFake(t, fe, Config{Metrics: m})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.live))
	_, err := s.Solve()
	require.NoError(t, err)
	fe.result = Unsatisfiable
	_, err = s.Solve()
	require.NoError(t, err)
	_, err = s.Solve()
	require.NoError(t, err)

	engine := s.cfg.Engine
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solves.WithLabelValues(engine, "SATISFIABLE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.solves.WithLabelValues(engine, "UNSATISFIABLE")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
	require.NoError(t, s.Release())
	assert.Zero(t, testutil.ToFloat64(m.live))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "SAT", StateSat.String())
	assert.Equal(t, "State(7)", State(7).String())
	assert.Equal(t, "UNKNOWN", Interrupted.String())
	assert.Equal(t, "UNSATISFIABLE", Unsatisfiable.String())
	assert.Equal(t, "OK", SimplifyOK.String())
	assert.Equal(t, "EMPTY-CLAUSE", EmptyClauseDetected.String())
	assert.Equal(t, 10, int(Satisfiable))
	assert.Equal(t, 20, int(Unsatisfiable))
}
