package ipasir

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Engine is the decision procedure a Session drives.
//
// Literals are DIMACS integers. Engines must copy any slice they keep
// after a call returns. All methods are called from a single goroutine at a time.
type Engine interface {
	// Signature identifies the engine and its version.
	Signature() string
	// AddClause adds a permanent clause. lits does not contain the terminating 0
	// and may be empty, in which case the problem becomes unsatisfiable.
	AddClause(lits []int) error
	// Solve searches for a model under the given assumptions.
	// A conflictBudget <= 0 means no budget.
	// Engines that cannot honour a budget return ErrUnsupported.
	Solve(assumptions []int, conflictBudget int64) (Result, error)
	// Value returns v, -v or 0 (don't care) for variable v > 0, after a Satisfiable verdict.
	Value(v int) int
	// Failed reports whether variable v belongs to the final conflict of
	// the last Unsatisfiable verdict. It is not aware of polarities.
	Failed(v int) bool
	// SetTerminate installs the predicate polled during search; nil removes it.
	SetTerminate(fn func() bool)
	// SetLearn installs an observer of learned clauses of at most maxLength literals; nil removes it.
	// The clause given to fn does not contain the terminating 0 and is only valid during the call.
	SetLearn(maxLength int, fn func(clause []int)) error
	// Simplify propagates top-level units and removes satisfied clauses.
	// It returns false iff the empty clause was derived.
	Simplify() (bool, error)
	// SetVariableCount is a capacity hint about the highest variable in use.
	SetVariableCount(n int)
	// VariableCount returns the highest variable known to the engine.
	VariableCount() int
	// Release frees the engine. No other method is called afterwards.
	Release()
}

// A Factory builds an engine from an engine-specific option string.
// An empty string means default options.
type Factory func(options string) (Engine, error)

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Factory)
)

// Register makes an engine available under the given name.
// It panics if called twice with the same name or if factory is nil.
func Register(name string, factory Factory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if factory == nil {
		panic("ipasir: Register factory is nil")
	}
	if _, dup := engines[name]; dup {
		panic("ipasir: Register called twice for engine " + name)
	}
	engines[name] = factory
}

// Engines returns a sorted list of the names of the registered engines.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := lo.Keys(engines)
	sort.Strings(names)
	return names
}

func lookupEngine(name string) (Factory, bool) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	f, ok := engines[name]
	return f, ok
}
