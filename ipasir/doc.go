/*
Package ipasir provides incremental SAT solving sessions.

A Session wraps a SAT engine and lets a caller build a growing problem across
several calls to Solve. Clauses are given literal by literal, as DIMACS
integers, and terminated by 0:

	s, err := ipasir.New(ipasir.Config{})
	if err != nil {
		return err
	}
	defer s.Release()
	for _, lit := range []int{1, 2, 0, -1, 2, 0} {
		if err := s.AddLiteral(lit); err != nil {
			return err
		}
	}
	_ = s.Assume(-2)
	res, err := s.Solve() // ipasir.Unsatisfiable
	failed, err := s.AssumptionFailed(-2) // true

Assumptions only hold for the next call to Solve or SolveBounded and are
forgotten as soon as it returns. Clauses are never forgotten: to retract a
clause, add an activation literal to it and assume its negation while the
clause must hold.

Sessions move between three states. A new session is in StateInput. A call
that returns Satisfiable moves it to StateSat, where Value can be called;
Unsatisfiable moves it to StateUnsat, where AssumptionFailed can be called.
Adding a literal or an assumption brings it back to StateInput.

# Engines

Engines register themselves under a name, the same way database/sql drivers
do. Importing a package for its side effects makes its engine available:

	import _ "github.com/crillab/incsat/solver" // "gophersat", the default
	import _ "github.com/crillab/incsat/ginisat" // "gini"

# Threading

A Session must not be used from several goroutines at once. Termination and
learn callbacks run on the goroutine that called Solve and must not call back
into the session; doing so returns an InvalidStateError. Distinct sessions
share nothing and can be used concurrently.
*/
package ipasir
