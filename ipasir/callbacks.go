package ipasir

import "context"

// A Terminator is polled by the engine during search.
// Returning true asks the engine to stop as soon as possible.
//
// Terminate runs on the goroutine that called Solve. It must be fast and
// must not call back into the session.
type Terminator interface {
	Terminate() bool
}

// TerminatorFunc adapts an ordinary function to the Terminator interface.
type TerminatorFunc func() bool

// Terminate calls f().
func (f TerminatorFunc) Terminate() bool { return f() }

// ContextTerminator returns a Terminator that asks for termination once ctx is done.
func ContextTerminator(ctx context.Context) Terminator {
	return TerminatorFunc(func() bool {
		return ctx.Err() != nil
	})
}

// A Learner observes clauses learned during search.
//
// The clause is terminated by 0. Its backing array is reused once Learn
// returns, so it must be copied to be kept. Learn runs on the goroutine that
// called Solve and must not call back into the session.
type Learner interface {
	Learn(clause []int)
}

// LearnerFunc adapts an ordinary function to the Learner interface.
type LearnerFunc func(clause []int)

// Learn calls f(clause).
func (f LearnerFunc) Learn(clause []int) { f(clause) }
