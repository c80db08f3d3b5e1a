/*
Package solver provides an incremental CDCL SAT solver.

Describing a problem

Clauses are slices of Lit, built from DIMACS integers with IntToLit.
They can be added at any moment between two calls to Solve:

    s := solver.New(solver.DefaultOptions())
    s.AddClause([]solver.Lit{solver.IntToLit(1), solver.IntToLit(2), solver.IntToLit(3)})
    s.AddClause([]solver.Lit{solver.IntToLit(-1), solver.IntToLit(-4)})

Solving a problem

Solve takes a list of assumptions, i.e literals that must be true for this
call only, and a conflict budget (0 means no budget):

    status := s.Solve([]solver.Lit{solver.IntToLit(1)}, 0)

If the status is Sat, Value and Model give the model found. If it is Unsat,
Failed tells which assumptions were responsible for the conflict. If it is
Indet, the search was stopped by the conflict budget or by the predicate
given to SetTerminate.

Using the solver through a session

Importing this package registers the solver as the "gophersat" engine of
package ipasir, whose sessions add state checks, callbacks and metrics on
top of it. Options are then given as a string, see ParseOptions.
*/
package solver
