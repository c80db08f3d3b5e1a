// Package bf offers facilities to test the satisfiability of generic boolean formula.
//
// SAT solvers usually expect as an input CNF formulas.
// A CNF, or Conjunctive Normal Form, is a set of clauses that must all be true, each clause
// being a set of potentially negated literals. For the clause to be true, at least one of
// these literals must be true.
//
// However, manually translating a given boolean formula to an equivalent CNF is tedious and error-prone.
// This package provides a set of logical connectors to define and solve generic logical formulas.
// Those formulas are then automatically translated to CNF and fed to an incremental session
// of package ipasir.
//
// For example, the following boolean formula:
//
//	!(a & b) -> ((c | !d) & !(c & (e <-> !c)) & !(a xor b))
//
// Will be defined with the following code:
//
//	f := Not(Implies(And(Var("a"), Var("b")), And(Or(Var("c"), Not(Var("d"))), Not(And(Var("c"), Eq(Var("e"), Not(Var("c"))))), Not(Xor(Var("a"), Var("b"))))))
//
// Solve(f) opens a session on the default engine, asserts f and returns a model such as
//
//	map[a:true b:true c:false d:true e:false]
//
// The translation adds a fresh variable for each conjunction nested in a disjunction,
// so it is polynomial in time and space.
//
// An Encoder keeps a session open, so that formulas can be asserted between two calls to Solve
// and variables can be assumed for a single call:
//
//	enc, _ := NewEncoder(session)
//	enc.Assert(Or(Var("a"), Var("b")))
//	res, _ := enc.Solve(Not(Var("a")))
package bf
