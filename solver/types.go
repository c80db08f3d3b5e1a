package solver

// Status is the status of the problem, or of a literal, at a given moment.
type Status byte

const (
	// Indet means no verdict was reached yet, or the literal is unbound.
	Indet = Status(iota)
	// Sat means the problem is satisfiable, or the literal is true.
	Sat
	// Unsat means the problem is unsatisfiable, or the literal is false.
	Unsat
)

func (s Status) String() string {
	switch s {
	case Indet:
		return "INDETERMINATE"
	case Sat:
		return "SAT"
	case Unsat:
		return "UNSAT"
	default:
		panic("invalid status")
	}
}

// Var start at 0 ; thus the CNF variable 1 is encoded as the Var 0.
type Var int32

// Lit start at 0 and are positive ; the sign is the last bit.
// Thus the CNF literal -3 is encoded as 2 * (3-1) + 1 = 5.
type Lit int32

// noLit is returned when no literal is available.
const noLit = Lit(-1)

// IntToLit converts a CNF literal to a Lit.
func IntToLit(i int) Lit {
	if i < 0 {
		return Lit(2*(-i-1) + 1)
	}
	return Lit(2 * (i - 1))
}

// IntToVar converts a CNF variable to a Var.
func IntToVar(i int) Var {
	return Var(i - 1)
}

// SignedLit returns the Lit associated to v, negated if 'signed', positive else.
func (v Var) SignedLit(signed bool) Lit {
	if signed {
		return Lit(v*2) + 1
	}
	return Lit(v * 2)
}

// Int returns the CNF variable of v.
func (v Var) Int() int {
	return int(v) + 1
}

// Var returns the variable of l.
func (l Lit) Var() Var {
	return Var(l / 2)
}

// Int returns the equivalent CNF literal.
func (l Lit) Int() int {
	res := int(l/2) + 1
	if l&1 == 1 {
		return -res
	}
	return res
}

// IsPositive is true iff l is > 0
func (l Lit) IsPositive() bool {
	return l&1 == 0
}

// Negation returns -l.
func (l Lit) Negation() Lit {
	return l ^ 1
}

// The level a variable was bound at.
// Level 1 holds top-level bindings, decisions start at level 2, 0 means unbound.
// A negative value means the variable was bound to false.
type decLevel int

func abs(val decLevel) decLevel {
	if val < 0 {
		return -val
	}
	return val
}

// If l is negative, -lvl is returned. Else, lvl is returned.
func signedLevel(l Lit, lvl decLevel) decLevel {
	if l.IsPositive() {
		return lvl
	}
	return -lvl
}

// A Model associates each variable with the level it was bound at, signed by its value.
type Model []decLevel
