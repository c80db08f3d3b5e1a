package bf

import (
	"fmt"
	"math"
	"strings"
)

// A Formula is any kind of boolean formula, not necessarily in CNF.
type Formula interface {
	nnf() Formula
	String() string
	// Eval tells whether the formula is true under model.
	// Variables missing from model are false.
	Eval(model map[string]bool) bool
}

type trueConst struct{}

// True is the constant denoting a tautology.
var True Formula = trueConst{}

func (t trueConst) nnf() Formula {
	return t
}

func (trueConst) String() string {
	return "⊤"
}

func (trueConst) Eval(map[string]bool) bool {
	return true
}

type falseConst struct{}

// False is the constant denoting a contradiction.
var False Formula = falseConst{}

func (f falseConst) nnf() Formula {
	return f
}

func (falseConst) String() string {
	return "⊥"
}

func (falseConst) Eval(map[string]bool) bool {
	return false
}

// Var generates a named boolean variable in a formula.
func Var(name string) Formula {
	return variable{name: name}
}

// A variable is either named by the user or created while encoding a formula.
type variable struct {
	name  string
	dummy bool
}

func (v variable) nnf() Formula {
	return lit{v: v}
}

func (v variable) String() string {
	return v.name
}

func (v variable) Eval(model map[string]bool) bool {
	return model[v.name]
}

// lit is a possibly negated variable. Only NNF formulas contain lits.
type lit struct {
	v      variable
	signed bool
}

func (l lit) nnf() Formula { return l }

func (l lit) String() string {
	if l.signed {
		return "not(" + l.v.name + ")"
	}
	return l.v.name
}

func (l lit) Eval(model map[string]bool) bool {
	return l.v.Eval(model) != l.signed
}

// Not represents a negation. It negates the given subformula.
func Not(f Formula) Formula {
	return not{f}
}

type not [1]Formula

// negateAll returns the NNF negations of fs.
func negateAll(fs []Formula) []Formula {
	res := make([]Formula, len(fs))
	for i, f := range fs {
		res[i] = not{f}.nnf()
	}
	return res
}

func (n not) nnf() Formula {
	switch f := n[0].(type) {
	case variable:
		return lit{v: f, signed: true}
	case lit:
		return lit{v: f.v, signed: !f.signed}
	case not:
		return f[0].nnf()
	case and: // De Morgan
		return or(negateAll(f)).nnf()
	case or:
		return and(negateAll(f)).nnf()
	case trueConst:
		return False
	case falseConst:
		return True
	default:
		panic(fmt.Sprintf("invalid formula type %T", f))
	}
}

func (n not) String() string {
	return "not(" + n[0].String() + ")"
}

func (n not) Eval(model map[string]bool) bool {
	return !n[0].Eval(model)
}

// And generates a conjunction of subformulas. An empty conjunction is true.
func And(subs ...Formula) Formula {
	return and(subs)
}

type and []Formula

func (a and) nnf() Formula {
	var res and
	for _, sub := range a {
		switch sub := sub.nnf().(type) {
		case and:
			res = append(res, sub...)
		case trueConst:
		case falseConst:
			return False
		default:
			res = append(res, sub)
		}
	}
	switch len(res) {
	case 0:
		return True
	case 1:
		return res[0]
	default:
		return res
	}
}

func (a and) String() string { return join("and", a) }

func (a and) Eval(model map[string]bool) bool {
	for _, sub := range a {
		if !sub.Eval(model) {
			return false
		}
	}
	return true
}

// Or generates a disjunction of subformulas. An empty disjunction is false.
func Or(subs ...Formula) Formula {
	return or(subs)
}

type or []Formula

func (o or) nnf() Formula {
	var res or
	for _, sub := range o {
		switch sub := sub.nnf().(type) {
		case or:
			res = append(res, sub...)
		case falseConst:
		case trueConst:
			return True
		default:
			res = append(res, sub)
		}
	}
	switch len(res) {
	case 0:
		return False
	case 1:
		return res[0]
	default:
		return res
	}
}

func (o or) String() string { return join("or", o) }

func (o or) Eval(model map[string]bool) bool {
	for _, sub := range o {
		if sub.Eval(model) {
			return true
		}
	}
	return false
}

func join(op string, subs []Formula) string {
	var sb strings.Builder
	sb.WriteString(op)
	sb.WriteByte('(')
	for i, sub := range subs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(sub.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Implies indicates a subformula implies another one.
func Implies(f1, f2 Formula) Formula {
	return or{not{f1}, f2}
}

// Eq indicates a subformula is equivalent to another one.
func Eq(f1, f2 Formula) Formula {
	return and{or{not{f1}, f2}, or{f1, not{f2}}}
}

// Xor indicates exactly one of the two given subformulas is true.
func Xor(f1, f2 Formula) Formula {
	return and{or{not{f1}, not{f2}}, or{f1, f2}}
}

// Unique indicates exactly one of the given variables must be true.
// Above 4 variables, it uses the product encoding, which adds dummy variables
// but only O(n) clauses.
func Unique(names ...string) Formula {
	vars := make([]variable, len(names))
	for i, name := range names {
		vars[i] = variable{name: name}
	}
	return unique(vars)
}

// uniquePairwise states exactly one var is true with one clause per pair of vars.
func uniquePairwise(vars []variable) Formula {
	atLeast := make(or, len(vars))
	for i, v := range vars {
		atLeast[i] = v
	}
	res := and{atLeast}
	for i := range vars {
		for j := i + 1; j < len(vars); j++ {
			res = append(res, or{not{vars[i]}, not{vars[j]}})
		}
	}
	return res
}

// unique lays vars out on a grid and requires exactly one row and one column to be selected.
func unique(vars []variable) Formula {
	if len(vars) <= 4 {
		return uniquePairwise(vars)
	}
	sqrt := math.Sqrt(float64(len(vars)))
	nbRows := int(sqrt + 0.5)
	nbCols := int(math.Ceil(sqrt))
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.name
	}
	suffix := strings.Join(names, "-")
	rows := make([]variable, nbRows)
	rowMembers := make([]or, nbRows)
	for i := range rows {
		rows[i] = variable{name: fmt.Sprintf("row-%d-%s", i, suffix), dummy: true}
	}
	cols := make([]variable, nbCols)
	colMembers := make([]or, nbCols)
	for i := range cols {
		cols[i] = variable{name: fmt.Sprintf("col-%d-%s", i, suffix), dummy: true}
	}
	for i, v := range vars {
		rowMembers[i/nbCols] = append(rowMembers[i/nbCols], v)
		colMembers[i%nbCols] = append(colMembers[i%nbCols], v)
	}
	res := make(and, 0, nbRows+nbCols+2)
	for i, row := range rows {
		res = append(res, Eq(row, rowMembers[i]))
	}
	for i, col := range cols {
		res = append(res, Eq(col, colMembers[i]))
	}
	return append(res, unique(rows), unique(cols))
}
