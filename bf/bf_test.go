package bf

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/incsat/ipasir"
)

func TestCNF(t *testing.T) {
	f := And(Or(Var("a"), Var("b")), Var("i"), Or(Var("g"), Var("h"), And(Var("c"), Or(Var("d"), Var("e")), Var("f"))))
	sat, model, err := Solve(f)
	require.NoError(t, err)
	require.True(t, sat, "problem was declared UNSAT")
	assert.True(t, f.Eval(model), "model %v does not satisfy %v", model, f)
}

func TestUnique(t *testing.T) {
	f := And(Var("a"), Unique("a", "b", "c", "d", "e"))
	sat, model, err := Solve(f)
	require.NoError(t, err)
	require.True(t, sat, "problem is declared unsat")
	assert.Equal(t, map[string]bool{"a": true, "b": false, "c": false, "d": false, "e": false}, model)

	f = And(Var("a"), Or(Var("b"), Var("c")), Unique("a", "b", "c", "d", "e"))
	sat, model, err = Solve(f)
	require.NoError(t, err)
	assert.False(t, sat, "problem is declared sat, model: %v", model)
}

func TestUniqueLarge(t *testing.T) {
	names := make([]string, 30)
	for i := range names {
		names[i] = fmt.Sprintf("v%d", i)
	}
	for _, chosen := range []int{0, 7, 29} {
		sat, model, err := Solve(And(Var(names[chosen]), Unique(names...)))
		require.NoError(t, err)
		require.True(t, sat)
		for i, name := range names {
			assert.Equal(t, i == chosen, model[name], name)
		}
	}
	sat, _, err := Solve(And(Var("v1"), Var("v2"), Unique(names...)))
	require.NoError(t, err)
	assert.False(t, sat)
}

func TestConstants(t *testing.T) {
	tests := []struct {
		f   Formula
		sat bool
	}{
		{True, true},
		{False, false},
		{And(), true},
		{Or(), false},
		{Not(False), true},
		{And(Var("a"), Not(True)), false},
		{Or(Var("a"), True), true},
	}
	for _, test := range tests {
		sat, _, err := Solve(test.f)
		require.NoError(t, err)
		assert.Equal(t, test.sat, sat, test.f.String())
	}
}

func TestEval(t *testing.T) {
	f := Xor(Var("a"), Implies(Var("b"), Var("c")))
	assert.True(t, f.Eval(map[string]bool{"a": true, "b": true}))
	assert.False(t, f.Eval(map[string]bool{"a": true}))
	assert.True(t, Eq(Var("a"), Not(Var("b"))).Eval(map[string]bool{"b": true}))
}

func TestString(t *testing.T) {
	f := And(Or(Var("a"), Not(Var("b"))), Not(Var("c")))
	assert.Equal(t, "and(or(a, not(b)), not(c))", f.String())
}

func newEncoder(t *testing.T) *Encoder {
	t.Helper()
	s, err := ipasir.New(ipasir.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Release() })
	enc, err := NewEncoder(s)
	require.NoError(t, err)
	return enc
}

func TestEncoderIncremental(t *testing.T) {
	enc := newEncoder(t)
	require.NoError(t, enc.Assert(Or(Var("a"), Var("b"))))
	require.NoError(t, enc.Assert(Implies(Var("a"), Var("c"))))

	res, err := enc.Solve(Not(Var("b")))
	require.NoError(t, err)
	require.Equal(t, ipasir.Satisfiable, res)
	model, err := enc.Model()
	require.NoError(t, err)
	assert.True(t, model["a"])
	assert.True(t, model["c"])

	res, err = enc.Solve(Not(Var("b")), Not(Var("c")))
	require.NoError(t, err)
	require.Equal(t, ipasir.Unsatisfiable, res)
	failed, err := enc.Failed()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, failed)

	require.NoError(t, enc.Assert(Not(Var("b"))))
	res, err = enc.Solve()
	require.NoError(t, err)
	require.Equal(t, ipasir.Satisfiable, res)
	assert.Equal(t, enc.Lit("a"), enc.Lit("a"), "indices must be stable")

	_, err = enc.Solve(And(Var("a"), Var("b")))
	assert.Error(t, err, "only literals can be assumed")
}

func TestEncoderOffset(t *testing.T) {
	s, err := ipasir.New(ipasir.Config{})
	require.NoError(t, err)
	defer func() { _ = s.Release() }()
	for _, lit := range []int{1, 2, 3, 0} {
		require.NoError(t, s.AddLiteral(lit))
	}
	enc, err := NewEncoder(s)
	require.NoError(t, err)
	assert.Equal(t, 4, enc.Lit("x"))
}

func ExampleSolve() {
	f := Not(Implies(
		And(Var("a"), Var("b")), And(Or(Var("c"), Not(Var("d"))),
			Not(And(Var("c"), Eq(Var("e"), Not(Var("c"))))), Not(Xor(Var("a"), Var("b"))))))
	sat, _, err := Solve(f)
	if err != nil {
		fmt.Printf("Could not solve: %v", err)
	} else if sat {
		fmt.Printf("Problem is satisfiable")
	} else {
		fmt.Printf("Problem is unsatisfiable")
	}
	// Output: Problem is satisfiable
}

func ExampleUnique() {
	f := And(Var("a"), Unique("a", "b", "c", "d", "e"))
	sat, model, err := Solve(f)
	if err != nil {
		fmt.Printf("Could not solve: %v", err)
	} else if sat {
		fmt.Printf("Problem is satisfiable: a=%t, b=%t, c=%t, d=%t", model["a"], model["b"], model["c"], model["d"])
	} else {
		fmt.Printf("Problem is unsatisfiable")
	}
	// Output: Problem is satisfiable: a=true, b=false, c=false, d=false
}

func ExampleDimacs() {
	f := Eq(And(Or(Var("a"), Not(Var("b"))), Not(Var("a"))), Var("b"))
	if err := Dimacs(f, os.Stdout); err != nil {
		fmt.Printf("Could not generate DIMACS file: %v", err)
	}
	// Output:
	// c a=2
	// c b=3
	// p cnf 4 6
	// -2 -1 0
	// 3 -1 0
	// 1 2 3 0
	// 2 -3 -4 0
	// -2 -4 0
	// 4 -3 0
}

func ExampleSolve_sudoku() {
	const varFmt = "line-%d-col-%d:%d" // Scheme for variable naming
	f := True
	// In each spot, exactly one number is written
	for line := 1; line <= 9; line++ {
		for col := 1; col <= 9; col++ {
			vars := make([]string, 9)
			for val := 1; val <= 9; val++ {
				vars[val-1] = fmt.Sprintf(varFmt, line, col, val)
			}
			f = And(f, Unique(vars...))
		}
	}
	// In each line, each number appears at least once.
	// Since there are 9 spots and 9 numbers, that means each number appears exactly once.
	for line := 1; line <= 9; line++ {
		for val := 1; val <= 9; val++ {
			var vars []Formula
			for col := 1; col <= 9; col++ {
				vars = append(vars, Var(fmt.Sprintf(varFmt, line, col, val)))
			}
			f = And(f, Or(vars...))
		}
	}
	// In each column, each number appears at least once.
	for col := 1; col <= 9; col++ {
		for val := 1; val <= 9; val++ {
			var vars []Formula
			for line := 1; line <= 9; line++ {
				vars = append(vars, Var(fmt.Sprintf(varFmt, line, col, val)))
			}
			f = And(f, Or(vars...))
		}
	}
	// In each 3x3 box, each number appears at least once.
	for lineB := 0; lineB < 3; lineB++ {
		for colB := 0; colB < 3; colB++ {
			for val := 1; val <= 9; val++ {
				var vars []Formula
				for lineOff := 1; lineOff <= 3; lineOff++ {
					line := lineB*3 + lineOff
					for colOff := 1; colOff <= 3; colOff++ {
						col := colB*3 + colOff
						vars = append(vars, Var(fmt.Sprintf(varFmt, line, col, val)))
					}
				}
				f = And(f, Or(vars...))
			}
		}
	}
	// Some spots already have a fixed value
	f = And(
		f,
		Var("line-1-col-1:5"),
		Var("line-1-col-2:3"),
		Var("line-1-col-5:7"),
		Var("line-2-col-1:6"),
		Var("line-2-col-4:1"),
		Var("line-2-col-5:9"),
		Var("line-2-col-6:5"),
		Var("line-3-col-2:9"),
		Var("line-3-col-3:8"),
		Var("line-3-col-8:6"),
		Var("line-4-col-1:8"),
		Var("line-4-col-5:6"),
		Var("line-4-col-9:3"),
		Var("line-5-col-1:4"),
		Var("line-5-col-4:8"),
		Var("line-5-col-6:3"),
		Var("line-5-col-9:1"),
		Var("line-6-col-1:7"),
		Var("line-6-col-5:2"),
		Var("line-6-col-9:6"),
		Var("line-7-col-2:6"),
		Var("line-7-col-7:2"),
		Var("line-7-col-8:8"),
		Var("line-8-col-4:4"),
		Var("line-8-col-5:1"),
		Var("line-8-col-6:9"),
		Var("line-8-col-9:5"),
		Var("line-9-col-5:8"),
		Var("line-9-col-8:7"),
		Var("line-9-col-9:9"),
	)
	sat, model, err := Solve(f)
	if err != nil || !sat {
		fmt.Println("Error: solving grid was found unsat")
		return
	}
	fmt.Println("The grid has a solution")
	for line := 1; line <= 9; line++ {
		for col := 1; col <= 9; col++ {
			for val := 1; val <= 9; val++ {
				if model[fmt.Sprintf(varFmt, line, col, val)] {
					fmt.Printf("%d", val)
				}
			}
		}
		fmt.Println()
	}
	// Output:
	// The grid has a solution
	// 534678912
	// 672195348
	// 198342567
	// 859761423
	// 426853791
	// 713924856
	// 961537284
	// 287419635
	// 345286179
}

func benchmarkUnique(n int) {
	vars := make([]string, n)
	for i := range vars {
		vars[i] = fmt.Sprintf("var-%d", i)
	}
	f := Unique(vars...)
	_, _, _ = Solve(f)
}

func BenchmarkUnique100(b *testing.B) {
	for i := 0; i < b.N; i++ {
		benchmarkUnique(100)
	}
}

func BenchmarkUnique1000(b *testing.B) {
	for i := 0; i < b.N; i++ {
		benchmarkUnique(1000)
	}
}
