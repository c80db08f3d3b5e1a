package dimacs

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// An Adder is anything clauses can be streamed into, literal by literal.
// *ipasir.Session is an Adder.
type Adder interface {
	AddLiteral(lit int) error
	SetVariableCount(n int) error
}

type loader struct {
	a Adder
}

func (l loader) Header(h Header) error {
	if h.NbVars > 0 {
		return l.a.SetVariableCount(h.NbVars)
	}
	return nil
}

func (l loader) Literal(lit int) error { return l.a.AddLiteral(lit) }

func (l loader) Assume(int) error {
	return errors.New("assumptions cannot be loaded, the file must be replayed")
}

// Load streams the clauses of the file read from r into a.
// Files holding assumption queries are rejected.
func Load(r io.Reader, a Adder) (Header, error) {
	var hd Header
	err := Parse(r, headerSpy{Handler: loader{a: a}, hd: &hd})
	return hd, err
}

type headerSpy struct {
	Handler
	hd *Header
}

func (h headerSpy) Header(hd Header) error {
	*h.hd = hd
	return h.Handler.Header(hd)
}

// A Problem is a CNF held in memory.
type Problem struct {
	NbVars  int
	Clauses [][]int
}

type collector struct {
	pb     *Problem
	clause []int
}

func (c *collector) Header(h Header) error {
	c.pb.NbVars = h.NbVars
	c.pb.Clauses = make([][]int, 0, h.NbClauses)
	return nil
}

func (c *collector) Literal(lit int) error {
	if lit == 0 {
		c.pb.Clauses = append(c.pb.Clauses, c.clause)
		c.clause = nil
		return nil
	}
	if v := abs(lit); v > c.pb.NbVars {
		c.pb.NbVars = v
	}
	c.clause = append(c.clause, lit)
	return nil
}

func (c *collector) Assume(int) error {
	return errors.New("unexpected assumptions in a cnf problem")
}

// ReadProblem reads a whole CNF file.
func ReadProblem(r io.Reader) (*Problem, error) {
	var pb Problem
	if err := Parse(r, &collector{pb: &pb}); err != nil {
		return nil, err
	}
	return &pb, nil
}

// CNF returns a representation of the problem using the DIMACS syntax.
func (pb *Problem) CNF() string {
	var sb strings.Builder
	_ = Write(&sb, pb.NbVars, pb.Clauses)
	return sb.String()
}

// Write writes clauses in the DIMACS CNF syntax.
func Write(w io.Writer, nbVars int, clauses [][]int) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)
	buf = append(buf, "p cnf "...)
	buf = strconv.AppendInt(buf, int64(nbVars), 10)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(len(clauses)), 10)
	buf = append(buf, '\n')
	if _, err := bw.Write(buf); err != nil {
		return errors.Wrap(err, "could not write header")
	}
	for _, clause := range clauses {
		buf = buf[:0]
		for _, lit := range clause {
			buf = strconv.AppendInt(buf, int64(lit), 10)
			buf = append(buf, ' ')
		}
		buf = append(buf, '0', '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrap(err, "could not write clause")
		}
	}
	return errors.Wrap(bw.Flush(), "could not write problem")
}

func abs(lit int) int {
	if lit < 0 {
		return -lit
	}
	return lit
}
