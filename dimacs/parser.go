// Package dimacs reads and writes problems in the DIMACS CNF format and in its
// incremental variant, iCNF.
//
// A CNF file starts with a "p cnf <vars> <clauses>" header and lists clauses as
// 0-terminated literals. An iCNF file starts with "p inccnf" and interleaves
// clauses with "a" lines, each one a 0-terminated list of assumptions asking for
// a solve. Lines starting with "c" are comments and a line starting with "%"
// ends the problem.
package dimacs

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Format is the kind of file being read.
type Format int

const (
	// CNF is a plain "p cnf" problem.
	CNF Format = iota
	// ICNF is an incremental "p inccnf" problem.
	ICNF
)

func (f Format) String() string {
	if f == ICNF {
		return "inccnf"
	}
	return "cnf"
}

// A Header describes the problem line of a file.
// NbVars and NbClauses are 0 for iCNF files.
type Header struct {
	Format    Format
	NbVars    int
	NbClauses int
}

// A Handler is fed with the content of a file as it is parsed.
type Handler interface {
	// Header is called once, before anything else.
	Header(h Header) error
	// Literal is called on each literal of a clause; 0 ends the clause.
	Literal(lit int) error
	// Assume is called on each literal of an "a" line; 0 ends the query.
	Assume(lit int) error
}

const maxLineSize = 64 * 1024 * 1024

// Parse reads a CNF or iCNF file from r and feeds h.
// Errors carry the line number where they happened.
func Parse(r io.Reader, h Handler) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var (
		header   *Header
		lineNb   int
		openLits int // Literals of the current clause read so far
		assuming bool
	)
	atLine := func(err error) error { return errors.Wrapf(err, "line %d", lineNb) }
scan:
	for sc.Scan() {
		lineNb++
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(fields[0], "c"):
			continue
		case strings.HasPrefix(fields[0], "%"):
			break scan
		case fields[0] == "p":
			if header != nil {
				return atLine(errors.New("duplicate header"))
			}
			hd, err := parseHeader(fields)
			if err != nil {
				return atLine(err)
			}
			header = &hd
			if err := h.Header(hd); err != nil {
				return atLine(err)
			}
			continue
		}
		if header == nil {
			return atLine(errors.Errorf("expected header, got %q", line))
		}
		if fields[0] == "a" {
			if header.Format != ICNF {
				return atLine(errors.New("assumptions are only allowed in inccnf files"))
			}
			if openLits != 0 {
				return atLine(errors.New("assumptions inside an unterminated clause"))
			}
			assuming = true
			fields = fields[1:]
		}
		for _, field := range fields {
			lit, err := strconv.Atoi(field)
			if err != nil {
				return atLine(errors.Errorf("invalid literal %q", field))
			}
			if header.Format == CNF && (lit > header.NbVars || -lit > header.NbVars) {
				return atLine(errors.Errorf("invalid literal %d for problem with %d vars only", lit, header.NbVars))
			}
			if assuming {
				err = h.Assume(lit)
				assuming = lit != 0
			} else {
				err = h.Literal(lit)
				openLits++
				if lit == 0 {
					openLits = 0
				}
			}
			if err != nil {
				return atLine(err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "could not read problem")
	}
	switch {
	case header == nil:
		return errors.New("missing header")
	case openLits != 0:
		return errors.New("unfinished clause while EOF found")
	case assuming:
		return errors.New("unfinished assumptions while EOF found")
	}
	return nil
}

func parseHeader(fields []string) (Header, error) {
	if len(fields) < 2 {
		return Header{}, errors.New("truncated header")
	}
	switch fields[1] {
	case "inccnf":
		return Header{Format: ICNF}, nil
	case "cnf":
		if len(fields) != 4 {
			return Header{}, errors.Errorf("expected 4 fields in header, got %d", len(fields))
		}
		nbVars, err := strconv.Atoi(fields[2])
		if err != nil || nbVars < 0 {
			return Header{}, errors.Errorf("invalid number of vars %q", fields[2])
		}
		nbClauses, err := strconv.Atoi(fields[3])
		if err != nil || nbClauses < 0 {
			return Header{}, errors.Errorf("invalid number of clauses %q", fields[3])
		}
		return Header{Format: CNF, NbVars: nbVars, NbClauses: nbClauses}, nil
	default:
		return Header{}, errors.Errorf("unknown format %q", fields[1])
	}
}
