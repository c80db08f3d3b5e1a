package bf

import (
	"io"
	"text/scanner"

	"github.com/pkg/errors"
)

type parser struct {
	s     scanner.Scanner
	eof   bool   // Have we reached eof yet?
	token string // Last token read
}

// Parse parses the formula from the given input Reader.
// It returns the corresponding Formula.
// Formulas are written using the following operators (from lowest to highest priority) :
//
//   - ";" separates formulas that must all hold,
//   - for an equivalence, the "=" operator,
//   - for an implication, the "->" operator,
//   - for a disjunction ("or"), the "|" operator,
//   - for a conjunction ("and"), the "&" operator,
//   - for a negation, the "^" unary operator.
//
// Parentheses can be used to group subformulas, and "{a, b, c}" states
// exactly one of the listed variables is true.
func Parse(r io.Reader) (Formula, error) {
	p := &parser{}
	p.s.Init(r)
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.SkipComments | scanner.ScanComments
	p.s.Error = func(*scanner.Scanner, string) {}
	p.scan()
	return p.parseStatements()
}

func isOperator(token string) bool {
	switch token {
	case "=", "-", "|", "&", ";", ",":
		return true
	default:
		return false
	}
}

func (p *parser) scan() {
	if p.eof {
		return
	}
	p.eof = p.s.Scan() == scanner.EOF
	p.token = p.s.TokenText()
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(errors.Errorf(format, args...), "at %s", p.s.Position)
}

func (p *parser) unexpected() error {
	if p.eof {
		return p.errorf("unexpected EOF")
	}
	return p.errorf("unexpected token %q", p.token)
}

// expect consumes tok, or fails.
func (p *parser) expect(tok string) error {
	if p.eof || p.token != tok {
		return errors.Wrapf(p.unexpected(), "expected %q", tok)
	}
	p.scan()
	return nil
}

func (p *parser) parseStatements() (Formula, error) {
	var res and
	for {
		f, err := p.parseEquiv()
		if err != nil {
			return nil, err
		}
		res = append(res, f)
		if p.eof {
			break
		}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
		if p.eof { // Trailing semicolon
			break
		}
	}
	if len(res) == 1 {
		return res[0], nil
	}
	return res, nil
}

// parseBinary parses "operand (op rhs)?", where rhs is parsed by next and
// the operator is right-associative.
func (p *parser) parseBinary(op string, operand, rhs func() (Formula, error), build func(f1, f2 Formula) Formula) (Formula, error) {
	f, err := operand()
	if err != nil {
		return nil, err
	}
	if p.eof || p.token != op {
		return f, nil
	}
	p.scan()
	f2, err := rhs()
	if err != nil {
		return nil, err
	}
	return build(f, f2), nil
}

func (p *parser) parseEquiv() (Formula, error) {
	return p.parseBinary("=", p.parseImplies, p.parseEquiv, Eq)
}

func (p *parser) parseImplies() (Formula, error) {
	f, err := p.parseOr()
	if err != nil || p.eof || p.token != "-" {
		return f, err
	}
	p.scan()
	if err := p.expect(">"); err != nil {
		return nil, err
	}
	f2, err := p.parseImplies()
	if err != nil {
		return nil, err
	}
	return Implies(f, f2), nil
}

func (p *parser) parseOr() (Formula, error) {
	return p.parseBinary("|", p.parseAnd, p.parseOr, func(f1, f2 Formula) Formula { return Or(f1, f2) })
}

func (p *parser) parseAnd() (Formula, error) {
	return p.parseBinary("&", p.parseNot, p.parseAnd, func(f1, f2 Formula) Formula { return And(f1, f2) })
}

func (p *parser) parseNot() (Formula, error) {
	if p.eof || p.token != "^" {
		return p.parseBasic()
	}
	p.scan()
	f, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return Not(f), nil
}

func (p *parser) parseBasic() (Formula, error) {
	switch {
	case p.eof || isOperator(p.token) || p.token == ")" || p.token == "}":
		return nil, p.unexpected()
	case p.token == "(":
		p.scan()
		f, err := p.parseEquiv()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return f, nil
	case p.token == "{":
		p.scan()
		return p.parseUnique()
	default:
		name := p.token
		p.scan()
		return Var(name), nil
	}
}

// parseUnique parses the comma-separated variables of a "{...}" block, whose opening brace was consumed.
func (p *parser) parseUnique() (Formula, error) {
	var names []string
	for {
		if p.eof || isOperator(p.token) || p.token == "(" || p.token == ")" || p.token == "{" || p.token == "}" {
			return nil, errors.Wrap(p.unexpected(), "expected variable name")
		}
		names = append(names, p.token)
		p.scan()
		if !p.eof && p.token == "}" {
			p.scan()
			return Unique(names...), nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}
