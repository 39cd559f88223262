package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
)

// node is a parsed expression.
type node interface {
	eval(c *evalContext) Value
}

type numberNode struct{ value float64 }

type stringNode struct{ value string }

type boolNode struct{ value bool }

// refNode is a single-cell reference.
type refNode struct{ row, col int }

// rangeNode is a rectangular reference. A row of -1 means the range is
// open on that side (whole-column form).
type rangeNode struct {
	startRow, startCol int
	endRow, endCol     int
}

type unaryNode struct {
	op      string
	operand node
}

type binaryNode struct {
	op          string
	left, right node
}

type callNode struct {
	name string
	args []node
}

// columnResolver maps the column part of a reference to an index.
type columnResolver func(name string) (int, bool)

type parser struct {
	tokens  []token
	pos     int
	columns columnResolver
}

// parse turns formula text (without the leading "=") into an expression tree.
func parse(src string, columns columnResolver) (node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, columns: columns}
	if p.peek().typ == tokEOF {
		return nil, fmt.Errorf("empty formula")
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.typ != tokEOF {
		return nil, fmt.Errorf("unexpected %q at %d", tok.val, tok.pos)
	}
	return n, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.typ != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.typ != tokOp {
		return "", false
	}
	for _, op := range ops {
		if tok.val == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

// binaryLevel parses a left-associative chain of ops over operands from sub.
func (p *parser) binaryLevel(sub func() (node, error), ops ...string) (node, error) {
	left, err := sub()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp(ops...)
		if !ok {
			return left, nil
		}
		right, err := sub()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseOr() (node, error) {
	return p.binaryLevel(p.parseAnd, "||")
}

func (p *parser) parseAnd() (node, error) {
	return p.binaryLevel(p.parseComparison, "&&")
}

func (p *parser) parseComparison() (node, error) {
	return p.binaryLevel(p.parseConcat, "=", "==", "!=", "<>", "<", "<=", ">", ">=")
}

func (p *parser) parseConcat() (node, error) {
	return p.binaryLevel(p.parseAdditive, "&")
}

func (p *parser) parseAdditive() (node, error) {
	return p.binaryLevel(p.parseMultiplicative, "+", "-")
}

func (p *parser) parseMultiplicative() (node, error) {
	return p.binaryLevel(p.parseUnary, "*", "/", "%")
}

func (p *parser) parseUnary() (node, error) {
	if op, ok := p.acceptOp("-", "+", "!"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.typ {
	case tokNumber:
		f, err := strconv.ParseFloat(tok.val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", tok.val)
		}
		return &numberNode{value: f}, nil

	case tokString:
		return &stringNode{value: tok.val}, nil

	case tokLParen:
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().typ != tokRParen {
			return nil, fmt.Errorf("expected ')' to close '(' at %d", tok.pos)
		}
		return n, nil

	case tokIdent:
		if p.peek().typ == tokLParen {
			return p.parseCall(tok)
		}
		if p.peek().typ == tokColon {
			return p.parseRange(tok)
		}
		switch strings.ToUpper(tok.val) {
		case "TRUE":
			return &boolNode{value: true}, nil
		case "FALSE":
			return &boolNode{value: false}, nil
		}
		row, col, err := p.reference(tok.val)
		if err != nil {
			return nil, err
		}
		if row < 0 {
			return nil, fmt.Errorf("column %q needs a row number", tok.val)
		}
		return &refNode{row: row, col: col}, nil
	}
	return nil, fmt.Errorf("unexpected %q at %d", tok.val, tok.pos)
}

func (p *parser) parseCall(name token) (node, error) {
	p.next() // (
	call := &callNode{name: strings.ToUpper(name.val)}
	if p.peek().typ == tokRParen {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)

		switch tok := p.next(); tok.typ {
		case tokComma:
			continue
		case tokRParen:
			return call, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' in %s at %d", call.name, tok.pos)
		}
	}
}

func (p *parser) parseRange(start token) (node, error) {
	p.next() // :
	end := p.next()
	if end.typ != tokIdent {
		return nil, fmt.Errorf("expected reference after ':' at %d", end.pos)
	}
	r1, c1, err := p.reference(start.val)
	if err != nil {
		return nil, err
	}
	r2, c2, err := p.reference(end.val)
	if err != nil {
		return nil, err
	}
	return &rangeNode{startRow: r1, startCol: c1, endRow: r2, endCol: c2}, nil
}

// reference splits an identifier such as "B3", "$B$3", "Amount3" or "B"
// into a 0-based row (-1 when absent) and column.
func (p *parser) reference(ident string) (row, col int, err error) {
	name := strings.ReplaceAll(ident, "$", "")
	split := len(name)
	for split > 0 && isDigit(name[split-1]) {
		split--
	}
	prefix, digits := name[:split], name[split:]
	if prefix == "" {
		return 0, 0, fmt.Errorf("invalid reference %q", ident)
	}

	row = -1
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid row in %q", ident)
		}
		row = n - 1
	}

	col, ok := p.columns(prefix)
	if !ok {
		return 0, 0, fmt.Errorf("unknown column %q", prefix)
	}
	return row, col, nil
}

// headerResolver resolves the column part of a reference the same way as
// every other column argument: exact header, case-insensitive header, then
// column letters.
func headerResolver(headers []string) columnResolver {
	return func(name string) (int, bool) {
		col, err := address.ResolveColumnIndex(name, headers)
		return col, err == nil
	}
}
