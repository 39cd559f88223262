// Package formula evaluates cell formulas against the current grid. Nothing
// is cached: every call reads the grid as it is now.
package formula

import (
	"math"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
)

// Source is the grid a formula reads from.
type Source interface {
	Raw(row, col int) (string, bool)
	Rows() int
	Cols() int
	Headers() []string
}

// Evaluator computes cell values from a Source.
type Evaluator struct {
	src Source
}

// New returns an evaluator over src.
func New(src Source) *Evaluator {
	return &Evaluator{src: src}
}

// evalContext is the state of one evaluation call chain.
type evalContext struct {
	src      Source
	columns  columnResolver
	visiting map[address.Index]bool
}

func (e *Evaluator) newContext() *evalContext {
	return &evalContext{
		src:      e.src,
		columns:  headerResolver(e.src.Headers()),
		visiting: make(map[address.Index]bool),
	}
}

// Cell returns the evaluated value at a 0-based position. Positions outside
// the grid read as empty.
func (e *Evaluator) Cell(row, col int) Value {
	return e.newContext().cell(row, col)
}

// Eval evaluates formula text, with or without its leading "=", that is not
// bound to a cell.
func (e *Evaluator) Eval(text string) Value {
	return e.newContext().formula(strings.TrimPrefix(text, "="))
}

// Display returns the evaluated value of a cell as text.
func (e *Evaluator) Display(row, col int) string {
	return e.Cell(row, col).String()
}

func (c *evalContext) cell(row, col int) Value {
	raw, ok := c.src.Raw(row, col)
	if !ok {
		return Value{}
	}
	if !strings.HasPrefix(raw, "=") {
		return literal(raw)
	}

	idx := address.Index{Row: row, Col: col}
	if c.visiting[idx] {
		return Error(CycleValue)
	}
	c.visiting[idx] = true
	defer delete(c.visiting, idx)

	return c.formula(raw[1:])
}

func (c *evalContext) formula(text string) Value {
	n, err := parse(text, c.columns)
	if err != nil {
		return Error(ErrorValue)
	}
	return finalize(n.eval(c))
}

// finalize turns an expression result into a cell result.
func finalize(v Value) Value {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return Error(ErrorValue)
		}
		return Number(round8(v.Num))
	case KindList:
		return Error(ErrorValue)
	}
	return v
}

func (n *numberNode) eval(*evalContext) Value { return Number(n.value) }

func (n *stringNode) eval(*evalContext) Value { return String(n.value) }

func (n *boolNode) eval(*evalContext) Value { return Bool(n.value) }

func (n *refNode) eval(c *evalContext) Value {
	return c.cell(n.row, n.col)
}

// eval collects the numeric cells of the range. Empty and non-numeric cells
// are skipped; a cycle anywhere in the range poisons the result.
func (n *rangeNode) eval(c *evalContext) Value {
	r1, r2 := n.startRow, n.endRow
	if r1 >= 0 && r2 >= 0 && r1 > r2 {
		r1, r2 = r2, r1
	}
	if r1 < 0 {
		r1 = 0
	}
	if r2 < 0 {
		r2 = c.src.Rows() - 1
	}
	c1, c2 := n.startCol, n.endCol
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	r2 = min(r2, c.src.Rows()-1)
	c2 = min(c2, c.src.Cols()-1)

	list := []float64{}
	for row := r1; row <= r2; row++ {
		for col := c1; col <= c2; col++ {
			v := c.cell(row, col)
			switch v.Kind {
			case KindNumber:
				list = append(list, v.Num)
			case KindError:
				if v.Str == CycleValue {
					return v
				}
			}
		}
	}
	return Value{Kind: KindList, List: list}
}

func (n *unaryNode) eval(c *evalContext) Value {
	v := n.operand.eval(c)
	if v.IsError() {
		return v
	}
	if n.op == "!" {
		return Bool(!v.truthy())
	}
	f, ok := v.toNumber()
	if !ok {
		return Error(ErrorValue)
	}
	if n.op == "-" {
		return Number(-f)
	}
	return Number(f)
}

func (n *binaryNode) eval(c *evalContext) Value {
	// Logical operators short-circuit.
	switch n.op {
	case "&&":
		left := n.left.eval(c)
		if left.IsError() || !left.truthy() {
			return errOr(left, Bool(false))
		}
		right := n.right.eval(c)
		return errOr(right, Bool(right.truthy()))
	case "||":
		left := n.left.eval(c)
		if left.IsError() {
			return left
		}
		if left.truthy() {
			return Bool(true)
		}
		right := n.right.eval(c)
		return errOr(right, Bool(right.truthy()))
	}

	left := n.left.eval(c)
	if left.IsError() {
		return left
	}
	right := n.right.eval(c)
	if right.IsError() {
		return right
	}
	if left.Kind == KindList || right.Kind == KindList {
		return Error(ErrorValue)
	}

	switch n.op {
	case "&":
		return String(left.String() + right.String())
	case "+":
		if left.Kind == KindString || right.Kind == KindString {
			return String(left.String() + right.String())
		}
	case "=", "==", "!=", "<>", "<", "<=", ">", ">=":
		return Bool(compare(n.op, left, right))
	}

	a, okA := left.toNumber()
	b, okB := right.toNumber()
	if !okA || !okB {
		return Error(ErrorValue)
	}
	switch n.op {
	case "+":
		return Number(a + b)
	case "-":
		return Number(a - b)
	case "*":
		return Number(a * b)
	case "/":
		if b == 0 {
			return Error(ErrorValue)
		}
		return Number(a / b)
	case "%":
		if b == 0 {
			return Error(ErrorValue)
		}
		return Number(math.Mod(a, b))
	}
	return Error(ErrorValue)
}

func errOr(v, otherwise Value) Value {
	if v.IsError() {
		return v
	}
	return otherwise
}

// compare applies a comparison operator, numerically when both sides read
// as numbers and by text otherwise.
func compare(op string, left, right Value) bool {
	var cmp int
	a, okA := left.toNumber()
	b, okB := right.toNumber()
	if okA && okB && !(left.Kind == KindString && right.Kind == KindEmpty) && !(left.Kind == KindEmpty && right.Kind == KindString) {
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(left.String(), right.String())
	}

	switch op {
	case "=", "==":
		return cmp == 0
	case "!=", "<>":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	}
	return cmp >= 0
}
