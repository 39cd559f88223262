package formula

import (
	"math"
	"strings"
	"unicode/utf8"
)

// builtin computes a function result from evaluated arguments.
type builtin func(args []Value) Value

// builtins maps upper-case function names to implementations. IF is lazy
// and handled in callNode.eval.
var builtins = map[string]builtin{
	"SUM":     aggregate(sum),
	"AVG":     aggregate(average),
	"AVERAGE": aggregate(average),
	"MAX":     aggregate(maximum),
	"MIN":     aggregate(minimum),
	"COUNT":   aggregate(func(nums []float64) Value { return Number(float64(len(nums))) }),
	"LEN":     fnLen,
	"ABS":     fnAbs,
	"ROUND":   fnRound,
	"CONCAT":  fnConcat,
}

func (n *callNode) eval(c *evalContext) Value {
	if n.name == "IF" {
		return n.evalIf(c)
	}
	fn, ok := builtins[n.name]
	if !ok {
		return Error(ErrorValue)
	}
	args := make([]Value, len(n.args))
	for i, arg := range n.args {
		v := arg.eval(c)
		if v.IsError() {
			return v
		}
		args[i] = v
	}
	return fn(args)
}

// evalIf evaluates only the branch selected by the condition.
func (n *callNode) evalIf(c *evalContext) Value {
	if len(n.args) < 2 || len(n.args) > 3 {
		return Error(ErrorValue)
	}
	cond := n.args[0].eval(c)
	if cond.IsError() {
		return cond
	}
	if cond.truthy() {
		return n.args[1].eval(c)
	}
	if len(n.args) == 3 {
		return n.args[2].eval(c)
	}
	return Bool(false)
}

// aggregate flattens lists and numeric scalars into one list of numbers.
// Empty, boolean and non-numeric text arguments are skipped.
func aggregate(fn func([]float64) Value) builtin {
	return func(args []Value) Value {
		var nums []float64
		for _, arg := range args {
			switch arg.Kind {
			case KindList:
				nums = append(nums, arg.List...)
			case KindNumber:
				nums = append(nums, arg.Num)
			case KindString:
				if f, ok := ParseNumber(arg.Str); ok {
					nums = append(nums, f)
				}
			}
		}
		return fn(nums)
	}
}

func sum(nums []float64) Value {
	total := 0.0
	for _, f := range nums {
		total += f
	}
	return Number(total)
}

func average(nums []float64) Value {
	if len(nums) == 0 {
		return Error(ErrorValue)
	}
	return Number(sum(nums).Num / float64(len(nums)))
}

func maximum(nums []float64) Value {
	if len(nums) == 0 {
		return Number(0)
	}
	m := nums[0]
	for _, f := range nums[1:] {
		m = math.Max(m, f)
	}
	return Number(m)
}

func minimum(nums []float64) Value {
	if len(nums) == 0 {
		return Number(0)
	}
	m := nums[0]
	for _, f := range nums[1:] {
		m = math.Min(m, f)
	}
	return Number(m)
}

func fnLen(args []Value) Value {
	if len(args) != 1 {
		return Error(ErrorValue)
	}
	return Number(float64(utf8.RuneCountInString(args[0].String())))
}

func fnAbs(args []Value) Value {
	if len(args) != 1 {
		return Error(ErrorValue)
	}
	f, ok := args[0].toNumber()
	if !ok {
		return Error(ErrorValue)
	}
	return Number(math.Abs(f))
}

// fnRound rounds half away from zero to the given number of digits (default 0).
func fnRound(args []Value) Value {
	if len(args) < 1 || len(args) > 2 {
		return Error(ErrorValue)
	}
	f, ok := args[0].toNumber()
	if !ok {
		return Error(ErrorValue)
	}
	digits := 0.0
	if len(args) == 2 {
		d, ok := args[1].toNumber()
		if !ok {
			return Error(ErrorValue)
		}
		digits = math.Trunc(d)
	}
	p := math.Pow(10, digits)
	return Number(math.Round(f*p) / p)
}

func fnConcat(args []Value) Value {
	var b strings.Builder
	for _, arg := range args {
		b.WriteString(arg.String())
	}
	return String(b.String())
}
