package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/diagnostics"
)

// number is an arithmetic accumulator that switches to float64 once a float
// operand has been seen.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func (n *number) promote() {
	if !n.isFloat {
		n.f = float64(n.i)
		n.isFloat = true
	}
}

func (n number) node() (*ast.Node, *Failure) {
	if !n.isFloat {
		return ast.Number(strconv.FormatInt(n.i, 10)), nil
	}
	if math.IsInf(n.f, 0) || math.IsNaN(n.f) {
		return nil, fail(diagnostics.EType, "result %v is not a finite number", n.f)
	}
	return ast.Number(FormatFloat(n.f)), nil
}

// FormatFloat renders f with at least one fractional digit so the text lexes
// back as a float.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// operand reads a numeric argument.
func operand(call *Call, i int) (number, *Failure) {
	arg := call.Args[i]
	if !arg.IsNumber() {
		return number{}, fail(diagnostics.EType, "%s: argument %d is %s, expected a number", call.Name, i+1, describe(arg))
	}
	text := arg.Text()
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return number{}, fail(diagnostics.EType, "%s: malformed number %q", call.Name, text)
		}
		return number{f: f, isFloat: true}, nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return number{}, fail(diagnostics.EType, "%s: integer %s out of range", call.Name, text)
	}
	return number{i: v}, nil
}

// fold runs op over the arguments from index from onward, starting at acc.
func fold(call *Call, acc number, from int, op func(acc *number, x number) *Failure) Result {
	for i := from; i < len(call.Args); i++ {
		x, f := operand(call, i)
		if f != nil {
			return failed(f)
		}
		if x.isFloat {
			acc.promote()
		}
		if f := op(&acc, x); f != nil {
			return failed(f)
		}
	}
	v, f := acc.node()
	if f != nil {
		return failed(f)
	}
	return pushed(v)
}

// foldFirst seeds the fold with the first argument.
func foldFirst(call *Call, op func(acc *number, x number) *Failure) Result {
	if len(call.Args) == 0 {
		return failed(&Failure{
			Code:    diagnostics.EArity,
			Message: call.Name + ": expected at least 1 operand, got 0",
			Hint:    "(" + call.Name + " x y ...)",
		})
	}
	first, f := operand(call, 0)
	if f != nil {
		return failed(f)
	}
	return fold(call, first, 1, op)
}

func value(x number) float64 {
	if x.isFloat {
		return x.f
	}
	return float64(x.i)
}

func builtinAdd(call *Call) Result {
	return fold(call, number{i: 0}, 0, func(acc *number, x number) *Failure {
		if acc.isFloat {
			acc.f += value(x)
		} else {
			acc.i += x.i
		}
		return nil
	})
}

func builtinMult(call *Call) Result {
	return fold(call, number{i: 1}, 0, func(acc *number, x number) *Failure {
		if acc.isFloat {
			acc.f *= value(x)
		} else {
			acc.i *= x.i
		}
		return nil
	})
}

func builtinSub(call *Call) Result {
	return foldFirst(call, func(acc *number, x number) *Failure {
		if acc.isFloat {
			acc.f -= value(x)
		} else {
			acc.i -= x.i
		}
		return nil
	})
}

func builtinDiv(call *Call) Result {
	return foldFirst(call, func(acc *number, x number) *Failure {
		if value(x) == 0 {
			return &Failure{
				Code:    diagnostics.EDivZero,
				Message: call.Name + ": division by zero",
			}
		}
		if acc.isFloat {
			acc.f /= value(x)
		} else {
			acc.i /= x.i
		}
		return nil
	})
}
