package expression

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoyalIcing/datadown-preview/internal/rpc"
)

// Resolver answers identifier lookups during evaluation.
type Resolver func(name string) (Value, error)

// ErrNoInput is returned for an empty token line.
var ErrNoInput = errors.New("no input")

// ErrNotValue is returned for a bare operator line with no fold context and
// for a malformed remainder after a resolved leading value.
var ErrNotValue = errors.New("not a value")

// ErrCannotConvertToJSON is returned when a result is not a single scalar or
// request value.
var ErrCannotConvertToJSON = errors.New("cannot convert to json")

// NoValueError reports an identifier with no resolvable value.
type NoValueError struct {
	Name string
}

func (e *NoValueError) Error() string {
	return fmt.Sprintf("no value for identifier %q", e.Name)
}

// InvalidOperandsError reports a binary application with incompatible
// operands.
type InvalidOperandsError struct {
	Op    Operator
	Left  Value
	Right Value
}

func (e *InvalidOperandsError) Error() string {
	return fmt.Sprintf("invalid operands for %s: %v, %v", e.Op, e.Left, e.Right)
}

// EvaluateLine computes one token line. prev is the previous line's value
// within the same block, or nil for the first line; it seeds operator-led
// folds.
func EvaluateLine(tokens []Token, lookup Resolver, prev Value) (Value, error) {
	if len(tokens) == 0 {
		return nil, ErrNoInput
	}

	// A lone https literal denotes a remote-call request, not a scalar.
	if len(tokens) == 1 && tokens[0].Kind == TokenURL && tokens[0].Scheme == SchemeHTTPS {
		return Request{Req: rpc.NewHTTPGet(tokens[0].URL())}, nil
	}

	head := tokens[0]
	if head.Kind == TokenOperator {
		return foldLine(head.Op, tokens[1:], lookup, prev)
	}

	left, err := resolveToken(head, lookup)
	if err != nil {
		return nil, err
	}
	rest := tokens[1:]
	if len(rest) == 0 {
		return left, nil
	}
	// With a resolved leading value the remainder must be exactly one
	// operator and one further token.
	if len(rest) != 2 || rest[0].Kind != TokenOperator {
		return nil, ErrNotValue
	}
	right, err := resolveToken(rest[1], lookup)
	if err != nil {
		return nil, err
	}
	return apply(rest[0].Op, left, right)
}

// EvaluateBlock reduces a multi-line block line by line, each line seeded by
// the previous line's value. The block's value is the last line's.
func EvaluateBlock(lines [][]Token, lookup Resolver) (Value, error) {
	var acc Value
	for _, line := range lines {
		v, err := EvaluateLine(line, lookup, acc)
		if err != nil {
			return nil, err
		}
		acc = v
	}
	if acc == nil {
		return nil, ErrNoInput
	}
	return acc, nil
}

// foldLine treats an operator-led line as a variadic left fold across the
// remaining values.
func foldLine(op Operator, rest []Token, lookup Resolver, prev Value) (Value, error) {
	if prev == nil && len(rest) == 0 {
		return nil, ErrNotValue
	}
	acc := prev
	if acc == nil {
		acc = identity(op)
	}
	for _, tok := range rest {
		v, err := resolveToken(tok, lookup)
		if err != nil {
			return nil, err
		}
		acc, err = apply(op, acc, v)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func identity(op Operator) Value {
	switch op {
	case OpAdd, OpSubtract:
		return Number(0)
	default:
		return Number(1)
	}
}

func resolveToken(tok Token, lookup Resolver) (Value, error) {
	switch tok.Kind {
	case TokenNumber:
		return Number(tok.Number), nil
	case TokenBool:
		return Bool(tok.Bool), nil
	case TokenURL:
		if tok.Scheme == SchemeHTTPS {
			return Request{Req: rpc.NewHTTPGet(tok.URL())}, nil
		}
		return Text(tok.URL()), nil
	case TokenIdentifier:
		if lookup == nil {
			return nil, &NoValueError{Name: tok.Name}
		}
		return lookup(tok.Name)
	default:
		return nil, ErrNotValue
	}
}

func apply(op Operator, left, right Value) (Value, error) {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower:
		a, aok := AsNumber(left)
		b, bok := AsNumber(right)
		if !aok || !bok {
			return nil, &InvalidOperandsError{Op: op, Left: left, Right: right}
		}
		switch op {
		case OpAdd:
			return Number(a + b), nil
		case OpSubtract:
			return Number(a - b), nil
		case OpMultiply:
			return Number(a * b), nil
		case OpDivide:
			return Number(a / b), nil
		default:
			return Number(math.Pow(a, b)), nil
		}

	case OpEqual:
		return Bool(Equal(left, right)), nil

	case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		// Ordering requires both operands already numeric, no coercion.
		a, aok := left.(Number)
		b, bok := right.(Number)
		if !aok || !bok {
			return nil, &InvalidOperandsError{Op: op, Left: left, Right: right}
		}
		switch op {
		case OpLess:
			return Bool(a < b), nil
		case OpLessOrEqual:
			return Bool(a <= b), nil
		case OpGreater:
			return Bool(a > b), nil
		default:
			return Bool(a >= b), nil
		}

	case OpSin, OpCos, OpTan, OpTurns:
		a, aok := AsNumber(left)
		b, bok := AsNumber(right)
		if !aok || !bok {
			return nil, &InvalidOperandsError{Op: op, Left: left, Right: right}
		}
		switch op {
		case OpSin:
			return Number(a * math.Sin(b)), nil
		case OpCos:
			return Number(a * math.Cos(b)), nil
		case OpTan:
			return Number(a * math.Tan(b)), nil
		default:
			// turns to radians
			return Number(a * (b * 2 * math.Pi)), nil
		}

	case OpGetJSON:
		if req, ok := right.(Request); ok {
			return req, nil
		}
		url, ok := AsText(right)
		if !ok {
			return nil, &InvalidOperandsError{Op: op, Left: left, Right: right}
		}
		return Request{Req: rpc.NewHTTPGet(url)}, nil
	}
	return nil, &InvalidOperandsError{Op: op, Left: left, Right: right}
}
