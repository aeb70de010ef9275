package expression

import (
	"reflect"
	"strconv"

	"github.com/RoyalIcing/datadown-preview/internal/rpc"
)

// Value is the result of evaluating an expression or resolving a content node.
type Value interface{ isValue() }

// Number is a numeric value.
type Number float64

// Bool is a boolean value.
type Bool bool

// Text is a string value.
type Text string

// List is an ordered collection of values.
type List []Value

// Request wraps a remote-call descriptor produced by an expression
// (a bare https literal or HTTP.get_json).
type Request struct {
	Req *rpc.Request
}

// JSON carries an arbitrary decoded JSON value, including null (V == nil).
// It participates in equality and JSON projection but never in arithmetic.
type JSON struct {
	V any
}

func (Number) isValue()  {}
func (Bool) isValue()    {}
func (Text) isValue()    {}
func (List) isValue()    {}
func (Request) isValue() {}
func (JSON) isValue()    {}

// Null is the neutral value answered for absent or pending reference lookups.
var Null = JSON{}

// AsNumber coerces a value numerically: numbers directly, text via numeric
// parse, single-element lists unwrapped recursively.
func AsNumber(v Value) (float64, bool) {
	switch v := v.(type) {
	case Number:
		return float64(v), true
	case Text:
		n, err := strconv.ParseFloat(string(v), 64)
		return n, err == nil
	case List:
		if len(v) == 1 {
			return AsNumber(v[0])
		}
	case JSON:
		if n, ok := v.V.(float64); ok {
			return n, true
		}
	}
	return 0, false
}

// AsText coerces a value to a string: text directly, URLs already read as
// text, single-element lists unwrapped.
func AsText(v Value) (string, bool) {
	switch v := v.(type) {
	case Text:
		return string(v), true
	case List:
		if len(v) == 1 {
			return AsText(v[0])
		}
	case JSON:
		if s, ok := v.V.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Equal is structural equality across values.
func Equal(a, b Value) bool {
	return reflect.DeepEqual(a, b)
}

// ToJSON converts a value to a decoded JSON shape. Only scalars, requests and
// lists of convertible values convert; anything else is CannotConvertToJSON.
func ToJSON(v Value) (any, error) {
	switch v := v.(type) {
	case Number:
		return float64(v), nil
	case Bool:
		return bool(v), nil
	case Text:
		return string(v), nil
	case JSON:
		return v.V, nil
	case Request:
		return v.Req.JSON(), nil
	case List:
		out := make([]any, 0, len(v))
		for _, item := range v {
			j, err := ToJSON(item)
			if err != nil {
				continue // unconvertible items are dropped, not fatal
			}
			out = append(out, j)
		}
		return out, nil
	}
	return nil, ErrCannotConvertToJSON
}

// FromJSON lifts a decoded JSON value into the expression domain.
func FromJSON(j any) Value {
	switch j := j.(type) {
	case float64:
		return Number(j)
	case bool:
		return Bool(j)
	case string:
		return Text(j)
	case []any:
		out := make(List, 0, len(j))
		for _, item := range j {
			out = append(out, FromJSON(item))
		}
		return out
	default:
		return JSON{V: j}
	}
}
