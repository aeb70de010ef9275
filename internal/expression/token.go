// Package expression implements the small expression language embedded in
// living documents: a line tokenizer and an evaluator producing typed values.
package expression

import "fmt"

// TokenKind discriminates the Token union.
type TokenKind int

const (
	TokenIdentifier TokenKind = iota
	TokenNumber
	TokenBool
	TokenURL
	TokenOperator
)

// Operator enumerates the recognized operator symbols and the fixed set of
// dotted function-name operators.
type Operator int

const (
	OpAdd Operator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpPower
	OpEqual
	OpLessOrEqual
	OpGreaterOrEqual
	OpLess
	OpGreater
	OpSin
	OpCos
	OpTan
	OpTurns
	OpGetJSON
)

var operatorNames = map[Operator]string{
	OpAdd:            "+",
	OpSubtract:       "-",
	OpMultiply:       "*",
	OpDivide:         "/",
	OpPower:          "**",
	OpEqual:          "==",
	OpLessOrEqual:    "<=",
	OpGreaterOrEqual: ">=",
	OpLess:           "<",
	OpGreater:        ">",
	OpSin:            "Math.sin",
	OpCos:            "Math.cos",
	OpTan:            "Math.tan",
	OpTurns:          "Math.turns",
	OpGetJSON:        "HTTP.get_json",
}

func (o Operator) String() string {
	if s, ok := operatorNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// Scheme classifies a URL literal by its scheme prefix.
type Scheme int

const (
	SchemeHTTPS Scheme = iota
	SchemeMailto
	SchemeTel
	SchemeMath
	SchemeTime
	SchemeOther
)

// Token is one lexical unit of an expression line.
type Token struct {
	Kind TokenKind

	Name    string  // TokenIdentifier: dotted path, sigil stripped
	Number  float64 // TokenNumber
	Bool    bool    // TokenBool
	Op      Operator

	// TokenURL
	Scheme     Scheme
	SchemeName string // raw scheme text, meaningful for SchemeOther
	Payload    string // everything after the first colon
}

// URL reconstructs the full scheme:payload form of a URL token.
func (t Token) URL() string {
	return t.SchemeName + ":" + t.Payload
}

// SyntaxError reports a run of input matching no grammar alternative.
type SyntaxError struct {
	Position int    // byte offset of the offending run within the line
	Input    string // the offending run
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %q", e.Position, e.Input)
}
