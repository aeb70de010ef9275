package expression

import (
	"math"
	"strconv"
	"strings"
)

var symbolOperators = map[string]Operator{
	"**": OpPower,
	"==": OpEqual,
	"<=": OpLessOrEqual,
	">=": OpGreaterOrEqual,
	"<":  OpLess,
	">":  OpGreater,
	"+":  OpAdd,
	"-":  OpSubtract,
	"*":  OpMultiply,
	"/":  OpDivide,
}

var namedOperators = map[string]Operator{
	"Math.sin":      OpSin,
	"Math.cos":      OpCos,
	"Math.tan":      OpTan,
	"Math.turns":    OpTurns,
	"HTTP.get_json": OpGetJSON,
}

var knownSchemes = map[string]Scheme{
	"https":  SchemeHTTPS,
	"mailto": SchemeMailto,
	"tel":    SchemeTel,
	"math":   SchemeMath,
	"time":   SchemeTime,
}

// Tokenize splits one expression line into tokens. Runs of spaces separate
// tokens; a run matching no grammar alternative yields a SyntaxError carrying
// the run's byte offset.
func Tokenize(line string) ([]Token, error) {
	var tokens []Token
	pos := 0
	for pos < len(line) {
		if line[pos] == ' ' {
			pos++
			continue
		}
		end := strings.IndexByte(line[pos:], ' ')
		if end < 0 {
			end = len(line)
		} else {
			end += pos
		}
		run := line[pos:end]
		tok, ok := classify(run)
		if !ok {
			return nil, &SyntaxError{Position: pos, Input: run}
		}
		tokens = append(tokens, tok)
		pos = end
	}
	return tokens, nil
}

func classify(run string) (Token, bool) {
	if op, ok := symbolOperators[run]; ok {
		return Token{Kind: TokenOperator, Op: op}, true
	}
	if op, ok := namedOperators[run]; ok {
		return Token{Kind: TokenOperator, Op: op}, true
	}
	switch run {
	case "true":
		return Token{Kind: TokenBool, Bool: true}, true
	case "false":
		return Token{Kind: TokenBool, Bool: false}, true
	case "e":
		return Token{Kind: TokenNumber, Number: math.E}, true
	case "pi":
		return Token{Kind: TokenNumber, Number: math.Pi}, true
	}
	if n, err := strconv.ParseFloat(run, 64); err == nil {
		return Token{Kind: TokenNumber, Number: n}, true
	}
	if tok, ok := classifyURL(run); ok {
		return tok, true
	}
	if name, ok := classifyIdentifier(run); ok {
		return Token{Kind: TokenIdentifier, Name: name}, true
	}
	return Token{}, false
}

// classifyURL matches scheme:payload with a lowercase scheme and a non-empty
// payload. Unrecognized schemes still tokenize, tagged SchemeOther.
func classifyURL(run string) (Token, bool) {
	colon := strings.IndexByte(run, ':')
	if colon <= 0 || colon == len(run)-1 {
		return Token{}, false
	}
	scheme := run[:colon]
	if !validScheme(scheme) {
		return Token{}, false
	}
	kind, ok := knownSchemes[scheme]
	if !ok {
		kind = SchemeOther
	}
	return Token{
		Kind:       TokenURL,
		Scheme:     kind,
		SchemeName: scheme,
		Payload:    run[colon+1:],
	}, true
}

func validScheme(s string) bool {
	if s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '+' || c == '.' || c == '-':
		default:
			return false
		}
	}
	return true
}

// classifyIdentifier matches dotted lowercase paths, with an optional leading
// $ sigil that is stripped from the reported name.
func classifyIdentifier(run string) (string, bool) {
	name := strings.TrimPrefix(run, "$")
	if name == "" {
		return "", false
	}
	for _, seg := range strings.Split(name, ".") {
		if !validSegment(seg) {
			return "", false
		}
	}
	return name, true
}

func validSegment(seg string) bool {
	if seg == "" || seg[0] < 'a' || seg[0] > 'z' {
		return false
	}
	for i := 1; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}
