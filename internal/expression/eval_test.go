package expression

import (
	"errors"
	"testing"
)

func mustTokenize(t *testing.T, line string) []Token {
	t.Helper()
	tokens, err := Tokenize(line)
	if err != nil {
		t.Fatalf("tokenize %q: %v", line, err)
	}
	return tokens
}

func mapResolver(values map[string]Value) Resolver {
	return func(name string) (Value, error) {
		if v, ok := values[name]; ok {
			return v, nil
		}
		return nil, &NoValueError{Name: name}
	}
}

func TestEvaluateLine_MultiplicativeFoldSeed(t *testing.T) {
	v, err := EvaluateLine(mustTokenize(t, "* 5 5 5"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Number(125) {
		t.Errorf("expected 125, got %v", v)
	}
}

func TestEvaluateLine_AdditiveFoldSeed(t *testing.T) {
	v, err := EvaluateLine(mustTokenize(t, "+ 1 2 3"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Number(6) {
		t.Errorf("expected 6, got %v", v)
	}
}

func TestEvaluateBlock_PreviousLineSeedsFold(t *testing.T) {
	lines := [][]Token{
		mustTokenize(t, "10"),
		mustTokenize(t, "+ 5"),
	}
	v, err := EvaluateBlock(lines, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Number(15) {
		t.Errorf("expected 15, got %v", v)
	}
}

func TestEvaluateLine_IdentifierAddition(t *testing.T) {
	lookup := mapResolver(map[string]Value{"a": Number(2), "b": Number(3)})
	v, err := EvaluateLine(mustTokenize(t, "$a + $b"), lookup, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Number(5) {
		t.Errorf("expected 5, got %v", v)
	}
}

func TestEvaluateLine_MissingIdentifier(t *testing.T) {
	lookup := mapResolver(map[string]Value{"a": Number(2)})
	_, err := EvaluateLine(mustTokenize(t, "$a + $b"), lookup, nil)
	var noValue *NoValueError
	if !errors.As(err, &noValue) {
		t.Fatalf("expected *NoValueError, got %v", err)
	}
	if noValue.Name != "b" {
		t.Errorf("expected missing identifier b, got %q", noValue.Name)
	}
}

func TestEvaluateLine_OrderingNumbersOnly(t *testing.T) {
	v, err := EvaluateLine(mustTokenize(t, "1 < 2"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Bool(true) {
		t.Errorf("expected true, got %v", v)
	}
}

func TestEvaluateLine_OrderingRejectsStrings(t *testing.T) {
	lookup := mapResolver(map[string]Value{"a": Text("x"), "b": Text("y")})
	_, err := EvaluateLine(mustTokenize(t, "$a < $b"), lookup, nil)
	var invalid *InvalidOperandsError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidOperandsError, got %v", err)
	}
	if invalid.Op != OpLess {
		t.Errorf("expected < in error, got %v", invalid.Op)
	}
}

func TestEvaluateLine_ArithmeticCoercesStrings(t *testing.T) {
	lookup := mapResolver(map[string]Value{"s": Text("4")})
	v, err := EvaluateLine(mustTokenize(t, "$s + 1"), lookup, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Number(5) {
		t.Errorf("expected 5, got %v", v)
	}
}

func TestEvaluateLine_SingleElementListUnwraps(t *testing.T) {
	lookup := mapResolver(map[string]Value{"xs": List{List{Number(7)}}})
	v, err := EvaluateLine(mustTokenize(t, "$xs * 2"), lookup, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Number(14) {
		t.Errorf("expected 14, got %v", v)
	}
}

func TestEvaluateLine_Power(t *testing.T) {
	v, err := EvaluateLine(mustTokenize(t, "2 ** 3"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Number(8) {
		t.Errorf("expected 8, got %v", v)
	}
}

func TestEvaluateLine_StructuralEquality(t *testing.T) {
	lookup := mapResolver(map[string]Value{"a": Text("hi"), "b": Text("hi")})
	v, err := EvaluateLine(mustTokenize(t, "$a == $b"), lookup, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Bool(true) {
		t.Errorf("expected true, got %v", v)
	}
}

func TestEvaluateLine_MathCos(t *testing.T) {
	v, err := EvaluateLine(mustTokenize(t, "2 Math.cos 0"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Number(2) {
		t.Errorf("expected 2, got %v", v)
	}
}

func TestEvaluateLine_HTTPSLiteralBecomesRequest(t *testing.T) {
	v, err := EvaluateLine(mustTokenize(t, "https://api.example.org/data.json"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, ok := v.(Request)
	if !ok {
		t.Fatalf("expected a request value, got %T", v)
	}
	if req.Req.Method != "HTTP" {
		t.Errorf("expected method HTTP, got %q", req.Req.Method)
	}
	params, ok := req.Req.Params.(map[string]any)
	if !ok || params["url"] != "https://api.example.org/data.json" {
		t.Errorf("unexpected params: %v", req.Req.Params)
	}
	if req.Req.ID == "" {
		t.Error("expected a derived id")
	}
}

func TestEvaluateLine_GetJSONFold(t *testing.T) {
	v, err := EvaluateLine(mustTokenize(t, "HTTP.get_json https://api.example.org/data.json"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, ok := v.(Request)
	if !ok {
		t.Fatalf("expected a request value, got %T", v)
	}
	if req.Req.Method != "HTTP" {
		t.Errorf("expected method HTTP, got %q", req.Req.Method)
	}
}

func TestEvaluateLine_EmptyLine(t *testing.T) {
	if _, err := EvaluateLine(nil, nil, nil); err != ErrNoInput {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}

func TestEvaluateLine_BareOperatorWithoutContext(t *testing.T) {
	if _, err := EvaluateLine(mustTokenize(t, "+"), nil, nil); err != ErrNotValue {
		t.Errorf("expected ErrNotValue, got %v", err)
	}
}
