package expression

import (
	"errors"
	"reflect"
	"testing"
)

func TestTokenize_OperatorLedLine(t *testing.T) {
	tokens, err := Tokenize("* 5 5 5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(tokens))
	}
	if tokens[0].Kind != TokenOperator || tokens[0].Op != OpMultiply {
		t.Errorf("expected leading * operator, got %+v", tokens[0])
	}
	for i := 1; i < 4; i++ {
		if tokens[i].Kind != TokenNumber || tokens[i].Number != 5 {
			t.Errorf("token %d: expected number 5, got %+v", i, tokens[i])
		}
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	line := "$a + now.hour ** 2 <= 100"
	first, err := Tokenize(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Tokenize(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("tokenizing the same line twice differed: %+v vs %+v", first, second)
	}
}

func TestTokenize_IdentifierSigilStripped(t *testing.T) {
	tokens, err := Tokenize("$a + $b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Name != "a" || tokens[2].Name != "b" {
		t.Errorf("expected names a and b, got %q and %q", tokens[0].Name, tokens[2].Name)
	}
}

func TestTokenize_DottedIdentifier(t *testing.T) {
	tokens, err := Tokenize("now.date.iso")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Kind != TokenIdentifier || tokens[0].Name != "now.date.iso" {
		t.Errorf("expected single identifier now.date.iso, got %+v", tokens)
	}
}

func TestTokenize_ReservedConstants(t *testing.T) {
	tokens, err := Tokenize("e * pi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Kind != TokenNumber || tokens[0].Number < 2.7 || tokens[0].Number > 2.72 {
		t.Errorf("expected e as a number literal, got %+v", tokens[0])
	}
	if tokens[2].Kind != TokenNumber || tokens[2].Number < 3.14 || tokens[2].Number > 3.15 {
		t.Errorf("expected pi as a number literal, got %+v", tokens[2])
	}
}

func TestTokenize_URLSchemes(t *testing.T) {
	cases := []struct {
		line   string
		scheme Scheme
	}{
		{"https://example.org/data.json", SchemeHTTPS},
		{"mailto:hi@example.org", SchemeMailto},
		{"tel:+15551234567", SchemeTel},
		{"math:tau", SchemeMath},
		{"time:seconds", SchemeTime},
		{"gopher:hole", SchemeOther},
	}
	for _, tc := range cases {
		tokens, err := Tokenize(tc.line)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.line, err)
		}
		if len(tokens) != 1 || tokens[0].Kind != TokenURL {
			t.Fatalf("%s: expected single URL token, got %+v", tc.line, tokens)
		}
		if tokens[0].Scheme != tc.scheme {
			t.Errorf("%s: expected scheme %v, got %v", tc.line, tc.scheme, tokens[0].Scheme)
		}
		if tokens[0].URL() != tc.line {
			t.Errorf("%s: round trip gave %q", tc.line, tokens[0].URL())
		}
	}
}

func TestTokenize_NamedOperators(t *testing.T) {
	tokens, err := Tokenize("2 Math.sin pi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[1].Kind != TokenOperator || tokens[1].Op != OpSin {
		t.Errorf("expected Math.sin operator, got %+v", tokens[1])
	}
}

func TestTokenize_SyntaxErrorPosition(t *testing.T) {
	_, err := Tokenize("total %%%")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if synErr.Position != 6 {
		t.Errorf("expected position 6, got %d", synErr.Position)
	}
	if synErr.Input != "%%%" {
		t.Errorf("expected offending run %%%%%%, got %q", synErr.Input)
	}
}
