package checks_test

import (
	"math"
	"testing"

	json "github.com/goccy/go-json"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

func num(f float64) *float64 { return &f }

func TestTypeName(t *testing.T) {
	cases := map[string]any{
		"null":      nil,
		"string":    "x",
		"boolean":   true,
		"number":    json.Number("1.5"),
		"nan":       math.NaN(),
		"infinity":  math.Inf(1),
		"object":    map[string]any{},
		"array":     []any{},
		"undefined": fastskema.Undefined,
	}
	for want, v := range cases {
		if got := checks.TypeName(v); got != want {
			t.Errorf("TypeName(%v) = %q want %q", v, got, want)
		}
	}
}

func TestEqual_NumericNormalization(t *testing.T) {
	if !checks.Equal(json.Number("1"), 1.0) || !checks.Equal(1, json.Number("1.0")) {
		t.Fatalf("numbers of different representation should be equal")
	}
	a := map[string]any{"a": []any{json.Number("2"), "x"}}
	b := map[string]any{"a": []any{2.0, "x"}}
	if !checks.Equal(a, b) {
		t.Fatalf("nested normalization failed")
	}
	if checks.Equal("1", 1) {
		t.Fatalf("string and number must differ")
	}
	if checks.UniqueKey(a) != checks.UniqueKey(b) {
		t.Fatalf("unique keys should match for equal values")
	}
}

func TestFormats(t *testing.T) {
	cases := []struct {
		format string
		in     string
		ok     bool
	}{
		{"email", "a@b.io", true},
		{"email", "nope", false},
		{"url", "https://example.com/x", true},
		{"url", "ftp://example.com", false},
		{"uri", "urn:isbn:123", true},
		{"uuid", "123e4567-e89b-12d3-a456-426614174000", true},
		{"uuid", "{123e4567-e89b-12d3-a456-426614174000}", false},
		{"date-time", "2024-01-02T03:04:05Z", true},
		{"date", "2024-02-30", false},
		{"time", "23:59:59", true},
		{"ipv4", "10.0.0.1", true},
		{"ipv4", "::1", false},
		{"ipv6", "::1", true},
		{"hostname", "api.example.com", true},
		{"hostname", "-bad-.com", false},
		{"json-pointer", "/a/~1b", true},
		{"json-pointer", "/a/~2", false},
		{"regex", "^a+$", true},
		{"regex", "(", false},
		{"graphql", "query { user(id: 1) { name } }", true},
		{"graphql", "query {", false},
	}
	for _, c := range cases {
		fn, ok := checks.LookupFormat(c.format)
		if !ok {
			t.Fatalf("format %s not registered", c.format)
		}
		if got := fn(c.in); got != c.ok {
			t.Errorf("%s(%q) = %v want %v", c.format, c.in, got, c.ok)
		}
	}
}

func TestRegisterFormat(t *testing.T) {
	checks.RegisterFormat("even-length", func(s string) bool { return len(s)%2 == 0 })
	p, err := checks.CompileString([]fastskema.Check{{Kind: "format", Text: "even-length"}}, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, iss := p.Run("ab"); len(iss) != 0 {
		t.Fatalf("unexpected issues: %v", iss)
	}
	if _, iss := p.Run("abc"); len(iss) != 1 || iss[0].Code != fastskema.CodeInvalidString {
		t.Fatalf("want one invalid_string, got %v", iss)
	}
}

func TestStringProgram_OrderAndAdditivity(t *testing.T) {
	p, err := checks.CompileString([]fastskema.Check{
		{Kind: "email"},
		{Kind: "trim"},
		{Kind: "min", Number: num(5)},
		{Kind: "startsWith", Text: "x"},
	}, checks.NewPatternCache())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, iss := p.Run("  ab  ")
	if out != "ab" {
		t.Fatalf("trim not applied: %q", out)
	}
	want := []string{fastskema.CodeTooSmall, fastskema.CodeInvalidString, fastskema.CodeInvalidString}
	got := iss.Codes()
	if len(got) != len(want) {
		t.Fatalf("codes = %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("codes = %v want %v", got, want)
		}
	}
}

func TestStringProgram_CaseFolding(t *testing.T) {
	p, err := checks.CompileString([]fastskema.Check{{Kind: "toUpperCase"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out, _ := p.Run("straße"); out != "STRASSE" {
		t.Fatalf("got %q", out)
	}
}

func TestStringProgram_UnknownKind(t *testing.T) {
	if _, err := checks.CompileString([]fastskema.Check{{Kind: "bogus"}}, nil); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := checks.CompileString([]fastskema.Check{{Kind: "format", Text: "nope"}}, nil); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestNumberProgram(t *testing.T) {
	p, err := checks.CompileNumber([]fastskema.Check{
		{Kind: "multipleOf", Number: num(5)},
		{Kind: "min", Number: num(0), Exclusive: true},
		{Kind: "int"},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if iss := p.Run(10); len(iss) != 0 {
		t.Fatalf("unexpected: %v", iss)
	}
	iss := p.Run(-2.5)
	got := iss.Codes()
	want := []string{fastskema.CodeInvalidType, fastskema.CodeTooSmall, fastskema.CodeNotMultipleOf}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("codes = %v want %v", got, want)
	}
	if !checks.IsMultipleOf(0.3, 0.1) {
		t.Fatalf("0.3 should be a multiple of 0.1")
	}
}

func TestArrayLength(t *testing.T) {
	p, err := checks.CompileArrayLength([]fastskema.Check{{Kind: "length", Number: num(2)}})
	if err != nil {
		t.Fatal(err)
	}
	if iss := p.Run(3); len(iss) != 1 || iss[0].Code != fastskema.CodeTooBig {
		t.Fatalf("got %v", iss)
	}
}

func TestPatternCache(t *testing.T) {
	pc := checks.NewPatternCache()
	a, err := pc.Get("^a$")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := pc.Get("^a$")
	if a != b || pc.Len() != 1 {
		t.Fatalf("pattern should be cached once")
	}
	pc.Reset()
	if pc.Len() != 0 {
		t.Fatalf("reset failed")
	}
}

func TestAcceptsUndefined(t *testing.T) {
	wrap := func(typ string, inner *fastskema.Descriptor) *fastskema.Descriptor {
		return &fastskema.Descriptor{Type: typ, Inner: inner}
	}
	str := &fastskema.Descriptor{Type: fastskema.TypeString}
	cases := []struct {
		d    *fastskema.Descriptor
		want bool
	}{
		{str, false},
		{nil, false},
		{wrap(fastskema.TypeOptional, str), true},
		{wrap(fastskema.TypeNullable, str), false},
		{wrap(fastskema.TypeNullable, wrap(fastskema.TypeOptional, str)), true},
		{wrap(fastskema.TypeEffects, wrap(fastskema.TypeDefault, str)), true},
		{&fastskema.Descriptor{Type: fastskema.TypeAny}, true},
		{&fastskema.Descriptor{Type: fastskema.TypeUnknown}, true},
		{&fastskema.Descriptor{Type: fastskema.TypeUndefined}, true},
		{&fastskema.Descriptor{Type: fastskema.TypeNever}, false},
	}
	for i, c := range cases {
		if got := checks.AcceptsUndefined(c.d); got != c.want {
			t.Errorf("case %d (%v): got %v want %v", i, c.d, got, c.want)
		}
	}
}
