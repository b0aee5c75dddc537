package dsl

import (
	"context"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

// ---- string ----

// StringSchema validates strings. Constraint setters append to an ordered
// check list; preprocessing (Trim, ToLowerCase, ToUpperCase) runs first,
// then length bounds, then pattern and format checks.
type StringSchema struct {
	base
	checks []fastskema.Check
	prog   *checks.StringProgram
	err    error
}

// String returns a string schema.
func String() *StringSchema {
	s := &StringSchema{}
	s.bind(s)
	s.compile()
	return s
}

func (s *StringSchema) add(c fastskema.Check, msg []string) *StringSchema {
	if len(msg) > 0 {
		c.Message = msg[0]
	}
	s.checks = append(s.checks, c)
	s.compile()
	return s
}

func (s *StringSchema) compile() { s.prog, s.err = checks.CompileString(s.checks, nil) }

func (s *StringSchema) Min(n int, msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "min", Number: f64(float64(n))}, msg)
}
func (s *StringSchema) Max(n int, msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "max", Number: f64(float64(n))}, msg)
}
func (s *StringSchema) Length(n int, msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "length", Number: f64(float64(n))}, msg)
}
func (s *StringSchema) Nonempty(msg ...string) *StringSchema { return s.Min(1, msg...) }
func (s *StringSchema) Email(msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "email"}, msg)
}
func (s *StringSchema) URL(msg ...string) *StringSchema { return s.add(fastskema.Check{Kind: "url"}, msg) }
func (s *StringSchema) UUID(msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "uuid"}, msg)
}
func (s *StringSchema) Datetime(msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "datetime"}, msg)
}
func (s *StringSchema) IP(msg ...string) *StringSchema { return s.add(fastskema.Check{Kind: "ip"}, msg) }

// Regex requires a match of pattern (RE2 syntax).
func (s *StringSchema) Regex(pattern string, msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "regex", Text: pattern}, msg)
}
func (s *StringSchema) StartsWith(prefix string, msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "startsWith", Text: prefix}, msg)
}
func (s *StringSchema) EndsWith(suffix string, msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "endsWith", Text: suffix}, msg)
}
func (s *StringSchema) Includes(sub string, msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "includes", Text: sub}, msg)
}

// Format checks against a named entry of the format catalog.
func (s *StringSchema) Format(name string, msg ...string) *StringSchema {
	return s.add(fastskema.Check{Kind: "format", Text: name}, msg)
}
func (s *StringSchema) Trim() *StringSchema        { return s.add(fastskema.Check{Kind: "trim"}, nil) }
func (s *StringSchema) ToLowerCase() *StringSchema { return s.add(fastskema.Check{Kind: "toLowerCase"}, nil) }
func (s *StringSchema) ToUpperCase() *StringSchema { return s.add(fastskema.Check{Kind: "toUpperCase"}, nil) }

// Describe attaches a human description to the descriptor.
func (s *StringSchema) Describe(text string) *StringSchema { s.description = text; return s }

func (s *StringSchema) Parse(_ context.Context, v any) (any, error) {
	if s.err != nil {
		return nil, fastskema.ToIssues(nil, s.err)
	}
	str, ok := v.(string)
	if !ok {
		return nil, typeIssue("string", v)
	}
	out, iss := s.prog.Run(str)
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (s *StringSchema) Descriptor() *fastskema.Descriptor {
	return s.describe(&fastskema.Descriptor{Type: fastskema.TypeString, Checks: append([]fastskema.Check(nil), s.checks...)})
}

// ---- number ----

// NumberSchema validates finite numbers and normalizes them to float64.
type NumberSchema struct {
	base
	checks []fastskema.Check
	prog   *checks.NumberProgram
	err    error
}

// Number returns a number schema.
func Number() *NumberSchema {
	n := &NumberSchema{}
	n.bind(n)
	n.compile()
	return n
}

func (n *NumberSchema) add(c fastskema.Check, msg []string) *NumberSchema {
	if len(msg) > 0 {
		c.Message = msg[0]
	}
	n.checks = append(n.checks, c)
	n.compile()
	return n
}

func (n *NumberSchema) compile() { n.prog, n.err = checks.CompileNumber(n.checks) }

func (n *NumberSchema) Int(msg ...string) *NumberSchema { return n.add(fastskema.Check{Kind: "int"}, msg) }

// Min is an inclusive lower bound (gte).
func (n *NumberSchema) Min(v float64, msg ...string) *NumberSchema {
	return n.add(fastskema.Check{Kind: "min", Number: f64(v)}, msg)
}

// Gt is an exclusive lower bound.
func (n *NumberSchema) Gt(v float64, msg ...string) *NumberSchema {
	return n.add(fastskema.Check{Kind: "min", Number: f64(v), Exclusive: true}, msg)
}

// Max is an inclusive upper bound (lte).
func (n *NumberSchema) Max(v float64, msg ...string) *NumberSchema {
	return n.add(fastskema.Check{Kind: "max", Number: f64(v)}, msg)
}

// Lt is an exclusive upper bound.
func (n *NumberSchema) Lt(v float64, msg ...string) *NumberSchema {
	return n.add(fastskema.Check{Kind: "max", Number: f64(v), Exclusive: true}, msg)
}
func (n *NumberSchema) Positive(msg ...string) *NumberSchema    { return n.Gt(0, msg...) }
func (n *NumberSchema) Negative(msg ...string) *NumberSchema    { return n.Lt(0, msg...) }
func (n *NumberSchema) Nonnegative(msg ...string) *NumberSchema { return n.Min(0, msg...) }
func (n *NumberSchema) Nonpositive(msg ...string) *NumberSchema { return n.Max(0, msg...) }
func (n *NumberSchema) MultipleOf(v float64, msg ...string) *NumberSchema {
	return n.add(fastskema.Check{Kind: "multipleOf", Number: f64(v)}, msg)
}
func (n *NumberSchema) Describe(text string) *NumberSchema { n.description = text; return n }

func (n *NumberSchema) Parse(_ context.Context, v any) (any, error) {
	if n.err != nil {
		return nil, fastskema.ToIssues(nil, n.err)
	}
	f, ok := checks.ToFloat(v)
	if !ok {
		return nil, typeIssue("number", v)
	}
	if iss := n.prog.Run(f); len(iss) > 0 {
		return nil, iss
	}
	return f, nil
}

func (n *NumberSchema) Descriptor() *fastskema.Descriptor {
	return n.describe(&fastskema.Descriptor{Type: fastskema.TypeNumber, Checks: append([]fastskema.Check(nil), n.checks...)})
}

func f64(v float64) *float64 { return &v }

// ---- trivial predicates ----

// PrimitiveSchema is a leaf with no configuration: boolean, null, any,
// unknown and never.
type PrimitiveSchema struct {
	base
	typ string
}

func primitive(typ string) *PrimitiveSchema {
	p := &PrimitiveSchema{typ: typ}
	p.bind(p)
	return p
}

func Bool() *PrimitiveSchema    { return primitive(fastskema.TypeBoolean) }
func Null() *PrimitiveSchema    { return primitive(fastskema.TypeNull) }
func Any() *PrimitiveSchema     { return primitive(fastskema.TypeAny) }
func Unknown() *PrimitiveSchema { return primitive(fastskema.TypeUnknown) }

// Never rejects every value.
func Never() *PrimitiveSchema { return primitive(fastskema.TypeNever) }

// Undefined accepts only the absent value. As an object field it forbids the
// key.
func Undefined() *PrimitiveSchema { return primitive(fastskema.TypeUndefined) }

// Modifier reports ModOptional for the types that accept an absent key.
func (p *PrimitiveSchema) Modifier() fastskema.Modifier {
	switch p.typ {
	case fastskema.TypeAny, fastskema.TypeUnknown, fastskema.TypeUndefined:
		return fastskema.ModOptional
	}
	return fastskema.ModPlain
}

func (p *PrimitiveSchema) Describe(text string) *PrimitiveSchema { p.description = text; return p }

func (p *PrimitiveSchema) Parse(_ context.Context, v any) (any, error) {
	switch p.typ {
	case fastskema.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, typeIssue("boolean", v)
	case fastskema.TypeNull:
		if v == nil {
			return nil, nil
		}
		return nil, typeIssue("null", v)
	case fastskema.TypeNever:
		return nil, typeIssue("never", v)
	case fastskema.TypeUndefined:
		if fastskema.IsUndefined(v) {
			return fastskema.Undefined, nil
		}
		return nil, typeIssue("undefined", v)
	default:
		return v, nil
	}
}

func (p *PrimitiveSchema) Descriptor() *fastskema.Descriptor {
	return p.describe(&fastskema.Descriptor{Type: p.typ})
}

// ---- literal / enum ----

// LiteralSchema accepts exactly one value.
type LiteralSchema struct {
	base
	value any
}

// Literal accepts values equal to v (numbers compare by value).
func Literal(v any) *LiteralSchema {
	l := &LiteralSchema{value: v}
	l.bind(l)
	return l
}

// Value returns the literal.
func (l *LiteralSchema) Value() any { return l.value }

func (l *LiteralSchema) Describe(text string) *LiteralSchema { l.description = text; return l }

func (l *LiteralSchema) Parse(_ context.Context, v any) (any, error) {
	if checks.Equal(l.value, v) {
		return l.value, nil
	}
	return nil, fastskema.Issues{checks.LiteralIssue(l.value, v)}
}

func (l *LiteralSchema) Descriptor() *fastskema.Descriptor {
	return l.describe(&fastskema.Descriptor{Type: fastskema.TypeLiteral, Value: fastskema.ValuePtr(l.value)})
}

// EnumSchema accepts one of a fixed set of values.
type EnumSchema struct {
	base
	values []any
}

// Enum accepts any of values.
func Enum(values ...any) *EnumSchema {
	e := &EnumSchema{values: append([]any(nil), values...)}
	e.bind(e)
	return e
}

// Options returns the accepted values in declared order.
func (e *EnumSchema) Options() []any { return append([]any(nil), e.values...) }

func (e *EnumSchema) Describe(text string) *EnumSchema { e.description = text; return e }

func (e *EnumSchema) Parse(_ context.Context, v any) (any, error) {
	if m, ok := checks.Contains(e.values, v); ok {
		return m, nil
	}
	return nil, fastskema.Issues{checks.EnumIssue(e.Options(), v)}
}

func (e *EnumSchema) Descriptor() *fastskema.Descriptor {
	return e.describe(&fastskema.Descriptor{Type: fastskema.TypeEnum, Values: e.Options()})
}
