package checks

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	fastskema "github.com/reoring/fastskema"
)

// formatAliases maps shorthand check kinds to catalog names.
var formatAliases = map[string]string{
	"email":    "email",
	"url":      "url",
	"uuid":     "uuid",
	"datetime": "date-time",
	"ip":       "ip",
}

func withMessage(it fastskema.Issue, c fastskema.Check) fastskema.Issue {
	if c.Message != "" {
		it.Message = c.Message
	}
	return it
}

// ---- length bounds (strings and arrays) ----

type lengthRule func(n int) (fastskema.Issue, bool)

func compileLength(c fastskema.Check, typ string) (lengthRule, bool) {
	limit := int(c.N())
	switch c.Kind {
	case "min", "nonempty":
		if c.Kind == "nonempty" {
			limit = 1
		}
		return func(n int) (fastskema.Issue, bool) {
			if n >= limit {
				return fastskema.Issue{}, false
			}
			return withMessage(fastskema.NewIssue(fastskema.CodeTooSmall, map[string]any{
				"type": typ, "minimum": limit, "inclusive": true,
			}), c), true
		}, true
	case "max":
		return func(n int) (fastskema.Issue, bool) {
			if n <= limit {
				return fastskema.Issue{}, false
			}
			return withMessage(fastskema.NewIssue(fastskema.CodeTooBig, map[string]any{
				"type": typ, "maximum": limit, "inclusive": true,
			}), c), true
		}, true
	case "length":
		return func(n int) (fastskema.Issue, bool) {
			switch {
			case n < limit:
				return withMessage(fastskema.NewIssue(fastskema.CodeTooSmall, map[string]any{
					"type": typ, "minimum": limit, "inclusive": true, "exact": true,
				}), c), true
			case n > limit:
				return withMessage(fastskema.NewIssue(fastskema.CodeTooBig, map[string]any{
					"type": typ, "maximum": limit, "inclusive": true, "exact": true,
				}), c), true
			}
			return fastskema.Issue{}, false
		}, true
	}
	return nil, false
}

// LengthProgram checks an element count against min/max/length bounds.
type LengthProgram struct {
	rules []lengthRule
}

// CompileArrayLength builds the bounds program for an array node. Checks of
// other kinds are rejected.
func CompileArrayLength(cs []fastskema.Check) (*LengthProgram, error) {
	p := &LengthProgram{}
	for _, c := range cs {
		r, ok := compileLength(c, "array")
		if !ok {
			return nil, fmt.Errorf("checks: unsupported array check %q", c.Kind)
		}
		p.rules = append(p.rules, r)
	}
	return p, nil
}

// Run returns one issue per violated bound.
func (p *LengthProgram) Run(n int) fastskema.Issues {
	var out fastskema.Issues
	for _, r := range p.rules {
		if it, bad := r(n); bad {
			out = append(out, it)
		}
	}
	return out
}

// ---- strings ----

type stringRule func(s string) (fastskema.Issue, bool)

// StringProgram is a compiled string check pipeline: preprocessing, then
// length bounds, then pattern and format checks in declared order.
type StringProgram struct {
	pre    []func(string) string
	length []lengthRule
	rules  []stringRule
}

// CompileString builds the program for cs. Patterns are compiled through pc
// when it is not nil.
func CompileString(cs []fastskema.Check, pc *PatternCache) (*StringProgram, error) {
	p := &StringProgram{}
	for _, c := range cs {
		c := c
		if r, ok := compileLength(c, "string"); ok {
			p.length = append(p.length, r)
			continue
		}
		switch c.Kind {
		case "trim":
			p.pre = append(p.pre, strings.TrimSpace)
		case "toLowerCase":
			p.pre = append(p.pre, func(s string) string { return cases.Lower(language.Und).String(s) })
		case "toUpperCase":
			p.pre = append(p.pre, func(s string) string { return cases.Upper(language.Und).String(s) })
		case "regex":
			re, err := compilePattern(pc, c.Text)
			if err != nil {
				return nil, fmt.Errorf("checks: regex %q: %w", c.Text, err)
			}
			p.rules = append(p.rules, predicate(c, re.MatchString, map[string]any{"validation": "regex", "pattern": c.Text}))
		case "startsWith":
			p.rules = append(p.rules, predicate(c, func(s string) bool { return strings.HasPrefix(s, c.Text) },
				map[string]any{"validation": "startsWith", "value": c.Text}))
		case "endsWith":
			p.rules = append(p.rules, predicate(c, func(s string) bool { return strings.HasSuffix(s, c.Text) },
				map[string]any{"validation": "endsWith", "value": c.Text}))
		case "includes":
			p.rules = append(p.rules, predicate(c, func(s string) bool { return strings.Contains(s, c.Text) },
				map[string]any{"validation": "includes", "value": c.Text}))
		default:
			name, ok := formatAliases[c.Kind]
			if c.Kind == "format" {
				name, ok = c.Text, true
			}
			if !ok {
				return nil, fmt.Errorf("checks: unsupported string check %q", c.Kind)
			}
			fn, found := LookupFormat(name)
			if !found {
				return nil, fmt.Errorf("checks: unknown format %q", name)
			}
			p.rules = append(p.rules, predicate(c, fn, map[string]any{"validation": name}))
		}
	}
	return p, nil
}

func compilePattern(pc *PatternCache, pattern string) (*regexp.Regexp, error) {
	if pc == nil {
		return regexp.Compile(pattern)
	}
	return pc.Get(pattern)
}

func predicate(c fastskema.Check, ok func(string) bool, params map[string]any) stringRule {
	return func(s string) (fastskema.Issue, bool) {
		if ok(s) {
			return fastskema.Issue{}, false
		}
		return withMessage(fastskema.NewIssue(fastskema.CodeInvalidString, params), c), true
	}
}

// Run applies the pipeline and returns the preprocessed string together with
// every failing check.
func (p *StringProgram) Run(s string) (string, fastskema.Issues) {
	for _, f := range p.pre {
		s = f(s)
	}
	var out fastskema.Issues
	n := utf8.RuneCountInString(s)
	for _, r := range p.length {
		if it, bad := r(n); bad {
			out = append(out, it)
		}
	}
	for _, r := range p.rules {
		if it, bad := r(s); bad {
			out = append(out, it)
		}
	}
	return s, out
}

// ---- numbers ----

type numberRule struct {
	phase int
	run   func(f float64) (fastskema.Issue, bool)
}

// NumberProgram checks integer-ness, then bounds, then multipleOf.
type NumberProgram struct {
	rules []numberRule
}

// CompileNumber builds the program for cs.
func CompileNumber(cs []fastskema.Check) (*NumberProgram, error) {
	p := &NumberProgram{}
	for _, c := range cs {
		c := c
		bound := c.N()
		switch c.Kind {
		case "int":
			p.rules = append(p.rules, numberRule{0, func(f float64) (fastskema.Issue, bool) {
				if f == math.Trunc(f) {
					return fastskema.Issue{}, false
				}
				return withMessage(fastskema.TypeIssue("integer", "float"), c), true
			}})
		case "min":
			p.rules = append(p.rules, numberRule{1, func(f float64) (fastskema.Issue, bool) {
				if f > bound || (!c.Exclusive && f == bound) {
					return fastskema.Issue{}, false
				}
				return withMessage(fastskema.NewIssue(fastskema.CodeTooSmall, map[string]any{
					"type": "number", "minimum": bound, "inclusive": !c.Exclusive,
				}), c), true
			}})
		case "max":
			p.rules = append(p.rules, numberRule{1, func(f float64) (fastskema.Issue, bool) {
				if f < bound || (!c.Exclusive && f == bound) {
					return fastskema.Issue{}, false
				}
				return withMessage(fastskema.NewIssue(fastskema.CodeTooBig, map[string]any{
					"type": "number", "maximum": bound, "inclusive": !c.Exclusive,
				}), c), true
			}})
		case "multipleOf":
			if bound == 0 {
				return nil, fmt.Errorf("checks: multipleOf must be non-zero")
			}
			p.rules = append(p.rules, numberRule{2, func(f float64) (fastskema.Issue, bool) {
				if IsMultipleOf(f, bound) {
					return fastskema.Issue{}, false
				}
				return withMessage(fastskema.NewIssue(fastskema.CodeNotMultipleOf, map[string]any{"multipleOf": bound}), c), true
			}})
		case "finite":
			// NaN and infinities are already rejected by the type check.
		default:
			return nil, fmt.Errorf("checks: unsupported number check %q", c.Kind)
		}
	}
	sort.SliceStable(p.rules, func(i, j int) bool { return p.rules[i].phase < p.rules[j].phase })
	return p, nil
}

// Run returns every failing check for f.
func (p *NumberProgram) Run(f float64) fastskema.Issues {
	var out fastskema.Issues
	for _, r := range p.rules {
		if it, bad := r.run(f); bad {
			out = append(out, it)
		}
	}
	return out
}

// IsMultipleOf tolerates float rounding (0.3 is a multiple of 0.1).
func IsMultipleOf(f, m float64) bool {
	q := f / m
	return math.Abs(q-math.Round(q)) < 1e-9
}
