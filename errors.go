package fastskema

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/fastskema/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType                = "invalid_type"
	CodeTooSmall                   = "too_small"
	CodeTooBig                     = "too_big"
	CodeInvalidString              = "invalid_string"
	CodeInvalidEnumValue           = "invalid_enum_value"
	CodeInvalidLiteral             = "invalid_literal"
	CodeInvalidUnion               = "invalid_union"
	CodeInvalidUnionDiscriminator  = "invalid_union_discriminator"
	CodeInvalidIntersectionTypes   = "invalid_intersection_types"
	CodeUnrecognizedKeys           = "unrecognized_keys"
	CodeNotMultipleOf              = "not_multiple_of"
	CodeNotUnique                  = "not_unique"
	CodeCustom                     = "custom"
	CodeUnknownError               = "unknown_error"
	// Input layer (token decoding and enforcement)
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTruncated    = "truncated"
)

// Issue represents a single validation violation.
type Issue struct {
	Code    string
	Path    Path // Root-to-leaf segments (string keys and int indexes).
	Message string
	// Received and Expected describe type mismatches ("number", "string", ...).
	Received string
	Expected string
	// Params carries structured parameters (e.g., {"minimum": 1, "inclusive": true})
	// for i18n and tooling.
	Params map[string]any
	// Details holds nested diagnostics, for example per-option union failures
	// under synthetic option_<i> segments. Empty unless explicitly requested.
	Details Issues
	Cause   error
}

// NewIssue builds an Issue with a message from the current translator.
func NewIssue(code string, params map[string]any) Issue {
	return Issue{Code: code, Message: i18n.T(code, params), Params: params}
}

// TypeIssue builds an invalid_type issue for the given expectation.
func TypeIssue(expected, received string) Issue {
	p := map[string]any{"expected": expected, "received": received}
	it := NewIssue(CodeInvalidType, p)
	it.Expected = expected
	it.Received = received
	return it
}

// RequiredIssue is the issue emitted for a missing, non-optional object key.
func RequiredIssue(expected string) Issue {
	it := TypeIssue(expected, "undefined")
	it.Message = i18n.T("required", nil)
	return it
}

// Issues is the ValidationError: an ordered, non-empty collection of issues
// that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path: Expected string, received number
		fmt.Fprintf(b, "%s at %s: %s", it.Code, it.Path.Pointer(), it.Message)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Prefix returns a copy of iss with segs prepended to every path. Parents use
// it to rebase child issues as they bubble up.
func (iss Issues) Prefix(segs ...any) Issues {
	if len(iss) == 0 || len(segs) == 0 {
		return iss
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		it.Path = it.Path.Prepend(segs...)
		out[i] = it
	}
	return out
}

// Codes lists the issue codes in order. Handy for assertions and logging.
func (iss Issues) Codes() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Code
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ToIssues converts any error into Issues. Foreign errors become a single
// unknown_error issue at path.
func ToIssues(path Path, err error) Issues {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	it := NewIssue(CodeUnknownError, map[string]any{"error": err.Error()})
	it.Path = path
	it.Cause = err
	return Issues{it}
}

// ---- wire contract ----

type wireIssue struct {
	Code     string         `json:"code"`
	Path     []any          `json:"path"`
	Message  string         `json:"message"`
	Received string         `json:"received,omitempty"`
	Expected string         `json:"expected,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
	Details  Issues         `json:"unionErrors,omitempty"`
}

// MarshalJSON renders the stable tooling payload
// {code, path, message, received?, expected?}.
func (it Issue) MarshalJSON() ([]byte, error) {
	p := []any(it.Path)
	if p == nil {
		p = []any{}
	}
	return json.Marshal(wireIssue{
		Code:     it.Code,
		Path:     p,
		Message:  it.Message,
		Received: it.Received,
		Expected: it.Expected,
		Params:   it.Params,
		Details:  it.Details,
	})
}

// UnmarshalJSON accepts the wire payload. Numeric path segments are restored
// as int indexes.
func (it *Issue) UnmarshalJSON(b []byte) error {
	var w wireIssue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	p := make(Path, 0, len(w.Path))
	for _, seg := range w.Path {
		switch s := seg.(type) {
		case float64:
			p = append(p, int(s))
		case json.Number:
			n, err := s.Int64()
			if err != nil {
				return fmt.Errorf("fastskema: invalid path index %q: %w", s, err)
			}
			p = append(p, int(n))
		case string:
			p = append(p, s)
		default:
			return fmt.Errorf("fastskema: invalid path segment %v", seg)
		}
	}
	*it = Issue{
		Code:     w.Code,
		Path:     p,
		Message:  w.Message,
		Received: w.Received,
		Expected: w.Expected,
		Params:   w.Params,
		Details:  w.Details,
	}
	return nil
}
