package fastskema

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
)

// Schema is the validator node contract. Parse checks v and returns the
// normalized (possibly transformed) value, or an Issues error whose paths are
// relative to this node. Implementations must not mutate their configuration
// during Parse.
type Schema interface {
	Parse(ctx context.Context, v any) (any, error)
	// Descriptor returns the serializable shape of the node.
	Descriptor() *Descriptor
}

// Parse validates v against s. On failure the error is always Issues.
func Parse(ctx context.Context, s Schema, v any) (out any, err error) {
	r := SafeParse(ctx, s, v)
	return r.Unwrap()
}

// MustParse is like Parse but panics on failure.
func MustParse(ctx context.Context, s Schema, v any) any {
	out, err := Parse(ctx, s, v)
	if err != nil {
		panic(err)
	}
	return out
}

// SafeParse validates v against s and never panics: foreign errors and panics
// raised by user callbacks are reported as a single unknown_error issue.
func SafeParse(ctx context.Context, s Schema, v any) (res Result) {
	if s == nil {
		return Fail(Issues{NewIssue(CodeUnknownError, map[string]any{"error": "nil schema"})})
	}
	defer func() {
		if rec := recover(); rec != nil {
			it := NewIssue(CodeUnknownError, map[string]any{"error": fmt.Sprint(rec)})
			if e, ok := rec.(error); ok {
				it.Cause = e
			}
			res = Fail(Issues{it})
		}
	}()
	out, err := s.Parse(ctx, v)
	if err != nil {
		return Fail(ToIssues(nil, err))
	}
	return Ok(out)
}

// Is returns true if v conforms to s.
func Is(ctx context.Context, s Schema, v any) bool {
	return SafeParse(ctx, s, v).Success
}

// ParseAsync runs Parse on its own goroutine and delivers exactly one Result.
// Async refinements inside s observe ctx; a cancelled ctx surfaces as an
// unknown_error issue.
func ParseAsync(ctx context.Context, s Schema, v any) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		if err := ctx.Err(); err != nil {
			ch <- Fail(ToIssues(nil, err))
			return
		}
		ch <- SafeParse(ctx, s, v)
	}()
	return ch
}

// SafeParseAsync waits for ParseAsync or for ctx, whichever finishes first.
func SafeParseAsync(ctx context.Context, s Schema, v any) Result {
	select {
	case r := <-ParseAsync(ctx, s, v):
		return r
	case <-ctx.Done():
		return Fail(ToIssues(nil, ctx.Err()))
	}
}

// ParseInto validates v and binds the normalized value into T by round-tripping
// it through JSON.
func ParseInto[T any](ctx context.Context, s Schema, v any) (T, error) {
	var zero T
	out, err := Parse(ctx, s, v)
	if err != nil {
		return zero, err
	}
	if tv, ok := out.(T); ok {
		return tv, nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return zero, ToIssues(nil, err)
	}
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		return zero, ToIssues(nil, err)
	}
	return t, nil
}

// ---- Parse-time context options (internal wiring, exported for subpackages) ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
)

// WithFailFast returns a child context that asks composites to stop at the
// first failing child.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current parse should stop on the first issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}
