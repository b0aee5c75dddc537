// Package middleware validates JSON request bodies at net/http boundaries
// through a dispatcher, so large payloads take the accelerated backend.
package middleware

import (
	"context"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/dispatch"
)

type ctxKeyValue struct{}

// validated boxes the body so that a valid null is told apart from no value.
type validated struct{ v any }

// ContextWithValue attaches a validated body to ctx.
func ContextWithValue(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKeyValue{}, validated{v})
}

// ValueFromContext returns the body stored by ValidateJSON. ok is false only
// when no body was stored; a validated null yields (nil, true).
func ValueFromContext(ctx context.Context) (any, bool) {
	w, ok := ctx.Value(ctxKeyValue{}).(validated)
	return w.v, ok
}

// DefaultParseOpt is the recommended setting for HTTP JSON boundaries:
// duplicate keys are errors and bodies are capped at 1 MiB.
func DefaultParseOpt() fastskema.ParseOpt {
	return fastskema.ParseOpt{
		Strictness: fastskema.Strictness{OnDuplicateKey: fastskema.Error},
		MaxDepth:   64,
		MaxBytes:   1 << 20,
	}
}

// ValidateJSON decodes the request body, validates it against s through d and
// stores the cleaned value in the request context. Numbers decode as float64.
// Invalid bodies are answered with 400 and the failed Result, oversized ones
// with 413. opt.FailFast also stops validation at the first issue.
func ValidateJSON(d *dispatch.Dispatcher, s fastskema.Schema, opt fastskema.ParseOpt) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := io.Reader(r.Body)
			if opt.MaxBytes > 0 {
				body = io.LimitReader(r.Body, opt.MaxBytes+1)
			}
			data, err := io.ReadAll(body)
			if err != nil {
				WriteResult(w, http.StatusBadRequest, fastskema.Fail(fastskema.ToIssues(nil, err)))
				return
			}
			if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
				it := fastskema.NewIssue(fastskema.CodeTruncated, map[string]any{"detail": "max bytes exceeded"})
				WriteResult(w, http.StatusRequestEntityTooLarge, fastskema.Fail(fastskema.Issues{it}))
				return
			}
			v, err := fastskema.DecodeSource(fastskema.WithNumberMode(fastskema.JSONBytes(data), fastskema.NumberFloat64), opt)
			if err != nil {
				WriteResult(w, http.StatusBadRequest, fastskema.Fail(fastskema.ToIssues(nil, err)))
				return
			}
			ctx := r.Context()
			if opt.FailFast {
				ctx = fastskema.WithFailFast(ctx, true)
			}
			res := d.Validate(ctx, s, v)
			if !res.Success {
				WriteResult(w, http.StatusBadRequest, res)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithValue(r.Context(), res.Data)))
		})
	}
}

// WriteResult writes res as a JSON response with the given status.
func WriteResult(w http.ResponseWriter, status int, res fastskema.Result) {
	b, err := json.Marshal(res)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
