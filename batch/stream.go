package batch

import (
	"context"
	"sync"

	fastskema "github.com/reoring/fastskema"
)

// Stream accepts items one at a time. In eager mode each Push is validated
// right away; otherwise items are buffered until Flush, which delegates to
// Validate. Issue paths use the global push index in both modes.
type Stream struct {
	schema fastskema.Schema
	opts   []Option
	eager  bool

	mu      sync.Mutex
	pending []any
	results []fastskema.Result
	pushed  int
}

// NewStream returns a stream validating against s.
func NewStream(s fastskema.Schema, opts ...Option) *Stream {
	return &Stream{schema: s, opts: opts, eager: build(opts).eager}
}

// Push adds v. In eager mode it returns the item's result and true; in
// buffered mode it returns false and the result is produced by Flush.
func (st *Stream) Push(ctx context.Context, v any) (fastskema.Result, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	idx := st.pushed
	st.pushed++
	if !st.eager {
		st.pending = append(st.pending, v)
		return fastskema.Result{}, false
	}
	r := Validate(ctx, st.schema, []any{v}, st.with(idx)...)[0]
	st.results = append(st.results, r)
	return r, true
}

// Flush validates the buffered items and returns their results.
func (st *Stream) Flush(ctx context.Context) []fastskema.Result {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.pending) == 0 {
		return nil
	}
	base := st.pushed - len(st.pending)
	rs := Validate(ctx, st.schema, st.pending, st.with(base)...)
	st.pending = nil
	st.results = append(st.results, rs...)
	return rs
}

func (st *Stream) with(offset int) []Option {
	return append(append([]Option{}, st.opts...), WithOffset(offset))
}

// Pending returns the number of buffered items.
func (st *Stream) Pending() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.pending)
}

// Results returns every result produced so far.
func (st *Stream) Results() []fastskema.Result {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]fastskema.Result(nil), st.results...)
}

// Reset drops buffered items and results and restarts indexing at zero.
func (st *Stream) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pending = nil
	st.results = nil
	st.pushed = 0
}
