// Package batch validates sequences of values against one schema.
//
// Every item is validated in isolation: a failing item never aborts the
// batch, its issues are rebased under the item's index, and results keep the
// input order. Large inputs are processed in fixed-size chunks with a yield
// point between chunks; chunks may run on a bounded worker pool.
package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	fastskema "github.com/reoring/fastskema"
)

// DefaultChunkSize is the number of items validated between yield points.
const DefaultChunkSize = 1000

// Validator validates one value. fastskema.SafeParse is the default; the
// dispatch package plugs its backend selection in here.
type Validator func(ctx context.Context, s fastskema.Schema, v any) fastskema.Result

type options struct {
	chunk    int
	workers  int
	offset   int
	eager    bool
	validate Validator
}

// Option configures Validate, ParseMany and Stream.
type Option func(*options)

// WithChunkSize sets the chunk size. Values below 1 fall back to the default.
func WithChunkSize(n int) Option { return func(o *options) { o.chunk = n } }

// WithWorkers validates up to n chunks concurrently. Results stay ordered.
func WithWorkers(n int) Option { return func(o *options) { o.workers = n } }

// WithValidator replaces the per-item validator.
func WithValidator(fn Validator) Option { return func(o *options) { o.validate = fn } }

// WithOffset shifts the index used to prefix issue paths.
func WithOffset(n int) Option { return func(o *options) { o.offset = n } }

// WithEager makes Stream.Push validate immediately instead of buffering.
func WithEager() Option { return func(o *options) { o.eager = true } }

func build(opts []Option) options {
	o := options{chunk: DefaultChunkSize, workers: 1, validate: fastskema.SafeParse}
	for _, fn := range opts {
		fn(&o)
	}
	if o.chunk < 1 {
		o.chunk = DefaultChunkSize
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.validate == nil {
		o.validate = fastskema.SafeParse
	}
	return o
}

// Validate returns one Result per item, in input order. Failed results carry
// issue paths prefixed with the item index.
//
// A cancelled ctx is observed between chunks: items not yet validated get an
// unknown_error result carrying ctx.Err().
func Validate(ctx context.Context, s fastskema.Schema, items []any, opts ...Option) []fastskema.Result {
	o := build(opts)
	out := make([]fastskema.Result, len(items))
	if o.workers == 1 {
		for start := 0; start < len(items); start += o.chunk {
			end := min(start+o.chunk, len(items))
			if err := ctx.Err(); err != nil {
				cancelled(out, start, len(items), o.offset, err)
				break
			}
			o.run(ctx, s, items, out, start, end)
			runtime.Gosched()
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(o.workers)
	for start := 0; start < len(items); start += o.chunk {
		start := start
		end := min(start+o.chunk, len(items))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				cancelled(out, start, end, o.offset, err)
				return nil
			}
			o.run(ctx, s, items, out, start, end)
			runtime.Gosched()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (o options) run(ctx context.Context, s fastskema.Schema, items []any, out []fastskema.Result, start, end int) {
	for i := start; i < end; i++ {
		r := o.validate(ctx, s, items[i])
		if !r.Success {
			r = fastskema.Fail(r.Error.Prefix(o.offset + i))
		}
		out[i] = r
	}
}

func cancelled(out []fastskema.Result, start, end, offset int, err error) {
	for i := start; i < end; i++ {
		out[i] = fastskema.Fail(fastskema.ToIssues(fastskema.Path{offset + i}, err))
	}
}

// ParseMany validates every item and returns the normalized values. When any
// item fails, the error aggregates the issues of all failing items, each
// prefixed with its index.
func ParseMany(ctx context.Context, s fastskema.Schema, items []any, opts ...Option) ([]any, error) {
	results := Validate(ctx, s, items, opts...)
	var iss fastskema.Issues
	data := make([]any, len(results))
	for i, r := range results {
		if !r.Success {
			iss = append(iss, r.Error...)
			continue
		}
		data[i] = r.Data
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return data, nil
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// Summarize counts valid and invalid results.
func Summarize(results []fastskema.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Valid++
		}
	}
	s.Invalid = s.Total - s.Valid
	return s
}
