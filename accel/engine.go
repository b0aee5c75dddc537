package accel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

var (
	// ErrUnsupported is returned for descriptors the engine cannot compile:
	// opaque effects, lazy references, unknown check kinds.
	ErrUnsupported = errors.New("accel: unsupported schema")
	// ErrNotReady is returned by Validate before Init has completed.
	ErrNotReady = errors.New("accel: engine not initialized")
)

// Program is a compiled schema. It is immutable and safe for concurrent use.
type Program struct {
	root      node
	signature string
	nodes     int
}

// Signature returns the shape signature the program was compiled from.
func (p *Program) Signature() string { return p.signature }

// Nodes returns the number of compiled nodes.
func (p *Program) Nodes() int { return p.nodes }

// Run validates v. It never panics on well-formed programs; callers that need
// a backend error instead of a panic use Engine.Validate.
func (p *Program) Run(ctx context.Context, v any) fastskema.Result {
	out, iss := p.root(ctx, v)
	if iss != nil {
		return fastskema.Fail(iss)
	}
	return fastskema.Ok(out)
}

// Option configures an Engine.
type Option func(*Engine)

// WithWarmup replaces the initialization step run by Init. The default
// compiles a probe schema covering every check family, which populates the
// format catalog lookups and the pattern cache.
func WithWarmup(fn func(context.Context, *Engine) error) Option {
	return func(e *Engine) { e.warmup = fn }
}

// WithPatternCache shares a pattern cache between engines.
func WithPatternCache(pc *checks.PatternCache) Option {
	return func(e *Engine) { e.patterns = pc }
}

// Engine compiles descriptors into closure programs and caches them by
// shape signature. The program cache and the pattern cache make up the
// engine's cache context; Reset clears both.
type Engine struct {
	warmup   func(context.Context, *Engine) error
	patterns *checks.PatternCache

	mu       sync.RWMutex
	bySig    map[string]*Program
	bySchema *checks.SchemaMemo[memo]
	group    singleflight.Group

	ready   atomic.Bool
	initMu  sync.Mutex
	initErr error

	hits, misses atomic.Int64
}

// New returns an engine that is not yet initialized.
func New(opts ...Option) *Engine {
	e := &Engine{
		warmup:   defaultWarmup,
		patterns: checks.NewPatternCache(),
		bySig:    map[string]*Program{},
		bySchema: checks.NewSchemaMemo[memo](0),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Init runs the warmup step once. It honors ctx: when ctx ends first, Init
// returns ctx.Err() and the engine stays unavailable, so a later Init may
// retry.
func (e *Engine) Init(ctx context.Context) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	if e.ready.Load() {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- e.warmup(ctx, e) }()
	select {
	case err := <-done:
		if err != nil {
			e.initErr = fmt.Errorf("accel: init: %w", err)
			return e.initErr
		}
		e.initErr = nil
		e.ready.Store(true)
		return nil
	case <-ctx.Done():
		e.initErr = fmt.Errorf("accel: init: %w", ctx.Err())
		return e.initErr
	}
}

// Ready reports whether Init has completed successfully.
func (e *Engine) Ready() bool { return e.ready.Load() }

// InitErr returns the error of the last failed Init.
func (e *Engine) InitErr() error {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	return e.initErr
}

var probe = &fastskema.Descriptor{
	Type: fastskema.TypeObject,
	Shape: []fastskema.Property{
		{Name: "s", Schema: &fastskema.Descriptor{Type: fastskema.TypeString, Checks: []fastskema.Check{
			{Kind: "trim"}, {Kind: "min", Number: ptr(1)}, {Kind: "email"}, {Kind: "regex", Text: `^\S+$`},
		}}},
		{Name: "n", Schema: &fastskema.Descriptor{Type: fastskema.TypeNumber, Checks: []fastskema.Check{
			{Kind: "int"}, {Kind: "min", Number: ptr(0)}, {Kind: "multipleOf", Number: ptr(1)},
		}}},
		{Name: "a", Schema: &fastskema.Descriptor{Type: fastskema.TypeArray, Unique: true,
			Element: &fastskema.Descriptor{Type: fastskema.TypeBoolean}}},
	},
}

func ptr(f float64) *float64 { return &f }

func defaultWarmup(ctx context.Context, e *Engine) error {
	p, err := e.compile(probe)
	if err != nil {
		return err
	}
	if r := p.Run(ctx, map[string]any{"s": " a@b.co ", "n": 1, "a": []any{true}}); !r.Success {
		return fmt.Errorf("probe failed: %v", r.Error)
	}
	return nil
}

// Supports reports whether d can be compiled.
func (e *Engine) Supports(d *fastskema.Descriptor) bool {
	if d == nil || !d.Translatable() {
		return false
	}
	_, err := e.Compile(d)
	return err == nil
}

// Compile returns the cached program for d's signature, compiling it once
// even under concurrent callers.
func (e *Engine) Compile(d *fastskema.Descriptor) (*Program, error) {
	sig := d.Signature()
	e.mu.RLock()
	p, ok := e.bySig[sig]
	e.mu.RUnlock()
	if ok {
		e.hits.Add(1)
		return p, nil
	}
	v, err, _ := e.group.Do(sig, func() (any, error) {
		e.mu.RLock()
		p, ok := e.bySig[sig]
		e.mu.RUnlock()
		if ok {
			return p, nil
		}
		e.misses.Add(1)
		p, err := e.compile(d)
		if err != nil {
			return nil, err
		}
		p.signature = sig
		e.mu.Lock()
		e.bySig[sig] = p
		e.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Program), nil
}

func (e *Engine) compile(d *fastskema.Descriptor) (*Program, error) {
	if !d.Translatable() {
		return nil, fmt.Errorf("%w: %s is not translatable", ErrUnsupported, d.Type)
	}
	c := &compiler{patterns: e.patterns}
	root, err := c.compile(d)
	if err != nil {
		return nil, err
	}
	return &Program{root: root, nodes: c.nodes}, nil
}

type memo struct {
	p   *Program
	err error
}

// program resolves s to a program, memoizing by schema identity (including
// compile failures) when s is held by pointer.
func (e *Engine) program(s fastskema.Schema) (*Program, error) {
	if m, ok := e.bySchema.Load(s); ok {
		e.hits.Add(1)
		return m.p, m.err
	}
	p, err := e.Compile(s.Descriptor())
	e.bySchema.Store(s, memo{p: p, err: err})
	return p, err
}

// Validate runs s on the accelerated path. A non-nil error means the backend
// could not serve the call (not ready, unsupported schema, internal panic);
// validation failures are reported in the Result.
func (e *Engine) Validate(ctx context.Context, s fastskema.Schema, v any) (res fastskema.Result, err error) {
	if !e.Ready() {
		return fastskema.Result{}, ErrNotReady
	}
	if s == nil {
		return fastskema.Result{}, fmt.Errorf("%w: nil schema", ErrUnsupported)
	}
	p, err := e.program(s)
	if err != nil {
		return fastskema.Result{}, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			res, err = fastskema.Result{}, fmt.Errorf("accel: panic: %v", rec)
		}
	}()
	return p.Run(ctx, v), nil
}

// Reset drops every compiled program and cached pattern.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.bySig = map[string]*Program{}
	e.mu.Unlock()
	e.bySchema.Reset()
	e.patterns.Reset()
	e.hits.Store(0)
	e.misses.Store(0)
}

// Size returns the number of cached programs.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.bySig)
}

// Stats is a snapshot of the cache context.
type Stats struct {
	Programs int
	Patterns int
	Schemas  int
	Hits     int64
	Misses   int64
}

// Stats returns cache counters.
func (e *Engine) Stats() Stats {
	return Stats{Programs: e.Size(), Patterns: e.patterns.Len(), Schemas: e.bySchema.Len(), Hits: e.hits.Load(), Misses: e.misses.Load()}
}
