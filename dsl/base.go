package dsl

import (
	"context"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

// base carries the chaining surface shared by every node. self points back
// at the embedding node so that wrappers receive the concrete schema.
type base struct {
	self        fastskema.Schema
	description string
}

func (b *base) bind(self fastskema.Schema) { b.self = self }

func (b *base) describe(d *fastskema.Descriptor) *fastskema.Descriptor {
	if b.description != "" {
		d.Description = b.description
	}
	return d
}

// Optional accepts an absent value (Undefined).
func (b *base) Optional() *Modified { return Optional(b.self) }

// Nullable accepts null.
func (b *base) Nullable() *Modified { return Nullable(b.self) }

// Nullish accepts both an absent value and null.
func (b *base) Nullish() *Modified { return Nullish(b.self) }

// Default substitutes v when the value is absent.
func (b *base) Default(v any) *Modified { return Default(b.self, v) }

// Refine adds a predicate evaluated after the node succeeds.
func (b *base) Refine(pred func(any) bool, msg ...string) *Effect {
	return Refine(b.self, pred, msg...)
}

// RefineCtx adds a context-aware, possibly blocking predicate.
func (b *base) RefineCtx(fn func(context.Context, any) error) *Effect { return RefineCtx(b.self, fn) }

// SuperRefine adds a refinement that reports any number of issues.
func (b *base) SuperRefine(fn func(any, *RefineContext)) *Effect { return SuperRefine(b.self, fn) }

// Transform maps the validated value.
func (b *base) Transform(fn func(any) (any, error)) *Effect { return Transform(b.self, fn) }

// Pipe feeds the validated value into next.
func (b *base) Pipe(next fastskema.Schema) *Effect { return Pipe(b.self, next) }

// ---- shared helpers ----

func typeIssue(expected string, v any) error {
	return fastskema.Issues{fastskema.TypeIssue(expected, checks.TypeName(v))}
}

// collect appends child issues from err rebased under segs. Foreign errors are
// wrapped as unknown_error.
func collect(dst fastskema.Issues, err error, segs ...any) fastskema.Issues {
	return append(dst, fastskema.ToIssues(nil, err).Prefix(segs...)...)
}

func (b *base) setDescription(text string) { b.description = text }
