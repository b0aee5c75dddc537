package dsl

import (
	"context"
	"fmt"
	"sort"
	"sync"

	fastskema "github.com/reoring/fastskema"
)

// Registry is an arena of named schemas. Recursive and mutually recursive
// schemas refer to each other through Ref handles that hold a slot index and
// resolve at validation time, so no reference cycle exists between nodes.
type Registry struct {
	mu    sync.RWMutex
	names map[string]int
	slots []fastskema.Schema
}

// NewRegistry returns an empty arena.
func NewRegistry() *Registry { return &Registry{names: map[string]int{}} }

func (r *Registry) slot(name string) int {
	if i, ok := r.names[name]; ok {
		return i
	}
	r.names[name] = len(r.slots)
	r.slots = append(r.slots, nil)
	return len(r.slots) - 1
}

// Define binds name to s and returns s. Refs taken before Define observe the
// binding.
func (r *Registry) Define(name string, s fastskema.Schema) fastskema.Schema {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[r.slot(name)] = s
	return s
}

// Ref returns a handle to name, which may be defined later.
func (r *Registry) Ref(name string) *LazySchema {
	r.mu.Lock()
	i := r.slot(name)
	r.mu.Unlock()
	l := &LazySchema{reg: r, name: name, index: i}
	l.bind(l)
	return l
}

// Lookup returns the schema bound to name.
func (r *Registry) Lookup(name string) (fastskema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.names[name]
	if !ok || r.slots[i] == nil {
		return nil, false
	}
	return r.slots[i], true
}

// Names lists defined names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for n, i := range r.names {
		if r.slots[i] != nil {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) at(i int) fastskema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots[i]
}

// LazySchema defers to a schema resolved at validation time, either a
// registry slot or a getter function.
type LazySchema struct {
	base
	reg   *Registry
	name  string
	index int

	once   sync.Once
	getter func() fastskema.Schema
	cached fastskema.Schema
}

// Lazy wraps a getter invoked on first use. Use it for self-references in
// code; use a Registry when schemas are named or built from descriptors.
func Lazy(getter func() fastskema.Schema) *LazySchema {
	l := &LazySchema{getter: getter}
	l.bind(l)
	return l
}

// Name returns the referenced name ("" for getter-based schemas).
func (l *LazySchema) Name() string { return l.name }

func (l *LazySchema) resolve() fastskema.Schema {
	if l.reg != nil {
		return l.reg.at(l.index)
	}
	l.once.Do(func() { l.cached = l.getter() })
	return l.cached
}

func (l *LazySchema) Parse(ctx context.Context, v any) (any, error) {
	s := l.resolve()
	if s == nil {
		return nil, fastskema.ToIssues(nil, fmt.Errorf("dsl: unresolved reference %q", l.name))
	}
	return s.Parse(ctx, v)
}

// Modifier forwards the tag of the resolved schema.
func (l *LazySchema) Modifier() fastskema.Modifier {
	if s := l.resolve(); s != nil {
		return fastskema.ModifierOf(s)
	}
	return fastskema.ModPlain
}

func (l *LazySchema) Descriptor() *fastskema.Descriptor {
	return l.describe(&fastskema.Descriptor{Type: fastskema.TypeLazy, Ref: l.name})
}
