package checks

import (
	"reflect"
	"sync"

	fastskema "github.com/reoring/fastskema"
)

// DefaultMemoLimit bounds SchemaMemo when no limit is given.
const DefaultMemoLimit = 4096

// SchemaMemo caches per-instance data for schemas held by pointer. Value
// schemas are never keyed: their dynamic contents may be unhashable. When the
// memo reaches its limit it starts over, so schemas built per request cannot
// grow it without bound.
type SchemaMemo[V any] struct {
	mu    sync.RWMutex
	limit int
	m     map[fastskema.Schema]V
}

// NewSchemaMemo returns a memo holding at most limit entries (DefaultMemoLimit
// when limit <= 0).
func NewSchemaMemo[V any](limit int) *SchemaMemo[V] {
	if limit <= 0 {
		limit = DefaultMemoLimit
	}
	return &SchemaMemo[V]{limit: limit, m: map[fastskema.Schema]V{}}
}

// Keyable reports whether s can be used as a memo key.
func Keyable(s fastskema.Schema) bool {
	return s != nil && reflect.ValueOf(s).Kind() == reflect.Pointer
}

// Load returns the entry for s.
func (c *SchemaMemo[V]) Load(s fastskema.Schema) (V, bool) {
	var zero V
	if !Keyable(s) {
		return zero, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[s]
	return v, ok
}

// Store records v for s. Unkeyable schemas are ignored.
func (c *SchemaMemo[V]) Store(s fastskema.Schema, v V) {
	if !Keyable(s) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[s]; !ok && len(c.m) >= c.limit {
		c.m = make(map[fastskema.Schema]V, c.limit)
	}
	c.m[s] = v
}

// Len reports the number of entries.
func (c *SchemaMemo[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Reset drops every entry.
func (c *SchemaMemo[V]) Reset() {
	c.mu.Lock()
	c.m = map[fastskema.Schema]V{}
	c.mu.Unlock()
}
