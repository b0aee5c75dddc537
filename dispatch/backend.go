package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fastskema "github.com/reoring/fastskema"
)

// ErrBackendUnavailable wraps accelerated failures that were not recovered by
// fallback.
var ErrBackendUnavailable = errors.New("dispatch: backend unavailable")

// Backend executes one validation. A non-nil error means the backend itself
// failed; validation failures are reported through the Result.
type Backend interface {
	Validate(ctx context.Context, s fastskema.Schema, v any) (fastskema.Result, error)
}

// Initializer is implemented by backends that need asynchronous setup.
// Backends without it are ready immediately.
type Initializer interface {
	Init(ctx context.Context) error
	Ready() bool
}

// Resetter is implemented by backends that own a cache context.
type Resetter interface {
	Reset()
	Size() int
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, s fastskema.Schema, v any) (fastskema.Result, error)

func (f BackendFunc) Validate(ctx context.Context, s fastskema.Schema, v any) (fastskema.Result, error) {
	return f(ctx, s, v)
}

type interpreted struct{}

func (interpreted) Validate(ctx context.Context, s fastskema.Schema, v any) (fastskema.Result, error) {
	return fastskema.SafeParse(ctx, s, v), nil
}

// Interpreted returns the backend that walks the dsl nodes directly.
func Interpreted() Backend { return interpreted{} }

// BackendKind names a backend.
type BackendKind int

const (
	// BackendAuto lets Decide choose.
	BackendAuto BackendKind = iota
	BackendInterpreted
	BackendAccelerated
)

func (k BackendKind) String() string {
	switch k {
	case BackendInterpreted:
		return "interpreted"
	case BackendAccelerated:
		return "accelerated"
	default:
		return "auto"
	}
}

// ParseBackendKind accepts "auto", "interpreted" and "accelerated".
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackendAuto, nil
	case "interpreted", "dsl":
		return BackendInterpreted, nil
	case "accelerated", "accel":
		return BackendAccelerated, nil
	}
	return BackendAuto, fmt.Errorf("dispatch: unknown backend %q", s)
}
