package dispatch

import (
	"sync"
	"time"
)

// Strategy learns which backend is faster for a schema shape. Keys are shape
// signatures (fastskema.Descriptor.Signature).
type Strategy interface {
	Observe(signature string, kind BackendKind, elapsed time.Duration)
	// Recommend returns a backend to force for the shape, if any.
	Recommend(signature string) (BackendKind, bool)
	Reset()
}

// NopStrategy never recommends anything.
type NopStrategy struct{}

func (NopStrategy) Observe(string, BackendKind, time.Duration) {}
func (NopStrategy) Recommend(string) (BackendKind, bool)       { return BackendAuto, false }
func (NopStrategy) Reset()                                     {}

// RollingOptimizer keeps a rolling window of latencies per signature for both
// backends. Once both windows hold MinSamples observations it recommends the
// backend with the lower average.
type RollingOptimizer struct {
	window     int
	minSamples int

	mu     sync.Mutex
	shapes map[string]*[2]ring
}

// NewRollingOptimizer returns an optimizer; non-positive arguments fall back
// to a window of 100 and 10 samples.
func NewRollingOptimizer(window, minSamples int) *RollingOptimizer {
	if window < 1 {
		window = 100
	}
	if minSamples < 1 {
		minSamples = 10
	}
	minSamples = min(minSamples, window)
	return &RollingOptimizer{window: window, minSamples: minSamples, shapes: map[string]*[2]ring{}}
}

func slot(kind BackendKind) (int, bool) {
	switch kind {
	case BackendInterpreted:
		return 0, true
	case BackendAccelerated:
		return 1, true
	}
	return 0, false
}

func (o *RollingOptimizer) Observe(signature string, kind BackendKind, elapsed time.Duration) {
	i, ok := slot(kind)
	if !ok || signature == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	rs, ok := o.shapes[signature]
	if !ok {
		rs = &[2]ring{}
		o.shapes[signature] = rs
	}
	rs[i].add(elapsed, o.window)
}

func (o *RollingOptimizer) Recommend(signature string) (BackendKind, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rs, ok := o.shapes[signature]
	if !ok || len(rs[0].samples) < o.minSamples || len(rs[1].samples) < o.minSamples {
		return BackendAuto, false
	}
	if rs[1].avg() < rs[0].avg() {
		return BackendAccelerated, true
	}
	return BackendInterpreted, true
}

// Averages returns the current rolling averages for a signature and the
// sample counts behind them.
func (o *RollingOptimizer) Averages(signature string) (interp, accel time.Duration, n [2]int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rs, ok := o.shapes[signature]
	if !ok {
		return 0, 0, n
	}
	return rs[0].avg(), rs[1].avg(), [2]int{len(rs[0].samples), len(rs[1].samples)}
}

func (o *RollingOptimizer) Reset() {
	o.mu.Lock()
	o.shapes = map[string]*[2]ring{}
	o.mu.Unlock()
}

type ring struct {
	samples []time.Duration
	next    int
	sum     time.Duration
}

func (r *ring) add(d time.Duration, window int) {
	if len(r.samples) < window {
		r.samples = append(r.samples, d)
		r.sum += d
		return
	}
	r.sum += d - r.samples[r.next]
	r.samples[r.next] = d
	r.next = (r.next + 1) % window
}

func (r *ring) avg() time.Duration {
	if len(r.samples) == 0 {
		return 0
	}
	return r.sum / time.Duration(len(r.samples))
}
