// Package dispatch routes validations between the interpreted dsl backend and
// the accelerated backend.
//
// Every call goes through decide → attempt → fallback → record. Decide is a
// pure function of the configuration, the backend readiness, the schema
// descriptor and the input size. An accelerated attempt that fails with a
// backend error is re-run on the interpreted backend when AutoFallback is
// set, so callers observe the same Result shape whichever backend served
// them.
//
// A Dispatcher owns its accelerated engine (and therefore its cache context),
// its metrics record and its optimizer. Create one per tenant to keep them
// apart.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/accel"
	"github.com/reoring/fastskema/batch"
	"github.com/reoring/fastskema/internal/checks"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonForced         Reason = "forced"
	ReasonNotReady       Reason = "not_ready"
	ReasonUntranslatable Reason = "untranslatable"
	ReasonOptimizer      Reason = "optimizer"
	ReasonPreferred      Reason = "preferred"
	ReasonThreshold      Reason = "threshold"
	ReasonBelowThreshold Reason = "below_threshold"
)

// Decision is the outcome of Decide.
type Decision struct {
	Backend    BackendKind
	Reason     Reason
	Size       int
	Complexity int
	Signature  string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option { return func(d *Dispatcher) { d.cfg = cfg } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option { return func(d *Dispatcher) { d.log = l } }

// WithAccelerated replaces the accelerated backend. Passing nil leaves the
// dispatcher interpreted-only.
func WithAccelerated(b Backend) Option {
	return func(d *Dispatcher) { d.accel, d.accelSet = b, true }
}

// WithInterpreted replaces the interpreted backend.
func WithInterpreted(b Backend) Option { return func(d *Dispatcher) { d.interp = b } }

// WithStrategy replaces the optimizer built from Config.Optimizer.
func WithStrategy(s Strategy) Option { return func(d *Dispatcher) { d.strategy, d.strategySet = s, true } }

// Dispatcher selects a backend per call. It is safe for concurrent use.
type Dispatcher struct {
	log         *zap.SugaredLogger
	interp      Backend
	accel       Backend
	accelSet    bool
	strategySet bool

	mu       sync.RWMutex
	cfg      Config
	forced   BackendKind
	strategy Strategy

	startOnce sync.Once
	ready     atomic.Bool
	resolved  chan struct{}
	initErr   atomic.Pointer[error]

	shapes *checks.SchemaMemo[shape]
	rec    recorder
}

type shape struct {
	signature    string
	complexity   int
	translatable bool
}

// New returns a dispatcher. The accelerated backend is unavailable until
// Start has initialized it.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:      zap.NewNop().Sugar(),
		interp:   Interpreted(),
		cfg:      DefaultConfig(),
		resolved: make(chan struct{}),
		shapes:   checks.NewSchemaMemo[shape](0),
	}
	for _, o := range opts {
		o(d)
	}
	if !d.accelSet {
		d.accel = accel.New()
	}
	if d.log == nil {
		d.log = zap.NewNop().Sugar()
	}
	if !d.strategySet || d.strategy == nil {
		d.strategy = strategyFor(d.cfg)
	}
	return d
}

func strategyFor(cfg Config) Strategy {
	if !cfg.Optimizer.Enabled {
		return NopStrategy{}
	}
	return NewRollingOptimizer(cfg.Optimizer.Window, cfg.Optimizer.MinSamples)
}

// Start initializes the accelerated backend in the background, bounded by
// Config.InitTimeout. Calls made before initialization resolves run
// interpreted. Start is idempotent.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		if d.accel == nil {
			d.fail(fmt.Errorf("%w: no accelerated backend", ErrBackendUnavailable))
			return
		}
		in, ok := d.accel.(Initializer)
		if !ok {
			d.ready.Store(true)
			close(d.resolved)
			return
		}
		timeout := time.Duration(d.Config().InitTimeout)
		go func() {
			ictx, cancel := ctx, context.CancelFunc(func() {})
			if timeout > 0 {
				ictx, cancel = context.WithTimeout(ctx, timeout)
			}
			defer cancel()
			began := time.Now()
			if err := in.Init(ictx); err != nil {
				d.log.Warnw("Accelerated backend unavailable, running interpreted only",
					"error", err, "elapsed", time.Since(began))
				d.fail(err)
				return
			}
			d.log.Infow("Accelerated backend ready", "elapsed", time.Since(began))
			d.ready.Store(true)
			close(d.resolved)
		}()
	})
}

func (d *Dispatcher) fail(err error) {
	d.initErr.Store(&err)
	close(d.resolved)
}

// Ready reports whether the accelerated backend can serve calls.
func (d *Dispatcher) Ready() bool { return d.ready.Load() }

// WaitReady blocks until initialization resolves or ctx ends. It returns the
// initialization error, if any.
func (d *Dispatcher) WaitReady(ctx context.Context) error {
	select {
	case <-d.resolved:
		if p := d.initErr.Load(); p != nil {
			return *p
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Config returns the current configuration.
func (d *Dispatcher) Config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Configure replaces the configuration. Unless a Strategy was injected, the
// optimizer is rebuilt from cfg.Optimizer and loses its samples.
func (d *Dispatcher) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.strategySet && cfg.Optimizer != d.cfg.Optimizer {
		d.strategy = strategyFor(cfg)
	}
	d.cfg = cfg
	return nil
}

// ForceBackend pins every call to kind. BackendAuto clears the pin.
func (d *Dispatcher) ForceBackend(kind BackendKind) {
	d.mu.Lock()
	d.forced = kind
	d.mu.Unlock()
}

// Forced returns the pinned backend, or BackendAuto.
func (d *Dispatcher) Forced() BackendKind {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.forced
}

func (d *Dispatcher) shapeOf(s fastskema.Schema) shape {
	if sh, ok := d.shapes.Load(s); ok {
		return sh
	}
	desc := s.Descriptor()
	sh := shape{}
	if desc != nil {
		sh = shape{signature: desc.Signature(), complexity: desc.Complexity(), translatable: desc.Translatable()}
	}
	d.shapes.Store(s, sh)
	return sh
}

// Decide picks the backend for validating v against s.
func (d *Dispatcher) Decide(s fastskema.Schema, v any) Decision {
	return d.decide(s, func(cfg Config, dec *Decision) bool {
		dec.Size = fastskema.EstimateSize(v)
		return dec.Size >= cfg.MinDataSize || dec.Complexity >= cfg.ComplexityThreshold
	})
}

// DecideBatch picks one backend for a whole batch, comparing the item count
// with BatchSizeThreshold.
func (d *Dispatcher) DecideBatch(s fastskema.Schema, items []any) Decision {
	return d.decide(s, func(cfg Config, dec *Decision) bool {
		dec.Size = len(items)
		return len(items) >= cfg.BatchSizeThreshold
	})
}

func (d *Dispatcher) decide(s fastskema.Schema, large func(Config, *Decision) bool) Decision {
	d.mu.RLock()
	cfg, forced, strategy := d.cfg, d.forced, d.strategy
	d.mu.RUnlock()

	if s == nil {
		return Decision{Backend: BackendInterpreted, Reason: ReasonUntranslatable}
	}
	sh := d.shapeOf(s)
	dec := Decision{Complexity: sh.complexity, Signature: sh.signature}
	pick := func(k BackendKind, r Reason) Decision {
		dec.Backend, dec.Reason = k, r
		return dec
	}
	switch {
	case forced != BackendAuto:
		return pick(forced, ReasonForced)
	case !d.Ready():
		return pick(BackendInterpreted, ReasonNotReady)
	case !sh.translatable:
		return pick(BackendInterpreted, ReasonUntranslatable)
	}
	if k, ok := strategy.Recommend(sh.signature); ok {
		return pick(k, ReasonOptimizer)
	}
	if cfg.PreferAccelerated {
		return pick(BackendAccelerated, ReasonPreferred)
	}
	if large(cfg, &dec) {
		return pick(BackendAccelerated, ReasonThreshold)
	}
	return pick(BackendInterpreted, ReasonBelowThreshold)
}

// Validate decides, attempts and, if needed, falls back. The returned Result
// never carries a backend error other than as a single unknown_error issue.
func (d *Dispatcher) Validate(ctx context.Context, s fastskema.Schema, v any) fastskema.Result {
	return d.run(ctx, d.Decide(s, v), s, v, nil)
}

// Parse is Validate in (value, error) form.
func (d *Dispatcher) Parse(ctx context.Context, s fastskema.Schema, v any) (any, error) {
	return d.Validate(ctx, s, v).Unwrap()
}

// ValidateBatch validates items with one backend decision for the whole
// batch. After the first accelerated failure the remaining items run
// interpreted.
func (d *Dispatcher) ValidateBatch(ctx context.Context, s fastskema.Schema, items []any) []fastskema.Result {
	dec := d.DecideBatch(s, items)
	d.rec.batch()
	cfg := d.Config()
	var degraded atomic.Bool
	return batch.Validate(ctx, s, items,
		batch.WithChunkSize(cfg.Batch.ChunkSize),
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithValidator(func(ctx context.Context, s fastskema.Schema, v any) fastskema.Result {
			return d.run(ctx, dec, s, v, &degraded)
		}),
	)
}

// NewStream returns a batch stream whose items are validated through d.
func (d *Dispatcher) NewStream(s fastskema.Schema, opts ...batch.Option) *batch.Stream {
	validate := func(ctx context.Context, s fastskema.Schema, v any) fastskema.Result {
		return d.Validate(ctx, s, v)
	}
	return batch.NewStream(s, append([]batch.Option{batch.WithValidator(validate)}, opts...)...)
}

func (d *Dispatcher) run(ctx context.Context, dec Decision, s fastskema.Schema, v any, degraded *atomic.Bool) fastskema.Result {
	if dec.Backend == BackendAccelerated && (degraded == nil || !degraded.Load()) {
		if r, ok := d.attempt(ctx, dec, s, v, degraded); ok {
			return r
		}
	}
	began := time.Now()
	r, err := d.interp.Validate(ctx, s, v)
	d.observe(dec.Signature, BackendInterpreted, time.Since(began))
	if err != nil {
		return fastskema.Fail(fastskema.ToIssues(nil, err))
	}
	return r
}

// attempt runs the accelerated backend. ok is false when the caller should
// fall back to the interpreted backend.
func (d *Dispatcher) attempt(ctx context.Context, dec Decision, s fastskema.Schema, v any, degraded *atomic.Bool) (fastskema.Result, bool) {
	began := time.Now()
	var (
		r   fastskema.Result
		err error
	)
	if d.accel == nil {
		err = ErrBackendUnavailable
	} else {
		r, err = d.accel.Validate(ctx, s, v)
	}
	elapsed := time.Since(began)
	if err == nil {
		d.observe(dec.Signature, BackendAccelerated, elapsed)
		return r, true
	}
	fallback := d.Config().AutoFallback
	if degraded != nil && !degraded.CompareAndSwap(false, true) {
		// another item of the batch already reported the failure
		if fallback {
			return fastskema.Result{}, false
		}
		return fastskema.Fail(fastskema.ToIssues(nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err))), true
	}
	d.rec.acceleratedError(fallback)
	if fallback {
		d.log.Warnw("Accelerated validation failed, falling back to interpreted",
			"error", err, "signature", dec.Signature, "reason", dec.Reason)
		return fastskema.Result{}, false
	}
	d.log.Errorw("Accelerated validation failed", "error", err, "signature", dec.Signature)
	d.rec.record(BackendAccelerated, elapsed)
	return fastskema.Fail(fastskema.ToIssues(nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err))), true
}

func (d *Dispatcher) observe(signature string, kind BackendKind, elapsed time.Duration) {
	d.rec.record(kind, elapsed)
	d.mu.RLock()
	strategy := d.strategy
	d.mu.RUnlock()
	strategy.Observe(signature, kind, elapsed)
}

// Metrics returns a snapshot of the metrics record.
func (d *Dispatcher) Metrics() Metrics { return d.rec.snapshot() }

// ResetMetrics clears the metrics record and the optimizer samples.
func (d *Dispatcher) ResetMetrics() {
	d.rec.reset()
	d.mu.RLock()
	strategy := d.strategy
	d.mu.RUnlock()
	strategy.Reset()
}

// ResetCaches clears the cache context of every backend that has one, plus
// the dispatcher's own shape memo.
func (d *Dispatcher) ResetCaches() {
	for _, b := range []Backend{d.interp, d.accel} {
		if r, ok := b.(Resetter); ok {
			r.Reset()
		}
	}
	d.shapes.Reset()
	d.log.Debugw("Caches reset")
}

// CacheSize sums the cache sizes reported by the backends and the number of
// memoized schema shapes.
func (d *Dispatcher) CacheSize() int {
	n := d.shapes.Len()
	for _, b := range []Backend{d.interp, d.accel} {
		if r, ok := b.(Resetter); ok {
			n += r.Size()
		}
	}
	return n
}
