package dispatch

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendStats aggregates the calls served by one backend.
type BackendStats struct {
	Count        int64         `json:"count"`
	TotalLatency time.Duration `json:"totalLatency"`
	AvgLatency   time.Duration `json:"avgLatency"`
}

// Metrics is a snapshot of a dispatcher's record.
type Metrics struct {
	TotalValidations  int64        `json:"totalValidations"`
	Interpreted       BackendStats `json:"interpreted"`
	Accelerated       BackendStats `json:"accelerated"`
	AcceleratedErrors int64        `json:"acceleratedErrors"`
	Fallbacks         int64        `json:"fallbacks"`
	Batches           int64        `json:"batches"`
}

type recorder struct {
	mu sync.Mutex
	m  Metrics
}

func (r *recorder) record(kind BackendKind, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.TotalValidations++
	st := &r.m.Interpreted
	if kind == BackendAccelerated {
		st = &r.m.Accelerated
	}
	st.Count++
	st.TotalLatency += elapsed
	st.AvgLatency = st.TotalLatency / time.Duration(st.Count)
}

func (r *recorder) acceleratedError(fellBack bool) {
	r.mu.Lock()
	r.m.AcceleratedErrors++
	if fellBack {
		r.m.Fallbacks++
	}
	r.mu.Unlock()
}

func (r *recorder) batch() {
	r.mu.Lock()
	r.m.Batches++
	r.mu.Unlock()
}

func (r *recorder) snapshot() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.m = Metrics{}
	r.mu.Unlock()
}

const (
	namespace = "fastskema"
	subsystem = "dispatch"
)

// collector exports one dispatcher's record. Collectors of several
// dispatchers can share a registry when they carry distinct const labels.
type collector struct {
	d *Dispatcher

	validations *prometheus.Desc
	latency     *prometheus.Desc
	accelErrors *prometheus.Desc
	fallbacks   *prometheus.Desc
	batches     *prometheus.Desc
	cacheSize   *prometheus.Desc
	ready       *prometheus.Desc
}

func newCollector(d *Dispatcher, labels prometheus.Labels) *collector {
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, variable, labels)
	}
	return &collector{
		d:           d,
		validations: desc("validations_total", "Validations served, by backend.", "backend"),
		latency:     desc("validation_seconds_total", "Cumulative validation latency, by backend.", "backend"),
		accelErrors: desc("accelerated_errors_total", "Accelerated backend failures."),
		fallbacks:   desc("fallbacks_total", "Accelerated failures recovered by the interpreted backend."),
		batches:     desc("batches_total", "Batch validations."),
		cacheSize:   desc("cache_entries", "Entries held by the backend cache contexts."),
		ready:       desc("accelerated_ready", "1 when the accelerated backend finished initialization."),
	}
}

// Collector returns a Prometheus collector for the dispatcher's metrics.
func (d *Dispatcher) Collector() prometheus.Collector { return newCollector(d, nil) }

// CollectorWithLabels is Collector with constant labels, typically a tenant.
func (d *Dispatcher) CollectorWithLabels(labels prometheus.Labels) prometheus.Collector {
	return newCollector(d, labels)
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.validations, c.latency, c.accelErrors, c.fallbacks, c.batches, c.cacheSize, c.ready} {
		ch <- d
	}
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	m := c.d.Metrics()
	for _, b := range []struct {
		kind BackendKind
		st   BackendStats
	}{{BackendInterpreted, m.Interpreted}, {BackendAccelerated, m.Accelerated}} {
		ch <- prometheus.MustNewConstMetric(c.validations, prometheus.CounterValue, float64(b.st.Count), b.kind.String())
		ch <- prometheus.MustNewConstMetric(c.latency, prometheus.CounterValue, b.st.TotalLatency.Seconds(), b.kind.String())
	}
	ch <- prometheus.MustNewConstMetric(c.accelErrors, prometheus.CounterValue, float64(m.AcceleratedErrors))
	ch <- prometheus.MustNewConstMetric(c.fallbacks, prometheus.CounterValue, float64(m.Fallbacks))
	ch <- prometheus.MustNewConstMetric(c.batches, prometheus.CounterValue, float64(m.Batches))
	ch <- prometheus.MustNewConstMetric(c.cacheSize, prometheus.GaugeValue, float64(c.d.CacheSize()))
	ready := 0.0
	if c.d.Ready() {
		ready = 1
	}
	ch <- prometheus.MustNewConstMetric(c.ready, prometheus.GaugeValue, ready)
}
