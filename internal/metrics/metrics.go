// Package metrics records packing outcomes. The Prometheus implementation
// backs the /metrics endpoint; Nop is used when metrics are disabled.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "binpacker"

// Recorder receives packing observations from the API.
type Recorder interface {
	RecordPack(strategy string, items, bins int, seconds float64)
	RecordFailure(strategy, reason string)
}

// Nop discards all observations.
type Nop struct{}

var _ Recorder = Nop{}

// RecordPack discards the observation.
func (Nop) RecordPack(string, int, int, float64) {}

// RecordFailure discards the observation.
func (Nop) RecordFailure(string, string) {}

// Prometheus implements Recorder with Prometheus collectors. Collectors are
// registered on first use.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	packs    *prometheus.CounterVec
	failures *prometheus.CounterVec
	items    *prometheus.CounterVec
	bins     *prometheus.HistogramVec
	duration *prometheus.HistogramVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates a Prometheus-backed recorder. A nil registerer falls
// back to prometheus.DefaultRegisterer and an empty namespace to "binpacker".
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.packs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "pack",
			Name:      "requests_total",
			Help:      "Total successful packing runs by strategy.",
		}, []string{"strategy"})

		p.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "pack",
			Name:      "failures_total",
			Help:      "Total failed packing runs by strategy and reason.",
		}, []string{"strategy", "reason"})

		p.items = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "pack",
			Name:      "items_total",
			Help:      "Total items packed by strategy.",
		}, []string{"strategy"})

		p.bins = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "pack",
			Name:      "bins",
			Help:      "Number of bins produced per packing run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"strategy"})

		p.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "pack",
			Name:      "duration_seconds",
			Help:      "Packing run latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs .. ~26s
		}, []string{"strategy"})

		p.reg.MustRegister(p.packs)
		p.reg.MustRegister(p.failures)
		p.reg.MustRegister(p.items)
		p.reg.MustRegister(p.bins)
		p.reg.MustRegister(p.duration)
	})
}

// RecordPack records a successful packing run.
func (p *Prometheus) RecordPack(strategy string, items, bins int, seconds float64) {
	p.ensureRegistered()
	p.packs.WithLabelValues(strategy).Inc()
	p.items.WithLabelValues(strategy).Add(float64(items))
	p.bins.WithLabelValues(strategy).Observe(float64(bins))
	p.duration.WithLabelValues(strategy).Observe(seconds)
}

// RecordFailure records a packing run rejected for reason.
func (p *Prometheus) RecordFailure(strategy, reason string) {
	p.ensureRegistered()
	p.failures.WithLabelValues(strategy, reason).Inc()
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
