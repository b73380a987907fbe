package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eugenenazirov/sidesplit/internal/allocator"
)

// Recorder receives one observation per finished allocation.
type Recorder interface {
	ObserveSearch(strategy string, res allocator.Result)
}

// Nop discards observations.
type Nop struct{}

// NewNop returns a Recorder that records nothing.
func NewNop() Nop { return Nop{} }

// ObserveSearch does nothing.
func (Nop) ObserveSearch(string, allocator.Result) {}

// Outcome classifies a result for the searches_total series.
func Outcome(res allocator.Result) string {
	switch {
	case !res.HasSnapshot && res.Truncated:
		return "timeout"
	case !res.HasSnapshot:
		return "no_solution"
	case res.Truncated:
		return "truncated"
	default:
		return "complete"
	}
}

// Prometheus implements Recorder with Prometheus collectors registered lazily
// on first use.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	searches     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	nodes        *prometheus.CounterVec
	improvements *prometheus.CounterVec
	bestScore    *prometheus.GaugeVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates a Prometheus-backed Recorder.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: metrics namespace (defaults to "sidesplit" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "sidesplit"
	}
	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.searches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "allocator",
			Name:      "searches_total",
			Help:      "Total allocation searches by strategy and outcome (complete,truncated,no_solution,timeout).",
		}, []string{"strategy", "outcome"})

		p.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "allocator",
			Name:      "search_duration_seconds",
			Help:      "Wall-clock duration of allocation searches in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~4m
		}, []string{"strategy"})

		p.nodes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "allocator",
			Name:      "search_nodes_total",
			Help:      "Total placement steps explored.",
		}, []string{"strategy"})

		p.improvements = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "allocator",
			Name:      "search_improvements_total",
			Help:      "Total strictly better assignments found.",
		}, []string{"strategy"})

		p.bestScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "allocator",
			Name:      "search_best_score",
			Help:      "Load deviation of the most recent successful search.",
		}, []string{"strategy"})

		p.reg.MustRegister(p.searches, p.duration, p.nodes, p.improvements, p.bestScore)
	})
}

// ObserveSearch records res under strategy.
func (p *Prometheus) ObserveSearch(strategy string, res allocator.Result) {
	p.ensureRegistered()

	p.searches.WithLabelValues(strategy, Outcome(res)).Inc()
	p.duration.WithLabelValues(strategy).Observe(res.Stats.Elapsed.Seconds())
	p.nodes.WithLabelValues(strategy).Add(float64(res.Stats.Nodes))
	p.improvements.WithLabelValues(strategy).Add(float64(res.Stats.Improvements))
	if res.HasSnapshot {
		p.bestScore.WithLabelValues(strategy).Set(res.Score)
	}
}
