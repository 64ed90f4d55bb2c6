package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors recorded by the conversation engine and its
// reasoning steps. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	steps         *prometheus.CounterVec
	stepLatency   *prometheus.HistogramVec
	fallbacks     *prometheus.CounterVec
	turns         *prometheus.CounterVec
	routeDecision *prometheus.CounterVec
}

// New registers the voyager collectors on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voyager",
			Subsystem: "engine",
			Name:      "steps_total",
			Help:      "Reasoning steps executed, by step and outcome",
		}, []string{"step", "outcome"}),
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voyager",
			Subsystem: "engine",
			Name:      "step_duration_seconds",
			Help:      "Wall time of a single reasoning step",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"step"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voyager",
			Subsystem: "steps",
			Name:      "fallbacks_total",
			Help:      "Generator fallbacks taken by a step, by reason",
		}, []string{"step", "reason"}),
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voyager",
			Subsystem: "engine",
			Name:      "turns_total",
			Help:      "Conversation turns processed, by outcome",
		}, []string{"outcome"}),
		routeDecision: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voyager",
			Subsystem: "router",
			Name:      "decisions_total",
			Help:      "Router transitions, by source and destination step",
		}, []string{"from", "to"}),
	}
}

// ObserveStep records one step execution.
func (m *Metrics) ObserveStep(step, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(step, outcome).Inc()
	m.stepLatency.WithLabelValues(step).Observe(d.Seconds())
}

// Fallback records a generator fallback. Reasons are "unavailable",
// "malformed" and "empty".
func (m *Metrics) Fallback(step, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(step, reason).Inc()
}

// Turn records a finished turn.
func (m *Metrics) Turn(outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
}

// Route records a router transition.
func (m *Metrics) Route(from, to string) {
	if m == nil {
		return
	}
	m.routeDecision.WithLabelValues(from, to).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
