// Package metrics exposes Prometheus instrumentation for the maintenance engine.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the set of counters the domain services report to.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	transitions     *prometheus.CounterVec
	sweepPromotions prometheus.Counter
	sweepFailures   prometheus.Counter
	materialized    *prometheus.CounterVec
	holdOperations  *prometheus.CounterVec
	reschedules     *prometheus.CounterVec
}

// New creates a Recorder backed by its own registry, including Go runtime
// and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "work_order_transitions_total",
			Help:      "Work order lifecycle events by order type, event and result.",
		}, []string{"type", "event", "result"}),
		sweepPromotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "activation_promotions_total",
			Help:      "Scheduled work orders promoted to backlog by the lead-time sweep.",
		}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "activation_failures_total",
			Help:      "Scheduled work orders the lead-time sweep failed to promote.",
		}),
		materialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "materialized_work_orders_total",
			Help:      "Scheduled work orders created or deleted by rule materialization.",
		}, []string{"action"}),
		holdOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "calendar_hold_operations_total",
			Help:      "Calendar hold reconciliation operations by action and result.",
		}, []string{"action", "result"}),
		reschedules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "rule_reschedules_total",
			Help:      "Completion-driven rule reschedules by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(r.transitions, r.sweepPromotions, r.sweepFailures, r.materialized, r.holdOperations, r.reschedules)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Transition records one lifecycle event outcome.
func (r *Recorder) Transition(orderType, event string, accepted bool) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(orderType, event, result(accepted)).Inc()
}

// Sweep records the outcome of one activation sweep.
func (r *Recorder) Sweep(promoted, failed int) {
	if r == nil {
		return
	}
	r.sweepPromotions.Add(float64(promoted))
	r.sweepFailures.Add(float64(failed))
}

// Materialized records scheduled orders deleted and created for a rule.
func (r *Recorder) Materialized(deleted, created int) {
	if r == nil {
		return
	}
	r.materialized.WithLabelValues("deleted").Add(float64(deleted))
	r.materialized.WithLabelValues("created").Add(float64(created))
}

// HoldOperation records one hold create or release.
func (r *Recorder) HoldOperation(action string, ok bool) {
	if r == nil {
		return
	}
	r.holdOperations.WithLabelValues(action, result(ok)).Inc()
}

// Reschedule records the outcome of a completion reschedule.
func (r *Recorder) Reschedule(ok bool) {
	if r == nil {
		return
	}
	r.reschedules.WithLabelValues(result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
