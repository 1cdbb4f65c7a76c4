// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	turns        *prometheus.CounterVec
	turnDuration prometheus.Histogram
	updates      *prometheus.CounterVec
	workers      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricebook",
			Name:      "turns_total",
			Help:      "Dialog turns handled, by channel and outcome.",
		}, []string{"channel", "outcome"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricebook",
			Name:      "turn_duration_seconds",
			Help:      "Time spent handling one dialog turn, including store calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricebook",
			Name:      "telegram_updates_total",
			Help:      "Inbound Telegram updates, by source and result.",
		}, []string{"source", "result"}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pricebook",
			Name:      "active_user_workers",
			Help:      "Per-user turn queues currently alive.",
		}),
	}
	reg.MustRegister(m.turns, m.turnDuration, m.updates, m.workers)
	return m
}

// ObserveTurn records one handled turn.
func (m *Metrics) ObserveTurn(channel, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(channel, outcome).Inc()
	m.turnDuration.Observe(took.Seconds())
}

// ObserveUpdate records one inbound update. result is "accepted", "rejected" or "dropped".
func (m *Metrics) ObserveUpdate(source, result string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(source, result).Inc()
}

// WorkerStarted and WorkerStopped track per-user queues.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.workers.Inc()
}

func (m *Metrics) WorkerStopped() {
	if m == nil {
		return
	}
	m.workers.Dec()
}
