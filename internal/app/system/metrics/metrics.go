// internal/app/system/metrics/metrics.go

// Package metrics collects and exposes Prometheus metrics for the dismissal
// workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records dismissal activity counters. A nil *Collector is safe to
// use; every method becomes a no-op, which keeps tests free of registry
// setup.
type Collector struct {
	callsSubmitted   prometheus.Counter
	callsDeparted    prometheus.Counter
	studentsImported prometheus.Counter
	historyCleared   prometheus.Counter
	logins           *prometheus.CounterVec
	wsClients        prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		callsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carline_calls_submitted_total",
			Help: "Total pickup calls submitted from the caller station.",
		}),
		callsDeparted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carline_calls_departed_total",
			Help: "Total calls marked departed from the dashboard.",
		}),
		studentsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carline_students_imported_total",
			Help: "Total students added through CSV roster imports.",
		}),
		historyCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carline_history_cleared_calls_total",
			Help: "Total call records removed by clear-history operations.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carline_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carline_ws_clients",
			Help: "Dashboard websocket clients currently connected.",
		}),
	}

	reg.MustRegister(
		c.callsSubmitted,
		c.callsDeparted,
		c.studentsImported,
		c.historyCleared,
		c.logins,
		c.wsClients,
	)

	return c
}

// RecordCallSubmitted counts one submitted pickup call.
func (c *Collector) RecordCallSubmitted() {
	if c == nil {
		return
	}
	c.callsSubmitted.Inc()
}

// RecordCallDeparted counts one call marked departed.
func (c *Collector) RecordCallDeparted() {
	if c == nil {
		return
	}
	c.callsDeparted.Inc()
}

// RecordStudentsImported counts students added by a CSV import.
func (c *Collector) RecordStudentsImported(count int) {
	if c == nil {
		return
	}
	c.studentsImported.Add(float64(count))
}

// RecordHistoryCleared counts call records removed by a clear-history run.
func (c *Collector) RecordHistoryCleared(count int) {
	if c == nil {
		return
	}
	c.historyCleared.Add(float64(count))
}

// RecordLogin counts a login attempt. result is "success", "failure", or
// "rate_limited".
func (c *Collector) RecordLogin(result string) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(result).Inc()
}

// WSClientConnected tracks a dashboard websocket attach.
func (c *Collector) WSClientConnected() {
	if c == nil {
		return
	}
	c.wsClients.Inc()
}

// WSClientDisconnected tracks a dashboard websocket detach.
func (c *Collector) WSClientDisconnected() {
	if c == nil {
		return
	}
	c.wsClients.Dec()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
