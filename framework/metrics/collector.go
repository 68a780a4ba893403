// Package metrics provides Prometheus collectors for container activity:
// bean construction, intercepted calls and async tasks.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups the container's metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	beansBuilt *prometheus.CounterVec
	calls      *prometheus.CounterVec
	asyncTasks *prometheus.CounterVec
	asyncBusy  prometheus.Gauge
}

// NewCollector creates unregistered collectors.
func NewCollector() *Collector {
	return &Collector{
		beansBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinyioc_beans_built_total",
				Help: "Total number of bean instances built",
			},
			[]string{"scope", "kind"},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinyioc_intercepted_calls_total",
				Help: "Total number of intercepted method calls",
			},
			[]string{"behavior", "outcome"},
		),
		asyncTasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinyioc_async_tasks_total",
				Help: "Total number of async tasks finished",
			},
			[]string{"outcome"},
		),
		asyncBusy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tinyioc_async_tasks_running",
				Help: "Number of async tasks currently running",
			},
		),
	}
}

// Register registers every collector with reg. Collectors already registered
// with reg are skipped.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{c.beansBuilt, c.calls, c.asyncTasks, c.asyncBusy} {
		if err := reg.Register(col); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// BeanBuilt counts one constructed instance.
func (c *Collector) BeanBuilt(scope, kind string) {
	if c == nil {
		return
	}
	c.beansBuilt.WithLabelValues(scope, kind).Inc()
}

// Intercepted counts one intercepted call.
func (c *Collector) Intercepted(behavior, outcome string) {
	if c == nil {
		return
	}
	c.calls.WithLabelValues(behavior, outcome).Inc()
}

// AsyncStarted marks an async task as running.
func (c *Collector) AsyncStarted() {
	if c == nil {
		return
	}
	c.asyncBusy.Inc()
}

// AsyncFinished records the outcome of an async task ("ok" or "panic").
func (c *Collector) AsyncFinished(outcome string) {
	if c == nil {
		return
	}
	c.asyncBusy.Dec()
	c.asyncTasks.WithLabelValues(outcome).Inc()
}

// BeansBuilt exposes the bean counter for tests and dashboards.
func (c *Collector) BeansBuilt() *prometheus.CounterVec { return c.beansBuilt }

// Calls exposes the intercepted call counter.
func (c *Collector) Calls() *prometheus.CounterVec { return c.calls }

// AsyncTasks exposes the async task counter.
func (c *Collector) AsyncTasks() *prometheus.CounterVec { return c.asyncTasks }
