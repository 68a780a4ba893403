package providers

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/km-arc/go-tinyioc/framework/container"
	"github.com/km-arc/go-tinyioc/framework/schedule"
	"github.com/km-arc/go-tinyioc/routing"
)

// ── Framework configuration ───────────────────────────────────────────────────

// Framework is a configuration type: its methods build the framework's own
// beans from the instance beans the kernel registers ("logger" and
// "metricsRegistry").
//
// Beans:
//   - "router"    → *routing.Router
//   - "scheduler" → *schedule.Scheduler
type Framework struct{}

// Router builds the HTTP router and mounts the metrics endpoint.
func (Framework) Router(log *zap.Logger, reg *prometheus.Registry) *routing.Router {
	r := routing.New(log)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}

// Scheduler builds the cron scheduler for scheduled bean methods.
func (Framework) Scheduler(log *zap.Logger) *schedule.Scheduler {
	return schedule.New(log)
}

// ── FrameworkProvider ─────────────────────────────────────────────────────────

// FrameworkProvider registers the Framework configuration and, on Boot,
// mounts every singleton routing.Controller and schedules every scheduled
// method.
type FrameworkProvider struct {
	container.BaseProvider
}

func (p *FrameworkProvider) Components() []*container.TypeDescriptor {
	return []*container.TypeDescriptor{
		container.Configuration[*Framework]().
			Bean("Router").
			Bean("Scheduler").
			MustDescribe(),
	}
}

func (p *FrameworkProvider) Boot(c *container.Container) error {
	router, err := container.Bean[*routing.Router](c, "router")
	if err != nil {
		return fmt.Errorf("providers: %w", err)
	}
	router.Mount(container.SingletonsOf[routing.Controller](c)...)

	sched, err := container.Bean[*schedule.Scheduler](c, "scheduler")
	if err != nil {
		return fmt.Errorf("providers: %w", err)
	}
	for _, m := range c.ScheduledMethods() {
		if _, err := sched.AddMethod(m.Bean, m.Target, m.Method, m.Spec); err != nil {
			return err
		}
	}
	return nil
}
