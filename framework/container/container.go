package container

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-tinyioc/framework/async"
	"github.com/km-arc/go-tinyioc/framework/metrics"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container.
//
// It supports:
//   - static registration through type descriptors (Component / Configuration)
//   - constructor and field injection by capability, with qualifiers
//   - singleton and prototype scopes
//   - factory methods on configuration types
//   - interception: logging, transactional, async and secured methods
//
// Initialize runs once, on a single goroutine. After it returns nil the
// registry and the singleton cache are read-only, so lookups need no lock.
type Container struct {
	mu sync.Mutex

	discovery Discovery
	opts      options
	log       *zap.Logger
	metrics   *metrics.Collector

	registry   *Registry
	cache      *singletonCache
	qualifiers map[string]map[reflect.Type]string
	advices    map[Behavior]Advice
	scheduled  []ScheduledMethod

	// pool is set when the container started its own async pool.
	pool *async.Pool

	initialized atomic.Bool
}

// New creates a container that will take its descriptors from discovery.
// A nil discovery registers only WithInstance beans.
func New(discovery Discovery, opts ...Option) *Container {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Container{
		discovery:  discovery,
		opts:       o,
		log:        o.log.Named("container"),
		metrics:    o.metrics,
		cache:      newSingletonCache(),
		qualifiers: make(map[string]map[reflect.Type]string),
	}
}

// Initialize scans the descriptors for scopeHint, populates the registry,
// builds every singleton and publishes them. On error nothing is published
// and the container stays uninitialized.
//
//	c := container.New(providers, container.WithLogger(log))
//	if err := c.Initialize("app"); err != nil {
//	    log.Fatal("container", zap.Error(err))
//	}
func (c *Container) Initialize(scopeHint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized.Load() {
		return ErrAlreadyInitialized
	}
	start := time.Now()

	if err := c.initialize(scopeHint); err != nil {
		c.registry = nil
		c.advices = nil
		c.closeOwnedPool()
		c.log.Error("initialization failed", zap.String("scope", scopeHint), zap.Error(err))
		return fmt.Errorf("container: initialize %q: %w", scopeHint, err)
	}

	c.initialized.Store(true)
	c.log.Info("container initialized",
		zap.String("scope", scopeHint),
		zap.Int("beans", c.registry.Len()),
		zap.Int("singletons", c.cache.len()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (c *Container) initialize(scopeHint string) error {
	reg, err := c.populate(scopeHint)
	if err != nil {
		return err
	}
	c.registry = reg
	if err := c.prepareInterception(); err != nil {
		return err
	}
	built, err := c.resolveSingletons(reg.singletons())
	if err != nil {
		return err
	}
	if err := c.cache.publish(built); err != nil {
		return err
	}
	c.scheduled = c.collectSchedules()
	return nil
}

// populate builds a fresh registry from instances, qualifier rules and the
// descriptors of the discovery collaborator.
func (c *Container) populate(scopeHint string) (*Registry, error) {
	reg := newRegistry(c.log)
	if err := reg.addInstance("container", c, nil); err != nil {
		return nil, err
	}

	for _, spec := range c.opts.instances {
		if spec.value == nil {
			return nil, &DescriptorError{Type: "<nil>", Reason: "instance " + spec.name + " is nil"}
		}
		caps := make([]reflect.Type, 0, len(spec.ifaces))
		for _, i := range spec.ifaces {
			t, err := interfaceOf(i)
			if err != nil {
				return nil, &DescriptorError{Type: typeName(reflect.TypeOf(spec.value)), Reason: err.Error()}
			}
			if !reflect.TypeOf(spec.value).Implements(t) {
				return nil, &DescriptorError{Type: typeName(reflect.TypeOf(spec.value)), Reason: "does not implement " + t.String()}
			}
			caps = append(caps, t)
		}
		if err := reg.addInstance(spec.name, spec.value, caps); err != nil {
			return nil, err
		}
	}

	for _, rule := range c.opts.qualifiers {
		if err := c.addQualifier(rule.consumer, rule.capability, rule.bean); err != nil {
			return nil, err
		}
	}

	if c.discovery == nil {
		return reg, nil
	}
	descs, err := c.discovery.Scan(scopeHint)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	for _, d := range descs {
		if err := reg.register(d, scopeHint); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// prepareInterception builds one advice per behavior used by the registry.
// Transactional and secured methods need their collaborator configured.
func (c *Container) prepareInterception() error {
	advices := map[Behavior]Advice{
		Logging: loggingAdvice{log: c.opts.log.Named("call")},
	}
	for _, def := range c.registry.order {
		if def.desc == nil {
			continue
		}
		for method, tag := range def.desc.methods {
			if _, done := advices[tag.Behavior]; done {
				continue
			}
			switch tag.Behavior {
			case Transactional:
				if c.opts.tm == nil {
					return fmt.Errorf("%w: %s.%s is transactional but no transaction manager is configured",
						ErrMissingCollaborator, def.name, method)
				}
				advices[Transactional] = transactionalAdvice{tm: c.opts.tm, log: c.log}
			case Secured:
				if c.opts.session == nil {
					return fmt.Errorf("%w: %s.%s is secured but no session is configured",
						ErrMissingCollaborator, def.name, method)
				}
				advices[Secured] = securedAdvice{session: c.opts.session, log: c.log}
			case Async:
				d := c.opts.dispatcher
				if d == nil {
					c.pool = async.NewPool(c.opts.workers, c.opts.log, async.WithCollector(c.metrics))
					d = c.pool
				}
				advices[Async] = asyncAdvice{pool: d, log: c.log}
			}
		}
	}
	c.advices = advices
	return nil
}

// Initialized reports whether Initialize has completed successfully.
func (c *Container) Initialized() bool { return c.initialized.Load() }

// Shutdown waits for async work on the container-owned pool to finish, or
// for ctx to be done.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	pool := c.pool
	c.mu.Unlock()
	if pool == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- pool.Close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Container) closeOwnedPool() {
	if c.pool != nil {
		_ = c.pool.Close()
		c.pool = nil
	}
}
