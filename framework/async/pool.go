// Package async runs fire-and-forget work on a fixed number of goroutines.
package async

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/go-tinyioc/framework/metrics"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 5

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("async: pool closed")

// Dispatcher accepts work to run later.
type Dispatcher interface {
	Submit(task func()) error
}

// Option configures a Pool.
type Option func(*Pool)

// WithCollector records task outcomes on m.
func WithCollector(m *metrics.Collector) Option {
	return func(p *Pool) { p.metrics = m }
}

// Pool runs at most Workers tasks at once. Submit blocks while the pool is
// saturated; work is never dropped.
type Pool struct {
	g       errgroup.Group
	workers int
	log     *zap.Logger
	metrics *metrics.Collector

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a pool with workers goroutines (DefaultWorkers if <= 0).
func NewPool(workers int, log *zap.Logger, opts ...Option) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{workers: workers, log: log.Named("async")}
	p.g.SetLimit(workers)
	for _, o := range opts {
		o(p)
	}
	return p
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Submit queues task. A panic inside task is recovered and logged.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.g.Go(func() error {
		p.run(task)
		return nil
	})
	return nil
}

func (p *Pool) run(task func()) {
	p.metrics.AsyncStarted()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			p.log.Error("task panicked", zap.String("panic", fmt.Sprint(r)))
		}
		p.metrics.AsyncFinished(outcome)
	}()
	task()
}

// Close stops accepting work and waits for queued tasks to finish.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.g.Wait()
}
