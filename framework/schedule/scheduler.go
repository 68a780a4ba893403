// Package schedule runs bean methods on cron specs.
package schedule

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var errorType = reflect.TypeFor[error]()

// Job is one registered method.
type Job struct {
	ID     cron.EntryID
	Bean   string
	Method string
	Spec   string
}

// Scheduler wraps a seconds-precision cron.Cron.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger

	mu      sync.Mutex
	jobs    []Job
	running bool
}

// New creates a stopped scheduler. Specs have six fields (with seconds) or
// use descriptors such as "@every 5s".
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("schedule")
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{log: log})),
		log:  log,
	}
}

// AddMethod schedules target.method(). The method must take no arguments and
// return nothing or a single error, which is logged.
func (s *Scheduler) AddMethod(bean string, target any, method, spec string) (Job, error) {
	m := reflect.ValueOf(target).MethodByName(method)
	if !m.IsValid() {
		return Job{}, fmt.Errorf("schedule: %s (%T) has no method %s", bean, target, method)
	}
	mt := m.Type()
	if mt.NumIn() != 0 || mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
		return Job{}, fmt.Errorf("schedule: %s.%s must be func() or func() error, got %s", bean, method, mt)
	}

	fields := []zap.Field{zap.String("bean", bean), zap.String("method", method)}
	id, err := s.cron.AddFunc(spec, func() {
		out := m.Call(nil)
		if len(out) == 1 && !out[0].IsNil() {
			s.log.Error("scheduled call failed", append(fields, zap.Error(out[0].Interface().(error)))...)
		}
	})
	if err != nil {
		return Job{}, fmt.Errorf("schedule: %s.%s spec %q: %w", bean, method, spec, err)
	}

	job := Job{ID: id, Bean: bean, Method: method, Spec: spec}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	s.log.Info("method scheduled", append(fields, zap.String("spec", spec))...)
	return job, nil
}

// Jobs returns the registered jobs.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Job(nil), s.jobs...)
}

// Entries exposes the underlying cron entries.
func (s *Scheduler) Entries() []cron.Entry { return s.cron.Entries() }

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop stops the scheduler and waits for running jobs, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("scheduler stop timeout")
		return ctx.Err()
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, zap.Any("kv", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, zap.Error(err), zap.Any("kv", keysAndValues))
}
