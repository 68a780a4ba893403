package container

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-tinyioc/framework/async"
	"github.com/km-arc/go-tinyioc/framework/metrics"
	"github.com/km-arc/go-tinyioc/framework/security"
	"github.com/km-arc/go-tinyioc/framework/txn"
)

// Option configures a Container.
type Option func(*options)

type instanceSpec struct {
	name   string
	value  any
	ifaces []any
}

type qualifierRule struct {
	consumer   string
	capability any
	bean       string
}

type options struct {
	log        *zap.Logger
	tm         txn.Manager
	session    security.Session
	dispatcher async.Dispatcher
	workers    int
	metrics    *metrics.Collector
	instances  []instanceSpec
	qualifiers []qualifierRule
}

func defaultOptions() options {
	return options{
		log:     zap.NewNop(),
		workers: async.DefaultWorkers,
	}
}

// WithLogger sets the logging sink for the container and for logging advice.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithTransactions sets the transaction manager used by transactional methods.
func WithTransactions(tm txn.Manager) Option {
	return func(o *options) { o.tm = tm }
}

// WithSession sets the session consulted by secured methods.
func WithSession(s security.Session) Option {
	return func(o *options) { o.session = s }
}

// WithDispatcher sets the pool used by async methods. Without it the
// container starts its own pool and closes it on Shutdown.
func WithDispatcher(d async.Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}

// WithAsyncWorkers sizes the container-owned pool.
func WithAsyncWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithMetrics records bean builds and intercepted calls on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// WithInstance registers a pre-built singleton under name. Extra interfaces
// are passed as typed nil pointers, like Implements.
//
//	container.WithInstance("ledger", ledger, (*txn.Manager)(nil))
func WithInstance(name string, v any, ifaces ...any) Option {
	return func(o *options) {
		o.instances = append(o.instances, instanceSpec{name: name, value: v, ifaces: ifaces})
	}
}

// WithQualifier resolves every injection point of capability in consumer to
// the bean named bean. It is the option form of When/Needs/Give.
func WithQualifier(consumer string, capability any, bean string) Option {
	return func(o *options) {
		o.qualifiers = append(o.qualifiers, qualifierRule{consumer: consumer, capability: capability, bean: bean})
	}
}
