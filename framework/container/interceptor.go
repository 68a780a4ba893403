package container

import (
	"fmt"
	"reflect"

	"github.com/km-arc/go-tinyioc/framework/metrics"
)

// Invocation describes one intercepted method call.
type Invocation struct {
	Bean   string
	Method string
	Args   []any
	Tag    MethodTag
}

// Advice applies one cross-cutting behavior around proceed. Implementations
// must return the error of proceed unchanged when they let it through.
type Advice interface {
	Around(inv Invocation, proceed func() error) error
}

// AdviceFunc adapts a function to Advice.
type AdviceFunc func(inv Invocation, proceed func() error) error

func (f AdviceFunc) Around(inv Invocation, proceed func() error) error { return f(inv, proceed) }

// ── Invoker ───────────────────────────────────────────────────────────────────

// Invoker is handed to a ProxyFunc. Proxies call Invoke from every capability
// method; the method's tag selects exactly one advice.
//
//	func (p *userServiceProxy) Register(name string) (string, error) {
//	    var id string
//	    err := p.inv.Invoke("Register", []any{name}, func() (err error) {
//	        id, err = p.target.Register(name)
//	        return err
//	    })
//	    return id, err
//	}
type Invoker struct {
	bean    string
	tags    map[string]MethodTag
	advices map[Behavior]Advice
	metrics *metrics.Collector
}

// Bean returns the name of the wrapped bean.
func (i *Invoker) Bean() string { return i.bean }

// Tag returns the tag of method.
func (i *Invoker) Tag(method string) MethodTag { return i.tags[method] }

// Invoke runs call under the advice selected by the tag of method. Untagged
// methods run call directly.
func (i *Invoker) Invoke(method string, args []any, call func() error) error {
	tag := i.tags[method]
	if tag.Behavior == NoBehavior {
		return call()
	}
	adv, ok := i.advices[tag.Behavior]
	if !ok {
		return fmt.Errorf("%w: no advice for %s on %s.%s", ErrMissingCollaborator, tag.Behavior, i.bean, method)
	}
	err := adv.Around(Invocation{Bean: i.bean, Method: method, Args: args, Tag: tag}, call)
	i.metrics.Intercepted(tag.Behavior.String(), outcome(err))
	return err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ── Wrapping ──────────────────────────────────────────────────────────────────

// wrap builds the intercepting proxy for a freshly constructed component and
// checks that it exposes every declared capability.
func (c *Container) wrap(def *BeanDefinition, target any) (any, error) {
	inv := &Invoker{
		bean:    def.name,
		tags:    def.desc.methods,
		advices: c.advices,
		metrics: c.metrics,
	}
	proxy := def.desc.proxy(target, inv)
	if proxy == nil {
		return nil, fmt.Errorf("%w: proxy builder of %s returned nil", ErrProxyCapability, def.name)
	}
	pt := reflect.TypeOf(proxy)
	for _, capability := range def.desc.capabilities {
		if !pt.Implements(capability) {
			return nil, fmt.Errorf("%w: %s proxy %s does not implement %s", ErrProxyCapability, def.name, pt, capability)
		}
	}
	return proxy, nil
}
