package container

import (
	"fmt"
	"reflect"
	"sort"
)

// ── Lookup ────────────────────────────────────────────────────────────────────

// GetBean returns the bean named name. Singletons come from the cache;
// prototypes are built fresh on every call. A non-nil capability is checked
// against the instance the caller would receive.
//
//	v, err := c.GetBean("userService", reflect.TypeFor[UserAPI]())
func (c *Container) GetBean(name string, capability reflect.Type) (any, error) {
	if !c.initialized.Load() {
		return nil, ErrNotInitialized
	}
	def, ok := c.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBeanNotFound, name)
	}
	inst, err := c.instanceOf(def)
	if err != nil {
		return nil, err
	}
	if capability != nil && !instanceProvides(inst, capability) {
		return nil, fmt.Errorf("%w: %q is %T, not %s", ErrTypeMismatch, name, inst, capability)
	}
	return inst, nil
}

// GetBeanOf returns the single bean providing capability. Zero matches is
// ErrBeanNotFound; several is an AmbiguousDependencyError.
func (c *Container) GetBeanOf(capability reflect.Type) (any, error) {
	if !c.initialized.Load() {
		return nil, ErrNotInitialized
	}
	found := c.registry.matching(capability, nil, nil)
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: no bean provides %s", ErrBeanNotFound, capability)
	case 1:
		return c.instanceOf(found[0])
	default:
		return nil, &AmbiguousDependencyError{Requested: typeName(capability), Candidates: names(found)}
	}
}

func (c *Container) instanceOf(def *BeanDefinition) (any, error) {
	if def.scope == Prototype {
		return c.buildPrototype(def, &constructionStack{})
	}
	inst, ok := c.cache.get(def.name)
	if !ok {
		return nil, fmt.Errorf("%w: singleton %q was not built", ErrBeanNotFound, def.name)
	}
	return inst, nil
}

func instanceProvides(inst any, t reflect.Type) bool {
	it := reflect.TypeOf(inst)
	if it == t {
		return true
	}
	return t.Kind() == reflect.Interface && it.Implements(t)
}

// Contains reports whether a bean named name is registered.
func (c *Container) Contains(name string) bool {
	if !c.initialized.Load() {
		return false
	}
	_, ok := c.registry.Lookup(name)
	return ok
}

// Definitions lists every registered bean, sorted by name.
func (c *Container) Definitions() []DefinitionInfo {
	if !c.initialized.Load() {
		return nil
	}
	out := make([]DefinitionInfo, 0, c.registry.Len())
	for _, d := range c.registry.order {
		out = append(out, d.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ── Scheduled methods ─────────────────────────────────────────────────────────

// ScheduledMethod is a method of a singleton to run on a cron spec. Target is
// the instance callers see, so scheduled calls go through interception.
type ScheduledMethod struct {
	Bean   string
	Method string
	Spec   string
	Target any
}

// ScheduledMethods returns the scheduled methods of every singleton.
func (c *Container) ScheduledMethods() []ScheduledMethod {
	if !c.initialized.Load() {
		return nil
	}
	return append([]ScheduledMethod(nil), c.scheduled...)
}

func (c *Container) collectSchedules() []ScheduledMethod {
	var out []ScheduledMethod
	for _, def := range c.registry.order {
		if def.desc == nil || def.scope != Singleton || len(def.desc.schedules) == 0 {
			continue
		}
		inst, _ := c.cache.get(def.name)
		methods := make([]string, 0, len(def.desc.schedules))
		for m := range def.desc.schedules {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			out = append(out, ScheduledMethod{Bean: def.name, Method: m, Spec: def.desc.schedules[m], Target: inst})
		}
	}
	return out
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Bean is a generic GetBean.
//
//	// Instead of: v, err := c.GetBean("repository", reflect.TypeFor[Repository]())
//	// Write:      repo, err := container.Bean[Repository](c, "repository")
func Bean[T any](c *Container, name string) (T, error) {
	var zero T
	inst, err := c.GetBean(name, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return inst.(T), nil
}

// MustBean is like Bean but panics on error.
func MustBean[T any](c *Container, name string) T {
	v, err := Bean[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

// BeanOf is a generic GetBeanOf.
func BeanOf[T any](c *Container) (T, error) {
	var zero T
	inst, err := c.GetBeanOf(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return inst.(T), nil
}

// SingletonsOf returns every singleton assignable to T, in registration order.
//
//	controllers := container.SingletonsOf[routing.Controller](c)
func SingletonsOf[T any](c *Container) []T {
	if !c.initialized.Load() {
		return nil
	}
	var out []T
	for _, d := range c.registry.order {
		if d.scope != Singleton {
			continue
		}
		inst, _ := c.cache.get(d.name)
		if v, ok := inst.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
