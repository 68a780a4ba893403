package container

import (
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// ── Bean definitions ──────────────────────────────────────────────────────────

type beanKind int

const (
	componentBean beanKind = iota
	factoryBean
	instanceBean
)

func (k beanKind) String() string {
	switch k {
	case componentBean:
		return "component"
	case factoryBean:
		return "factory"
	default:
		return "instance"
	}
}

// BeanDefinition is the registry entry for one bean. It is created once,
// during Initialize, and never mutated afterward.
type BeanDefinition struct {
	name  string
	scope Scope
	kind  beanKind
	typ   reflect.Type
	caps  []reflect.Type

	desc *TypeDescriptor // componentBean

	owner   string         // factoryBean: configuration bean name
	config  reflect.Value  // factoryBean: configuration instance
	factory *factoryMethod // factoryBean

	instance any // instanceBean
}

// DefinitionInfo is a read-only summary of a registered bean.
type DefinitionInfo struct {
	Name        string
	Scope       Scope
	Kind        string
	Type        string
	Owner       string
	Intercepted bool
}

func (d *BeanDefinition) info() DefinitionInfo {
	return DefinitionInfo{
		Name:        d.name,
		Scope:       d.scope,
		Kind:        d.kind.String(),
		Type:        typeName(d.typ),
		Owner:       d.owner,
		Intercepted: d.desc != nil && d.desc.proxy != nil,
	}
}

// provides reports whether the bean can be injected where t is requested.
func (d *BeanDefinition) provides(t reflect.Type) bool {
	for _, c := range d.caps {
		if c == t {
			return true
		}
		if t.Kind() == reflect.Interface && c.Implements(t) {
			return true
		}
	}
	return false
}

// points lists constructor (or factory) parameters followed by fields.
func (d *BeanDefinition) points() []injectionPoint {
	switch d.kind {
	case componentBean:
		return append(slices.Clone(d.desc.params), d.desc.fields...)
	case factoryBean:
		return d.factory.params
	default:
		return nil
	}
}

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry maps derived bean names to definitions, in registration order.
type Registry struct {
	defs  map[string]*BeanDefinition
	order []*BeanDefinition
	log   *zap.Logger
}

func newRegistry(log *zap.Logger) *Registry {
	return &Registry{defs: make(map[string]*BeanDefinition), log: log}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*BeanDefinition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Len returns the number of definitions.
func (r *Registry) Len() int { return len(r.order) }

func (r *Registry) add(def *BeanDefinition) error {
	if prev, ok := r.defs[def.name]; ok {
		return &DuplicateNameError{Name: def.name, First: typeName(prev.typ), Second: typeName(def.typ)}
	}
	r.defs[def.name] = def
	r.order = append(r.order, def)
	r.log.Debug("bean registered",
		zap.String("bean", def.name),
		zap.Stringer("scope", def.scope),
		zap.Stringer("kind", def.kind),
		zap.String("type", typeName(def.typ)),
	)
	return nil
}

// register adds the definitions produced by one descriptor.
func (r *Registry) register(desc *TypeDescriptor, scopeHint string) error {
	if desc.condition != nil && !desc.condition(scopeHint) {
		r.log.Debug("condition not met, skipping", zap.String("bean", desc.name), zap.String("scope", scopeHint))
		return nil
	}
	if desc.kind == kindConfiguration {
		return r.registerConfiguration(desc)
	}
	return r.add(&BeanDefinition{
		name:  desc.name,
		scope: desc.scope,
		kind:  componentBean,
		typ:   desc.typ,
		caps:  desc.exposed(),
		desc:  desc,
	})
}

// addInstance registers a pre-built singleton.
func (r *Registry) addInstance(name string, v any, caps []reflect.Type) error {
	t := reflect.TypeOf(v)
	return r.add(&BeanDefinition{
		name:     name,
		scope:    Singleton,
		kind:     instanceBean,
		typ:      t,
		caps:     append([]reflect.Type{t}, caps...),
		instance: v,
	})
}

func (r *Registry) singletons() []*BeanDefinition {
	out := make([]*BeanDefinition, 0, len(r.order))
	for _, d := range r.order {
		if d.scope == Singleton {
			out = append(out, d)
		}
	}
	return out
}

// matching returns every definition other than self that provides t and
// passes keep, in registration order.
func (r *Registry) matching(t reflect.Type, self *BeanDefinition, keep func(*BeanDefinition) bool) []*BeanDefinition {
	var out []*BeanDefinition
	for _, d := range r.order {
		if d == self || (keep != nil && !keep(d)) {
			continue
		}
		if d.provides(t) {
			out = append(out, d)
		}
	}
	return out
}

func names(defs []*BeanDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.name
	}
	return out
}
