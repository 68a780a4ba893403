package container

import (
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// lookupFunc returns the instance of a dependency, or ok=false when it is
// not available yet.
type lookupFunc func(dep *BeanDefinition) (inst any, ok bool, err error)

// ── Fixed-point resolution ────────────────────────────────────────────────────

// resolveSingletons builds every singleton definition with repeated passes
// over the remaining set. Instances live in a private target map until the
// whole graph has settled; a pass that builds nothing fails with
// UnresolvedDependencyError.
func (c *Container) resolveSingletons(defs []*BeanDefinition) (map[string]any, error) {
	target := make(map[string]any, len(defs))
	lookup := func(dep *BeanDefinition) (any, bool, error) {
		if inst, ok := c.cache.get(dep.name); ok {
			return inst, true, nil
		}
		inst, ok := target[dep.name]
		return inst, ok, nil
	}
	onlySingletons := func(d *BeanDefinition) bool { return d.scope == Singleton }

	remaining := slices.Clone(defs)
	for pass := 1; len(remaining) > 0; pass++ {
		next := remaining[:0:0]
		var stalled []UnresolvedBean
		for _, def := range remaining {
			args, missing, err := c.resolveArgs(def, onlySingletons, lookup)
			if err != nil {
				return nil, err
			}
			if len(missing) > 0 {
				next = append(next, def)
				stalled = append(stalled, UnresolvedBean{Name: def.name, Type: typeName(def.typ), Missing: missing})
				continue
			}
			inst, err := c.instantiate(def, args)
			if err != nil {
				return nil, err
			}
			target[def.name] = inst
			if def.kind != instanceBean {
				c.metrics.BeanBuilt(def.scope.String(), def.kind.String())
			}
			c.log.Debug("singleton built", zap.String("bean", def.name), zap.Int("pass", pass))
		}
		if len(next) == len(remaining) {
			return nil, &UnresolvedDependencyError{Remaining: stalled}
		}
		remaining = next
	}
	return target, nil
}

// resolveArgs resolves every injection point of def. Points without a built
// provider are reported in missing; ambiguity fails immediately.
func (c *Container) resolveArgs(def *BeanDefinition, keep func(*BeanDefinition) bool, lookup lookupFunc) ([]reflect.Value, []string, error) {
	points := def.points()
	args := make([]reflect.Value, 0, len(points))
	var missing []string
	for _, p := range points {
		dep, err := c.candidate(def, p, keep)
		if err != nil {
			return nil, nil, err
		}
		if dep == nil {
			missing = append(missing, describePoint(p, c.qualifierFor(def, p)))
			continue
		}
		inst, ok, err := lookup(dep)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			missing = append(missing, describePoint(p, dep.name))
			continue
		}
		args = append(args, reflect.ValueOf(inst))
	}
	return args, missing, nil
}

// candidate picks the single definition that satisfies p, or nil when none
// does. More than one unqualified match is an AmbiguousDependencyError.
func (c *Container) candidate(def *BeanDefinition, p injectionPoint, keep func(*BeanDefinition) bool) (*BeanDefinition, error) {
	if q := c.qualifierFor(def, p); q != "" {
		dep, ok := c.registry.Lookup(q)
		if !ok || dep == def || !dep.provides(p.typ) || (keep != nil && !keep(dep)) {
			return nil, nil
		}
		return dep, nil
	}
	found := c.registry.matching(p.typ, def, keep)
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, &AmbiguousDependencyError{
			Requested:  fmt.Sprintf("%s (%s of %s)", typeName(p.typ), p.label, def.name),
			Candidates: names(found),
		}
	}
}

// qualifierFor returns the bean name pinned for p, from the descriptor or
// from a container-level When/Needs/Give rule.
func (c *Container) qualifierFor(def *BeanDefinition, p injectionPoint) string {
	if p.qualifier != "" {
		return p.qualifier
	}
	return c.qualifiers[def.name][p.typ]
}

func describePoint(p injectionPoint, bean string) string {
	if bean != "" {
		return fmt.Sprintf("%s %q for %s", typeName(p.typ), bean, p.label)
	}
	return fmt.Sprintf("%s for %s", typeName(p.typ), p.label)
}

// ── Instantiation ─────────────────────────────────────────────────────────────

// instantiate runs the constructor or factory of def with resolved args,
// injects fields, and wraps intercepted components.
func (c *Container) instantiate(def *BeanDefinition, args []reflect.Value) (any, error) {
	switch def.kind {
	case instanceBean:
		return def.instance, nil
	case factoryBean:
		return invokeFactory(def, args)
	}

	d := def.desc
	nParams := len(d.params)
	var v reflect.Value
	if d.ctor.IsValid() {
		out, err := call(def.name, d.ctor, args[:nParams], d.returnsErr)
		if err != nil {
			return nil, err
		}
		v = out
	} else {
		zv, ok := zeroValue(d.typ)
		if !ok {
			return nil, &NoUsableConstructorError{Type: typeName(d.typ)}
		}
		v = zv
	}
	if v.Type() != d.typ {
		v = v.Convert(d.typ)
	}

	if len(d.fields) > 0 {
		v = settable(v)
		target := v
		if target.Kind() == reflect.Pointer {
			target = target.Elem()
		}
		for i, f := range d.fields {
			target.FieldByIndex(f.field).Set(args[nParams+i])
		}
	}

	raw := v.Interface()
	if d.proxy == nil {
		return raw, nil
	}
	return c.wrap(def, raw)
}

// settable returns an addressable copy of a struct value so fields can be set.
func settable(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Pointer || v.CanAddr() {
		return v
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}
