package container

import (
	"fmt"
	"reflect"
)

// ── Factory-method registry ───────────────────────────────────────────────────

// registerConfiguration instantiates a configuration type directly, registers
// it as an instance bean, and adds one definition per factory method.
func (r *Registry) registerConfiguration(desc *TypeDescriptor) error {
	cfg, err := instantiateConfiguration(desc)
	if err != nil {
		return err
	}
	if err := r.addInstance(desc.name, cfg.Interface(), desc.capabilities); err != nil {
		return err
	}
	for i := range desc.factories {
		f := &desc.factories[i]
		def := &BeanDefinition{
			name:    f.name,
			scope:   f.scope,
			kind:    factoryBean,
			typ:     f.out,
			caps:    append([]reflect.Type{f.out}, f.caps...),
			owner:   desc.name,
			config:  cfg,
			factory: f,
		}
		if err := r.add(def); err != nil {
			return err
		}
	}
	return nil
}

// instantiateConfiguration builds a configuration type without the resolver:
// from a parameterless constructor, or from its zero value.
func instantiateConfiguration(desc *TypeDescriptor) (reflect.Value, error) {
	if !desc.ctor.IsValid() {
		v, ok := zeroValue(desc.typ)
		if !ok {
			return reflect.Value{}, &NoUsableConstructorError{Type: typeName(desc.typ)}
		}
		return v, nil
	}
	if len(desc.params) > 0 {
		return reflect.Value{}, &NoUsableConstructorError{Type: typeName(desc.typ)}
	}
	out, err := call(desc.name, desc.ctor, nil, desc.returnsErr)
	if err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

// invokeFactory calls the factory method of def on its configuration instance.
func invokeFactory(def *BeanDefinition, args []reflect.Value) (any, error) {
	in := append([]reflect.Value{def.config}, args...)
	out, err := call(def.name, def.factory.fn.Func, in, def.factory.returnsErr)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// ── call helpers ──────────────────────────────────────────────────────────────

// call invokes fn, turning a returned error, a nil result or a panic into a
// FactoryInvocationError.
func call(bean string, fn reflect.Value, in []reflect.Value, returnsErr bool) (result reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FactoryInvocationError{Bean: bean, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out := fn.Call(in)
	if returnsErr && !out[1].IsNil() {
		return reflect.Value{}, &FactoryInvocationError{Bean: bean, Err: out[1].Interface().(error)}
	}
	if isNil(out[0]) {
		return reflect.Value{}, &FactoryInvocationError{Bean: bean, Err: fmt.Errorf("returned nil %s", out[0].Type())}
	}
	return out[0], nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// zeroValue returns a fresh instance of a struct or pointer-to-struct type.
func zeroValue(t reflect.Type) (reflect.Value, bool) {
	switch {
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return reflect.New(t.Elem()), true
	case t.Kind() == reflect.Struct:
		return reflect.New(t).Elem(), true
	default:
		return reflect.Value{}, false
	}
}
