package app

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

var errType = reflect.TypeFor[error]()

// Call invokes method on the bean named bean, converting each string argument
// to the parameter's kind. Calls go through the exposed instance, so
// interception applies. A non-nil trailing error result is returned as err.
func (a *Application) Call(bean, method string, args ...string) ([]any, error) {
	inst, err := a.Container.GetBean(bean, nil)
	if err != nil {
		return nil, err
	}
	m := reflect.ValueOf(inst).MethodByName(method)
	if !m.IsValid() {
		return nil, fmt.Errorf("app: %s has no method %s", bean, method)
	}
	mt := m.Type()
	if mt.IsVariadic() || mt.NumIn() != len(args) {
		return nil, fmt.Errorf("app: %s.%s takes %d arguments, got %d", bean, method, mt.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, s := range args {
		v, err := parseArg(s, mt.In(i))
		if err != nil {
			return nil, fmt.Errorf("app: %s.%s argument %d: %w", bean, method, i, err)
		}
		in[i] = v
	}

	out := m.Call(in)
	if n := len(out); n > 0 && mt.Out(n-1) == errType {
		if e := out[n-1].Interface(); e != nil {
			return nil, e.(error)
		}
		out = out[:n-1]
	}
	res := make([]any, len(out))
	for i, v := range out {
		res[i] = v.Interface()
	}
	return res, nil
}

func parseArg(s string, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return v, err
		}
		v.SetBool(b)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetFloat(f)
	default:
		return v, errors.New("unsupported parameter type " + t.String())
	}
	return v, nil
}
