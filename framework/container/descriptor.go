package container

import (
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"
	"unicode"

	"github.com/km-arc/go-tinyioc/framework/security"
)

// ── Behavior tags ─────────────────────────────────────────────────────────────

// Behavior is the cross-cutting behavior attached to one method of an
// intercepted component. A method carries at most one.
type Behavior int

const (
	NoBehavior Behavior = iota
	Logging
	Transactional
	Async
	Secured
)

func (b Behavior) String() string {
	switch b {
	case NoBehavior:
		return "none"
	case Logging:
		return "logging"
	case Transactional:
		return "transactional"
	case Async:
		return "async"
	case Secured:
		return "secured"
	default:
		return fmt.Sprintf("Behavior(%d)", int(b))
	}
}

// MethodTag is the declarative tag of one method. Role is only set for Secured.
type MethodTag struct {
	Behavior Behavior
	Role     string
}

// ProxyFunc builds the intercepting wrapper around target. The wrapper must
// implement every capability the component declares and route each method
// through inv.Invoke.
//
//	func(target any, inv *container.Invoker) any {
//	    return &userServiceProxy{target: target.(UserService), inv: inv}
//	}
type ProxyFunc func(target any, inv *Invoker) any

// Condition decides, per scope hint, whether a descriptor is registered.
type Condition func(scopeHint string) bool

// OnScope registers the descriptor only for the listed scope hints.
func OnScope(scopes ...string) Condition {
	return func(hint string) bool { return slices.Contains(scopes, hint) }
}

// OnEnv registers the descriptor when the environment variable key is set.
// With a non-empty want, the value must also equal want.
func OnEnv(key, want string) Condition {
	return func(string) bool {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return false
		}
		return want == "" || v == want
	}
}

// ── Descriptor ────────────────────────────────────────────────────────────────

type descriptorKind int

const (
	kindComponent descriptorKind = iota
	kindConfiguration
)

// injectionPoint is one constructor parameter or one tagged struct field.
type injectionPoint struct {
	typ       reflect.Type
	qualifier string
	field     []int // nil for constructor parameters
	label     string
}

type factoryMethod struct {
	method     string
	name       string
	scope      Scope
	fn         reflect.Method
	params     []injectionPoint
	out        reflect.Type
	returnsErr bool
	caps       []reflect.Type
	qualifiers map[int]string
	err        error
}

// TypeDescriptor is the immutable, static description of one candidate
// component or configuration type. Build it with Component or Configuration.
type TypeDescriptor struct {
	kind         descriptorKind
	name         string
	typ          reflect.Type
	capabilities []reflect.Type
	ctor         reflect.Value
	returnsErr   bool
	params       []injectionPoint
	fields       []injectionPoint
	scope        Scope
	proxy        ProxyFunc
	methods      map[string]MethodTag
	schedules    map[string]string
	condition    Condition
	factories    []factoryMethod
}

// Name returns the explicit or derived bean name.
func (d *TypeDescriptor) Name() string { return d.name }

// Type returns the concrete type.
func (d *TypeDescriptor) Type() reflect.Type { return d.typ }

// Scope returns the declared scope.
func (d *TypeDescriptor) Scope() Scope { return d.scope }

// IsConfiguration reports whether the descriptor is a configuration type.
func (d *TypeDescriptor) IsConfiguration() bool { return d.kind == kindConfiguration }

// Intercepted reports whether instances are wrapped before being exposed.
func (d *TypeDescriptor) Intercepted() bool { return d.proxy != nil }

// Capabilities returns a copy of the declared capability set.
func (d *TypeDescriptor) Capabilities() []reflect.Type { return slices.Clone(d.capabilities) }

// MethodTag returns the tag of method, or a NoBehavior tag.
func (d *TypeDescriptor) MethodTag(method string) MethodTag { return d.methods[method] }

// FactoryBeans returns the bean names produced by a configuration type.
func (d *TypeDescriptor) FactoryBeans() []string {
	out := make([]string, len(d.factories))
	for i, f := range d.factories {
		out[i] = f.name
	}
	return out
}

// exposed returns the capabilities the bean is matched by. Intercepted beans
// expose only their declared interfaces because callers get the wrapper.
func (d *TypeDescriptor) exposed() []reflect.Type {
	if d.proxy != nil {
		return d.capabilities
	}
	return append([]reflect.Type{d.typ}, d.capabilities...)
}

// ── Builder ───────────────────────────────────────────────────────────────────

// Builder captures one entry of the static registration table.
type Builder struct {
	d          TypeDescriptor
	qualifiers map[int]string
	err        error
}

// Component starts the descriptor of a component of concrete type T.
//
//	container.Component[*UserService]().
//	    Implements((*UserAPI)(nil)).
//	    Constructor(NewUserService).
//	    Scope(container.Prototype).
//	    Intercept(NewUserAPIProxy).
//	    Logging("Register").
//	    MustDescribe()
func Component[T any]() *Builder {
	return newBuilder(reflect.TypeFor[T](), kindComponent)
}

// Configuration starts the descriptor of a configuration type T whose
// registered methods produce beans.
//
//	container.Configuration[*AppConfig]().
//	    Bean("Clock").
//	    Bean("Ticket", container.BeanScope(container.Prototype)).
//	    MustDescribe()
func Configuration[T any]() *Builder {
	return newBuilder(reflect.TypeFor[T](), kindConfiguration)
}

func newBuilder(t reflect.Type, kind descriptorKind) *Builder {
	b := &Builder{
		d: TypeDescriptor{
			kind:      kind,
			typ:       t,
			methods:   make(map[string]MethodTag),
			schedules: make(map[string]string),
		},
		qualifiers: make(map[int]string),
	}
	if t.Kind() == reflect.Interface {
		b.fail("component type must be concrete, got interface")
	}
	return b
}

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = &DescriptorError{Type: typeName(b.d.typ), Reason: fmt.Sprintf(format, args...)}
	}
	return b
}

// Named overrides the derived bean name.
func (b *Builder) Named(name string) *Builder {
	if name == "" {
		return b.fail("empty bean name")
	}
	b.d.name = name
	return b
}

// Implements adds interfaces to the capability set. Pass typed nil pointers:
// Implements((*Repository)(nil)).
func (b *Builder) Implements(ifaces ...any) *Builder {
	for _, i := range ifaces {
		t, err := interfaceOf(i)
		if err != nil {
			return b.fail("%v", err)
		}
		if !b.d.typ.Implements(t) {
			return b.fail("does not implement %s", t)
		}
		if !slices.Contains(b.d.capabilities, t) {
			b.d.capabilities = append(b.d.capabilities, t)
		}
	}
	return b
}

// Constructor registers the injection constructor. fn must be a function
// returning T, or (T, error). Its parameters are resolved by capability.
func (b *Builder) Constructor(fn any) *Builder {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return b.fail("constructor must be a function, got %T", fn)
	}
	ft := v.Type()
	if ft.IsVariadic() {
		return b.fail("variadic constructors are not supported")
	}
	out, returnsErr, err := resultShape(ft)
	if err != nil {
		return b.fail("constructor %v", err)
	}
	if !out.AssignableTo(b.d.typ) {
		return b.fail("constructor returns %s, not assignable to %s", out, b.d.typ)
	}
	b.d.ctor = v
	b.d.returnsErr = returnsErr
	b.d.params = make([]injectionPoint, ft.NumIn())
	for i := range ft.NumIn() {
		b.d.params[i] = injectionPoint{typ: ft.In(i), label: fmt.Sprintf("param %d", i)}
	}
	return b
}

// Qualify pins constructor parameter i to the bean named bean.
func (b *Builder) Qualify(i int, bean string) *Builder {
	b.qualifiers[i] = bean
	return b
}

// Scope sets the lifecycle policy. Components default to Singleton.
func (b *Builder) Scope(s Scope) *Builder {
	b.d.scope = s
	return b
}

// Intercept enables interception. proxy builds the wrapper that is exposed
// in place of each new instance.
func (b *Builder) Intercept(proxy ProxyFunc) *Builder {
	if proxy == nil {
		return b.fail("nil proxy builder")
	}
	b.d.proxy = proxy
	return b
}

// Logging tags method with before/after logging.
func (b *Builder) Logging(method string) *Builder {
	return b.tag(method, MethodTag{Behavior: Logging})
}

// Transactional runs method inside a transaction.
func (b *Builder) Transactional(method string) *Builder {
	return b.tag(method, MethodTag{Behavior: Transactional})
}

// Async dispatches method to the worker pool and returns immediately. The
// method may return nothing or a single error; the proxy always sees nil.
func (b *Builder) Async(method string) *Builder {
	if m, ok := b.d.typ.MethodByName(method); ok && !returnsOnlyError(m.Type) {
		return b.fail("async method %s may only return an error", method)
	}
	return b.tag(method, MethodTag{Behavior: Async})
}

func returnsOnlyError(ft reflect.Type) bool {
	switch ft.NumOut() {
	case 0:
		return true
	case 1:
		return ft.Out(0) == errorType
	}
	return false
}

// Secured requires role (default security.RoleUser) for method.
func (b *Builder) Secured(method, role string) *Builder {
	if role == "" {
		role = security.RoleUser
	}
	return b.tag(method, MethodTag{Behavior: Secured, Role: role})
}

func (b *Builder) tag(method string, t MethodTag) *Builder {
	if _, ok := b.d.typ.MethodByName(method); !ok {
		return b.fail("no method %s to tag %s", method, t.Behavior)
	}
	if prev, ok := b.d.methods[method]; ok {
		return b.fail("method %s already tagged %s, cannot also be %s", method, prev.Behavior, t.Behavior)
	}
	b.d.methods[method] = t
	return b
}

// Scheduled runs method on the cron spec once the container is initialized.
// The method must take no arguments.
func (b *Builder) Scheduled(method, spec string) *Builder {
	m, ok := b.d.typ.MethodByName(method)
	if !ok {
		return b.fail("no method %s to schedule", method)
	}
	if m.Type.NumIn() != 1 {
		return b.fail("scheduled method %s must take no arguments", method)
	}
	b.d.schedules[method] = spec
	return b
}

// When makes registration conditional on the scope hint passed to Initialize.
func (b *Builder) When(cond Condition) *Builder {
	b.d.condition = cond
	return b
}

// BeanOption adjusts a factory method registration.
type BeanOption func(*factoryMethod)

// BeanName overrides the bean name derived from the method name.
func BeanName(name string) BeanOption { return func(f *factoryMethod) { f.name = name } }

// BeanScope overrides the default Singleton scope of a factory bean.
func BeanScope(s Scope) BeanOption { return func(f *factoryMethod) { f.scope = s } }

// BeanQualify pins factory method parameter i to the bean named bean.
func BeanQualify(i int, bean string) BeanOption {
	return func(f *factoryMethod) { f.qualifiers[i] = bean }
}

// BeanImplements adds interfaces the factory bean is matched by.
func BeanImplements(ifaces ...any) BeanOption {
	return func(f *factoryMethod) {
		for _, i := range ifaces {
			t, err := interfaceOf(i)
			if err != nil {
				f.err = err
				return
			}
			f.caps = append(f.caps, t)
		}
	}
}

// Bean registers method of a configuration type as a factory method. The
// method returns the bean, or (bean, error); its parameters are injected.
func (b *Builder) Bean(method string, opts ...BeanOption) *Builder {
	if b.d.kind != kindConfiguration {
		return b.fail("Bean(%s) is only valid on configuration types", method)
	}
	m, ok := b.d.typ.MethodByName(method)
	if !ok {
		return b.fail("no factory method %s", method)
	}
	if m.Type.IsVariadic() {
		return b.fail("factory method %s is variadic", method)
	}
	out, returnsErr, err := resultShape(m.Type)
	if err != nil {
		return b.fail("factory method %s %v", method, err)
	}
	f := factoryMethod{
		method:     method,
		name:       lowerCamel(method),
		scope:      Singleton,
		fn:         m,
		out:        out,
		returnsErr: returnsErr,
		qualifiers: make(map[int]string),
	}
	for _, o := range opts {
		o(&f)
	}
	if f.err != nil {
		return b.fail("factory method %s: %v", method, f.err)
	}
	for _, c := range f.caps {
		if !out.Implements(c) && out != c {
			return b.fail("factory method %s returns %s, which does not implement %s", method, out, c)
		}
	}
	// In(0) is the receiver.
	for i := 1; i < m.Type.NumIn(); i++ {
		f.params = append(f.params, injectionPoint{
			typ:       m.Type.In(i),
			qualifier: f.qualifiers[i-1],
			label:     fmt.Sprintf("%s param %d", method, i-1),
		})
	}
	b.d.factories = append(b.d.factories, f)
	return b
}

// Describe validates and freezes the descriptor.
func (b *Builder) Describe() (*TypeDescriptor, error) {
	if b.err != nil {
		return nil, b.err
	}
	d := b.d
	if d.name == "" {
		d.name = lowerCamel(baseName(d.typ))
	}
	if d.proxy != nil && len(d.capabilities) == 0 {
		return nil, &DescriptorError{Type: typeName(d.typ), Reason: "intercepted components must declare at least one capability"}
	}
	if len(d.methods) > 0 && d.proxy == nil {
		return nil, &DescriptorError{Type: typeName(d.typ), Reason: "method tags require Intercept"}
	}
	if d.kind == kindConfiguration && (d.proxy != nil || d.scope != Singleton) {
		return nil, &DescriptorError{Type: typeName(d.typ), Reason: "configuration types are plain singletons"}
	}
	if len(d.schedules) > 0 && d.scope != Singleton {
		return nil, &DescriptorError{Type: typeName(d.typ), Reason: "only singletons can have scheduled methods"}
	}
	for i, bean := range b.qualifiers {
		if i < 0 || i >= len(d.params) {
			return nil, &DescriptorError{Type: typeName(d.typ), Reason: fmt.Sprintf("qualifier for missing constructor param %d", i)}
		}
		d.params[i].qualifier = bean
	}
	fields, err := injectableFields(d.typ)
	if err != nil {
		return nil, err
	}
	d.fields = fields
	d.capabilities = slices.Clone(d.capabilities)
	d.params = slices.Clone(d.params)
	d.factories = slices.Clone(d.factories)
	d.methods = maps.Clone(d.methods)
	d.schedules = maps.Clone(d.schedules)
	return &d, nil
}

// MustDescribe is Describe for static registration tables; it panics on error.
func (b *Builder) MustDescribe() *TypeDescriptor {
	d, err := b.Describe()
	if err != nil {
		panic(err)
	}
	return d
}

// ── reflection helpers ────────────────────────────────────────────────────────

var errorType = reflect.TypeFor[error]()

// resultShape checks ft returns T or (T, error).
func resultShape(ft reflect.Type) (reflect.Type, bool, error) {
	switch ft.NumOut() {
	case 1:
		return ft.Out(0), false, nil
	case 2:
		if ft.Out(1) != errorType {
			return nil, false, fmt.Errorf("second result must be error, got %s", ft.Out(1))
		}
		return ft.Out(0), true, nil
	default:
		return nil, false, fmt.Errorf("must return T or (T, error), got %d results", ft.NumOut())
	}
}

func interfaceOf(v any) (reflect.Type, error) {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
		return nil, fmt.Errorf("capability must be a nil interface pointer like (*Iface)(nil), got %T", v)
	}
	return t.Elem(), nil
}

// structOf returns the struct type behind t, if any.
func structOf(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t.Kind() == reflect.Struct
}

// injectableFields collects fields tagged `inject:""` or `inject:"beanName"`.
func injectableFields(t reflect.Type) ([]injectionPoint, error) {
	st, ok := structOf(t)
	if !ok {
		return nil, nil
	}
	var out []injectionPoint
	for i := range st.NumField() {
		f := st.Field(i)
		q, ok := f.Tag.Lookup("inject")
		if !ok {
			continue
		}
		if !f.IsExported() {
			return nil, &DescriptorError{Type: typeName(t), Reason: "injected field " + f.Name + " must be exported"}
		}
		out = append(out, injectionPoint{typ: f.Type, qualifier: q, field: f.Index, label: "field " + f.Name})
	}
	return out, nil
}

func baseName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// lowerCamel lowers the leading upper-case run: UserService → userService,
// HTTPClient → httpClient, ID → id.
func lowerCamel(s string) string {
	r := []rune(s)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	switch {
	case n == 0:
		return s
	case n == 1 || n == len(r):
	default:
		n-- // keep the capital that starts the next word
	}
	return strings.ToLower(string(r[:n])) + string(r[n:])
}
