package container_test

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-tinyioc/framework/container"
)

// ── Repository ────────────────────────────────────────────────────────────────

type Repository interface {
	Save(item string)
	All() []string
}

type memRepository struct {
	mu    sync.Mutex
	items []string
}

func newMemRepository() *memRepository { return &memRepository{} }

func (r *memRepository) Save(item string) {
	r.mu.Lock()
	r.items = append(r.items, item)
	r.mu.Unlock()
}

func (r *memRepository) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

// ── Greeter (intercepted) ─────────────────────────────────────────────────────

var errEmptyName = errors.New("empty name")

type Greeter interface {
	Greet(name string) (string, error)
	Plain() string
}

type greeter struct {
	repo Repository
}

func newGreeter(repo Repository) *greeter { return &greeter{repo: repo} }

func (g *greeter) Greet(name string) (string, error) {
	if name == "" {
		return "", errEmptyName
	}
	g.repo.Save(name)
	return "hello " + name, nil
}

func (g *greeter) Plain() string { return "plain" }

type greeterProxy struct {
	target Greeter
	inv    *container.Invoker
}

func proxyGreeter(target any, inv *container.Invoker) any {
	return &greeterProxy{target: target.(Greeter), inv: inv}
}

func (p *greeterProxy) Greet(name string) (string, error) {
	var out string
	err := p.inv.Invoke("Greet", []any{name}, func() (err error) {
		out, err = p.target.Greet(name)
		return err
	})
	return out, err
}

func (p *greeterProxy) Plain() string {
	var out string
	_ = p.inv.Invoke("Plain", nil, func() error {
		out = p.target.Plain()
		return nil
	})
	return out
}

// ── Cycle fixtures ────────────────────────────────────────────────────────────

type Alpha interface{ A() string }
type Beta interface{ B() string }

type alpha struct{ beta Beta }

func newAlpha(b Beta) *alpha { return &alpha{beta: b} }
func (a *alpha) A() string   { return "a" }

type beta struct{ alpha Alpha }

func newBeta(a Alpha) *beta { return &beta{alpha: a} }
func (b *beta) B() string   { return "b" }

// ── helpers ──────────────────────────────────────────────────────────────────

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func initialized(t *testing.T, descs []*container.TypeDescriptor, opts ...container.Option) *container.Container {
	t.Helper()
	c := container.New(container.Descriptors(descs...), opts...)
	require.NoError(t, c.Initialize("test"))
	return c
}

func repositoryDesc() *container.TypeDescriptor {
	return container.Component[*memRepository]().
		Named("repository").
		Implements((*Repository)(nil)).
		Constructor(newMemRepository).
		MustDescribe()
}

func greeterDesc(scope container.Scope) *container.TypeDescriptor {
	return container.Component[*greeter]().
		Named("greeter").
		Implements((*Greeter)(nil)).
		Constructor(newGreeter).
		Scope(scope).
		Intercept(proxyGreeter).
		Logging("Greet").
		MustDescribe()
}
