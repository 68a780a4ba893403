package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-tinyioc/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type repoProvider struct {
	container.BaseProvider
}

func (p *repoProvider) Components() []*container.TypeDescriptor {
	return []*container.TypeDescriptor{repositoryDesc()}
}

// bootProvider records Boot and checks the repository is resolvable by then.
type bootProvider struct {
	container.BaseProvider
	booted  int
	sawRepo bool
	err     error
}

func (p *bootProvider) Components() []*container.TypeDescriptor {
	return []*container.TypeDescriptor{greeterDesc(container.Singleton)}
}

func (p *bootProvider) Boot(c *container.Container) error {
	p.booted++
	_, err := container.Bean[Repository](c, "repository")
	p.sawRepo = err == nil
	return p.err
}

// batchProvider belongs to the "batch" scope only.
type batchProvider struct {
	bootProvider
}

func (p *batchProvider) Components() []*container.TypeDescriptor {
	return []*container.TypeDescriptor{
		container.Component[*taskBean]().MustDescribe(),
	}
}

func (p *batchProvider) Scopes() []string { return []string{"batch"} }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_ScanCollectsComponents(t *testing.T) {
	reg := container.NewProviderRegistry()
	reg.Register(&repoProvider{}, &bootProvider{})

	descs, err := reg.Scan("app")
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, "repository", descs[0].Name())
	assert.Equal(t, "greeter", descs[1].Name())
}

func TestRegistry_RegisterTwiceIsNoop(t *testing.T) {
	reg := container.NewProviderRegistry()
	p := &repoProvider{}
	reg.Register(p, p)
	reg.Register(p)

	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_ScopedProviders(t *testing.T) {
	reg := container.NewProviderRegistry()
	batch := &batchProvider{}
	reg.Register(&repoProvider{}, batch)

	app, err := reg.Scan("app")
	require.NoError(t, err)
	assert.Len(t, app, 1)

	jobs, err := reg.Scan("batch")
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestRegistry_BootAfterInitialize(t *testing.T) {
	reg := container.NewProviderRegistry()
	bp := &bootProvider{}
	reg.Register(&repoProvider{}, bp)
	c := container.New(reg)

	assert.ErrorIs(t, reg.Boot(c), container.ErrNotInitialized)
	assert.Zero(t, bp.booted, "Boot is not called before Initialize")

	require.NoError(t, c.Initialize("app"))
	require.NoError(t, reg.Boot(c))
	assert.True(t, reg.Booted())
	assert.Equal(t, 1, bp.booted)
	assert.True(t, bp.sawRepo, "beans are resolvable inside Boot")

	require.NoError(t, reg.Boot(c))
	assert.Equal(t, 1, bp.booted, "Boot runs once")
}

func TestRegistry_BootSkipsOutOfScopeProviders(t *testing.T) {
	reg := container.NewProviderRegistry()
	batch := &batchProvider{}
	reg.Register(&repoProvider{}, batch)
	c := container.New(reg)

	require.NoError(t, c.Initialize("app"))
	require.NoError(t, reg.Boot(c))
	assert.Zero(t, batch.booted)
}

func TestRegistry_BootError(t *testing.T) {
	boom := errors.New("boot failed")
	reg := container.NewProviderRegistry()
	reg.Register(&repoProvider{}, &bootProvider{err: boom})
	c := container.New(reg)
	require.NoError(t, c.Initialize("app"))

	assert.ErrorIs(t, reg.Boot(c), boom)
}
