package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-tinyioc/framework/container"
)

type Session struct {
	Repo Repository `inject:""`
}

type Cart struct {
	Session *Session `inject:""`
}

// ── Prototype resolution ──────────────────────────────────────────────────────

func TestPrototype_FreshInstancesSharedSingletons(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{
		repositoryDesc(),
		container.Component[*Session]().Scope(container.Prototype).MustDescribe(),
		container.Component[*Cart]().Scope(container.Prototype).MustDescribe(),
	})

	a := container.MustBean[*Cart](c, "cart")
	b := container.MustBean[*Cart](c, "cart")

	assert.NotSame(t, a, b)
	assert.NotSame(t, a.Session, b.Session, "prototype dependencies are rebuilt")
	assert.Same(t, a.Session.Repo, b.Session.Repo, "singleton dependencies are shared")
}

func TestPrototype_Circular(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{
		container.Component[*alpha]().Implements((*Alpha)(nil)).Constructor(newAlpha).Scope(container.Prototype).MustDescribe(),
		container.Component[*beta]().Implements((*Beta)(nil)).Constructor(newBeta).Scope(container.Prototype).MustDescribe(),
	})

	_, err := c.GetBean("alpha", nil)
	var circ *container.CircularDependencyError
	require.ErrorAs(t, err, &circ)
	assert.Equal(t, []string{"alpha", "beta", "alpha"}, circ.Chain)
	assert.EqualError(t, err, "container: circular dependency: alpha -> beta -> alpha")

	_, err = c.GetBean("beta", nil)
	require.ErrorAs(t, err, &circ)
	assert.Equal(t, []string{"beta", "alpha", "beta"}, circ.Chain, "the stack is empty again after a failed build")
}

func TestPrototype_UnresolvedAtLookup(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{
		container.Component[*Session]().Scope(container.Prototype).MustDescribe(),
	})

	_, err := c.GetBean("session", nil)
	var unresolved *container.UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []string{"session"}, unresolved.Names())
}

func TestPrototype_DoesNotTouchSingletonCache(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{
		repositoryDesc(),
		greeterDesc(container.Prototype),
	})
	before := len(container.SingletonsOf[any](c))

	for range 3 {
		_, err := c.GetBean("greeter", nil)
		require.NoError(t, err)
	}
	assert.Len(t, container.SingletonsOf[any](c), before)
}
