package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-tinyioc/framework/container"
)

// Declared before their dependencies so a single pass cannot build them.
type Report struct {
	Repo    Repository `inject:""`
	Greeter Greeter    `inject:""`
}

type auditor struct {
	repo   Repository
	report *Report
}

func newAuditor(repo Repository, report *Report) *auditor {
	return &auditor{repo: repo, report: report}
}

// ── Fixed-point resolution ────────────────────────────────────────────────────

func TestResolve_OutOfOrderRegistration(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{
		container.Component[*auditor]().Constructor(newAuditor).MustDescribe(),
		container.Component[*Report]().MustDescribe(),
		greeterDesc(container.Singleton),
		repositoryDesc(),
	})

	a, err := container.Bean[*auditor](c, "auditor")
	require.NoError(t, err)
	r, err := container.Bean[*Report](c, "report")
	require.NoError(t, err)
	repo, err := container.Bean[Repository](c, "repository")
	require.NoError(t, err)

	assert.Same(t, r, a.report)
	assert.Same(t, repo, a.repo)
	assert.Same(t, repo, r.Repo)
	assert.NotNil(t, r.Greeter)
}

func TestResolve_SingletonsAreShared(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{repositoryDesc()})

	a, err := c.GetBean("repository", nil)
	require.NoError(t, err)
	b, err := c.GetBean("repository", nil)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestResolve_MutualSingletonsAreUnresolved(t *testing.T) {
	c := container.New(container.Descriptors(
		container.Component[*alpha]().Implements((*Alpha)(nil)).Constructor(newAlpha).MustDescribe(),
		container.Component[*beta]().Implements((*Beta)(nil)).Constructor(newBeta).MustDescribe(),
	))

	err := c.Initialize("test")
	var unresolved *container.UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, unresolved.Names())
	assert.Contains(t, err.Error(), "Beta")
}

func TestResolve_MissingDependency(t *testing.T) {
	c := container.New(container.Descriptors(greeterDesc(container.Singleton)))

	err := c.Initialize("test")
	var unresolved *container.UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []string{"greeter"}, unresolved.Names())
	require.Len(t, unresolved.Remaining, 1)
	assert.Len(t, unresolved.Remaining[0].Missing, 1)
}

func TestResolve_SingletonCannotDependOnPrototype(t *testing.T) {
	c := container.New(container.Descriptors(
		container.Component[*memRepository]().
			Named("repository").
			Implements((*Repository)(nil)).
			Scope(container.Prototype).
			MustDescribe(),
		greeterDesc(container.Singleton),
	))

	assert.ErrorIs(t, c.Initialize("test"), container.ErrUnresolvedDependency)
}

func TestResolve_Ambiguous(t *testing.T) {
	c := container.New(container.Descriptors(
		repositoryDesc(),
		container.Component[*memRepository]().Named("backup").Implements((*Repository)(nil)).MustDescribe(),
		greeterDesc(container.Singleton),
	))

	err := c.Initialize("test")
	var amb *container.AmbiguousDependencyError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, []string{"repository", "backup"}, amb.Candidates)
	assert.ErrorIs(t, err, container.ErrAmbiguousDependency)
}

func TestResolve_NoUsableConstructor(t *testing.T) {
	type counter int
	c := container.New(container.Descriptors(container.Component[counter]().MustDescribe()))

	var noCtor *container.NoUsableConstructorError
	require.ErrorAs(t, c.Initialize("test"), &noCtor)
}

func TestResolve_ConstructorError(t *testing.T) {
	boom := errors.New("disk full")
	c := container.New(container.Descriptors(
		container.Component[*memRepository]().
			Constructor(func() (*memRepository, error) { return nil, boom }).
			MustDescribe(),
	))

	err := c.Initialize("test")
	var fie *container.FactoryInvocationError
	require.ErrorAs(t, err, &fie)
	assert.Equal(t, "memRepository", fie.Bean)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, container.ErrFactoryInvocation)
}

func TestResolve_ConstructorPanicAndNil(t *testing.T) {
	tests := []struct {
		name string
		ctor func() *memRepository
	}{
		{"panic", func() *memRepository { panic("nope") }},
		{"nil", func() *memRepository { return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := container.New(container.Descriptors(
				container.Component[*memRepository]().Constructor(tt.ctor).MustDescribe(),
			))
			assert.ErrorIs(t, c.Initialize("test"), container.ErrFactoryInvocation)
		})
	}
}

// ── Lookup ────────────────────────────────────────────────────────────────────

func TestLookup_Errors(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{repositoryDesc()})

	_, err := c.GetBean("nope", nil)
	assert.ErrorIs(t, err, container.ErrBeanNotFound)

	_, err = container.Bean[Greeter](c, "repository")
	assert.ErrorIs(t, err, container.ErrTypeMismatch)

	_, err = container.BeanOf[Greeter](c)
	assert.ErrorIs(t, err, container.ErrBeanNotFound)

	assert.Panics(t, func() { container.MustBean[Greeter](c, "nope") })
}

func TestLookup_BeanOf(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{repositoryDesc()})

	repo, err := container.BeanOf[Repository](c)
	require.NoError(t, err)
	assert.Same(t, container.MustBean[Repository](c, "repository"), repo)
}

func TestLookup_BeanOfAmbiguous(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{
		repositoryDesc(),
		container.Component[*memRepository]().Named("backup").Implements((*Repository)(nil)).MustDescribe(),
	})

	_, err := container.BeanOf[Repository](c)
	assert.ErrorIs(t, err, container.ErrAmbiguousDependency)
}

func TestLookup_InterceptedExposesOnlyCapabilities(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{repositoryDesc(), greeterDesc(container.Singleton)})

	_, err := container.Bean[*greeter](c, "greeter")
	assert.ErrorIs(t, err, container.ErrTypeMismatch)

	_, err = container.BeanOf[*greeter](c)
	assert.ErrorIs(t, err, container.ErrBeanNotFound)
}

func TestLookup_SingletonsOf(t *testing.T) {
	c := initialized(t, []*container.TypeDescriptor{
		repositoryDesc(),
		container.Component[*memRepository]().Named("backup").Implements((*Repository)(nil)).MustDescribe(),
		container.Component[*memRepository]().Named("scratch").Scope(container.Prototype).MustDescribe(),
	})

	assert.Len(t, container.SingletonsOf[Repository](c), 2)
}

// ── Scheduled methods ─────────────────────────────────────────────────────────

func TestScheduledMethods(t *testing.T) {
	c := container.New(container.Descriptors(
		container.Component[*taskBean]().Scheduled("Tick", "@every 1m").MustDescribe(),
	))
	assert.Nil(t, c.ScheduledMethods())
	require.NoError(t, c.Initialize("test"))

	methods := c.ScheduledMethods()
	require.Len(t, methods, 1)
	assert.Equal(t, "taskBean", methods[0].Bean)
	assert.Equal(t, "Tick", methods[0].Method)
	assert.Equal(t, "@every 1m", methods[0].Spec)
	assert.Same(t, container.MustBean[*taskBean](c, "taskBean"), methods[0].Target)
}
