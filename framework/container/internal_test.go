package container

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-tinyioc/framework/async"
)

func TestLowerCamel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"UserService", "userService"},
		{"HTTPClient", "httpClient"},
		{"ID", "id"},
		{"userService", "userService"},
		{"A", "a"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, lowerCamel(tt.in))
		})
	}
}

func TestSingletonCache_PublishOnce(t *testing.T) {
	c := newSingletonCache()
	require.NoError(t, c.publish(map[string]any{"a": 1}))

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Error(t, c.publish(map[string]any{"b": 2}), "a sealed cache rejects writes")
	assert.Equal(t, 1, c.len())
}

func TestSingletonCache_RejectsDuplicate(t *testing.T) {
	c := newSingletonCache()
	c.instances["a"] = 1
	assert.Error(t, c.publish(map[string]any{"a": 2}))
	assert.False(t, c.sealed)
}

func TestConstructionStack(t *testing.T) {
	var s constructionStack
	require.NoError(t, s.push("a"))
	require.NoError(t, s.push("b"))

	err := s.push("a")
	var circ *CircularDependencyError
	require.ErrorAs(t, err, &circ)
	assert.Equal(t, []string{"a", "b", "a"}, circ.Chain)
	assert.Equal(t, 2, s.depth())

	s.pop()
	s.pop()
	assert.Zero(t, s.depth())
}

// ── Failed initialization ─────────────────────────────────────────────────────

type pager interface {
	Page(msg string) error
}

type memPager struct{ sent atomic.Int32 }

func (p *memPager) Page(string) error {
	p.sent.Add(1)
	return nil
}

type pagerProxy struct {
	target pager
	inv    *Invoker
}

func (p *pagerProxy) Page(msg string) error {
	return p.inv.Invoke("Page", []any{msg}, func() error { return p.target.Page(msg) })
}

type brokenPart struct{}

func TestInitialize_FailureClosesPoolAndAllowsRetry(t *testing.T) {
	var (
		c      *Container
		seen   *async.Pool
		broken = true
	)
	pagerDesc := Component[*memPager]().
		Named("pager").
		Implements((*pager)(nil)).
		Intercept(func(target any, inv *Invoker) any { return &pagerProxy{target: target.(pager), inv: inv} }).
		Async("Page").
		MustDescribe()
	brokenDesc := Component[*brokenPart]().
		Constructor(func() (*brokenPart, error) {
			seen = c.pool
			return nil, errors.New("boom")
		}).
		MustDescribe()

	c = New(DiscoveryFunc(func(string) ([]*TypeDescriptor, error) {
		if broken {
			return []*TypeDescriptor{pagerDesc, brokenDesc}, nil
		}
		return []*TypeDescriptor{pagerDesc}, nil
	}))

	require.ErrorIs(t, c.Initialize("test"), ErrFactoryInvocation)
	assert.False(t, c.Initialized())
	require.NotNil(t, seen, "the pool was started before construction")
	assert.Nil(t, c.pool)
	assert.ErrorIs(t, seen.Submit(func() {}), async.ErrPoolClosed)
	_, err := c.GetBean("pager", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	broken = false
	require.NoError(t, c.Initialize("test"))
	assert.True(t, c.Initialized())
	require.NotNil(t, c.pool)
	assert.NotSame(t, seen, c.pool)

	p, err := BeanOf[pager](c)
	require.NoError(t, err)
	require.NoError(t, p.Page("hello"))
	require.NoError(t, c.Shutdown(context.Background()))
}
