package container

import (
	"slices"

	"go.uber.org/zap"
)

// constructionStack holds the beans on the active construction call stack.
// Every push is paired with a deferred pop, so the stack is empty again once
// the outermost build returns, whether it succeeded or not.
type constructionStack struct {
	names []string
}

func (s *constructionStack) push(name string) error {
	if slices.Contains(s.names, name) {
		chain := append(slices.Clone(s.names), name)
		return &CircularDependencyError{Chain: chain}
	}
	s.names = append(s.names, name)
	return nil
}

func (s *constructionStack) pop() {
	s.names = s.names[:len(s.names)-1]
}

func (s *constructionStack) depth() int { return len(s.names) }

// ── Recursive resolution ──────────────────────────────────────────────────────

// buildPrototype builds a fresh instance of def and, recursively, of every
// prototype it depends on. Singleton dependencies come from the sealed cache
// and are shared; the cache itself is never written.
func (c *Container) buildPrototype(def *BeanDefinition, stack *constructionStack) (any, error) {
	if err := stack.push(def.name); err != nil {
		return nil, err
	}
	defer stack.pop()

	lookup := func(dep *BeanDefinition) (any, bool, error) {
		if dep.scope == Singleton {
			inst, ok := c.cache.get(dep.name)
			return inst, ok, nil
		}
		inst, err := c.buildPrototype(dep, stack)
		if err != nil {
			return nil, false, err
		}
		return inst, true, nil
	}

	args, missing, err := c.resolveArgs(def, nil, lookup)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &UnresolvedDependencyError{Remaining: []UnresolvedBean{{
			Name: def.name, Type: typeName(def.typ), Missing: missing,
		}}}
	}
	inst, err := c.instantiate(def, args)
	if err != nil {
		return nil, err
	}
	c.metrics.BeanBuilt(def.scope.String(), def.kind.String())
	c.log.Debug("prototype built", zap.String("bean", def.name), zap.Int("depth", stack.depth()))
	return inst, nil
}
