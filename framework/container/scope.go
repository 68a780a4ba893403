package container

import (
	"fmt"
	"strings"
)

// Scope is the lifecycle policy of a bean.
type Scope int

const (
	// Singleton beans are built once during Initialize and shared.
	Singleton Scope = iota
	// Prototype beans are built fresh on every lookup.
	Prototype
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Prototype:
		return "prototype"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope accepts "singleton" or "prototype" (case-insensitive). An empty
// string is Singleton.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "singleton":
		return Singleton, nil
	case "prototype":
		return Prototype, nil
	default:
		return Singleton, fmt.Errorf("container: unknown scope %q", s)
	}
}

// ── Singleton cache ───────────────────────────────────────────────────────────

// singletonCache holds every eagerly-built singleton. It is written once, by
// publish, and read without locking after that.
type singletonCache struct {
	instances map[string]any
	sealed    bool
}

func newSingletonCache() *singletonCache {
	return &singletonCache{instances: make(map[string]any)}
}

func (s *singletonCache) get(name string) (any, bool) {
	inst, ok := s.instances[name]
	return inst, ok
}

// publish moves a fully resolved pass into the cache and seals it.
func (s *singletonCache) publish(built map[string]any) error {
	if s.sealed {
		return fmt.Errorf("container: singleton cache is sealed")
	}
	for name := range built {
		if _, exists := s.instances[name]; exists {
			return fmt.Errorf("container: singleton %q built twice", name)
		}
	}
	for name, inst := range built {
		s.instances[name] = inst
	}
	s.sealed = true
	return nil
}

func (s *singletonCache) len() int { return len(s.instances) }
