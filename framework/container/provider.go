package container

import "slices"

// ── Discovery ─────────────────────────────────────────────────────────────────

// Discovery supplies the type descriptors of one logical scope. The container
// never walks packages or files itself.
type Discovery interface {
	Scan(scopeHint string) ([]*TypeDescriptor, error)
}

// DiscoveryFunc adapts a function to Discovery.
type DiscoveryFunc func(scopeHint string) ([]*TypeDescriptor, error)

func (f DiscoveryFunc) Scan(scopeHint string) ([]*TypeDescriptor, error) { return f(scopeHint) }

// Descriptors is a fixed Discovery that ignores the scope hint.
func Descriptors(descs ...*TypeDescriptor) Discovery {
	return DiscoveryFunc(func(string) ([]*TypeDescriptor, error) { return descs, nil })
}

// ── ComponentProvider interface ───────────────────────────────────────────────

// ComponentProvider contributes a registration table to a ProviderRegistry.
//
// Boot, when implemented (see BootableProvider), is called after the
// container has been initialized, making it safe to look beans up.
//
//	type AppProvider struct{ container.BaseProvider }
//
//	func (p *AppProvider) Components() []*container.TypeDescriptor {
//	    return []*container.TypeDescriptor{
//	        container.Component[*Repository]().MustDescribe(),
//	    }
//	}
type ComponentProvider interface {
	// Components returns the descriptors this provider registers.
	Components() []*TypeDescriptor

	// Scopes returns the scope hints this provider belongs to.
	// Return nil / empty slice to belong to every scope.
	Scopes() []string
}

// BootableProvider is a ComponentProvider with a post-initialization hook.
type BootableProvider interface {
	ComponentProvider
	Boot(c *Container) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides a no-op Scopes().
// Embed it in your provider and only override what you need.
type BaseProvider struct{}

func (p *BaseProvider) Scopes() []string { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry is the Discovery used by applications: it collects the
// descriptors of every registered provider whose scopes match the hint, and
// boots bootable providers once the container is up.
type ProviderRegistry struct {
	providers  []ComponentProvider
	registered map[ComponentProvider]bool
	scanned    string
	booted     bool
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{registered: make(map[ComponentProvider]bool)}
}

// Register adds providers. Registering the same provider twice is a no-op.
func (r *ProviderRegistry) Register(providers ...ComponentProvider) {
	for _, p := range providers {
		if r.registered[p] {
			continue
		}
		r.registered[p] = true
		r.providers = append(r.providers, p)
	}
}

// Scan implements Discovery.
func (r *ProviderRegistry) Scan(scopeHint string) ([]*TypeDescriptor, error) {
	r.scanned = scopeHint
	var out []*TypeDescriptor
	for _, p := range r.providers {
		if inScope(p, scopeHint) {
			out = append(out, p.Components()...)
		}
	}
	return out, nil
}

func inScope(p ComponentProvider, hint string) bool {
	scopes := p.Scopes()
	return len(scopes) == 0 || slices.Contains(scopes, hint)
}

// Boot calls Boot on every bootable provider of the scanned scope, in
// registration order. It must be called after c.Initialize.
func (r *ProviderRegistry) Boot(c *Container) error {
	if r.booted {
		return nil
	}
	if !c.Initialized() {
		return ErrNotInitialized
	}
	r.booted = true
	for _, p := range r.providers {
		if b, ok := p.(BootableProvider); ok && inScope(p, r.scanned) {
			if err := b.Boot(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered providers.
func (r *ProviderRegistry) Providers() []ComponentProvider { return r.providers }
