// Package container provides a small reflection-driven IoC (Inversion of
// Control) container with declarative interception.
//
// # Overview
//
// Components are registered through static type descriptors rather than by
// scanning packages. Each descriptor names a concrete type, the interfaces it
// is matched by, an optional constructor, a scope and its method tags. The
// container resolves constructor parameters and `inject` fields by
// capability, builds every singleton eagerly, and builds prototypes on each
// lookup.
//
// # Container Lifecycle
//
//  1. Describe: container.Component[*Repo]().Implements(...).MustDescribe()
//  2. Collect:  registry.Register(&AppProvider{})
//  3. Create:   c := container.New(registry, container.WithLogger(log))
//  4. Initialize: c.Initialize("app"), which builds all singletons or nothing
//  5. Boot:     registry.Boot(c), where providers may look beans up
//  6. Look up:  container.Bean[UserService](c, "userService")
//
// # Components
//
//	container.Component[*MemoryRepository]().
//	    Named("repository").
//	    Implements((*Repository)(nil)).
//	    Constructor(NewMemoryRepository).
//	    MustDescribe()
//
// The default name is the lower-camel type name. Constructor parameters and
// exported fields tagged `inject:""` are injected by capability. A tag value
// (`inject:"primaryDB"`) or Qualify(i, name) pins the bean by name; so does a
// container rule:
//
//	c.When("reportService").Needs((*DB)(nil)).Give("replicaDB")
//
// More than one matching candidate without a qualifier is an
// AmbiguousDependencyError.
//
// # Scopes
//
// Singleton beans are built once during Initialize, in dependency order, and
// may only depend on other singletons. Prototype beans are built on every
// lookup; their prototype dependencies are built recursively and a cycle is a
// CircularDependencyError naming the chain.
//
// # Configuration types
//
// A configuration type's registered methods are factory methods. Their
// parameters are injected and their results become beans:
//
//	container.Configuration[*AppConfig]().
//	    Bean("Clock").
//	    Bean("Ticket", container.BeanScope(container.Prototype)).
//	    MustDescribe()
//
// # Interception
//
// An intercepted component is exposed through a proxy that implements its
// capabilities and routes every method through an Invoker:
//
//	func (p *userProxy) Register(name string) (User, error) {
//	    var u User
//	    err := p.inv.Invoke("Register", []any{name}, func() (err error) {
//	        u, err = p.target.Register(name)
//	        return err
//	    })
//	    return u, err
//	}
//
// Each method carries at most one tag: Logging, Transactional, Async or
// Secured. Untagged methods call straight through.
//
// # Conditional registration
//
//	container.Component[*EchoServer]().When(container.OnScope("app", "echo"))
package container
