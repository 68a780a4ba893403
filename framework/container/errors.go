package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ── Sentinels ─────────────────────────────────────────────────────────────────

var (
	ErrDuplicateName        = errors.New("container: duplicate bean name")
	ErrNoUsableConstructor  = errors.New("container: no usable constructor")
	ErrUnresolvedDependency = errors.New("container: unresolved dependency")
	ErrCircularDependency   = errors.New("container: circular dependency")
	ErrFactoryInvocation    = errors.New("container: factory invocation failed")
	ErrAuthorizationDenied  = errors.New("container: authorization denied")
	ErrAmbiguousDependency  = errors.New("container: ambiguous dependency")
	ErrInvalidDescriptor    = errors.New("container: invalid type descriptor")

	ErrBeanNotFound        = errors.New("container: bean not found")
	ErrTypeMismatch        = errors.New("container: bean does not provide the requested capability")
	ErrNotInitialized      = errors.New("container: not initialized")
	ErrAlreadyInitialized  = errors.New("container: already initialized")
	ErrMissingCollaborator = errors.New("container: missing collaborator")
	ErrProxyCapability     = errors.New("container: proxy does not implement the component capabilities")
)

// ── Registry errors ───────────────────────────────────────────────────────────

// DuplicateNameError is returned when two registrations derive the same bean name.
type DuplicateNameError struct {
	Name   string
	First  string
	Second string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("container: bean name %q registered by both %s and %s", e.Name, e.First, e.Second)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// DescriptorError reports a registration table entry that cannot be captured.
type DescriptorError struct {
	Type   string
	Reason string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("container: descriptor %s: %s", e.Type, e.Reason)
}

func (e *DescriptorError) Is(target error) bool { return target == ErrInvalidDescriptor }

// NoUsableConstructorError is returned for a type that has no injection
// constructor and cannot be built from its zero value.
type NoUsableConstructorError struct {
	Type string
}

func (e *NoUsableConstructorError) Error() string {
	return fmt.Sprintf("container: %s has no injection constructor and no zero-value constructor", e.Type)
}

func (e *NoUsableConstructorError) Is(target error) bool { return target == ErrNoUsableConstructor }

// ── Resolution errors ─────────────────────────────────────────────────────────

// UnresolvedBean describes one bean left over when a resolution pass stalls.
type UnresolvedBean struct {
	Name    string
	Type    string
	Missing []string
}

// UnresolvedDependencyError is returned when a fixed-point pass makes no
// progress. Remaining lists every bean that could not be built.
type UnresolvedDependencyError struct {
	Remaining []UnresolvedBean
}

func (e *UnresolvedDependencyError) Error() string {
	parts := make([]string, 0, len(e.Remaining))
	for _, b := range e.Remaining {
		parts = append(parts, fmt.Sprintf("%s (%s) needs [%s]", b.Name, b.Type, strings.Join(b.Missing, ", ")))
	}
	return "container: unresolved dependencies: " + strings.Join(parts, "; ")
}

func (e *UnresolvedDependencyError) Is(target error) bool { return target == ErrUnresolvedDependency }

// Names returns the names of the beans that could not be built.
func (e *UnresolvedDependencyError) Names() []string {
	out := make([]string, len(e.Remaining))
	for i, b := range e.Remaining {
		out[i] = b.Name
	}
	return out
}

// CircularDependencyError carries the full construction chain, ending with
// the bean that was requested a second time.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency: " + strings.Join(e.Chain, " -> ")
}

func (e *CircularDependencyError) Is(target error) bool { return target == ErrCircularDependency }

// AmbiguousDependencyError is returned when a requested capability matches
// more than one bean and no qualifier selects one.
type AmbiguousDependencyError struct {
	Requested  string
	Candidates []string
}

func (e *AmbiguousDependencyError) Error() string {
	return fmt.Sprintf("container: %s is provided by %d beans [%s]; add a qualifier",
		e.Requested, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousDependencyError) Is(target error) bool { return target == ErrAmbiguousDependency }

// FactoryInvocationError wraps a failure returned (or panicked) by a
// constructor or factory method.
type FactoryInvocationError struct {
	Bean string
	Err  error
}

func (e *FactoryInvocationError) Error() string {
	return fmt.Sprintf("container: building %q: %v", e.Bean, e.Err)
}

func (e *FactoryInvocationError) Unwrap() error { return e.Err }

func (e *FactoryInvocationError) Is(target error) bool { return target == ErrFactoryInvocation }

// ── Interception errors ───────────────────────────────────────────────────────

// AuthorizationDeniedError is returned by a secured method when the session
// is unauthenticated or under-privileged. The target method is not invoked.
type AuthorizationDeniedError struct {
	Bean     string
	Method   string
	User     string
	Role     string
	Required string
}

func (e *AuthorizationDeniedError) Error() string {
	if e.User == "" {
		return fmt.Sprintf("container: %s.%s requires role %s: not logged in", e.Bean, e.Method, e.Required)
	}
	return fmt.Sprintf("container: %s.%s requires role %s: user %s has role %s",
		e.Bean, e.Method, e.Required, e.User, e.Role)
}

func (e *AuthorizationDeniedError) Is(target error) bool { return target == ErrAuthorizationDenied }

// typeName renders t the way error messages and logs show it.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
