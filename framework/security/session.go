// Package security holds the session state consulted by secured methods.
package security

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Built-in roles. RoleAdmin passes every role check.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ErrEmptyUser is returned by Login for a blank user name.
var ErrEmptyUser = errors.New("security: empty user name")

// Session is the read side of the current login.
type Session interface {
	CurrentUser() (string, bool)
	CurrentRole() (string, bool)
}

// Allows reports whether role satisfies required.
func Allows(role, required string) bool {
	return role == required || role == RoleAdmin
}

// MemorySession is the process-scoped session. Create one per process (or per
// test), inject it where needed, and Reset it on teardown.
type MemorySession struct {
	mu   sync.RWMutex
	user string
	role string
	log  *zap.Logger
}

// NewMemorySession returns a logged-out session.
func NewMemorySession(log *zap.Logger) *MemorySession {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemorySession{log: log.Named("session")}
}

// Login replaces the current login. An empty role means RoleUser.
func (s *MemorySession) Login(user, role string) error {
	if user == "" {
		return ErrEmptyUser
	}
	if role == "" {
		role = RoleUser
	}
	s.mu.Lock()
	s.user, s.role = user, role
	s.mu.Unlock()
	s.log.Info("logged in", zap.String("user", user), zap.String("role", role))
	return nil
}

// Logout clears the current login.
func (s *MemorySession) Logout() {
	s.mu.Lock()
	user := s.user
	s.user, s.role = "", ""
	s.mu.Unlock()
	if user != "" {
		s.log.Info("logged out", zap.String("user", user))
	}
}

// Reset is the teardown hook; it leaves the session logged out.
func (s *MemorySession) Reset() { s.Logout() }

func (s *MemorySession) CurrentUser() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.user != ""
}

func (s *MemorySession) CurrentRole() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role, s.user != ""
}
