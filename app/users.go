package app

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/km-arc/go-tinyioc/framework/container"
)

var (
	ErrUserNotFound = errors.New("app: user not found")
	ErrInvalidName  = errors.New("app: user name must not be blank")
)

// User is the only entity of the demo.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ── Repository ────────────────────────────────────────────────────────────────

// UserRepository stores users.
type UserRepository interface {
	Save(u User)
	Find(id string) (User, bool)
	Delete(id string) bool
	All() []User
}

// MemoryUserRepository keeps users in memory, in insertion order.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]User
	order []string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]User)}
}

func (r *MemoryUserRepository) Save(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		r.order = append(r.order, u.ID)
	}
	r.users[u.ID] = u
}

func (r *MemoryUserRepository) Find(id string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	return u, ok
}

func (r *MemoryUserRepository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return false
	}
	delete(r.users, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return true
}

func (r *MemoryUserRepository) All() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id])
	}
	return out
}

// ── Service ───────────────────────────────────────────────────────────────────

// UserService registers and looks up users. Register is logged.
type UserService interface {
	Register(name string) (User, error)
	Find(id string) (User, error)
}

type DefaultUserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *DefaultUserService {
	return &DefaultUserService{repo: repo}
}

func (s *DefaultUserService) Register(name string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, ErrInvalidName
	}
	u := User{ID: uuid.NewString(), Name: name}
	s.repo.Save(u)
	return u, nil
}

func (s *DefaultUserService) Find(id string) (User, error) {
	u, ok := s.repo.Find(id)
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

type userServiceProxy struct {
	target UserService
	inv    *container.Invoker
}

func proxyUserService(target any, inv *container.Invoker) any {
	return &userServiceProxy{target: target.(UserService), inv: inv}
}

func (p *userServiceProxy) Register(name string) (User, error) {
	var u User
	err := p.inv.Invoke("Register", []any{name}, func() (err error) {
		u, err = p.target.Register(name)
		return err
	})
	return u, err
}

func (p *userServiceProxy) Find(id string) (User, error) {
	var u User
	err := p.inv.Invoke("Find", []any{id}, func() (err error) {
		u, err = p.target.Find(id)
		return err
	})
	return u, err
}
