package app

import (
	"github.com/km-arc/go-tinyioc/framework/container"
)

// AdminService holds the privileged operations. DeleteUser needs ADMIN,
// Notice any logged-in user.
type AdminService interface {
	DeleteUser(id string) error
	Notice() (string, error)
}

type DefaultAdminService struct {
	repo UserRepository
}

func NewAdminService(repo UserRepository) *DefaultAdminService {
	return &DefaultAdminService{repo: repo}
}

func (s *DefaultAdminService) DeleteUser(id string) error {
	if !s.repo.Delete(id) {
		return ErrUserNotFound
	}
	return nil
}

func (s *DefaultAdminService) Notice() (string, error) {
	return "maintenance window: sunday 02:00 UTC", nil
}

type adminServiceProxy struct {
	target AdminService
	inv    *container.Invoker
}

func proxyAdminService(target any, inv *container.Invoker) any {
	return &adminServiceProxy{target: target.(AdminService), inv: inv}
}

func (p *adminServiceProxy) DeleteUser(id string) error {
	return p.inv.Invoke("DeleteUser", []any{id}, func() error {
		return p.target.DeleteUser(id)
	})
}

func (p *adminServiceProxy) Notice() (string, error) {
	var notice string
	err := p.inv.Invoke("Notice", nil, func() (err error) {
		notice, err = p.target.Notice()
		return err
	})
	return notice, err
}
