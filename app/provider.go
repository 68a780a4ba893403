package app

import (
	"github.com/km-arc/go-tinyioc/framework/container"
	"github.com/km-arc/go-tinyioc/framework/security"
)

// Provider registers the demo application's components.
type Provider struct {
	container.BaseProvider
}

func (p *Provider) Components() []*container.TypeDescriptor {
	return []*container.TypeDescriptor{
		container.Component[*MemoryUserRepository]().
			Named("repository").
			Implements((*UserRepository)(nil)).
			Constructor(NewMemoryUserRepository).
			MustDescribe(),

		container.Component[*DefaultUserService]().
			Named("userService").
			Implements((*UserService)(nil)).
			Constructor(NewUserService).
			Intercept(proxyUserService).
			Logging("Register").
			MustDescribe(),

		container.Component[*LedgerOrderService]().
			Named("orderService").
			Implements((*OrderService)(nil)).
			Constructor(NewOrderService).
			Intercept(proxyOrderService).
			Transactional("PlaceOrder").
			MustDescribe(),

		container.Component[*LogMailer]().
			Named("mailer").
			Implements((*Mailer)(nil)).
			Intercept(proxyMailer).
			Async("Send").
			MustDescribe(),

		container.Component[*DefaultAdminService]().
			Named("adminService").
			Implements((*AdminService)(nil)).
			Constructor(NewAdminService).
			Intercept(proxyAdminService).
			Secured("DeleteUser", security.RoleAdmin).
			Secured("Notice", security.RoleUser).
			MustDescribe(),

		container.Component[*EchoChatService]().
			Named("chat").
			Implements((*ChatService)(nil)).
			When(container.OnScope("app", "echo")).
			MustDescribe(),

		container.Component[*EchoServer]().
			When(container.OnScope("app", "echo")).
			MustDescribe(),

		container.Component[*ReportTask]().
			Scheduled("Report", "@every 30s").
			MustDescribe(),

		container.Configuration[*AppConfiguration]().
			Bean("Clock").
			Bean("Ticket", container.BeanScope(container.Prototype)).
			MustDescribe(),

		container.Component[*UserController]().Constructor(NewUserController).MustDescribe(),
		container.Component[*SessionController]().Constructor(NewSessionController).MustDescribe(),
		container.Component[*OrderController]().Constructor(NewOrderController).MustDescribe(),
		container.Component[*MailController]().Constructor(NewMailController).MustDescribe(),
	}
}
