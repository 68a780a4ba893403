package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/go-tinyioc/framework/container"
	gohttp "github.com/km-arc/go-tinyioc/framework/http"
	"github.com/km-arc/go-tinyioc/framework/security"
	"github.com/km-arc/go-tinyioc/framework/txn"
	"github.com/km-arc/go-tinyioc/routing"
)

// ── Users ─────────────────────────────────────────────────────────────────────

type UserController struct {
	users UserService
	admin AdminService
}

func NewUserController(users UserService, admin AdminService) *UserController {
	return &UserController{users: users, admin: admin}
}

func (c *UserController) Routes(r *routing.Router) {
	r.Post("/users", c.store)
	r.Get("/users/{id}", c.show)
	r.Group(func(admin *routing.Router) {
		admin.Middleware(middleware.NoCache)
		admin.Delete("/users/{id}", c.destroy)
		admin.Get("/notice", c.notice)
	})
}

func (c *UserController) store(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	var body struct {
		Name string `json:"name"`
	}
	if err := req.Bind(&body); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	u, err := c.users.Register(body.Name)
	if errors.Is(err, ErrInvalidName) {
		res.Error(http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		res.Fail(err)
		return
	}
	res.Created(u)
}

func (c *UserController) show(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	u, err := c.users.Find(req.RouteParam("id"))
	if errors.Is(err, ErrUserNotFound) {
		res.NotFound()
		return
	}
	if err != nil {
		res.Fail(err)
		return
	}
	res.Success(u)
}

func (c *UserController) destroy(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	err := c.admin.DeleteUser(req.RouteParam("id"))
	if errors.Is(err, ErrUserNotFound) {
		res.NotFound()
		return
	}
	if err != nil {
		res.Fail(err)
		return
	}
	res.Success(map[string]any{"deleted": true})
}

func (c *UserController) notice(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	n, err := c.admin.Notice()
	if err != nil {
		res.Fail(err)
		return
	}
	res.Success(map[string]any{"notice": n})
}

// ── Session ───────────────────────────────────────────────────────────────────

type SessionController struct {
	session *security.MemorySession
}

func NewSessionController(session *security.MemorySession) *SessionController {
	return &SessionController{session: session}
}

func (c *SessionController) Routes(r *routing.Router) {
	r.Prefix("/session", func(s *routing.Router) {
		s.Post("/login", c.login)
		s.Post("/logout", c.logout)
		s.Get("/me", c.me)
	})
}

func (c *SessionController) login(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	var body struct {
		User string `json:"user"`
		Role string `json:"role"`
	}
	if err := req.Bind(&body); err != nil && !errors.Is(err, gohttp.ErrEmptyBody) {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	// "Authorization: Bearer <user>" logs in with the default role.
	if body.User == "" {
		body.User = req.BearerToken()
	}
	if err := c.session.Login(body.User, body.Role); err != nil {
		res.Error(http.StatusUnprocessableEntity, err.Error())
		return
	}
	role, _ := c.session.CurrentRole()
	res.Success(map[string]any{"user": body.User, "role": role})
}

func (c *SessionController) logout(w http.ResponseWriter, _ *http.Request) {
	c.session.Logout()
	gohttp.NewResponse(w).Success(map[string]any{"logged_out": true})
}

func (c *SessionController) me(w http.ResponseWriter, _ *http.Request) {
	res := gohttp.NewResponse(w)
	user, ok := c.session.CurrentUser()
	if !ok {
		res.Unauthorized()
		return
	}
	role, _ := c.session.CurrentRole()
	res.Success(map[string]any{"user": user, "role": role})
}

// ── Orders ────────────────────────────────────────────────────────────────────

type OrderController struct {
	orders OrderService
	ledger *txn.Ledger
	beans  *container.Container
}

func NewOrderController(orders OrderService, ledger *txn.Ledger, beans *container.Container) *OrderController {
	return &OrderController{orders: orders, ledger: ledger, beans: beans}
}

func (c *OrderController) Routes(r *routing.Router) {
	r.Post("/orders", c.store)
	r.Get("/orders", c.index)
}

func (c *OrderController) store(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	var body struct {
		Item string `json:"item"`
		Qty  int    `json:"qty"`
	}
	if err := req.Bind(&body); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	ticket, err := container.Bean[*Ticket](c.beans, "ticket")
	if err != nil {
		res.Fail(err)
		return
	}
	if err := c.orders.PlaceOrder(body.Item, body.Qty); err != nil {
		if errors.Is(err, ErrInvalidQuantity) {
			res.Error(http.StatusUnprocessableEntity, err.Error())
			return
		}
		res.Fail(err)
		return
	}
	res.Created(map[string]any{"ticket": ticket, "item": body.Item, "qty": body.Qty})
}

// index lists committed ledger records, optionally only those of ?item=.
func (c *OrderController) index(w http.ResponseWriter, r *http.Request) {
	item := gohttp.NewRequest(r).Input("item")
	records := c.ledger.Committed()
	if item != "" {
		kept := make([]string, 0, len(records))
		for _, rec := range records {
			if parts := strings.Split(rec, ":"); len(parts) > 1 && parts[1] == item {
				kept = append(kept, rec)
			}
		}
		records = kept
	}
	gohttp.NewResponse(w).Success(records)
}

// ── Mail ──────────────────────────────────────────────────────────────────────

type MailController struct {
	mail Mailer
}

func NewMailController(mail Mailer) *MailController {
	return &MailController{mail: mail}
}

func (c *MailController) Routes(r *routing.Router) {
	r.Post("/mail", c.send)
}

func (c *MailController) send(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	var body struct {
		To   string `json:"to"`
		Body string `json:"body"`
	}
	if err := req.Bind(&body); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	_ = c.mail.Send(body.To, body.Body)
	res.Accepted(map[string]any{"queued": body.To})
}
