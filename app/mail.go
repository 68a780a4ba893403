package app

import (
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-tinyioc/framework/container"
)

var ErrNoRecipient = errors.New("app: mail has no recipient")

// Mailer sends mail. Send is dispatched asynchronously.
type Mailer interface {
	Send(to, body string) error
}

// LogMailer "sends" mail by logging it and remembering the recipient.
type LogMailer struct {
	Log *zap.Logger `inject:""`

	mu   sync.Mutex
	sent []string
}

func (m *LogMailer) Send(to, body string) error {
	if to == "" {
		return ErrNoRecipient
	}
	m.Log.Info("mail sent", zap.String("to", to), zap.Int("bytes", len(body)))
	m.mu.Lock()
	m.sent = append(m.sent, to)
	m.mu.Unlock()
	return nil
}

// Sent returns the recipients of delivered mail.
func (m *LogMailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

type mailerProxy struct {
	target Mailer
	inv    *container.Invoker
}

func proxyMailer(target any, inv *container.Invoker) any {
	return &mailerProxy{target: target.(Mailer), inv: inv}
}

func (p *mailerProxy) Send(to, body string) error {
	return p.inv.Invoke("Send", []any{to}, func() error {
		return p.target.Send(to, body)
	})
}
