package app

import (
	"errors"
	"fmt"

	"github.com/km-arc/go-tinyioc/framework/container"
	"github.com/km-arc/go-tinyioc/framework/txn"
)

var ErrInvalidQuantity = errors.New("app: quantity must be positive")

// OrderService places orders. PlaceOrder runs in a transaction.
type OrderService interface {
	PlaceOrder(item string, qty int) error
}

// LedgerOrderService stages an order line and a stock movement in the ledger.
// A bad quantity is only detected after the first write, so a failed order
// must leave nothing behind.
type LedgerOrderService struct {
	ledger *txn.Ledger
}

func NewOrderService(ledger *txn.Ledger) *LedgerOrderService {
	return &LedgerOrderService{ledger: ledger}
}

func (s *LedgerOrderService) PlaceOrder(item string, qty int) error {
	if err := s.ledger.Save(fmt.Sprintf("order:%s", item)); err != nil {
		return err
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return s.ledger.Save(fmt.Sprintf("stock:%s:-%d", item, qty))
}

type orderServiceProxy struct {
	target OrderService
	inv    *container.Invoker
}

func proxyOrderService(target any, inv *container.Invoker) any {
	return &orderServiceProxy{target: target.(OrderService), inv: inv}
}

func (p *orderServiceProxy) PlaceOrder(item string, qty int) error {
	return p.inv.Invoke("PlaceOrder", []any{item, qty}, func() error {
		return p.target.PlaceOrder(item, qty)
	})
}
