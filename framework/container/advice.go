package container

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-tinyioc/framework/async"
	"github.com/km-arc/go-tinyioc/framework/security"
	"github.com/km-arc/go-tinyioc/framework/txn"
)

func callFields(inv Invocation) []zap.Field {
	return []zap.Field{zap.String("bean", inv.Bean), zap.String("method", inv.Method)}
}

// ── Logging ───────────────────────────────────────────────────────────────────

type loggingAdvice struct {
	log *zap.Logger
}

func (a loggingAdvice) Around(inv Invocation, proceed func() error) error {
	a.log.Info("before call", append(callFields(inv), zap.Any("args", inv.Args))...)
	if err := proceed(); err != nil {
		a.log.Error("call failed", append(callFields(inv), zap.Error(err))...)
		return err
	}
	a.log.Info("after call", callFields(inv)...)
	return nil
}

// ── Transactional ─────────────────────────────────────────────────────────────

type transactionalAdvice struct {
	tm  txn.Manager
	log *zap.Logger
}

func (a transactionalAdvice) Around(inv Invocation, proceed func() error) error {
	tx, err := a.tm.Begin()
	if err != nil {
		return fmt.Errorf("container: begin transaction for %s.%s: %w", inv.Bean, inv.Method, err)
	}
	fields := append(callFields(inv), zap.String("tx", tx.ID()))
	a.log.Debug("transaction begun", fields...)

	defer func() {
		if r := recover(); r != nil {
			a.rollback(tx, fields)
			panic(r)
		}
	}()

	if err := proceed(); err != nil {
		a.rollback(tx, fields)
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("container: commit %s for %s.%s: %w", tx.ID(), inv.Bean, inv.Method, err)
	}
	a.log.Debug("transaction committed", fields...)
	return nil
}

func (a transactionalAdvice) rollback(tx txn.Tx, fields []zap.Field) {
	if err := tx.Rollback(); err != nil {
		a.log.Error("rollback failed", append(fields, zap.Error(err))...)
		return
	}
	a.log.Info("transaction rolled back", fields...)
}

// ── Async ─────────────────────────────────────────────────────────────────────

type asyncAdvice struct {
	pool async.Dispatcher
	log  *zap.Logger
}

// Around hands proceed to the pool and returns nil at once. The deferred
// call's failures only reach the log.
func (a asyncAdvice) Around(inv Invocation, proceed func() error) error {
	fields := append(callFields(inv), zap.String("task", uuid.NewString()))
	err := a.pool.Submit(func() {
		if err := proceed(); err != nil {
			a.log.Error("async call failed", append(fields, zap.Error(err))...)
			return
		}
		a.log.Debug("async call done", fields...)
	})
	if err != nil {
		a.log.Error("async dispatch rejected", append(fields, zap.Error(err))...)
	}
	return nil
}

// ── Secured ───────────────────────────────────────────────────────────────────

type securedAdvice struct {
	session security.Session
	log     *zap.Logger
}

func (a securedAdvice) Around(inv Invocation, proceed func() error) error {
	denied := &AuthorizationDeniedError{Bean: inv.Bean, Method: inv.Method, Required: inv.Tag.Role}
	user, ok := a.session.CurrentUser()
	if !ok {
		a.log.Warn("access denied: not logged in", callFields(inv)...)
		return denied
	}
	role, _ := a.session.CurrentRole()
	if !security.Allows(role, inv.Tag.Role) {
		denied.User, denied.Role = user, role
		a.log.Warn("access denied", append(callFields(inv), zap.String("user", user), zap.String("role", role))...)
		return denied
	}
	return proceed()
}
