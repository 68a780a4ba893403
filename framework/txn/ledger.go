// Package txn provides the transaction contract used by transactional
// methods and an in-memory ledger that stages writes until commit.
package txn

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoTransaction = errors.New("txn: no active transaction")
	ErrTxDone        = errors.New("txn: transaction already finished")
	ErrRollbackOnly  = errors.New("txn: transaction was rolled back by a participant")
)

// Tx is one open transaction.
type Tx interface {
	ID() string
	Commit() error
	Rollback() error
}

// Manager begins transactions.
type Manager interface {
	Begin() (Tx, error)
}

// Ledger is the process-scoped store behind transactional demo services.
//
// It has at most one open transaction. Begin while one is open joins it, so a
// transactional method may call another one. The transaction finishes when
// its last participant commits or rolls back; a single rollback makes the
// whole transaction roll back.
type Ledger struct {
	mu        sync.Mutex
	active    *ledgerTx
	committed []string
	commits   int
	rollbacks int

	log *zap.Logger
}

// NewLedger returns an empty ledger.
func NewLedger(log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{log: log.Named("ledger")}
}

// Begin implements Manager. It opens a transaction or joins the open one.
func (l *Ledger) Begin() (Tx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		l.active = &ledgerTx{id: uuid.NewString()}
		l.log.Debug("begin", zap.String("tx", l.active.id))
	} else {
		l.log.Debug("join", zap.String("tx", l.active.id), zap.Int("participants", l.active.open+1))
	}
	l.active.open++
	return &participant{ledger: l, tx: l.active}, nil
}

// Save stages record in the open transaction.
func (l *Ledger) Save(record string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return ErrNoTransaction
	}
	l.active.pending = append(l.active.pending, record)
	return nil
}

// Committed returns every committed record, oldest first.
func (l *Ledger) Committed() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.committed)
}

// Stats returns how many transactions were committed and rolled back.
func (l *Ledger) Stats() (commits, rollbacks int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commits, l.rollbacks
}

// Reset is the teardown hook: it drops committed data and counters. It must
// not be called while a transaction is open.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed, l.commits, l.rollbacks = nil, 0, 0
}

// leave closes p's share of its transaction and finishes the transaction
// when p was the last participant.
func (l *Ledger) leave(p *participant, commit bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p.done {
		return ErrTxDone
	}
	p.done = true
	tx := p.tx
	if !commit {
		tx.rollbackOnly = true
	}
	tx.open--
	if tx.open > 0 {
		return nil
	}

	l.active = nil
	staged := len(tx.pending)
	if tx.rollbackOnly {
		l.rollbacks++
		tx.pending = nil
		l.log.Debug("rollback", zap.String("tx", tx.id), zap.Int("discarded", staged))
		if commit {
			return ErrRollbackOnly
		}
		return nil
	}
	l.committed = append(l.committed, tx.pending...)
	l.commits++
	tx.pending = nil
	l.log.Debug("commit", zap.String("tx", tx.id), zap.Int("records", staged))
	return nil
}

type ledgerTx struct {
	id           string
	pending      []string
	open         int
	rollbackOnly bool
}

// participant is one Begin's handle on the shared transaction.
type participant struct {
	ledger *Ledger
	tx     *ledgerTx
	done   bool
}

func (p *participant) ID() string      { return p.tx.id }
func (p *participant) Commit() error   { return p.ledger.leave(p, true) }
func (p *participant) Rollback() error { return p.ledger.leave(p, false) }
