package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/store"
	"ledger/internal/store/memory"
)

var fixedNow = time.Date(2024, 1, 20, 15, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind+":"+e.Action)
	}
	return out
}

var errDisk = errors.New("disk I/O error")

// brokenStore serves categories from memory but fails transaction reads.
type brokenStore struct {
	*memory.Store
	mu    sync.Mutex
	calls int
}

func (b *brokenStore) Transactions(kind core.TransactionType) store.TransactionStore {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	return brokenTransactions{TransactionStore: b.Store.Transactions(kind)}
}

type brokenTransactions struct {
	store.TransactionStore
}

func (brokenTransactions) SumAmount(context.Context, core.UserID) (decimal.Decimal, error) {
	return decimal.Zero, errDisk
}

func (brokenTransactions) FindTopNByDateDesc(context.Context, core.UserID, int) ([]core.Transaction, error) {
	return nil, errDisk
}

func (brokenTransactions) Search(context.Context, core.TransactionQuery) ([]core.Transaction, error) {
	return nil, errDisk
}

func (brokenTransactions) Save(context.Context, core.Transaction) (core.Transaction, error) {
	return core.Transaction{}, errDisk
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
