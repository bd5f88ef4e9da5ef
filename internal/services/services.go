// Package services holds the ledger's business operations: recording and
// removing incomes and expenses, managing categories, filtering, and the
// aggregation engine behind the dashboard. Every operation takes the acting
// user explicitly and re-reads the store; nothing is cached between calls.
package services

import (
	"context"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// Publisher receives ledger events after a change is committed.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// Option configures a service.
type Option func(*base)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithPublisher enables best-effort event publication.
func WithPublisher(p Publisher) Option {
	return func(b *base) { b.publisher = p }
}

// WithLogger sets the service logger. The component is overridden per service.
func WithLogger(l *log.Logger) Option {
	return func(b *base) { b.logger = l }
}

type base struct {
	store     store.Store
	publisher Publisher
	now       func() time.Time
	logger    *log.Logger
}

func newBase(st store.Store, component string, opts []Option) base {
	b := base{store: st, now: time.Now, logger: log.Nop()}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.WithComponent(component)
	return b
}

// today is the server's current calendar date.
func (b *base) today() core.Date {
	return core.DateOf(b.now())
}

// publish never fails the caller; the change is already committed.
func (b *base) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if b.publisher == nil {
		b.logger.DebugContext(ctx, "AMQP publisher not available, skipping ledger event",
			log.FieldOperation, log.OpPublish, log.FieldKind, event.Kind)
		return
	}
	if err := b.publisher.PublishLedgerEvent(ctx, event); err != nil {
		b.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldKind, event.Kind,
			log.FieldRecordID, event.ID,
			log.FieldError, err)
	}
}

// logUnexpected records failures that surface as internal errors.
func (b *base) logUnexpected(ctx context.Context, op string, user core.UserID, err error) {
	if core.KindOf(err) != core.KindUnexpected {
		return
	}
	b.logger.ErrorContext(ctx, "Ledger operation failed",
		log.FieldOperation, op,
		log.FieldUserID, int64(user),
		log.FieldError, err)
}
