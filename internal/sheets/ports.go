package sheets

import (
	"context"

	"ledger/internal/amqp"
)

// Header is the first row of the audit sheet. EventRow follows this order.
var Header = []string{"timestamp", "action", "kind", "id", "user", "name", "amount", "date"}

// EventWriter appends one audit row per ledger event.
type EventWriter interface {
	AppendEvent(ctx context.Context, event *amqp.LedgerEvent) (rowRef string, err error)
}
