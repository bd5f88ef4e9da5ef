package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/sheets/memory"
)

type failingWriter struct{ calls int }

func (f *failingWriter) AppendEvent(context.Context, *amqp.LedgerEvent) (string, error) {
	f.calls++
	return "", errors.New("quota exceeded")
}

// fakeConsumer replays events through the handler and records the outcome.
type fakeConsumer struct {
	events  []*amqp.LedgerEvent
	results []error
}

func (f *fakeConsumer) ConsumeWithReconnect(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	for _, e := range f.events {
		f.results = append(f.results, handler(ctx, e))
	}
	return context.Canceled
}

func event(id int64, action string) *amqp.LedgerEvent {
	return &amqp.LedgerEvent{
		Action: action, Kind: "expense", ID: id, UserID: 1, Name: "Coffee",
		Amount: decimal.RequireFromString("3.5"), Date: "2024-01-20",
		Timestamp: time.Date(2024, 1, 20, 15, 30, 0, 0, time.UTC),
	}
}

func TestExportWorker_Run(t *testing.T) {
	writer := memory.New()
	w := NewExportWorker(writer, nil)
	consumer := &fakeConsumer{events: []*amqp.LedgerEvent{
		event(1, amqp.ActionCreated),
		event(1, amqp.ActionCreated),
		event(1, amqp.ActionDeleted),
	}}

	err := w.Run(context.Background(), consumer)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []error{nil, nil, nil}, consumer.results)

	rows := writer.Rows()
	require.Len(t, rows, 2, "redelivered event is written once")
	assert.Equal(t, "created", rows[0][1])
	assert.Equal(t, "deleted", rows[1][1])
}

func TestExportWorker_WriterFailureRequestsRedelivery(t *testing.T) {
	writer := &failingWriter{}
	w := NewExportWorker(writer, nil)

	err := w.HandleLedgerEvent(context.Background(), event(2, amqp.ActionCreated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	err = w.HandleLedgerEvent(context.Background(), event(2, amqp.ActionCreated))
	require.Error(t, err, "failed events are not remembered")
	assert.Equal(t, 2, writer.calls)
}

func TestExportWorker_RecentIsBounded(t *testing.T) {
	w := NewExportWorker(memory.New(), nil)
	for i := 0; i < recentCapacity+10; i++ {
		require.NoError(t, w.HandleLedgerEvent(context.Background(), event(int64(i+1), amqp.ActionCreated)))
	}
	assert.Equal(t, recentCapacity, w.recent.Len())
	_, ok := w.recent.Get(eventKey(event(1, amqp.ActionCreated)))
	assert.False(t, ok, "oldest entry evicted")
	ref, ok := w.recent.Get(eventKey(event(recentCapacity+10, amqp.ActionCreated)))
	assert.True(t, ok)
	assert.NotEmpty(t, ref)
}
