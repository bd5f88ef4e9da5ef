package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
)

func TestWriter_AppendEvent(t *testing.T) {
	w := New()
	ts := time.Date(2024, 1, 20, 15, 30, 0, 0, time.UTC)

	ref, err := w.AppendEvent(context.Background(), &amqp.LedgerEvent{
		Action: amqp.ActionCreated, Kind: "expense", ID: 7, UserID: 3,
		Name: "Coffee", Amount: decimal.RequireFromString("3.5"), Date: "2024-01-20", Timestamp: ts,
	})
	require.NoError(t, err)
	assert.Equal(t, "memory!A2:H2", ref)

	ref, err = w.AppendEvent(context.Background(), &amqp.LedgerEvent{
		Action: amqp.ActionDeleted, Kind: amqp.KindCategory, ID: 4, UserID: 3, Name: "Food", Timestamp: ts,
	})
	require.NoError(t, err)
	assert.Equal(t, "memory!A3:H3", ref)

	rows := w.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-01-20T15:30:00Z", "created", "expense", "7", "3", "Coffee", "3.50", "2024-01-20"}, rows[0])
	assert.Equal(t, []string{"2024-01-20T15:30:00Z", "deleted", "category", "4", "3", "Food", "", ""}, rows[1])

	_, err = w.AppendEvent(context.Background(), nil)
	assert.Error(t, err)
}
