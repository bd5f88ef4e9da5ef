package memory

import (
	"context"
	"fmt"
	"sync"

	"ledger/internal/amqp"
	"ledger/internal/sheets"
)

// Writer keeps audit rows in memory. The worker uses it when no spreadsheet
// is configured, and tests use it to inspect what would have been written.
type Writer struct {
	mu   sync.Mutex
	rows [][]string
}

var _ sheets.EventWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// AppendEvent stores the row and returns a synthetic A1 reference. Row 1 is
// reserved for the header, as in the real sheet.
func (w *Writer) AppendEvent(_ context.Context, event *amqp.LedgerEvent) (string, error) {
	if event == nil {
		return "", fmt.Errorf("nil ledger event")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, sheets.EventRow(event))
	row := len(w.rows) + 1
	return fmt.Sprintf("memory!A%d:H%d", row, row), nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() [][]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]string, len(w.rows))
	for i, r := range w.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
