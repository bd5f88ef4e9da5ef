package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// KindCategory marks events about categories; transaction events carry
// "income" or "expense".
const KindCategory = "category"

// LedgerEvent describes one committed change to a user's ledger. Amount and
// Date are empty for category events and for deletions.
type LedgerEvent struct {
	Action    string          `json:"action"`
	Kind      string          `json:"kind"`
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	Name      string          `json:"name,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewTransactionEvent builds an event from a stored income or expense.
func NewTransactionEvent(action string, t core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Action:    action,
		Kind:      string(t.Kind),
		ID:        t.ID,
		UserID:    int64(t.UserID),
		Name:      t.Name,
		Amount:    t.Amount,
		Date:      t.Date.String(),
		Timestamp: time.Now().UTC(),
	}
}

// NewCategoryEvent builds an event from a stored category.
func NewCategoryEvent(action string, c core.Category) *LedgerEvent {
	return &LedgerEvent{
		Action:    action,
		Kind:      KindCategory,
		ID:        c.ID,
		UserID:    int64(c.UserID),
		Name:      c.Name,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity checks an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", e.Action)
	}
	if e.ID <= 0 {
		return nil, fmt.Errorf("invalid id %d", e.ID)
	}
	return &e, nil
}
