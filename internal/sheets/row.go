package sheets

import (
	"strconv"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
)

// EventRow renders event in Header order. Amounts are left blank for
// category events and keep at least two decimals otherwise.
func EventRow(event *amqp.LedgerEvent) []string {
	amount := ""
	if event.Kind != amqp.KindCategory {
		amount = core.FormatAmount(event.Amount)
	}
	return []string{
		event.Timestamp.UTC().Format(time.RFC3339),
		event.Action,
		event.Kind,
		strconv.FormatInt(event.ID, 10),
		strconv.FormatInt(event.UserID, 10),
		event.Name,
		amount,
		event.Date,
	}
}
