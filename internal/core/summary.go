package core

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// RecentTransactionsLimit is how many records of each kind the dashboard shows.
const RecentTransactionsLimit = 5

// RecentTransaction is the merged, kind-tagged projection of an income or
// expense used by the recent activity view.
type RecentTransaction struct {
	ID        int64
	UserID    UserID
	Icon      string
	Name      string
	Amount    decimal.Decimal
	Date      Date
	CreatedAt time.Time
	UpdatedAt time.Time
	Type      TransactionType
}

// Dashboard is a point-in-time snapshot of a user's ledger.
type Dashboard struct {
	NetBalance     decimal.Decimal
	TotalIncome    decimal.Decimal
	TotalExpense   decimal.Decimal
	RecentIncomes  []Transaction
	RecentExpenses []Transaction
	RecentMerged   []RecentTransaction
}

// Recent projects a stored record into the recent activity shape. The tag
// comes from the record's own kind.
func (t Transaction) Recent() RecentTransaction {
	return RecentTransaction{
		ID:        t.ID,
		UserID:    t.UserID,
		Icon:      t.Icon,
		Name:      t.Name,
		Amount:    t.Amount,
		Date:      t.Date,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Type:      t.Kind,
	}
}

// SortRecent orders items newest first by date. On the same date, items
// with a creation time come first, newest first; items without one follow
// in their original relative order.
func SortRecent(items []RecentTransaction) {
	slices.SortStableFunc(items, func(a, b RecentTransaction) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		switch aZero, bZero := a.CreatedAt.IsZero(), b.CreatedAt.IsZero(); {
		case aZero && bZero:
			return 0
		case aZero:
			return 1
		case bZero:
			return -1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// MergeRecent tags and merges the two recent lists and fully re-sorts them.
func MergeRecent(incomes, expenses []Transaction) []RecentTransaction {
	merged := make([]RecentTransaction, 0, len(incomes)+len(expenses))
	for _, t := range incomes {
		merged = append(merged, t.Recent())
	}
	for _, t := range expenses {
		merged = append(merged, t.Recent())
	}
	SortRecent(merged)
	return merged
}
