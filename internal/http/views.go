package http

import (
	"time"

	"ledger/internal/core"
)

type categoryView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type transactionView struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon"`
	CategoryID   *int64    `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	Amount       string    `json:"amount"`
	Date         core.Date `json:"date"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type recentView struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profileId"`
	Icon      string    `json:"icon"`
	Name      string    `json:"name"`
	Amount    string    `json:"amount"`
	Date      core.Date `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Type      string    `json:"type"`
}

func newCategoryView(c core.Category) categoryView {
	return categoryView{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		Icon:      c.Icon,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func newCategoryViews(cats []core.Category) []categoryView {
	views := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		views = append(views, newCategoryView(c))
	}
	return views
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:           t.ID,
		Name:         t.Name,
		Icon:         t.Icon,
		CategoryID:   t.CategoryID,
		CategoryName: t.DisplayCategory(),
		Amount:       core.FormatAmount(t.Amount),
		Date:         t.Date,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func newTransactionViews(ts []core.Transaction) []transactionView {
	views := make([]transactionView, 0, len(ts))
	for _, t := range ts {
		views = append(views, newTransactionView(t))
	}
	return views
}

func newRecentViews(rs []core.RecentTransaction) []recentView {
	views := make([]recentView, 0, len(rs))
	for _, r := range rs {
		views = append(views, recentView{
			ID:        r.ID,
			ProfileID: int64(r.UserID),
			Icon:      r.Icon,
			Name:      r.Name,
			Amount:    core.FormatAmount(r.Amount),
			Date:      r.Date,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
			Type:      string(r.Type),
		})
	}
	return views
}

// pluralKey is the data key for lists of kind, e.g. "expenses".
func pluralKey(kind core.TransactionType) string {
	return string(kind) + "s"
}
