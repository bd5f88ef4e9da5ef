package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h int) time.Time {
	return time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC)
}

func TestMergeRecentTagsAndSorts(t *testing.T) {
	incomes := []Transaction{
		{ID: 1, Kind: Income, Name: "Salary", Date: NewDate(2024, 1, 1), CreatedAt: at(9)},
	}
	expenses := []Transaction{
		{ID: 2, Kind: Expense, Name: "Coffee", Date: NewDate(2024, 1, 5), CreatedAt: at(8)},
		{ID: 3, Kind: Expense, Name: "Rent", Date: NewDate(2024, 1, 1), CreatedAt: at(10)},
	}

	got := MergeRecent(incomes, expenses)
	require.Len(t, got, 3)

	assert.Equal(t, "Coffee", got[0].Name)
	assert.Equal(t, Expense, got[0].Type)
	// same date: later creation first
	assert.Equal(t, "Rent", got[1].Name)
	assert.Equal(t, "Salary", got[2].Name)
	assert.Equal(t, Income, got[2].Type)
}

func TestSortRecentPlacesMissingCreatedAtLast(t *testing.T) {
	items := []RecentTransaction{
		{ID: 1, Date: NewDate(2024, 1, 1)},
		{ID: 2, Date: NewDate(2024, 1, 1), CreatedAt: at(12)},
		{ID: 3, Date: NewDate(2024, 1, 2)},
	}
	SortRecent(items)

	ids := []int64{items[0].ID, items[1].ID, items[2].ID}
	assert.Equal(t, []int64{3, 2, 1}, ids, "untimestamped items follow timestamped ones on the same date")

	sameDay := []RecentTransaction{
		{ID: 1, Date: NewDate(2024, 1, 1), CreatedAt: at(9)},
		{ID: 2, Date: NewDate(2024, 1, 1)},
		{ID: 3, Date: NewDate(2024, 1, 1), CreatedAt: at(15)},
		{ID: 4, Date: NewDate(2024, 1, 1)},
	}
	SortRecent(sameDay)

	ids = []int64{sameDay[0].ID, sameDay[1].ID, sameDay[2].ID, sameDay[3].ID}
	assert.Equal(t, []int64{3, 1, 2, 4}, ids)
}

func TestSortSpecCompare(t *testing.T) {
	a := Transaction{ID: 1, Name: "b", Date: NewDate(2024, 1, 1)}
	b := Transaction{ID: 2, Name: "a", Date: NewDate(2024, 1, 1)}

	byDate := SortSpec{Field: SortByDate, Direction: Ascending}
	assert.Negative(t, byDate.Compare(a, b), "tie broken by id")

	byNameDesc := SortSpec{Field: SortByName, Direction: Descending}
	assert.Negative(t, byNameDesc.Compare(a, b))
}

func TestParseSortField(t *testing.T) {
	f, ok := ParseSortField("CreatedAt")
	require.True(t, ok)
	assert.Equal(t, SortByCreatedAt, f)

	_, ok = ParseSortField("password")
	assert.False(t, ok)
}

func TestTransactionQueryMatchesFoldsUnicode(t *testing.T) {
	q := TransactionQuery{UserID: 1, Start: MinDate, End: NewDate(2024, 12, 31), Keyword: "café"}
	assert.True(t, q.Matches(Transaction{UserID: 1, Name: "CAFÉ Latte", Date: NewDate(2024, 1, 5)}))
	assert.False(t, q.Matches(Transaction{UserID: 1, Name: "Cafe", Date: NewDate(2024, 1, 5)}))
}
