package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/store/memory"
)

func seed(t *testing.T, st *memory.Store, user core.UserID, kind core.TransactionType, name, amt string, date core.Date, created time.Time) {
	t.Helper()
	_, err := st.Transactions(kind).Save(context.Background(), core.Transaction{
		UserID: user, Name: name, Amount: amount(amt), Date: date, CreatedAt: created, UpdatedAt: created,
	})
	require.NoError(t, err)
}

func TestNetBalanceExample(t *testing.T) {
	st := memory.New()
	seed(t, st, 1, core.Expense, "Coffee", "3.50", core.NewDate(2024, 1, 5), fixedNow)
	seed(t, st, 1, core.Expense, "Rent", "1200.00", core.NewDate(2024, 1, 1), fixedNow)
	seed(t, st, 1, core.Income, "Salary", "5000.00", core.NewDate(2024, 1, 1), fixedNow)
	seed(t, st, 2, core.Income, "Someone else", "99", core.NewDate(2024, 1, 1), fixedNow)

	svc := NewLedgerService(st)
	got, err := svc.NetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "3796.50", core.FormatAmount(got))
}

func TestNetBalanceEmpty(t *testing.T) {
	got, err := NewLedgerService(memory.New()).NetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestRecentActivityBoundsAndOrder(t *testing.T) {
	st := memory.New()
	for i := 1; i <= 8; i++ {
		seed(t, st, 1, core.Income, fmt.Sprintf("in-%d", i), "10", core.NewDate(2024, 1, i), fixedNow.Add(time.Duration(i)*time.Minute))
		seed(t, st, 1, core.Expense, fmt.Sprintf("out-%d", i), "1", core.NewDate(2024, 1, i*2), fixedNow)
	}
	svc := NewLedgerService(st)

	recent, err := svc.RecentActivity(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, recent, 10)

	counts := map[core.TransactionType]int{}
	for i, r := range recent {
		counts[r.Type]++
		if i == 0 {
			continue
		}
		prev := recent[i-1]
		assert.False(t, r.Date.After(prev.Date.Time), "dates must be non-increasing at %d", i)
		if r.Date.Equal(prev.Date.Time) && !r.CreatedAt.IsZero() && !prev.CreatedAt.IsZero() {
			assert.False(t, r.CreatedAt.After(prev.CreatedAt), "createdAt must be non-increasing at %d", i)
		}
	}
	assert.Equal(t, 5, counts[core.Income])
	assert.Equal(t, 5, counts[core.Expense])
	assert.Equal(t, "out-8", recent[0].Name)
}

func TestRecentActivityDefaultsLimit(t *testing.T) {
	st := memory.New()
	for i := 1; i <= 7; i++ {
		seed(t, st, 1, core.Expense, "e", "1", core.NewDate(2024, 1, i), fixedNow)
	}
	recent, err := NewLedgerService(st).RecentActivity(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, recent, core.RecentTransactionsLimit)
}

func TestDashboard(t *testing.T) {
	st := memory.New()
	seed(t, st, 1, core.Expense, "Coffee", "3.50", core.NewDate(2024, 1, 5), fixedNow)
	seed(t, st, 1, core.Expense, "Rent", "1200.00", core.NewDate(2024, 1, 1), fixedNow)
	seed(t, st, 1, core.Income, "Salary", "5000.00", core.NewDate(2024, 1, 1), fixedNow.Add(time.Hour))

	dash, err := NewLedgerService(st).Dashboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "5000.00", core.FormatAmount(dash.TotalIncome))
	assert.Equal(t, "1203.50", core.FormatAmount(dash.TotalExpense))
	assert.Equal(t, "3796.50", core.FormatAmount(dash.NetBalance))
	assert.Len(t, dash.RecentIncomes, 1)
	assert.Len(t, dash.RecentExpenses, 2)
	require.Len(t, dash.RecentMerged, 3)
	assert.Equal(t, "Coffee", dash.RecentMerged[0].Name)
	// same date: the later-created salary comes first
	assert.Equal(t, "Salary", dash.RecentMerged[1].Name)
	assert.Equal(t, core.Income, dash.RecentMerged[1].Type)
}

func TestDashboardStoreFailure(t *testing.T) {
	svc := NewLedgerService(&brokenStore{Store: memory.New()})

	_, err := svc.Dashboard(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, core.KindUnexpected, core.KindOf(err))
	assert.Equal(t, "Failed to get dashboard data", core.MessageOf(err))
	assert.ErrorIs(t, err, errDisk)

	_, err = svc.NetBalance(context.Background(), 1)
	assert.Equal(t, "Failed to get total incomes", core.MessageOf(err))
}
