package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// LedgerService is the aggregation engine: balances, recent activity and
// the dashboard snapshot.
type LedgerService struct {
	base
}

func NewLedgerService(st store.Store, opts ...Option) *LedgerService {
	return &LedgerService{base: newBase(st, log.ComponentLedger, opts)}
}

// NetBalance is total income minus total expense; zero when there are no records.
func (s *LedgerService) NetBalance(ctx context.Context, user core.UserID) (decimal.Decimal, error) {
	income, err := s.total(ctx, user, core.Income)
	if err != nil {
		s.logUnexpected(ctx, log.OpRead, user, err)
		return decimal.Zero, err
	}
	expense, err := s.total(ctx, user, core.Expense)
	if err != nil {
		s.logUnexpected(ctx, log.OpRead, user, err)
		return decimal.Zero, err
	}
	return income.Sub(expense), nil
}

// RecentActivity merges the newest limit incomes with the newest limit
// expenses into one list ordered newest first. The result holds up to
// 2*limit records. A non-positive limit means the dashboard default.
func (s *LedgerService) RecentActivity(ctx context.Context, user core.UserID, limit int) ([]core.RecentTransaction, error) {
	if limit <= 0 {
		limit = core.RecentTransactionsLimit
	}
	incomes, err := s.latest(ctx, user, core.Income, limit)
	if err != nil {
		s.logUnexpected(ctx, log.OpRead, user, err)
		return nil, err
	}
	expenses, err := s.latest(ctx, user, core.Expense, limit)
	if err != nil {
		s.logUnexpected(ctx, log.OpRead, user, err)
		return nil, err
	}
	return core.MergeRecent(incomes, expenses), nil
}

// Dashboard reads totals and recent records concurrently and assembles the
// snapshot. The first failure cancels the remaining reads.
func (s *LedgerService) Dashboard(ctx context.Context, user core.UserID) (core.Dashboard, error) {
	var (
		dash                core.Dashboard
		income, expense     decimal.Decimal
		recentIn, recentOut []core.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		income, err = s.total(gctx, user, core.Income)
		return err
	})
	g.Go(func() (err error) {
		expense, err = s.total(gctx, user, core.Expense)
		return err
	})
	g.Go(func() (err error) {
		recentIn, err = s.latest(gctx, user, core.Income, core.RecentTransactionsLimit)
		return err
	})
	g.Go(func() (err error) {
		recentOut, err = s.latest(gctx, user, core.Expense, core.RecentTransactionsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		cause := err
		var de *core.Error
		if errors.As(err, &de) && de.Err != nil {
			cause = de.Err
		}
		err = core.Unexpected("Failed to get dashboard data", cause)
		s.logUnexpected(ctx, log.OpDashboard, user, err)
		return core.Dashboard{}, err
	}

	dash.TotalIncome = income
	dash.TotalExpense = expense
	dash.NetBalance = income.Sub(expense)
	dash.RecentIncomes = recentIn
	dash.RecentExpenses = recentOut
	dash.RecentMerged = core.MergeRecent(recentIn, recentOut)
	return dash, nil
}

func (s *LedgerService) total(ctx context.Context, user core.UserID, kind core.TransactionType) (decimal.Decimal, error) {
	sum, err := s.store.Transactions(kind).SumAmount(ctx, user)
	if err != nil {
		return decimal.Zero, core.Unexpected("Failed to get total "+string(kind)+"s", err)
	}
	return sum, nil
}

func (s *LedgerService) latest(ctx context.Context, user core.UserID, kind core.TransactionType, n int) ([]core.Transaction, error) {
	records, err := s.store.Transactions(kind).FindTopNByDateDesc(ctx, user, n)
	if err != nil {
		return nil, core.Unexpected("Failed to get latest "+string(kind)+"s", err)
	}
	return records, nil
}
