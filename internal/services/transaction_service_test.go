package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"ledger/internal/core"
	"ledger/internal/filter"
	"ledger/internal/store/memory"
)

type TransactionServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	publisher *recordingPublisher
	svc       *TransactionService
	food      core.Category
	salary    core.Category
}

func TestTransactionServiceSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceSuite))
}

func (s *TransactionServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.publisher = &recordingPublisher{}
	s.svc = NewTransactionService(s.store, WithClock(fixedClock), WithPublisher(s.publisher))

	var err error
	s.food, err = s.store.Categories().Save(s.ctx, core.Category{UserID: 1, Name: "Food", Type: core.Expense})
	s.Require().NoError(err)
	s.salary, err = s.store.Categories().Save(s.ctx, core.Category{UserID: 1, Name: "Job", Type: core.Income})
	s.Require().NoError(err)
}

func (s *TransactionServiceSuite) add(user core.UserID, kind core.TransactionType, cat core.Category, name, amt string, date core.Date) core.Transaction {
	t, err := s.svc.Add(s.ctx, user, kind, &core.NewTransaction{Name: name, CategoryID: &cat.ID, Amount: amount(amt), Date: date})
	s.Require().NoError(err)
	return t
}

func (s *TransactionServiceSuite) TestAddStoresAndPublishes() {
	t := s.add(1, core.Expense, s.food, "Coffee", "3.50", core.NewDate(2024, 1, 5))

	s.NotZero(t.ID)
	s.Equal(core.Expense, t.Kind)
	s.Equal("Food", t.CategoryName)
	s.True(t.CreatedAt.Equal(fixedNow))
	s.Equal([]string{"expense:created"}, s.publisher.actions())
}

func (s *TransactionServiceSuite) TestAddDefaultsDateToToday() {
	t, err := s.svc.Add(s.ctx, 1, core.Expense, &core.NewTransaction{Name: "Lunch", CategoryID: &s.food.ID, Amount: amount("12")})
	s.Require().NoError(err)
	s.Equal("2024-01-20", t.Date.String())
}

func (s *TransactionServiceSuite) TestAddAmountBoundary() {
	_, err := s.svc.Add(s.ctx, 1, core.Expense, &core.NewTransaction{Name: "Free", CategoryID: &s.food.ID, Amount: amount("0")})
	s.Equal(core.KindValidation, core.KindOf(err))
	s.Equal("Expense amount must be greater than zero", core.MessageOf(err))

	_, err = s.svc.Add(s.ctx, 1, core.Income, &core.NewTransaction{Name: "Refund", CategoryID: &s.salary.ID, Amount: amount("-1")})
	s.Equal("Income amount must be greater than zero", core.MessageOf(err))

	s.add(1, core.Expense, s.food, "Candy", "0.01", core.Date{})
}

func (s *TransactionServiceSuite) TestAddRejectsForeignOrMissingCategory() {
	other, err := s.store.Categories().Save(s.ctx, core.Category{UserID: 2, Name: "Theirs", Type: core.Expense})
	s.Require().NoError(err)

	_, err = s.svc.Add(s.ctx, 1, core.Expense, &core.NewTransaction{Name: "x", CategoryID: &other.ID, Amount: amount("1")})
	s.Equal(core.KindNotFound, core.KindOf(err))
	s.Equal("Category not found", core.MessageOf(err))

	missing := int64(999)
	_, err = s.svc.Add(s.ctx, 1, core.Expense, &core.NewTransaction{Name: "x", CategoryID: &missing, Amount: amount("1")})
	s.Equal(core.KindNotFound, core.KindOf(err))
	s.Empty(s.publisher.actions())
}

func (s *TransactionServiceSuite) TestAddSurvivesPublisherFailure() {
	s.publisher.err = errors.New("broker down")
	t := s.add(1, core.Expense, s.food, "Coffee", "3.50", core.NewDate(2024, 1, 5))
	s.NotZero(t.ID)
}

func (s *TransactionServiceSuite) TestDeleteOwnership() {
	t := s.add(1, core.Expense, s.food, "Coffee", "3.50", core.NewDate(2024, 1, 5))

	err := s.svc.Delete(s.ctx, 2, core.Expense, t.ID)
	s.Equal(core.KindAuthorization, core.KindOf(err))
	s.Equal("Unauthorized to delete this expense", core.MessageOf(err))

	still, err := s.store.Transactions(core.Expense).FindByID(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal("Coffee", still.Name)

	s.Require().NoError(s.svc.Delete(s.ctx, 1, core.Expense, t.ID))
	err = s.svc.Delete(s.ctx, 1, core.Expense, t.ID)
	s.Equal(core.KindNotFound, core.KindOf(err))
	s.Equal("Expense not found", core.MessageOf(err))
	s.Equal([]string{"expense:created", "expense:deleted"}, s.publisher.actions())
}

func (s *TransactionServiceSuite) TestDeleteLooksInTheRightKind() {
	t := s.add(1, core.Income, s.salary, "Salary", "5000.00", core.NewDate(2024, 1, 1))
	err := s.svc.Delete(s.ctx, 1, core.Expense, t.ID)
	s.Equal(core.KindNotFound, core.KindOf(err))
}

func (s *TransactionServiceSuite) TestCurrentMonthAndOnDate() {
	s.add(1, core.Expense, s.food, "Old", "1", core.NewDate(2023, 12, 31))
	s.add(1, core.Expense, s.food, "First", "1", core.NewDate(2024, 1, 1))
	s.add(1, core.Expense, s.food, "Last", "1", core.NewDate(2024, 1, 31))

	month, err := s.svc.CurrentMonth(s.ctx, 1, core.Expense)
	s.Require().NoError(err)
	s.Len(month, 2)

	day, err := s.svc.OnDate(s.ctx, 1, core.Expense, core.NewDate(2023, 12, 31))
	s.Require().NoError(err)
	s.Require().Len(day, 1)
	s.Equal("Old", day[0].Name)
}

func (s *TransactionServiceSuite) TestFilterDefaults() {
	s.add(1, core.Expense, s.food, "Coffee", "3.50", core.NewDate(2024, 1, 5))
	s.add(1, core.Expense, s.food, "Rent", "1200.00", core.NewDate(2024, 1, 1))
	s.add(1, core.Expense, s.food, "Future", "1", core.NewDate(2024, 2, 1))
	s.add(1, core.Income, s.salary, "Salary", "5000.00", core.NewDate(2024, 1, 1))

	kind, got, err := s.svc.Filter(s.ctx, 1, filter.Request{Type: "expense"})
	s.Require().NoError(err)
	s.Equal(core.Expense, kind)
	s.Require().Len(got, 2)
	s.Equal("Rent", got[0].Name)
	s.Equal("Coffee", got[1].Name)
}

func (s *TransactionServiceSuite) TestFilterKeyword() {
	s.add(1, core.Expense, s.food, "Coffee", "3.50", core.NewDate(2024, 1, 5))
	s.add(1, core.Expense, s.food, "Rent", "1200.00", core.NewDate(2024, 1, 1))

	kw := "co"
	_, got, err := s.svc.Filter(s.ctx, 1, filter.Request{Type: "expense", Keyword: &kw})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Coffee", got[0].Name)
}

func (s *TransactionServiceSuite) TestFilterInvertedRangeIsEmpty() {
	s.add(1, core.Expense, s.food, "Coffee", "3.50", core.NewDate(2024, 1, 5))
	start, end := core.NewDate(2024, 1, 10), core.NewDate(2024, 1, 1)

	_, got, err := s.svc.Filter(s.ctx, 1, filter.Request{Type: "expense", StartDate: &start, EndDate: &end})
	s.Require().NoError(err)
	s.Empty(got)
}

func TestFilterRejectsTypeBeforeStoreAccess(t *testing.T) {
	st := &brokenStore{Store: memory.New()}
	svc := NewTransactionService(st, WithClock(fixedClock))

	for _, typ := range []string{"", "gift"} {
		_, _, err := svc.Filter(context.Background(), 1, filter.Request{Type: typ})
		require.Error(t, err)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
		assert.Equal(t, filter.InvalidTypeMessage, core.MessageOf(err))
	}
	assert.Zero(t, st.calls)
}

func TestFilterWrapsStoreFailure(t *testing.T) {
	svc := NewTransactionService(&brokenStore{Store: memory.New()}, WithClock(fixedClock))

	_, _, err := svc.Filter(context.Background(), 1, filter.Request{Type: "income"})
	assert.Equal(t, core.KindUnexpected, core.KindOf(err))
	assert.Equal(t, "Failed to filter incomes", core.MessageOf(err))
	assert.ErrorIs(t, err, errDisk)
}

func TestAddWrapsStoreFailure(t *testing.T) {
	st := &brokenStore{Store: memory.New()}
	cat, err := st.Categories().Save(context.Background(), core.Category{UserID: 1, Name: "Food", Type: core.Expense})
	require.NoError(t, err)
	svc := NewTransactionService(st, WithClock(fixedClock))

	_, err = svc.Add(context.Background(), 1, core.Expense, &core.NewTransaction{Name: "x", CategoryID: &cat.ID, Amount: amount("1")})
	assert.Equal(t, core.KindUnexpected, core.KindOf(err))
	assert.Equal(t, "Failed to add expense", core.MessageOf(err))
}
