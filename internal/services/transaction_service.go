package services

import (
	"context"
	"errors"
	"strings"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/filter"
	"ledger/internal/log"
	"ledger/internal/store"
)

// TransactionService records, removes and lists incomes and expenses. The
// two kinds behave identically; kind selects the store.
type TransactionService struct {
	base
}

func NewTransactionService(st store.Store, opts ...Option) *TransactionService {
	return &TransactionService{base: newBase(st, log.ComponentLedger, opts)}
}

// Add validates and stores a new record. The category must belong to user.
// A missing date means today.
func (s *TransactionService) Add(ctx context.Context, user core.UserID, kind core.TransactionType, in *core.NewTransaction) (core.Transaction, error) {
	if !kind.Valid() {
		return core.Transaction{}, core.Validation(filter.InvalidTypeMessage)
	}
	if err := in.Validate(kind); err != nil {
		return core.Transaction{}, err
	}

	failMsg := "Failed to add " + string(kind)
	if _, err := s.store.Categories().FindByIDForUser(ctx, user, *in.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Transaction{}, core.NotFound("Category not found")
		}
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpCreate, user, err)
		return core.Transaction{}, err
	}

	date := in.Date
	if date.IsEmpty() {
		date = s.today()
	}
	now := s.now().UTC()
	categoryID := *in.CategoryID

	saved, err := s.store.Transactions(kind).Save(ctx, core.Transaction{
		UserID:     user,
		Kind:       kind,
		CategoryID: &categoryID,
		Name:       strings.TrimSpace(in.Name),
		Icon:       in.Icon,
		Amount:     in.Amount,
		Date:       date,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpCreate, user, err)
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, kind.Label()+" recorded",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithUser(int64(user)).
			WithTransaction(string(kind), saved.ID, saved.Name, core.FormatAmount(saved.Amount), saved.Date.String()).
			ToSlice()...)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, saved))
	return saved, nil
}

// Delete removes a record owned by user. Records owned by someone else are
// left untouched.
func (s *TransactionService) Delete(ctx context.Context, user core.UserID, kind core.TransactionType, id int64) error {
	if !kind.Valid() {
		return core.Validation(filter.InvalidTypeMessage)
	}
	failMsg := "Failed to delete " + string(kind)
	notFound := core.NotFound(kind.Label() + " not found")

	existing, err := s.store.Transactions(kind).FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	if err != nil {
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpDelete, user, err)
		return err
	}
	if existing.UserID != user {
		s.logger.WarnContext(ctx, "Refused to delete record of another user",
			log.FieldOperation, log.OpDelete,
			log.FieldUserID, int64(user),
			log.FieldKind, string(kind),
			log.FieldRecordID, id)
		return core.Unauthorized("Unauthorized to delete this " + string(kind))
	}

	if err := s.store.Transactions(kind).Delete(ctx, id); err != nil {
		// lost a race with another delete
		if errors.Is(err, store.ErrNotFound) {
			return notFound
		}
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpDelete, user, err)
		return err
	}

	s.logger.InfoContext(ctx, kind.Label()+" deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, int64(user),
		log.FieldRecordID, id)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionDeleted, existing))
	return nil
}

// CurrentMonth lists the user's records dated within the current calendar month.
func (s *TransactionService) CurrentMonth(ctx context.Context, user core.UserID, kind core.TransactionType) ([]core.Transaction, error) {
	today := s.today()
	return s.inRange(ctx, user, kind, today.FirstOfMonth(), today.LastOfMonth())
}

// OnDate lists the user's records dated exactly date.
func (s *TransactionService) OnDate(ctx context.Context, user core.UserID, kind core.TransactionType, date core.Date) ([]core.Transaction, error) {
	return s.inRange(ctx, user, kind, date, date)
}

func (s *TransactionService) inRange(ctx context.Context, user core.UserID, kind core.TransactionType, start, end core.Date) ([]core.Transaction, error) {
	if !kind.Valid() {
		return nil, core.Validation(filter.InvalidTypeMessage)
	}
	records, err := s.store.Transactions(kind).FindInDateRange(ctx, user, start, end)
	if err != nil {
		err = core.Unexpected("Failed to get "+string(kind)+"s", err)
		s.logUnexpected(ctx, log.OpList, user, err)
		return nil, err
	}
	return records, nil
}

// Filter resolves req and runs the search. The type is validated before any
// store access. A start date after the end date yields no records.
func (s *TransactionService) Filter(ctx context.Context, user core.UserID, req filter.Request) (core.TransactionType, []core.Transaction, error) {
	q, err := filter.Build(user, req, s.today())
	if err != nil {
		return "", nil, err
	}
	if q.Start.After(q.End.Time) {
		return q.Kind, []core.Transaction{}, nil
	}

	records, err := s.store.Transactions(q.Kind).Search(ctx, q)
	if err != nil {
		err = core.Unexpected("Failed to filter "+string(q.Kind)+"s", err)
		s.logUnexpected(ctx, log.OpFilter, user, err)
		return "", nil, err
	}

	s.logger.DebugContext(ctx, "Filtered transactions",
		log.FieldOperation, log.OpFilter,
		log.FieldUserID, int64(user),
		log.FieldKind, string(q.Kind),
		log.FieldResultCount, len(records))
	return q.Kind, records, nil
}
