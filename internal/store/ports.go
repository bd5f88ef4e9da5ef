// Package store defines the persistence contracts of the ledger. Every
// operation is scoped to one user unless it says otherwise, and every
// implementation must be safe for concurrent use.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

type (
	// TransactionStore persists the records of a single kind.
	TransactionStore interface {
		// FindByID is not user scoped; callers check ownership.
		FindByID(ctx context.Context, id int64) (core.Transaction, error)
		FindAllForUser(ctx context.Context, user core.UserID) ([]core.Transaction, error)
		// FindTopNByDateDesc returns at most n records, newest date first.
		FindTopNByDateDesc(ctx context.Context, user core.UserID, n int) ([]core.Transaction, error)
		FindInDateRange(ctx context.Context, user core.UserID, start, end core.Date) ([]core.Transaction, error)
		Search(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, error)
		// SumAmount is zero when the user has no records.
		SumAmount(ctx context.Context, user core.UserID) (decimal.Decimal, error)
		// Save inserts when t.ID is zero and returns the stored record.
		Save(ctx context.Context, t core.Transaction) (core.Transaction, error)
		Delete(ctx context.Context, id int64) error
	}

	CategoryStore interface {
		// FindByID is not user scoped; callers check ownership.
		FindByID(ctx context.Context, id int64) (core.Category, error)
		FindByIDForUser(ctx context.Context, user core.UserID, id int64) (core.Category, error)
		FindAllForUser(ctx context.Context, user core.UserID) ([]core.Category, error)
		FindByTypeForUser(ctx context.Context, user core.UserID, t core.TransactionType) ([]core.Category, error)
		ExistsByNameAndType(ctx context.Context, user core.UserID, name string, t core.TransactionType) (bool, error)
		ExistsByNameTypeIconExcluding(ctx context.Context, user core.UserID, name string, t core.TransactionType, icon string, excludeID int64) (bool, error)
		ExistsByNameExcluding(ctx context.Context, user core.UserID, name string, excludeID int64) (bool, error)
		Save(ctx context.Context, c core.Category) (core.Category, error)
		Delete(ctx context.Context, id int64) error
	}

	// Store groups the stores of one backend.
	Store interface {
		Categories() CategoryStore
		Transactions(kind core.TransactionType) TransactionStore
		Ping(ctx context.Context) error
		Close() error
	}
)
