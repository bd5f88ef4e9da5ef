package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/store"
)

// Store keeps categories and transactions in process memory. It backs
// DATA_BACKEND=memory and the service tests.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	cats    map[int64]core.Category
	records map[core.TransactionType]map[int64]core.Transaction
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		cats: map[int64]core.Category{},
		records: map[core.TransactionType]map[int64]core.Transaction{
			core.Income:  {},
			core.Expense: {},
		},
	}
}

func (s *Store) Categories() store.CategoryStore { return categoryStore{s} }

func (s *Store) Transactions(kind core.TransactionType) store.TransactionStore {
	return transactionStore{s: s, kind: kind}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

type categoryStore struct{ s *Store }

func (c categoryStore) FindByID(_ context.Context, id int64) (core.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cat, ok := c.s.cats[id]
	if !ok {
		return core.Category{}, store.ErrNotFound
	}
	return cat, nil
}

func (c categoryStore) FindByIDForUser(ctx context.Context, user core.UserID, id int64) (core.Category, error) {
	cat, err := c.FindByID(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if cat.UserID != user {
		return core.Category{}, store.ErrNotFound
	}
	return cat, nil
}

func (c categoryStore) FindAllForUser(_ context.Context, user core.UserID) ([]core.Category, error) {
	return c.filter(func(cat core.Category) bool { return cat.UserID == user }), nil
}

func (c categoryStore) FindByTypeForUser(_ context.Context, user core.UserID, t core.TransactionType) ([]core.Category, error) {
	return c.filter(func(cat core.Category) bool { return cat.UserID == user && cat.Type == t }), nil
}

func (c categoryStore) ExistsByNameAndType(_ context.Context, user core.UserID, name string, t core.TransactionType) (bool, error) {
	return len(c.filter(func(cat core.Category) bool {
		return cat.UserID == user && cat.Name == name && cat.Type == t
	})) > 0, nil
}

func (c categoryStore) ExistsByNameTypeIconExcluding(_ context.Context, user core.UserID, name string, t core.TransactionType, icon string, excludeID int64) (bool, error) {
	return len(c.filter(func(cat core.Category) bool {
		return cat.UserID == user && cat.ID != excludeID && cat.Name == name && cat.Type == t && cat.Icon == icon
	})) > 0, nil
}

func (c categoryStore) ExistsByNameExcluding(_ context.Context, user core.UserID, name string, excludeID int64) (bool, error) {
	return len(c.filter(func(cat core.Category) bool {
		return cat.UserID == user && cat.ID != excludeID && cat.Name == name
	})) > 0, nil
}

func (c categoryStore) Save(_ context.Context, cat core.Category) (core.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if cat.ID == 0 {
		cat.ID = c.s.id()
	} else if _, ok := c.s.cats[cat.ID]; !ok {
		return core.Category{}, store.ErrNotFound
	}
	c.s.cats[cat.ID] = cat
	return cat, nil
}

func (c categoryStore) Delete(_ context.Context, id int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.cats[id]; !ok {
		return store.ErrNotFound
	}
	delete(c.s.cats, id)
	return nil
}

// filter returns matching categories ordered by id.
func (c categoryStore) filter(keep func(core.Category) bool) []core.Category {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := []core.Category{}
	for _, cat := range c.s.cats {
		if keep(cat) {
			out = append(out, cat)
		}
	}
	slices.SortFunc(out, func(a, b core.Category) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

type transactionStore struct {
	s    *Store
	kind core.TransactionType
}

func (t transactionStore) FindByID(_ context.Context, id int64) (core.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	rec, ok := t.s.records[t.kind][id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	return t.resolve(rec), nil
}

func (t transactionStore) FindAllForUser(_ context.Context, user core.UserID) ([]core.Transaction, error) {
	out := t.collect(func(rec core.Transaction) bool { return rec.UserID == user })
	slices.SortFunc(out, newestFirst)
	return out, nil
}

func (t transactionStore) FindTopNByDateDesc(ctx context.Context, user core.UserID, n int) ([]core.Transaction, error) {
	all, _ := t.FindAllForUser(ctx, user)
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (t transactionStore) FindInDateRange(_ context.Context, user core.UserID, start, end core.Date) ([]core.Transaction, error) {
	out := t.collect(func(rec core.Transaction) bool {
		return rec.UserID == user && !rec.Date.Before(start.Time) && !rec.Date.After(end.Time)
	})
	slices.SortFunc(out, newestFirst)
	return out, nil
}

func (t transactionStore) Search(_ context.Context, q core.TransactionQuery) ([]core.Transaction, error) {
	out := t.collect(q.Matches)
	slices.SortFunc(out, q.Sort.Compare)
	return out, nil
}

func (t transactionStore) SumAmount(_ context.Context, user core.UserID) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	for _, rec := range t.collect(func(rec core.Transaction) bool { return rec.UserID == user }) {
		amounts = append(amounts, rec.Amount)
	}
	return core.SumAmounts(amounts), nil
}

func (t transactionStore) Save(_ context.Context, rec core.Transaction) (core.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	rec.Kind = t.kind
	if rec.ID == 0 {
		rec.ID = t.s.id()
	} else if _, ok := t.s.records[t.kind][rec.ID]; !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	rec.CategoryName = ""
	t.s.records[t.kind][rec.ID] = rec
	return t.resolve(rec), nil
}

func (t transactionStore) Delete(_ context.Context, id int64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.records[t.kind][id]; !ok {
		return store.ErrNotFound
	}
	delete(t.s.records[t.kind], id)
	return nil
}

func (t transactionStore) collect(keep func(core.Transaction) bool) []core.Transaction {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := []core.Transaction{}
	for _, rec := range t.s.records[t.kind] {
		rec = t.resolve(rec)
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// resolve fills the category name; the caller holds the lock.
func (t transactionStore) resolve(rec core.Transaction) core.Transaction {
	if rec.CategoryID != nil {
		if cat, ok := t.s.cats[*rec.CategoryID]; ok {
			rec.CategoryName = cat.Name
		}
	}
	return rec
}

func newestFirst(a, b core.Transaction) int {
	if c := b.Date.Compare(a.Date.Time); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}
