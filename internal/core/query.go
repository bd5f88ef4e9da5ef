package core

import "strings"

// SortField is a store-independent sort key accepted by transaction searches.
type SortField string

// SortDirection is the order of a search result.
type SortDirection string

const (
	SortByDate      SortField = "date"
	SortByName      SortField = "name"
	SortByAmount    SortField = "amount"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
)

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortFields lists every accepted sort key.
var SortFields = []SortField{SortByDate, SortByName, SortByAmount, SortByCreatedAt, SortByUpdatedAt}

// ParseSortField matches s against the accepted keys, ignoring case.
func ParseSortField(s string) (SortField, bool) {
	for _, f := range SortFields {
		if strings.EqualFold(string(f), s) {
			return f, true
		}
	}
	return "", false
}

// SortSpec holds a validated sort key and direction.
type SortSpec struct {
	Field     SortField
	Direction SortDirection
}

// TransactionQuery is a fully resolved search over one user's records of a
// single kind. Start and End are inclusive.
type TransactionQuery struct {
	UserID  UserID
	Kind    TransactionType
	Start   Date
	End     Date
	Keyword string
	Sort    SortSpec
}

// Matches reports whether t falls inside the query. Stores that cannot
// express the predicate natively use it directly.
func (q TransactionQuery) Matches(t Transaction) bool {
	if t.UserID != q.UserID {
		return false
	}
	if t.Date.Before(q.Start.Time) || t.Date.After(q.End.Time) {
		return false
	}
	if q.Keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Name), strings.ToLower(q.Keyword))
}

// Compare orders a and b by the query's sort spec, breaking ties by id
// ascending.
func (s SortSpec) Compare(a, b Transaction) int {
	c := 0
	switch s.Field {
	case SortByName:
		c = strings.Compare(a.Name, b.Name)
	case SortByAmount:
		c = a.Amount.Cmp(b.Amount)
	case SortByCreatedAt:
		c = a.CreatedAt.Compare(b.CreatedAt)
	case SortByUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		c = a.Date.Compare(b.Date.Time)
	}
	if s.Direction == Descending {
		c = -c
	}
	if c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
