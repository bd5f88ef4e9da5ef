// Package filter turns loosely specified filter requests into fully
// resolved, bounded transaction queries.
package filter

import (
	"strings"

	"ledger/internal/core"
)

// Request holds filter criteria as received from a caller. Pointer fields
// distinguish "not set" from zero values.
type Request struct {
	Type      string     `json:"type"`
	StartDate *core.Date `json:"startDate,omitempty"`
	EndDate   *core.Date `json:"endDate,omitempty"`
	Keyword   *string    `json:"keyword,omitempty"`
	SortField string     `json:"sortField,omitempty"`
	SortOrder string     `json:"sortOrder,omitempty"`
}

// InvalidTypeMessage is returned for any type other than income or expense.
const InvalidTypeMessage = "Invalid type specified. Must be 'income' or 'expense'."

// Build resolves req for user. The type is checked before anything else.
// Missing bounds default to the earliest representable date and today, a
// missing keyword matches every name, a blank sort field means date, and
// only a case-insensitive "desc" sorts descending.
func Build(user core.UserID, req Request, today core.Date) (core.TransactionQuery, error) {
	kind, ok := core.ParseTransactionType(req.Type)
	if !ok {
		return core.TransactionQuery{}, core.Validation(InvalidTypeMessage)
	}

	q := core.TransactionQuery{
		UserID: user,
		Kind:   kind,
		Start:  core.MinDate,
		End:    today,
	}
	if req.StartDate != nil && !req.StartDate.IsEmpty() {
		q.Start = *req.StartDate
	}
	if req.EndDate != nil && !req.EndDate.IsEmpty() {
		q.End = *req.EndDate
	}
	if req.Keyword != nil {
		q.Keyword = *req.Keyword
	}

	sort, err := ResolveSort(req.SortField, req.SortOrder)
	if err != nil {
		return core.TransactionQuery{}, err
	}
	q.Sort = sort
	return q, nil
}

// ResolveSort validates field against the accepted sort keys.
func ResolveSort(field, order string) (core.SortSpec, error) {
	spec := core.SortSpec{Field: core.SortByDate, Direction: core.Ascending}
	if f := strings.TrimSpace(field); f != "" {
		parsed, ok := core.ParseSortField(f)
		if !ok {
			return core.SortSpec{}, core.Validation("Invalid sort field: " + f)
		}
		spec.Field = parsed
	}
	if strings.EqualFold(strings.TrimSpace(order), "desc") {
		spec.Direction = core.Descending
	}
	return spec, nil
}
