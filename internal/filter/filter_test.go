package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

var today = core.NewDate(2024, 6, 15)

func ptr[T any](v T) *T { return &v }

func TestBuildDefaults(t *testing.T) {
	q, err := Build(7, Request{Type: "expense"}, today)
	require.NoError(t, err)

	assert.Equal(t, core.UserID(7), q.UserID)
	assert.Equal(t, core.Expense, q.Kind)
	assert.True(t, q.Start.Equal(core.MinDate.Time))
	assert.True(t, q.End.Equal(today.Time))
	assert.Equal(t, "", q.Keyword)
	assert.Equal(t, core.SortSpec{Field: core.SortByDate, Direction: core.Ascending}, q.Sort)
}

func TestBuildExplicitValues(t *testing.T) {
	start := core.NewDate(2024, 1, 1)
	end := core.NewDate(2024, 1, 31)
	q, err := Build(1, Request{
		Type: "income", StartDate: &start, EndDate: &end,
		Keyword: ptr("sal"), SortField: "amount", SortOrder: "DeSc",
	}, today)
	require.NoError(t, err)

	assert.Equal(t, core.Income, q.Kind)
	assert.Equal(t, "2024-01-01", q.Start.String())
	assert.Equal(t, "2024-01-31", q.End.String())
	assert.Equal(t, "sal", q.Keyword)
	assert.Equal(t, core.SortSpec{Field: core.SortByAmount, Direction: core.Descending}, q.Sort)
}

func TestBuildRejectsType(t *testing.T) {
	for _, typ := range []string{"", "gift", "Income", "expenses"} {
		t.Run(typ, func(t *testing.T) {
			// an invalid sort field must not mask the type error
			_, err := Build(1, Request{Type: typ, SortField: "nope"}, today)
			require.Error(t, err)
			assert.Equal(t, core.KindValidation, core.KindOf(err))
			assert.Equal(t, InvalidTypeMessage, core.MessageOf(err))
		})
	}
}

func TestResolveSort(t *testing.T) {
	cases := []struct {
		field, order string
		want         core.SortSpec
		ok           bool
	}{
		{"", "", core.SortSpec{Field: core.SortByDate, Direction: core.Ascending}, true},
		{"  ", "desc", core.SortSpec{Field: core.SortByDate, Direction: core.Descending}, true},
		{"name", "asc", core.SortSpec{Field: core.SortByName, Direction: core.Ascending}, true},
		{"createdAt", "descending", core.SortSpec{Field: core.SortByCreatedAt, Direction: core.Ascending}, true},
		{"updatedat", "DESC", core.SortSpec{Field: core.SortByUpdatedAt, Direction: core.Descending}, true},
		{"profile_id", "asc", core.SortSpec{}, false},
		{"date; DROP TABLE expenses", "", core.SortSpec{}, false},
	}
	for _, tc := range cases {
		got, err := ResolveSort(tc.field, tc.order)
		if !tc.ok {
			assert.Equal(t, core.KindValidation, core.KindOf(err), tc.field)
			continue
		}
		require.NoError(t, err, tc.field)
		assert.Equal(t, tc.want, got, tc.field)
	}
}
