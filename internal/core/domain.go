package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// NoCategoryName is shown when a transaction's category no longer resolves.
const NoCategoryName = "N/A"

type (
	// UserID identifies the owner of every record.
	UserID int64

	// TransactionType tags a record as income or expense.
	TransactionType string

	// Date is a calendar date without a time component, always UTC midnight.
	Date struct {
		time.Time
	}

	Category struct {
		ID        int64
		UserID    UserID
		Name      string
		Type      TransactionType
		Icon      string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// CategoryInput carries create and partial update payloads. Nil fields
	// are left untouched on update.
	CategoryInput struct {
		Name *string
		Type *string
		Icon *string
	}

	Transaction struct {
		ID           int64
		UserID       UserID
		Kind         TransactionType
		CategoryID   *int64
		CategoryName string // resolved at read time, empty when the category is gone
		Name         string
		Icon         string
		Amount       decimal.Decimal
		Date         Date
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// NewTransaction is the add payload. A zero Date means today.
	NewTransaction struct {
		Name       string
		Icon       string
		CategoryID *int64
		Amount     decimal.Decimal
		Date       Date
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// MinDate is the lower bound used when a filter has no start date.
var MinDate = NewDate(1, 1, 1)

// ParseTransactionType accepts exactly "income" or "expense".
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case Income, Expense:
		return TransactionType(s), true
	}
	return "", false
}

// Label is the capitalised name used in user-facing messages.
func (t TransactionType) Label() string {
	switch t {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	}
	return string(t)
}

func (t TransactionType) Valid() bool {
	_, ok := ParseTransactionType(string(t))
	return ok
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// IsEmpty reports whether the date was never set.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// LastOfMonth returns the last day of d's month.
func (d Date) LastOfMonth() Date {
	return Date{Time: d.FirstOfMonth().AddDate(0, 1, -1)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DisplayCategory returns the category name or the N/A placeholder.
func (t Transaction) DisplayCategory() string {
	if t.CategoryName == "" {
		return NoCategoryName
	}
	return t.CategoryName
}

// Validate checks an add payload. Messages name the transaction kind.
func (n *NewTransaction) Validate(kind TransactionType) error {
	label := kind.Label()
	if n == nil {
		return Validation(label + " data cannot be null")
	}
	if strings.TrimSpace(n.Name) == "" {
		return Validation(label + " name cannot be empty")
	}
	if !n.Amount.IsPositive() {
		return Validation(label + " amount must be greater than zero")
	}
	if n.CategoryID == nil {
		return Validation(label + " must have a valid category")
	}
	return nil
}
