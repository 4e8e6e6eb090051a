package core

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

func init() {
	// Amounts travel as JSON numbers on the wire (amount: 5000, not "5000").
	decimal.MarshalJSONWithoutQuotes = true
}

type (
	TransactionType string

	// Date is a calendar date without a time component.
	Date struct {
		time.Time
	}

	// Transaction is an immutable ledger entry. ID is assigned by the store
	// on append and is derived from the creation timestamp.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	// Category is immutable reference data, loaded once per session.
	Category struct {
		ID   int             `json:"id"`
		Name string          `json:"name"`
		Type TransactionType `json:"type"`
	}

	// TransactionFilter narrows a ledger listing. Zero values mean "no filter".
	TransactionFilter struct {
		StartDate Date
		EndDate   Date
		Category  string
		Type      TransactionType
	}
)

var (
	ErrInvalidType     = errors.New("transaction type must be income or expense")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrEmptyCategory   = errors.New("category is required")
	ErrEmptyDate       = errors.New("date is required")
	ErrUnknownCategory = errors.New("unknown category for transaction type")
)

const dateLayout = "2006-01-02"

// DefaultCategories is the seed set written on first run. IDs are stable
// across backends.
func DefaultCategories() []Category {
	names := []struct {
		name string
		typ  TransactionType
	}{
		{"급여", Income},
		{"부업", Income},
		{"투자수익", Income},
		{"기타수입", Income},
		{"식비", Expense},
		{"교통비", Expense},
		{"주거비", Expense},
		{"의료비", Expense},
		{"쇼핑", Expense},
		{"여가", Expense},
		{"교육", Expense},
		{"기타지출", Expense},
	}
	out := make([]Category, len(names))
	for i, n := range names {
		out[i] = Category{ID: i + 1, Name: n.name, Type: n.typ}
	}
	return out
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in the local timezone.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthKey returns the YYYY-MM grouping key used by the analysis engine.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	if s == "" {
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

// Before reports whether d is strictly before other, comparing dates only.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// ParseAmount converts a user-supplied decimal string to an amount.
// Both dot and comma decimal separators are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromString(s)
}

// Validate checks the invariants of a ledger entry. The ID and CreatedAt
// fields are store-assigned and not validated here.
func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrEmptyDate
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// Matches reports whether the transaction passes every set filter field.
func (f TransactionFilter) Matches(t Transaction) bool {
	if !f.StartDate.IsZero() && t.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && t.Date.After(f.EndDate) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return true
}
