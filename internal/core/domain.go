package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and user-facing date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

type (
	// Expense is one recorded spending event.
	Expense struct {
		ID       string // stable id assigned at creation; empty for legacy records
		Amount   decimal.Decimal
		Category string // free text, compared verbatim
		Date     string // YYYY-MM-DD
	}

	// ExpenseList is the full, ordered collection. Position (1-based) is
	// the user-facing identifier.
	ExpenseList []Expense
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrOutOfRange    = errors.New("position out of range")
	ErrStalePosition = errors.New("expense at position has changed")
)

// ParseExpense builds an Expense from raw user input. An empty date
// defaults to today's date taken from now.
func ParseExpense(amount, category, date string, now time.Time) (Expense, error) {
	amt, err := ParseAmount(amount)
	if err != nil {
		return Expense{}, err
	}
	d, err := NormalizeDate(date, now)
	if err != nil {
		return Expense{}, err
	}
	return Expense{
		Amount:   amt,
		Category: strings.TrimSpace(category),
		Date:     d,
	}, nil
}

// NormalizeDate returns date unchanged when it is a valid YYYY-MM-DD
// string, or today's date when it is blank.
func NormalizeDate(date string, now time.Time) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return now.Format(DateLayout), nil
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", ErrInvalidDate
	}
	return date, nil
}

// Equal reports whether two expenses carry the same values.
func (e Expense) Equal(o Expense) bool {
	return e.ID == o.ID &&
		e.Amount.Equal(o.Amount) &&
		e.Category == o.Category &&
		e.Date == o.Date
}

// Time parses the expense date. Zero time for malformed legacy values.
func (e Expense) Time() time.Time {
	t, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}
