package core

import (
	"errors"
	"strings"
	"time"
)

// Kind is the closed set of transaction classifications. Categories are
// partitioned by kind; an expense references a TransactionType instead.
type Kind string

const (
	KindExpense    Kind = "Expense"
	KindIncome     Kind = "Income"
	KindInvestment Kind = "Investment"
)

func (k Kind) Valid() bool {
	switch k {
	case KindExpense, KindIncome, KindInvestment:
		return true
	}
	return false
}

// WireDateFormat is the calendar date layout used by the backend.
const WireDateFormat = "02/01/2006"

// dateFloor is the earliest date any form accepts.
var dateFloor = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Date is a calendar day. It is always constructed at UTC midnight so the
// wire round trip dd/MM/yyyy -> Date -> dd/MM/yyyy is exact regardless of
// the local zone.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a dd/MM/yyyy wire date. The layout rejects impossible
// calendar dates such as 31/02/2025.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(WireDateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// String serializes the date back to the wire layout.
func (d Date) String() string {
	return d.Format(WireDateFormat)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if d.Before(dateFloor) {
		return ErrDateTooOld
	}
	return nil
}

// After reports whether d falls on a later calendar day than other.
func (d Date) AfterDay(other Date) bool {
	return d.Time.After(other.Time)
}

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrDateTooOld    = errors.New("date before 01/01/1900")
	ErrFutureDate    = errors.New("date cannot be in the future")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyType     = errors.New("empty type")
	ErrNoteTooLong   = errors.New("note too long (max 200 characters)")
	ErrInvalidKind   = errors.New("invalid kind")
)

const maxNoteLength = 200

type (
	// Expense is a spend record. It references a TransactionType by name.
	Expense struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Type   string `json:"type"`
		Amount Amount `json:"amount"`
		Date   Date   `json:"date"`
		Note   string `json:"note"`
	}

	// Income is an earning record, partitioned by an Income-kind category.
	Income struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category"`
		Amount   Amount `json:"amount"`
		Date     Date   `json:"date"`
		Note     string `json:"note"`
	}

	// Investment has the income shape but its own collection and category kind.
	Investment struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category"`
		Amount   Amount `json:"amount"`
		Date     Date   `json:"date"`
		Note     string `json:"note"`
	}

	// Category partitions income and investment records.
	Category struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Kind        Kind   `json:"type"`
		Description string `json:"description"`
	}

	// TransactionType is the expense-only classifier.
	TransactionType struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	// User is the account holder profile.
	User struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Image    string `json:"image,omitempty"`
	}

	// Candidate is an unconfirmed transaction parsed from an imported
	// spreadsheet. It is promoted to an Expense or Income only when its
	// review form completes; a skipped candidate is never persisted.
	Candidate struct {
		Name     string
		Date     Date
		Amount   string // raw, validated only at review time
		Kind     Kind   // KindExpense or KindIncome, never KindInvestment
		Category string
		Note     string
	}
)

func validateTransaction(name string, amount Amount, date Date, note string, noFuture bool) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := date.Validate(); err != nil {
		return err
	}
	if noFuture && date.AfterDay(Today()) {
		return ErrFutureDate
	}
	if len(note) > maxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateTransaction(e.Name, e.Amount, e.Date, e.Note, true); err != nil {
		return err
	}
	if strings.TrimSpace(e.Type) == "" {
		return ErrEmptyType
	}
	return nil
}

// Validate allows future dates: expected income may be recorded ahead of time.
func (i Income) Validate() error {
	if err := validateTransaction(i.Name, i.Amount, i.Date, i.Note, false); err != nil {
		return err
	}
	if strings.TrimSpace(i.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (v Investment) Validate() error {
	if err := validateTransaction(v.Name, v.Amount, v.Date, v.Note, true); err != nil {
		return err
	}
	if strings.TrimSpace(v.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (t TransactionType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
