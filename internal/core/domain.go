package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// TypeIncome and TypeExpense carry the wire values used by the
	// hosted store ("MASUK" = money in, "KELUAR" = money out).
	TypeIncome  TransactionType = "MASUK"
	TypeExpense TransactionType = "KELUAR"
)

const (
	EventPlanned   EventStatus = "PLANNED"
	EventActive    EventStatus = "ACTIVE"
	EventCompleted EventStatus = "COMPLETED"
)

type (
	TransactionType string

	EventStatus string

	Date struct {
		time.Time
	}

	// Money is an amount in whole Rupiah. Sign is never stored on a
	// transaction; it is derived from the transaction type.
	Money struct {
		Rupiah int64
	}

	Transaction struct {
		ID          string
		Date        Date
		Type        TransactionType
		Amount      Money
		Category    string
		Description string
		Treasurer   string
		EventID     string // empty means unassigned
	}

	Event struct {
		ID          string
		Name        string
		Description string
		Date        Date
		Budget      Money
		Status      EventStatus
	}
)

// SuggestedCategories is the closed suggestion set offered at data entry.
// Grouping elsewhere is by literal string equality, so arbitrary values
// are tolerated everywhere a category is stored.
var SuggestedCategories = []string{
	"Iuran Anggota",
	"Donasi",
	"Operasional",
	"Konsumsi",
	"Perlengkapan",
	"Lainnya",
}

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrShortDescription = errors.New("description must be at least 3 characters")
	ErrShortTreasurer   = errors.New("treasurer name must be at least 2 characters")
	ErrEmptyName        = errors.New("empty event name")
	ErrInvalidStatus    = errors.New("invalid event status")
)

// NewDate creates a Date at day granularity in UTC. No time-of-day
// semantics are used anywhere in the ledger.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to calendar-day granularity.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the ISO calendar form used on the wire.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// SameMonth reports whether the date falls in the given calendar month.
func (d Date) SameMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Time.Month() == month
}

func (t TransactionType) Validate() error {
	switch t {
	case TypeIncome, TypeExpense:
		return nil
	}
	return ErrInvalidType
}

func (s EventStatus) Validate() error {
	switch s {
	case EventPlanned, EventActive, EventCompleted:
		return nil
	}
	return ErrInvalidStatus
}

func (m Money) Validate() error {
	if m.Rupiah <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(t.Description)) < 3 {
		return ErrShortDescription
	}
	if len(strings.TrimSpace(t.Treasurer)) < 2 {
		return ErrShortTreasurer
	}
	return nil
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() int64 {
	if t.Type == TypeIncome {
		return t.Amount.Rupiah
	}
	return -t.Amount.Rupiah
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Budget.Validate(); err != nil {
		return err
	}
	return e.Status.Validate()
}
