package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Pending Status = "pending"
	Paid    Status = "paid"
	Debit   Status = "debit"
)

type (
	// Status classifies an entry. Debit entries are owed by the owner to someone else.
	Status string

	Entry struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Amount    float64   `json:"amount"`
		Status    Status    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
	}
)

var (
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidStatus = errors.New("invalid status")
	ErrMissingID     = errors.New("missing id")
)

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{Pending, Paid, Debit}
}

func (s Status) String() string {
	return string(s)
}

func (s Status) Validate() error {
	switch s {
	case Pending, Paid, Debit:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// ParseStatus converts user input into a Status, ignoring case and surrounding spaces.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if err := st.Validate(); err != nil {
		return "", fmt.Errorf("%w %q: want pending, paid or debit", err, s)
	}
	return st, nil
}

// CanMarkPaid reports whether the pending -> paid transition applies.
// Paid entries may be re-marked; debit entries have no settle action.
func (s Status) CanMarkPaid() bool {
	return s == Pending || s == Paid
}

// ValidateDraft checks the fields a caller supplies before the remote store
// assigns an id and a creation time.
func ValidateDraft(name string, amount float64, status Status) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return ErrInvalidAmount
	}
	return status.Validate()
}

// Validate checks the invariants of a persisted entry.
func (e Entry) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	return ValidateDraft(e.Name, e.Amount, e.Status)
}
