package sheets

import (
	"context"
	"time"

	"paytrack/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter appends one audit row per entry change.
	LedgerWriter interface {
		AppendRow(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}
)

// LedgerRow is one line of the change ledger. Name and Amount are only
// known for created entries.
type LedgerRow struct {
	At      time.Time
	Event   string
	EntryID string
	Name    string
	Amount  *float64
	Status  core.Status
}

// Validate rejects rows that would be unreadable in the sheet.
func (r LedgerRow) Validate() error {
	if r.EntryID == "" {
		return core.ErrMissingID
	}
	if r.At.IsZero() {
		return ErrMissingTimestamp
	}
	return nil
}

// Values renders the row in column order: timestamp, event, id, name,
// amount, status. Amount keeps full precision; the sheet formats it.
func (r LedgerRow) Values() []any {
	var amount any = ""
	if r.Amount != nil {
		amount = *r.Amount
	}
	return []any{
		r.At.UTC().Format(time.RFC3339),
		r.Event,
		r.EntryID,
		r.Name,
		amount,
		string(r.Status),
	}
}
