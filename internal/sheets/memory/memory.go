package memory

import (
	"context"
	"fmt"
	"sync"

	"paytrack/internal/sheets"
)

// Store is an in-process ledger used when no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows []sheets.LedgerRow
}

var _ sheets.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, row sheets.LedgerRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if row.Amount != nil {
		v := *row.Amount
		row.Amount = &v
	}
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.LedgerRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.LedgerRow(nil), s.rows...)
}
