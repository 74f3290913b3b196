// Package remote defines the contract of the durable store that backs the
// entry collection.
package remote

import (
	"context"

	"paytrack/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryService is a CRUD interface over the "entries" collection.
	EntryService interface {
		// List returns all entries ordered by creation time, newest first.
		List(ctx context.Context) ([]core.Entry, error)
		// Create persists a new entry; the store assigns ID and CreatedAt.
		Create(ctx context.Context, name string, amount float64, status core.Status) (core.Entry, error)
		// Update applies a partial update. Unknown ids fail with ErrNotFound.
		Update(ctx context.Context, id string, fields Fields) error
		// Delete removes an entry permanently. Unknown ids fail with ErrNotFound.
		Delete(ctx context.Context, id string) error
	}

	// Fields holds the optional columns of a partial update.
	Fields struct {
		Status *core.Status
	}
)

// StatusFields builds an update that only sets the status.
func StatusFields(s core.Status) Fields {
	return Fields{Status: &s}
}

// IsEmpty reports whether the update would change nothing.
func (f Fields) IsEmpty() bool {
	return f.Status == nil
}
