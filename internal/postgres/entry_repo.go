package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/remote"
)

// EntryRepository implements remote.EntryService using PostgreSQL
type EntryRepository struct {
	pool *pgxpool.Pool
}

var _ remote.EntryService = (*EntryRepository)(nil)

// NewEntryRepository creates a new PostgreSQL entry repository
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// List returns every entry, newest first
func (r *EntryRepository) List(ctx context.Context) ([]core.Entry, error) {
	query := `
		SELECT id::text, name, amount, status, created_at
		FROM entries
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, remote.Wrap(remote.OpList, "", fmt.Errorf("failed to query entries: %w", err))
	}
	defer rows.Close()

	entries := make([]core.Entry, 0)
	for rows.Next() {
		var (
			e      core.Entry
			status string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount, &status, &e.CreatedAt); err != nil {
			return nil, remote.Wrap(remote.OpList, "", fmt.Errorf("failed to scan entry: %w", err))
		}
		e.Status = core.Status(status)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, remote.Wrap(remote.OpList, "", fmt.Errorf("error iterating entries: %w", err))
	}

	return entries, nil
}

// Create inserts a new entry and returns the stored row
func (r *EntryRepository) Create(ctx context.Context, name string, amount float64, status core.Status) (core.Entry, error) {
	if err := core.ValidateDraft(name, amount, status); err != nil {
		return core.Entry{}, remote.Wrap(remote.OpCreate, "", err)
	}

	query := `
		INSERT INTO entries (id, name, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, name, amount, status, created_at
	`

	var (
		e         core.Entry
		rowStatus string
	)
	err := r.pool.QueryRow(ctx, query, uuid.New(), name, amount, string(status)).Scan(
		&e.ID,
		&e.Name,
		&e.Amount,
		&rowStatus,
		&e.CreatedAt,
	)
	if err != nil {
		return core.Entry{}, remote.Wrap(remote.OpCreate, "", fmt.Errorf("failed to create entry: %w", err))
	}
	e.Status = core.Status(rowStatus)
	e.CreatedAt = e.CreatedAt.UTC()

	slog.InfoContext(ctx, "Entry saved to PostgreSQL",
		log.FieldComponent, log.ComponentPostgres,
		log.FieldEntryID, e.ID,
		log.FieldEntryName, e.Name,
		log.FieldEntryAmount, e.Amount,
		log.FieldEntryStatus, e.Status)

	return e, nil
}

// Update applies a partial update to one entry
func (r *EntryRepository) Update(ctx context.Context, id string, fields remote.Fields) error {
	if fields.IsEmpty() {
		return remote.Wrap(remote.OpUpdate, id, remote.ErrEmptyUpdate)
	}
	if err := fields.Status.Validate(); err != nil {
		return remote.Wrap(remote.OpUpdate, id, err)
	}
	key, err := uuid.Parse(id)
	if err != nil {
		return remote.Wrap(remote.OpUpdate, id, remote.ErrNotFound)
	}

	tag, err := r.pool.Exec(ctx, `UPDATE entries SET status = $2 WHERE id = $1`, key, string(*fields.Status))
	if err != nil {
		return remote.Wrap(remote.OpUpdate, id, fmt.Errorf("failed to update entry: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return remote.Wrap(remote.OpUpdate, id, remote.ErrNotFound)
	}

	slog.InfoContext(ctx, "Entry status updated",
		log.FieldComponent, log.ComponentPostgres,
		log.FieldEntryID, id,
		log.FieldEntryStatus, *fields.Status)
	return nil
}

// Delete removes an entry permanently
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	key, err := uuid.Parse(id)
	if err != nil {
		return remote.Wrap(remote.OpDelete, id, remote.ErrNotFound)
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1`, key)
	if err != nil {
		return remote.Wrap(remote.OpDelete, id, fmt.Errorf("failed to delete entry: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return remote.Wrap(remote.OpDelete, id, remote.ErrNotFound)
	}

	slog.InfoContext(ctx, "Entry deleted from PostgreSQL",
		log.FieldComponent, log.ComponentPostgres,
		log.FieldEntryID, id)
	return nil
}
