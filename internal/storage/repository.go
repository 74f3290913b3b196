package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/remote"

	_ "modernc.org/sqlite"
)

const (
	listEntriesSQL = `SELECT id, name, amount, status, created_at
		FROM entries ORDER BY created_at DESC, rowid DESC`
	insertEntrySQL       = `INSERT INTO entries (id, name, amount, status, created_at) VALUES (?, ?, ?, ?, ?)`
	updateEntryStatusSQL = `UPDATE entries SET status = ? WHERE id = ?`
	deleteEntrySQL       = `DELETE FROM entries WHERE id = ?`
)

// SQLiteRepository is an EntryService backed by a local SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ remote.EntryService = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// List implements remote.EntryService
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, listEntriesSQL)
	if err != nil {
		return nil, remote.Wrap(remote.OpList, "", fmt.Errorf("query entries: %w", err))
	}
	defer rows.Close()

	entries := make([]core.Entry, 0)
	for rows.Next() {
		var (
			e       core.Entry
			status  string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount, &status, &created); err != nil {
			return nil, remote.Wrap(remote.OpList, "", fmt.Errorf("scan entry: %w", err))
		}
		e.Status = core.Status(status)
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, remote.Wrap(remote.OpList, "", fmt.Errorf("iterate entries: %w", err))
	}

	slog.DebugContext(ctx, "Entries listed from SQLite",
		log.FieldComponent, log.ComponentStorage,
		"count", len(entries))

	return entries, nil
}

// Create implements remote.EntryService
func (r *SQLiteRepository) Create(ctx context.Context, name string, amount float64, status core.Status) (core.Entry, error) {
	if err := core.ValidateDraft(name, amount, status); err != nil {
		return core.Entry{}, remote.Wrap(remote.OpCreate, "", err)
	}

	e := core.Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Amount:    amount,
		Status:    status,
		CreatedAt: r.now().UTC(),
	}
	if _, err := r.db.ExecContext(ctx, insertEntrySQL,
		e.ID, e.Name, e.Amount, string(e.Status), e.CreatedAt.UnixNano()); err != nil {
		return core.Entry{}, remote.Wrap(remote.OpCreate, "", fmt.Errorf("insert entry: %w", err))
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldEntryID, e.ID,
		log.FieldEntryName, e.Name,
		log.FieldEntryAmount, e.Amount,
		log.FieldEntryStatus, e.Status)

	return e, nil
}

// Update implements remote.EntryService
func (r *SQLiteRepository) Update(ctx context.Context, id string, fields remote.Fields) error {
	if fields.IsEmpty() {
		return remote.Wrap(remote.OpUpdate, id, remote.ErrEmptyUpdate)
	}
	if err := fields.Status.Validate(); err != nil {
		return remote.Wrap(remote.OpUpdate, id, err)
	}

	res, err := r.db.ExecContext(ctx, updateEntryStatusSQL, string(*fields.Status), id)
	if err != nil {
		return remote.Wrap(remote.OpUpdate, id, fmt.Errorf("update entry status: %w", err))
	}
	if err := requireOneRow(res); err != nil {
		return remote.Wrap(remote.OpUpdate, id, err)
	}

	slog.InfoContext(ctx, "Entry status updated",
		log.FieldComponent, log.ComponentStorage,
		log.FieldEntryID, id,
		log.FieldEntryStatus, *fields.Status)
	return nil
}

// Delete implements remote.EntryService
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteEntrySQL, id)
	if err != nil {
		return remote.Wrap(remote.OpDelete, id, fmt.Errorf("delete entry: %w", err))
	}
	if err := requireOneRow(res); err != nil {
		return remote.Wrap(remote.OpDelete, id, err)
	}

	slog.InfoContext(ctx, "Entry deleted from SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldEntryID, id)
	return nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return remote.ErrNotFound
	}
	return nil
}
