package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"paytrack/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema means an earlier migration stopped halfway. The file has
// to be repaired by hand before paytrack will touch it again.
var ErrDirtySchema = errors.New("sqlite schema is dirty")

// schema drives golang-migrate over a dedicated connection, so closing it
// never closes the repository's pool.
type schema struct {
	m *migrate.Migrate
}

func openSchema(dbPath string) (*schema, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open migration database: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &schema{m: m}, nil
}

// Close releases the source and the migration connection.
func (s *schema) Close() error {
	srcErr, dbErr := s.m.Close()
	return errors.Join(srcErr, dbErr)
}

// version reports 0 for a database no migration has touched yet.
func (s *schema) version() (uint, bool, error) {
	v, dirty, err := s.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return v, dirty, nil
}

// RunMigrations brings the entries schema at dbPath up to date. A dirty
// schema is refused with ErrDirtySchema instead of being migrated over.
func RunMigrations(dbPath string) error {
	s, err := openSchema(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	before, dirty, err := s.version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirtySchema, before)
	}

	if err := s.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	after, _, err := s.version()
	if err != nil {
		return err
	}
	slog.Debug("SQLite schema ready",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOperation, log.OpMigrate,
		"from_version", before,
		"version", after)
	return nil
}

// SchemaVersion reports the applied migration version of the database at
// dbPath and whether it is dirty. A fresh file reports version 0.
func SchemaVersion(dbPath string) (uint, bool, error) {
	s, err := openSchema(dbPath)
	if err != nil {
		return 0, false, err
	}
	defer s.Close()
	return s.version()
}
