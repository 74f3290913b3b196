// Package store keeps the working set of entries in sync with the remote
// service.
//
// Every mutation is pessimistic: the remote call runs first and the local
// collection only changes once it succeeded, so the local state never leads
// the remote one. Commands are serialized on a single mutex, which plays the
// role of an event queue; snapshots and the undo timer use a second lock so
// readers are never blocked behind a slow remote call.
package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/remote"
)

// DefaultUndoWindow is how long a deleted entry can be restored.
const DefaultUndoWindow = 5 * time.Second

// Config holds store configuration
type Config struct {
	UndoWindow    time.Duration
	InitialStatus core.Status
	Logger        *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		UndoWindow:    DefaultUndoWindow,
		InitialStatus: core.Pending,
	}
}

// Snapshot is a read-only copy of the store state, enough to drive any
// rendering layer.
type Snapshot struct {
	Entries            []core.Entry `json:"entries"`
	SelectedStatus     core.Status  `json:"selected_status"`
	ConfirmationTarget *core.Entry  `json:"confirmation_target"`
	UndoBuffer         *core.Entry  `json:"undo_buffer"`
	Loading            bool         `json:"loading"`
	LastError          ErrorKind    `json:"last_error,omitempty"`
}

// Notice returns the user-facing message for LastError, if any.
func (s Snapshot) Notice() string {
	return s.LastError.Notice()
}

type timer interface {
	Stop() bool
}

type Store struct {
	svc        remote.EntryService
	logger     *slog.Logger
	undoWindow time.Duration
	afterFunc  func(time.Duration, func()) timer

	// opMu serializes commands.
	opMu sync.Mutex

	mu        sync.RWMutex
	entries   []core.Entry
	selected  core.Status
	confirm   *core.Entry
	undo      *core.Entry
	undoTimer timer
	undoGen   uint64
	loading   bool
	lastErr   ErrorKind
	closed    bool
}

func New(svc remote.EntryService, cfg Config) *Store {
	if cfg.UndoWindow <= 0 {
		cfg.UndoWindow = DefaultUndoWindow
	}
	if cfg.InitialStatus.Validate() != nil {
		cfg.InitialStatus = core.Pending
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{
		svc:        svc,
		logger:     cfg.Logger.With(log.FieldComponent, log.ComponentStore),
		undoWindow: cfg.UndoWindow,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		entries:  []core.Entry{},
		selected: cfg.InitialStatus,
	}
}

// Load replaces the local collection with the remote one. On failure the
// previous collection is kept.
func (s *Store) Load(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()

	entries, err := s.svc.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = KindLoad
		s.logger.ErrorContext(ctx, "Failed to load entries", log.FieldError, err)
		return opError(KindLoad, err)
	}
	s.entries = append(make([]core.Entry, 0, len(entries)), entries...)
	s.logger.InfoContext(ctx, "Entries loaded", "count", len(entries))
	return nil
}

// Add creates an entry. Invalid input (empty name, amount that is not a
// non-negative number, unknown status) is a no-op: nothing is sent and
// ok is false.
func (s *Store) Add(ctx context.Context, name, amount string, status core.Status) (core.Entry, bool, error) {
	name = strings.TrimSpace(name)
	value, err := core.ParseAmount(amount)
	if err != nil || core.ValidateDraft(name, value, status) != nil {
		return core.Entry{}, false, nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.clearError()

	created, err := s.svc.Create(ctx, name, value, status)
	if err != nil {
		s.fail(KindSave)
		s.logger.ErrorContext(ctx, "Failed to add entry",
			log.FieldOperation, log.OpCreate,
			log.FieldEntryName, name,
			log.FieldError, err)
		return core.Entry{}, false, opError(KindSave, err)
	}

	s.mu.Lock()
	s.entries = prepend(s.entries, created)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Entry added",
		log.FieldEntryID, created.ID,
		log.FieldEntryStatus, created.Status)
	return created, true, nil
}

// MarkPaid sets the status of a local entry to paid. Unknown ids and debit
// entries are a no-op. Already paid entries re-issue the update.
func (s *Store) MarkPaid(ctx context.Context, id string) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	e, ok := s.find(id)
	s.mu.RUnlock()
	if !ok || !e.Status.CanMarkPaid() {
		return false, nil
	}
	s.clearError()

	if err := s.svc.Update(ctx, id, remote.StatusFields(core.Paid)); err != nil {
		s.fail(KindUpdate)
		s.logger.ErrorContext(ctx, "Failed to mark entry paid",
			log.FieldOperation, log.OpUpdate,
			log.FieldEntryID, id,
			log.FieldError, err)
		return false, opError(KindUpdate, err)
	}

	s.mu.Lock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Status = core.Paid
		}
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Entry marked paid", log.FieldEntryID, id)
	return true, nil
}

// RequestDelete stages an entry for deletion. Nothing is sent yet.
func (s *Store) RequestDelete(id string) bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.find(id)
	if !ok {
		return false
	}
	s.confirm = &e
	return true
}

// CancelDelete drops the staged entry.
func (s *Store) CancelDelete() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.confirm = nil
	s.mu.Unlock()
}

// ConfirmDelete deletes the staged entry remotely, removes it locally and
// moves it into the undo buffer. A failure closes the confirmation but
// keeps the entry in the collection.
func (s *Store) ConfirmDelete(ctx context.Context) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	target := s.confirm
	s.mu.RUnlock()
	if target == nil {
		return false, nil
	}
	staged := *target
	s.clearError()

	if err := s.svc.Delete(ctx, staged.ID); err != nil {
		s.mu.Lock()
		s.confirm = nil
		s.lastErr = KindDelete
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Failed to delete entry",
			log.FieldOperation, log.OpDelete,
			log.FieldEntryID, staged.ID,
			log.FieldError, err)
		return false, opError(KindDelete, err)
	}

	s.mu.Lock()
	s.entries = without(s.entries, staged.ID)
	s.confirm = nil
	s.armUndo(staged)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Entry deleted",
		log.FieldEntryID, staged.ID,
		"undo_window", s.undoWindow.String())
	return true, nil
}

// UndoDelete re-creates the buffered entry under a new id. On failure the
// buffer and its timer are left alone so the user can retry within the
// remaining window.
func (s *Store) UndoDelete(ctx context.Context) (core.Entry, bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	buffered := s.undo
	s.mu.RUnlock()
	if buffered == nil {
		return core.Entry{}, false, nil
	}
	prev := *buffered
	s.clearError()

	restored, err := s.svc.Create(ctx, prev.Name, prev.Amount, prev.Status)
	if err != nil {
		s.fail(KindRestore)
		s.logger.ErrorContext(ctx, "Failed to restore entry",
			log.FieldOperation, log.OpCreate,
			log.FieldEntryID, prev.ID,
			log.FieldError, err)
		return core.Entry{}, false, opError(KindRestore, err)
	}

	s.mu.Lock()
	s.entries = prepend(s.entries, restored)
	s.disarmUndo()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Entry restored",
		"previous_id", prev.ID,
		log.FieldEntryID, restored.ID)
	return restored, true, nil
}

// Select changes the status the presentation layer is looking at.
func (s *Store) Select(status core.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.selected = status
	s.mu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Entries:        append(make([]core.Entry, 0, len(s.entries)), s.entries...),
		SelectedStatus: s.selected,
		Loading:        s.loading,
		LastError:      s.lastErr,
	}
	if s.confirm != nil {
		c := *s.confirm
		snap.ConfirmationTarget = &c
	}
	if s.undo != nil {
		u := *s.undo
		snap.UndoBuffer = &u
	}
	return snap
}

// View projects the current collection onto the selected status.
func (s *Store) View() core.View {
	snap := s.Snapshot()
	return core.Project(snap.Entries, snap.SelectedStatus)
}

// Close cancels any outstanding undo timer. The store stays readable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.disarmUndo()
	return nil
}

// armUndo must be called with mu held.
func (s *Store) armUndo(e core.Entry) {
	if s.undoTimer != nil {
		s.undoTimer.Stop()
	}
	s.undoGen++
	// A closed store has no timer to expire the slot, so it stays empty.
	if s.closed {
		s.undoTimer = nil
		s.undo = nil
		return
	}
	s.undo = &e
	gen := s.undoGen
	s.undoTimer = s.afterFunc(s.undoWindow, func() { s.expireUndo(gen) })
}

// disarmUndo must be called with mu held.
func (s *Store) disarmUndo() {
	if s.undoTimer != nil {
		s.undoTimer.Stop()
		s.undoTimer = nil
	}
	s.undoGen++
	s.undo = nil
}

func (s *Store) expireUndo(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A stale callback belongs to a slot that was already replaced.
	if s.closed || gen != s.undoGen {
		return
	}
	s.undo = nil
	s.undoTimer = nil
	s.logger.Debug("Undo window expired")
}

func (s *Store) clearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Store) fail(kind ErrorKind) {
	s.mu.Lock()
	s.lastErr = kind
	s.mu.Unlock()
}

// find must be called with mu held.
func (s *Store) find(id string) (core.Entry, bool) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return core.Entry{}, false
}

func prepend(entries []core.Entry, e core.Entry) []core.Entry {
	out := make([]core.Entry, 0, len(entries)+1)
	out = append(out, e)
	return append(out, entries...)
}

func without(entries []core.Entry, id string) []core.Entry {
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}
