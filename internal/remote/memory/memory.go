package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"paytrack/internal/core"
	"paytrack/internal/remote"
)

// Store is an in-process EntryService. It keeps entries newest first.
type Store struct {
	mu    sync.Mutex
	items []core.Entry
	now   func() time.Time
}

var _ remote.EntryService = (*Store)(nil)

func New(seed ...core.Entry) *Store {
	s := &Store{now: time.Now}
	s.items = append(s.items, seed...)
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].CreatedAt.After(s.items[j].CreatedAt)
	})
	return s
}

// WithClock replaces the time source used for CreatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) List(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.items...), nil
}

// Create stores the entry and assigns a random id.
func (s *Store) Create(_ context.Context, name string, amount float64, status core.Status) (core.Entry, error) {
	if err := core.ValidateDraft(name, amount, status); err != nil {
		return core.Entry{}, remote.Wrap(remote.OpCreate, "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := core.Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Amount:    amount,
		Status:    status,
		CreatedAt: s.now().UTC(),
	}
	s.items = append([]core.Entry{e}, s.items...)
	return e, nil
}

func (s *Store) Update(_ context.Context, id string, fields remote.Fields) error {
	if fields.IsEmpty() {
		return remote.Wrap(remote.OpUpdate, id, remote.ErrEmptyUpdate)
	}
	if err := fields.Status.Validate(); err != nil {
		return remote.Wrap(remote.OpUpdate, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return remote.Wrap(remote.OpUpdate, id, remote.ErrNotFound)
	}
	s.items[i].Status = *fields.Status
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return remote.Wrap(remote.OpDelete, id, remote.ErrNotFound)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}
