package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"paytrack/internal/core"
	"paytrack/internal/remote"
)

// =============================================================================
// Mock EntryService
// =============================================================================

type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) List(ctx context.Context) ([]core.Entry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]core.Entry)
	return entries, args.Error(1)
}

func (m *MockEntryService) Create(ctx context.Context, name string, amount float64, status core.Status) (core.Entry, error) {
	args := m.Called(ctx, name, amount, status)
	return args.Get(0).(core.Entry), args.Error(1)
}

func (m *MockEntryService) Update(ctx context.Context, id string, fields remote.Fields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockEntryService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ remote.EntryService = (*MockEntryService)(nil)

var errBoom = &remote.ServiceError{Op: "test", Err: errors.New("connection reset")}

// =============================================================================
// Manual timers
// =============================================================================

type fakeTimer struct {
	mu      sync.Mutex
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Fire runs the callback even if the timer was stopped, the way a real
// timer can race with Stop.
func (t *fakeTimer) Fire() {
	t.mu.Lock()
	t.fired = true
	f := t.f
	t.mu.Unlock()
	f()
}

func (t *fakeTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

func (c *fakeClock) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func newTestStore(svc remote.EntryService) (*Store, *fakeClock) {
	clock := &fakeClock{}
	s := New(svc, DefaultConfig())
	s.afterFunc = clock.AfterFunc
	return s, clock
}

func entry(id, name string, amount float64, status core.Status) core.Entry {
	return core.Entry{
		ID:        id,
		Name:      name,
		Amount:    amount,
		Status:    status,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
