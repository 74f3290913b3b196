package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paytrack/internal/core"
	"paytrack/internal/remote"
	"paytrack/internal/remote/memory"
)

func TestAshaLifecycle(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s, clock := newTestStore(backend)

	added, ok, err := s.Add(ctx, "Asha", "150.00", core.Pending)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Load(ctx))
	snap := s.Snapshot()
	require.NotEmpty(t, snap.Entries)
	assert.Equal(t, added.ID, snap.Entries[0].ID)
	assert.NotEmpty(t, added.ID)

	ok, err = s.MarkPaid(ctx, added.ID)
	require.NoError(t, err)
	require.True(t, ok)

	entries := s.Snapshot().Entries
	assert.Empty(t, core.Project(entries, core.Pending).Entries)
	paid := core.Project(entries, core.Paid)
	require.Len(t, paid.Entries, 1)
	assert.Equal(t, 150.0, paid.Total)

	require.True(t, s.RequestDelete(added.ID))
	ok, err = s.ConfirmDelete(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	snap = s.Snapshot()
	assert.Equal(t, 0.0, core.Project(snap.Entries, core.Paid).Total)
	require.NotNil(t, snap.UndoBuffer)
	assert.Equal(t, added.ID, snap.UndoBuffer.ID)
	require.NotNil(t, clock.Last())
	assert.Equal(t, DefaultUndoWindow, clock.Last().d)

	restored, ok, err := s.UndoDelete(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Asha", restored.Name)
	assert.Equal(t, 150.0, restored.Amount)
	assert.Equal(t, core.Paid, restored.Status)
	assert.NotEqual(t, added.ID, restored.ID)

	snap = s.Snapshot()
	assert.Nil(t, snap.UndoBuffer)
	assert.True(t, clock.Last().Stopped())
	paid = core.Project(snap.Entries, core.Paid)
	require.Len(t, paid.Entries, 1)
	assert.Equal(t, restored.ID, paid.Entries[0].ID)
	assert.Equal(t, 1, backend.Len())
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces collection", func(t *testing.T) {
		svc := &MockEntryService{}
		svc.On("List", mock.Anything).Return([]core.Entry{
			entry("2", "b", 2, core.Paid),
			entry("1", "a", 1, core.Pending),
		}, nil).Once()
		s, _ := newTestStore(svc)

		require.NoError(t, s.Load(ctx))
		snap := s.Snapshot()
		require.Len(t, snap.Entries, 2)
		assert.Equal(t, "2", snap.Entries[0].ID)
		assert.False(t, snap.Loading)
		assert.Empty(t, snap.LastError)
	})

	t.Run("failure keeps previous collection", func(t *testing.T) {
		svc := &MockEntryService{}
		svc.On("List", mock.Anything).Return([]core.Entry{entry("1", "a", 1, core.Pending)}, nil).Once()
		svc.On("List", mock.Anything).Return(nil, errBoom).Once()
		s, _ := newTestStore(svc)

		require.NoError(t, s.Load(ctx))
		before := s.Snapshot().Entries

		err := s.Load(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLoad)
		var se *remote.ServiceError
		assert.True(t, errors.As(err, &se))

		snap := s.Snapshot()
		assert.Equal(t, before, snap.Entries)
		assert.Equal(t, KindLoad, snap.LastError)
		assert.NotEmpty(t, snap.Notice())
		assert.False(t, snap.Loading)
	})
}

func TestAddValidationIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := &MockEntryService{}
	s, _ := newTestStore(svc)

	cases := []struct {
		name   string
		amount string
		status core.Status
	}{
		{"", "10", core.Pending},
		{"   ", "10", core.Pending},
		{"Asha", "", core.Pending},
		{"Asha", "abc", core.Pending},
		{"Asha", "-5", core.Pending},
		{"Asha", "10", core.Status("settled")},
	}
	for _, tc := range cases {
		e, ok, err := s.Add(ctx, tc.name, tc.amount, tc.status)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, core.Entry{}, e)
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, s.Snapshot().Entries)
}

func TestAddAcceptsLongNames(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(memory.New())

	for _, name := range []string{
		strings.Repeat("語", 70),
		strings.Repeat("a", 201),
		strings.Repeat("Asha ", 500),
	} {
		e, ok, err := s.Add(ctx, name, "10", core.Pending)
		require.NoError(t, err)
		require.True(t, ok, "name of %d bytes", len(name))
		assert.Equal(t, strings.TrimSpace(name), e.Name)
	}
	assert.Len(t, s.Snapshot().Entries, 3)
}

func TestAddKeepsFullPrecision(t *testing.T) {
	ctx := context.Background()
	svc := &MockEntryService{}
	svc.On("Create", mock.Anything, "Asha", 12.345, core.Debit).
		Return(entry("1", "Asha", 12.345, core.Debit), nil).Once()
	s, _ := newTestStore(svc)

	e, ok, err := s.Add(ctx, " Asha ", "12,345", core.Debit)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.345, e.Amount)
	svc.AssertExpectations(t)
}

func TestRemoteFailureLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	seed := []core.Entry{
		entry("2", "Ravi", 20, core.Pending),
		entry("1", "Asha", 150, core.Pending),
	}

	newLoaded := func(t *testing.T) (*Store, *MockEntryService, *fakeClock) {
		svc := &MockEntryService{}
		svc.On("List", mock.Anything).Return(seed, nil).Once()
		s, clock := newTestStore(svc)
		require.NoError(t, s.Load(ctx))
		return s, svc, clock
	}

	t.Run("add", func(t *testing.T) {
		s, svc, _ := newLoaded(t)
		svc.On("Create", mock.Anything, "Kiran", 5.0, core.Pending).Return(core.Entry{}, errBoom).Once()
		before := s.Snapshot()

		_, ok, err := s.Add(ctx, "Kiran", "5", core.Pending)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrSave)
		after := s.Snapshot()
		assert.Equal(t, before.Entries, after.Entries)
		assert.Equal(t, KindSave, after.LastError)
	})

	t.Run("mark paid", func(t *testing.T) {
		s, svc, _ := newLoaded(t)
		svc.On("Update", mock.Anything, "1", remote.StatusFields(core.Paid)).Return(errBoom).Once()
		before := s.Snapshot()

		ok, err := s.MarkPaid(ctx, "1")
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrUpdate)
		assert.Equal(t, before.Entries, s.Snapshot().Entries)
	})

	t.Run("confirm delete closes the confirmation only", func(t *testing.T) {
		s, svc, clock := newLoaded(t)
		svc.On("Delete", mock.Anything, "2").Return(errBoom).Once()
		before := s.Snapshot()

		require.True(t, s.RequestDelete("2"))
		require.NotNil(t, s.Snapshot().ConfirmationTarget)
		ok, err := s.ConfirmDelete(ctx)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrDelete)

		after := s.Snapshot()
		assert.Equal(t, before.Entries, after.Entries)
		assert.Nil(t, after.ConfirmationTarget)
		assert.Nil(t, after.UndoBuffer)
		assert.Equal(t, KindDelete, after.LastError)
		assert.Equal(t, 0, clock.Count())
	})

	t.Run("undo", func(t *testing.T) {
		s, svc, clock := newLoaded(t)
		svc.On("Delete", mock.Anything, "2").Return(nil).Once()
		svc.On("Create", mock.Anything, "Ravi", 20.0, core.Pending).Return(core.Entry{}, errBoom).Once()

		require.True(t, s.RequestDelete("2"))
		_, err := s.ConfirmDelete(ctx)
		require.NoError(t, err)
		before := s.Snapshot()

		_, ok, err := s.UndoDelete(ctx)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrRestore)

		after := s.Snapshot()
		assert.Equal(t, before.Entries, after.Entries)
		require.NotNil(t, after.UndoBuffer)
		assert.Equal(t, "2", after.UndoBuffer.ID)
		assert.False(t, clock.Last().Stopped(), "failed undo must not cancel the timer")
		assert.Equal(t, 1, clock.Count(), "failed undo must not re-arm the window")
	})
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("only touches the target entry", func(t *testing.T) {
		svc := &MockEntryService{}
		svc.On("List", mock.Anything).Return([]core.Entry{
			entry("2", "b", 2, core.Pending),
			entry("1", "a", 1, core.Pending),
		}, nil).Once()
		svc.On("Update", mock.Anything, "1", remote.StatusFields(core.Paid)).Return(nil).Twice()
		s, _ := newTestStore(svc)
		require.NoError(t, s.Load(ctx))

		ok, err := s.MarkPaid(ctx, "1")
		require.NoError(t, err)
		require.True(t, ok)
		snap := s.Snapshot()
		assert.Equal(t, core.Pending, snap.Entries[0].Status)
		assert.Equal(t, core.Paid, snap.Entries[1].Status)

		// Already paid entries re-issue the same update.
		ok, err = s.MarkPaid(ctx, "1")
		require.NoError(t, err)
		assert.True(t, ok)
		svc.AssertExpectations(t)
	})

	t.Run("unknown id and debit entries are ignored", func(t *testing.T) {
		svc := &MockEntryService{}
		svc.On("List", mock.Anything).Return([]core.Entry{entry("1", "a", 1, core.Debit)}, nil).Once()
		s, _ := newTestStore(svc)
		require.NoError(t, s.Load(ctx))

		ok, err := s.MarkPaid(ctx, "missing")
		assert.NoError(t, err)
		assert.False(t, ok)
		ok, err = s.MarkPaid(ctx, "1")
		assert.NoError(t, err)
		assert.False(t, ok)
		svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, core.Debit, s.Snapshot().Entries[0].Status)
	})
}

func TestConfirmation(t *testing.T) {
	ctx := context.Background()
	svc := &MockEntryService{}
	svc.On("List", mock.Anything).Return([]core.Entry{entry("1", "a", 1, core.Pending)}, nil).Once()
	s, _ := newTestStore(svc)
	require.NoError(t, s.Load(ctx))

	assert.False(t, s.RequestDelete("missing"))
	assert.Nil(t, s.Snapshot().ConfirmationTarget)

	ok, err := s.ConfirmDelete(ctx)
	assert.NoError(t, err)
	assert.False(t, ok, "confirm without a staged entry is a no-op")

	require.True(t, s.RequestDelete("1"))
	assert.Equal(t, "1", s.Snapshot().ConfirmationTarget.ID)
	s.CancelDelete()
	assert.Nil(t, s.Snapshot().ConfirmationTarget)
	assert.Len(t, s.Snapshot().Entries, 1)
	svc.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUndoExpiry(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s, clock := newTestStore(backend)

	e, _, err := s.Add(ctx, "Asha", "150", core.Pending)
	require.NoError(t, err)
	require.True(t, s.RequestDelete(e.ID))
	_, err = s.ConfirmDelete(ctx)
	require.NoError(t, err)
	require.NotNil(t, s.Snapshot().UndoBuffer)

	clock.Last().Fire()

	snap := s.Snapshot()
	assert.Nil(t, snap.UndoBuffer)
	assert.Empty(t, snap.Entries)

	restored, ok, err := s.UndoDelete(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, core.Entry{}, restored)
	assert.Equal(t, 0, backend.Len())
}

func TestSingleUndoSlot(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s, clock := newTestStore(backend)

	e1, _, err := s.Add(ctx, "Asha", "1", core.Pending)
	require.NoError(t, err)
	e2, _, err := s.Add(ctx, "Ravi", "2", core.Debit)
	require.NoError(t, err)

	require.True(t, s.RequestDelete(e1.ID))
	_, err = s.ConfirmDelete(ctx)
	require.NoError(t, err)
	first := clock.Last()

	require.True(t, s.RequestDelete(e2.ID))
	_, err = s.ConfirmDelete(ctx)
	require.NoError(t, err)

	assert.True(t, first.Stopped())
	require.NotNil(t, s.Snapshot().UndoBuffer)
	assert.Equal(t, e2.ID, s.Snapshot().UndoBuffer.ID)

	// A late callback from the replaced slot must not clear the new one.
	first.Fire()
	require.NotNil(t, s.Snapshot().UndoBuffer)
	assert.Equal(t, e2.ID, s.Snapshot().UndoBuffer.ID)

	restored, ok, err := s.UndoDelete(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ravi", restored.Name)

	_, ok, err = s.UndoDelete(ctx)
	assert.NoError(t, err)
	assert.False(t, ok, "the first deleted entry can no longer be restored")

	entries := s.Snapshot().Entries
	require.Len(t, entries, 1)
	assert.Equal(t, "Ravi", entries[0].Name)
}

func TestRealTimerExpiresAndCloseCancels(t *testing.T) {
	ctx := context.Background()

	t.Run("expires", func(t *testing.T) {
		s := New(memory.New(), Config{UndoWindow: 20 * time.Millisecond})
		defer s.Close()
		e, _, err := s.Add(ctx, "Asha", "1", core.Pending)
		require.NoError(t, err)
		require.True(t, s.RequestDelete(e.ID))
		_, err = s.ConfirmDelete(ctx)
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return s.Snapshot().UndoBuffer == nil
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("close cancels", func(t *testing.T) {
		s, clock := newTestStore(memory.New())
		e, _, err := s.Add(ctx, "Asha", "1", core.Pending)
		require.NoError(t, err)
		require.True(t, s.RequestDelete(e.ID))
		_, err = s.ConfirmDelete(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Close())
		assert.True(t, clock.Last().Stopped())
		clock.Last().Fire()
		assert.Nil(t, s.Snapshot().UndoBuffer)
	})

	t.Run("delete after close arms nothing", func(t *testing.T) {
		s, clock := newTestStore(memory.New())
		e, _, err := s.Add(ctx, "Asha", "1", core.Pending)
		require.NoError(t, err)
		require.NoError(t, s.Close())

		require.True(t, s.RequestDelete(e.ID))
		ok, err := s.ConfirmDelete(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		snap := s.Snapshot()
		assert.Empty(t, snap.Entries)
		assert.Nil(t, snap.UndoBuffer)
		assert.Nil(t, clock.Last())

		_, ok, err = s.UndoDelete(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSelectAndView(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(memory.New())
	_, _, err := s.Add(ctx, "Asha", "150", core.Pending)
	require.NoError(t, err)
	_, _, err = s.Add(ctx, "Ravi", "20.5", core.Debit)
	require.NoError(t, err)

	assert.Equal(t, core.Pending, s.Snapshot().SelectedStatus)
	assert.Equal(t, 150.0, s.View().Total)

	require.NoError(t, s.Select(core.Debit))
	v := s.View()
	assert.Equal(t, core.Debit, v.Status)
	assert.Equal(t, 20.5, v.Total)

	assert.Error(t, s.Select("settled"))
	assert.Equal(t, core.Debit, s.Snapshot().SelectedStatus)
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(memory.New())
	e, _, err := s.Add(ctx, "Asha", "150", core.Pending)
	require.NoError(t, err)
	require.True(t, s.RequestDelete(e.ID))

	snap := s.Snapshot()
	snap.Entries[0].Name = "changed"
	snap.ConfirmationTarget.Name = "changed"

	again := s.Snapshot()
	assert.Equal(t, "Asha", again.Entries[0].Name)
	assert.Equal(t, "Asha", again.ConfirmationTarget.Name)
}

func TestConcurrentCommandsAreSerialized(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := New(backend, DefaultConfig())
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = s.Add(ctx, "Asha", "1", core.Pending)
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	require.NoError(t, s.Load(ctx))
	assert.Len(t, s.Snapshot().Entries, 20)
	assert.Equal(t, 20, backend.Len())
}
