package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"paytrack/internal/core"
	"paytrack/internal/remote"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s := New().WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	first, err := s.Create(ctx, "Asha", 150, core.Pending)
	if err != nil || first.ID == "" {
		t.Fatalf("unexpected create: %+v err=%v", first, err)
	}
	second, err := s.Create(ctx, "Ravi", 20, core.Debit)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("ids must be unique")
	}

	list, _ := s.List(ctx)
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	if err := s.Update(ctx, first.ID, remote.StatusFields(core.Paid)); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ = s.List(ctx)
	if list[1].Status != core.Paid {
		t.Fatalf("expected paid, got %s", list[1].Status)
	}

	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", s.Len())
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Delete(ctx, "missing"); !remote.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	err := s.Update(ctx, "missing", remote.StatusFields(core.Paid))
	if !remote.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var se *remote.ServiceError
	if !errors.As(err, &se) || se.Op != remote.OpUpdate || se.ID != "missing" {
		t.Fatalf("expected service error, got %#v", err)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Create(ctx, "", 1, core.Pending); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := s.Create(ctx, "x", -1, core.Pending); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	if err := s.Update(ctx, "x", remote.Fields{}); err == nil {
		t.Fatalf("expected error for empty update")
	}
}

func TestListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(core.Entry{ID: "1", Name: "a", Amount: 1, Status: core.Pending})
	list, _ := s.List(ctx)
	list[0].Name = "changed"
	again, _ := s.List(ctx)
	if again[0].Name != "a" {
		t.Fatalf("List leaked internal slice")
	}
}
