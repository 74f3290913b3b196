package cache

import (
	"context"
	"time"

	"paytrack/internal/core"
)

const entryListKey = "entries:all"

// EntryList stores the full entry list in an LRUCache. It satisfies
// cached.ListCache.
type EntryList struct {
	lru *LRUCache[[]core.Entry]
}

func NewEntryList(size int, ttl time.Duration) *EntryList {
	return &EntryList{lru: NewLRUCache[[]core.Entry](size, ttl)}
}

// LRU exposes the underlying cache so a Manager can clean it.
func (l *EntryList) LRU() *LRUCache[[]core.Entry] {
	return l.lru
}

func (l *EntryList) Get(_ context.Context) ([]core.Entry, bool, error) {
	entries, ok := l.lru.Get(entryListKey)
	if !ok {
		return nil, false, nil
	}
	return append([]core.Entry(nil), entries...), true, nil
}

func (l *EntryList) Set(_ context.Context, entries []core.Entry) error {
	l.lru.Set(entryListKey, append([]core.Entry(nil), entries...))
	return nil
}

func (l *EntryList) Invalidate(_ context.Context) error {
	l.lru.Delete(entryListKey)
	return nil
}
