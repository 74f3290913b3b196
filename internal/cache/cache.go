// Package cache holds the in-process LRU used to keep the entry list warm
// between reloads when no Redis is configured.
package cache

import (
	"log/slog"
	"time"

	"paytrack/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired items.
type Cleaner interface {
	CleanExpired() int
}

// StatsReporter is implemented by caches that count their traffic.
type StatsReporter interface {
	Stats() Stats
}

// Manager runs periodic cleanup over registered caches.
type Manager struct {
	caches      []Cleaner
	logger      *slog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger.With(log.FieldComponent, log.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager. Call before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, c := range m.caches {
				total += c.CleanExpired()
			}
			if total > 0 {
				m.logger.Debug("Expired cache items removed", "count", total)
			}
			m.logStats()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) logStats() {
	var sum Stats
	for _, c := range m.caches {
		if r, ok := c.(StatsReporter); ok {
			st := r.Stats()
			sum.Hits += st.Hits
			sum.Misses += st.Misses
			sum.Evictions += st.Evictions
			sum.Expired += st.Expired
		}
	}
	m.logger.Debug("Cache stats",
		"hits", sum.Hits,
		"misses", sum.Misses,
		"evictions", sum.Evictions,
		"expired", sum.Expired)
}

// Stop ends the cleanup goroutine and waits for it. Safe without StartCleanup.
func (m *Manager) Stop() {
	select {
	case <-m.stopCleanup:
		return
	default:
	}
	close(m.stopCleanup)
	if m.started {
		<-m.cleanupDone
	}
}
