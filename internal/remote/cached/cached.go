// Package cached decorates an EntryService with a list cache. Mutations
// always reach the wrapped service first and then drop the cached list.
package cached

import (
	"context"
	"log/slog"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/remote"
)

// ListCache stores the full entry list.
type ListCache interface {
	Get(ctx context.Context) ([]core.Entry, bool, error)
	Set(ctx context.Context, entries []core.Entry) error
	Invalidate(ctx context.Context) error
}

// Service serves List from the cache when possible. Cache failures are
// logged and fall through to the wrapped service.
type Service struct {
	next   remote.EntryService
	cache  ListCache
	logger *slog.Logger
}

var _ remote.EntryService = (*Service)(nil)

func New(next remote.EntryService, cache ListCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		next:   next,
		cache:  cache,
		logger: logger.With(log.FieldComponent, log.ComponentCache),
	}
}

func (s *Service) List(ctx context.Context) ([]core.Entry, error) {
	entries, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Cache read failed, using backend", log.FieldError, err)
	} else if ok {
		return entries, nil
	}

	entries, err = s.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, entries); err != nil {
		s.logger.WarnContext(ctx, "Cache write failed", log.FieldError, err)
	}
	return entries, nil
}

func (s *Service) Create(ctx context.Context, name string, amount float64, status core.Status) (core.Entry, error) {
	e, err := s.next.Create(ctx, name, amount, status)
	if err != nil {
		return core.Entry{}, err
	}
	s.invalidate(ctx)
	return e, nil
}

func (s *Service) Update(ctx context.Context, id string, fields remote.Fields) error {
	if err := s.next.Update(ctx, id, fields); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "Cache invalidation failed", log.FieldError, err)
	}
}
