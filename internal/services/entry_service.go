// Package services layers cross-cutting behavior over the entry backend.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"paytrack/internal/amqp"
	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/remote"
)

// Publisher sends change events. *amqp.Client implements it.
type Publisher interface {
	PublishEntryEvent(ctx context.Context, event *amqp.EntryEvent) error
}

// EntryService persists through the wrapped backend first and then
// publishes a change event. A failed publish is logged and never fails
// the operation: the entry is already stored.
type EntryService struct {
	next      remote.EntryService
	publisher Publisher
	logger    *slog.Logger
}

var _ remote.EntryService = (*EntryService)(nil)

func NewEntryService(next remote.EntryService, publisher Publisher, logger *slog.Logger) *EntryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryService{
		next:      next,
		publisher: publisher,
		logger:    logger.With(log.FieldComponent, log.ComponentAMQP),
	}
}

func (s *EntryService) List(ctx context.Context) ([]core.Entry, error) {
	return s.next.List(ctx)
}

func (s *EntryService) Create(ctx context.Context, name string, amount float64, status core.Status) (core.Entry, error) {
	e, err := s.next.Create(ctx, name, amount, status)
	if err != nil {
		return core.Entry{}, err
	}
	s.publish(ctx, amqp.NewCreatedEvent(e))
	return e, nil
}

func (s *EntryService) Update(ctx context.Context, id string, fields remote.Fields) error {
	if err := s.next.Update(ctx, id, fields); err != nil {
		return err
	}
	if fields.Status != nil {
		s.publish(ctx, amqp.NewStatusChangedEvent(id, *fields.Status))
	}
	return nil
}

func (s *EntryService) Delete(ctx context.Context, id string) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

func (s *EntryService) publish(ctx context.Context, event *amqp.EntryEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping event",
			log.FieldEventType, event.Type)
		return
	}
	if err := s.publisher.PublishEntryEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish entry event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, event.Type,
			log.FieldEntryID, event.EntryID,
			log.FieldError, err)
	}
}

// Close closes the backend and the publisher when they hold resources.
func (s *EntryService) Close() error {
	var errs []error

	if c, ok := s.next.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("backend: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %w", errors.Join(errs...))
	}
	return nil
}
