package amqp

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"paytrack/internal/log"
)

const maxBackoff = 30 * time.Second

// Dialer opens a fresh client. NewClient bound to its settings is the usual one.
type Dialer func() (*Client, error)

// ConsumeWithReconnect keeps a consumer running across broker restarts.
// Non-connection errors and ctx cancellation end the loop.
func ConsumeWithReconnect(ctx context.Context, dial Dialer, handler Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(log.FieldComponent, log.ComponentAMQP)

	for attempt := 0; ; attempt++ {
		client, err := dial()
		if err == nil {
			attempt = 0
			err = client.ConsumeEntryEvents(ctx, handler)
			client.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		logger.WarnContext(ctx, "AMQP connection lost, reconnecting",
			log.FieldError, err,
			"attempt", attempt+1,
			"backoff", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// exponentialBackoff returns 1s, 2s, 4s... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errDeliveriesClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection closed",
		"connection reset",
		"unexpected eof",
		"broken pipe",
		"use of closed network connection",
		"channel/connection is not open",
		"dial amqp",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
