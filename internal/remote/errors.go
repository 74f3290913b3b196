package remote

import (
	"errors"
	"fmt"
)

// Operation names carried by ServiceError.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

var (
	ErrNotFound    = errors.New("entry not found")
	ErrEmptyUpdate = errors.New("update has no fields")
	ErrUnavailable = errors.New("remote service unavailable")
)

// ServiceError is the only error type backends return.
type ServiceError struct {
	Op  string
	ID  string
	Err error
}

func (e *ServiceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s entry %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s entries: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *ServiceError, leaving existing ones untouched.
func Wrap(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Op: op, ID: id, Err: err}
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
