package store

import (
	"errors"
	"fmt"
)

// ErrorKind names the store operation that failed.
type ErrorKind string

const (
	KindLoad    ErrorKind = "load"
	KindSave    ErrorKind = "save"
	KindUpdate  ErrorKind = "update"
	KindDelete  ErrorKind = "delete"
	KindRestore ErrorKind = "restore"
)

// Sentinels matched by errors.Is against an *OpError of the same kind.
var (
	ErrLoad    = errors.New("load entries failed")
	ErrSave    = errors.New("save entry failed")
	ErrUpdate  = errors.New("update entry failed")
	ErrDelete  = errors.New("delete entry failed")
	ErrRestore = errors.New("restore entry failed")
)

var kindSentinels = map[ErrorKind]error{
	KindLoad:    ErrLoad,
	KindSave:    ErrSave,
	KindUpdate:  ErrUpdate,
	KindDelete:  ErrDelete,
	KindRestore: ErrRestore,
}

// Notice is the user-facing message for a failure of this kind.
func (k ErrorKind) Notice() string {
	switch k {
	case KindLoad:
		return "Failed to load entries. Please check your connection."
	case KindSave:
		return "Failed to save entry. Please try again."
	case KindUpdate:
		return "Failed to update entry. Please try again."
	case KindDelete:
		return "Failed to delete entry. Please try again."
	case KindRestore:
		return "Failed to restore entry. Please try again."
	default:
		return ""
	}
}

// OpError wraps a remote failure with the store operation that produced it.
// None of them is retried and all are recoverable by repeating the action.
type OpError struct {
	Kind ErrorKind
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", kindSentinels[e.Kind], e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{kindSentinels[e.Kind], e.Err}
}

func opError(kind ErrorKind, err error) error {
	return &OpError{Kind: kind, Err: err}
}
