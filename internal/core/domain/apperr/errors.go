package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies an Error for callers and for the wire.
type Kind string

const (
	KindFileNotFound     Kind = "FileNotFound"
	KindPermissionDenied Kind = "PermissionDenied"
	KindInvalidDirectory Kind = "InvalidDirectory"
	KindIoError          Kind = "IoError"
	KindDatabaseError    Kind = "DatabaseError"
)

// Error is the single error type returned across the cache core. The message
// is meant for display; Err keeps the underlying cause for errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the error as {"kind": ..., "message": ...}.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    Kind   `json:"kind"`
		Message string `json:"message"`
	}{Kind: e.Kind, Message: e.Message})
}

func FileNotFound(path string) *Error {
	return &Error{Kind: KindFileNotFound, Message: fmt.Sprintf("file not found: %s", path), Err: fs.ErrNotExist}
}

func PermissionDenied(path string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf("permission denied: %s", path), Err: fs.ErrPermission}
}

func InvalidDirectory(path string) *Error {
	return &Error{Kind: KindInvalidDirectory, Message: fmt.Sprintf("not a directory: %s", path)}
}

// IO wraps a generic I/O failure.
func IO(op string, err error) *Error {
	return &Error{Kind: KindIoError, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}

// Database wraps a storage failure.
func Database(op string, err error) *Error {
	return &Error{Kind: KindDatabaseError, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}

// FromIO maps a filesystem error for path onto the taxonomy:
// not-exist -> FileNotFound, permission -> PermissionDenied, anything else -> IoError.
func FromIO(op, path string, err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		e := FileNotFound(path)
		e.Err = err
		return e
	case errors.Is(err, fs.ErrPermission):
		e := PermissionDenied(path)
		e.Err = err
		return e
	default:
		return IO(op, err)
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
