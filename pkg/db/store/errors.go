package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrDuplicateHash is returned when an image with the same content hash already exists
	ErrDuplicateHash = errors.New("duplicate content hash")
	// ErrNotFound is returned when the targeted image, tag or location does not exist
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps any underlying persistence fault
	ErrStorage = errors.New("storage failure")
	// ErrIntegrity is returned when a stored content hash no longer matches the file on disk
	ErrIntegrity = errors.New("integrity mismatch")
	// ErrValidation is returned for malformed input
	ErrValidation = errors.New("validation failed")
)

// Error carries the failed operation, its kind and the original cause.
// errors.Is matches both the kind and the cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind error, format string, args ...any) error {
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  fmt.Errorf(format, args...),
	}
}

// wrapError classifies err into the catalog taxonomy
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var catalogErr *Error
	if errors.As(err, &catalogErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Op: op, Kind: ErrNotFound, Err: err}
	}
	return &Error{Op: op, Kind: ErrStorage, Err: err}
}
