package services

import (
	"errors"
	"fmt"
)

var (
	ErrAuthRequired        = errors.New("authentication required")
	ErrNotFound            = errors.New("not found")
	ErrClientNotFound      = fmt.Errorf("client %w", ErrNotFound)
	ErrVisitNotFound       = fmt.Errorf("visit %w", ErrNotFound)
	ErrInvalidInput        = errors.New("invalid input")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrTransactionConflict = errors.New("transaction conflict")
)

// StoreError is a backend failure wrapped with a short message for the caller.
// It matches both ErrStoreUnavailable and the underlying error.
type StoreError struct {
	Msg string
	Err error
}

func (e *StoreError) Error() string {
	return e.Msg + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// storeErr wraps err as a StoreError unless it already belongs to the
// service's own taxonomy.
func storeErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrAuthRequired, ErrNotFound, ErrInvalidInput, ErrTransactionConflict, ErrStoreUnavailable} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &StoreError{Msg: msg, Err: err}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
