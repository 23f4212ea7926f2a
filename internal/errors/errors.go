// Package errors provides the shared error vocabulary of the vault. Domain packages wrap
// these sentinels so the service boundary can classify a failure without knowing which
// layer produced it.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested card record does not exist or was not returned.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the request failed validation before any store call.
	ErrInvalidInput = errors.New("invalid input")
)

// Wrap prefixes err with message while keeping it matchable with Is.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
