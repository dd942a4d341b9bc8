package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrStoreNotFound is returned when a storefront slug does not resolve.
	ErrStoreNotFound = errors.New("store not found")
	// ErrShopMissing means the operator has not created a shop yet.
	ErrShopMissing = errors.New("shop not created")
	// ErrUnauthorized means the upstream rejected the session; the session has been logged out.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict means a write kept losing to concurrent writers of the same record.
	ErrConflict = errors.New("concurrent modification")
)

// ValidationError is raised before any network call when local input is invalid.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{field: message}}
}

// RequestError is a non-2xx upstream response surfaced to the caller.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
}

// Unwrap lets callers match 401 and 404 with errors.Is.
func (e *RequestError) Unwrap() error {
	switch e.Status {
	case 401:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	}
	return nil
}
