package errors

import (
	"errors"
	"fmt"
)

// StoreError is the structured error type for lorestore.
// It carries a stable code plus a kind that tells callers whether the
// failure may be collapsed to an empty result (NotFound) or must be
// surfaced (StorageUnavailable).
type StoreError struct {
	// Code is the unique error code (e.g., "ERR_302_STORE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Kind classifies how callers should react.
	Kind Kind

	// Category is the error category (Config, Corpus, Storage, ...).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with StoreError.
func (e *StoreError) Is(target error) bool {
	if t, ok := target.(*StoreError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *StoreError) WithDetail(key, value string) *StoreError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new StoreError with the given code and message.
// Kind and category are derived from the code.
func New(code string, message string, cause error) *StoreError {
	return &StoreError{
		Code:     code,
		Message:  message,
		Kind:     kindFromCode(code),
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a StoreError from an existing error.
// The error's message becomes the StoreError message.
func Wrap(code string, err error) *StoreError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// StorageError creates a storage-unavailable error.
func StorageError(message string, cause error) *StoreError {
	return New(ErrCodeStoreUnavailable, message, cause)
}

// NotFoundError creates a not-found error.
func NotFoundError(message string) *StoreError {
	return New(ErrCodeNotFound, message, nil)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *StoreError {
	return New(ErrCodeInvalidInput, message, cause)
}

// GetKind extracts the kind from an error chain.
// Returns KindInternal for errors that are not StoreErrors.
func GetKind(err error) Kind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsNotFound reports whether the error may be collapsed to an empty result.
func IsNotFound(err error) bool {
	return err != nil && GetKind(err) == KindNotFound
}

// IsStorageUnavailable reports whether the backing store is broken.
// Such errors must always propagate to the caller so "no matches" stays
// distinguishable from "can't search".
func IsStorageUnavailable(err error) bool {
	return err != nil && GetKind(err) == KindStorageUnavailable
}

// GetCode extracts the error code from an error chain.
// Returns empty string if no StoreError is present.
func GetCode(err error) string {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
