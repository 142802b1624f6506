package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrStorage            = errors.New("storage failure")
)

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add records msg for field unless the field already has a message.
func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StorageError wraps an unexpected persistence failure. It matches ErrStorage.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage failure: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// AsStorage passes domain errors through and wraps anything else as a StorageError.
func AsStorage(err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTooManyAttempts),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrStorage):
		return err
	}
	return &StorageError{Err: err}
}
