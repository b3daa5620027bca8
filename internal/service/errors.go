package service

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is a caller mistake tied to one input field (400).
type ValidationError struct {
	Field   string
	Message string
	// Kind distinguishes business-rule failures such as ErrInsufficientStock
	Kind error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

// NotFoundError means a referenced entity does not exist (404).
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// AuthorizationError covers missing (401) and insufficient (403) credentials.
type AuthorizationError struct {
	Status  int
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// ConflictError is a uniqueness or stale-write violation (409).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// StoreError wraps an underlying persistence failure (500).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Business-rule sentinels carried in ValidationError.Kind.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNegativeStock     = errors.New("negative stock")
)

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity string) error { return &NotFoundError{Entity: entity} }

func unauthorized(msg string) error {
	return &AuthorizationError{Status: http.StatusUnauthorized, Message: msg}
}

func forbidden(msg string) error {
	return &AuthorizationError{Status: http.StatusForbidden, Message: msg}
}

func conflict(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	// Already classified errors pass through untouched
	if HTTPStatus(err) != http.StatusInternalServerError || errors.As(err, new(*StoreError)) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// HTTPStatus maps a service error to its response status.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		nf *NotFoundError
		ae *AuthorizationError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ae):
		return ae.Status
	case errors.As(err, &ce):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
