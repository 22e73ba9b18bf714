package service

import (
	"errors"
	"strings"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

var (
	ErrNotFound           = errors.New("booking not found")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("access token required")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError lists every field of a request that failed validation.
type ValidationError struct {
	Fields []types.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, types.FieldError{Field: field, Message: msg})
}

// err returns e as an error, or nil when nothing failed.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
