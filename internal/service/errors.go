package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task-tracker/internal/repository"
)

var (
	// ErrNotFound covers both missing resources and resources owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an entity changed since the caller read it.
	ErrConflict = errors.New("conflict")
	// ErrListNotEmpty is returned by a rejecting list delete when tasks remain.
	ErrListNotEmpty = fmt.Errorf("%w: list still has tasks", ErrConflict)
	// ErrTimeout is returned when the store does not answer within the configured bound.
	ErrTimeout = errors.New("store timeout")
	// ErrForbidden is returned by Authorize; services report it as ErrNotFound.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// translate maps store errors onto the service taxonomy. ctx is the bounded
// context the store call ran under.
func translate(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrListNotFound):
		return fmt.Errorf("%w: list", ErrNotFound)
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConflict
	case errors.Is(err, repository.ErrListNotEmpty):
		return ErrListNotEmpty
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return err
	}
}
