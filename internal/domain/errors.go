package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Typed errors below match them with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// NotFoundError names the missing entity and the identifier that was looked up.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a uniqueness violation on Key within Entity.
type ConflictError struct {
	Entity string
	Key    string
	Detail string
}

func (e *ConflictError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %q already exists: %s", e.Entity, e.Key, e.Detail)
	}
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field string
	Rule  string
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Rule)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors groups several field failures from one input.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "validation failed"
	case 1:
		return errs[0].Error()
	}
	msg := fmt.Sprintf("validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return msg
}

func (errs ValidationErrors) Is(target error) bool { return target == ErrValidation }

// NewNotFound is shorthand for &NotFoundError{Entity: entity, ID: id}.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}
