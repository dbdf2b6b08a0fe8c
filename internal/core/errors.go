package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrPartialTransfer = errors.New("partial transfer")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// ValidationError reports malformed caller input. It is raised before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports an edit or delete against an unknown id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PartialTransferError reports that one half of a transfer was written and
// the other failed. Compensated is true when the written half was removed again.
type PartialTransferError struct {
	TransferID  string
	Written     Entry
	Compensated bool
	Err         error
}

func (e *PartialTransferError) Error() string {
	state := "orphaned"
	if e.Compensated {
		state = "rolled back"
	}
	return fmt.Sprintf("transfer %s: entry %s written, counterpart failed (%s): %v",
		e.TransferID, e.Written.ID, state, e.Err)
}

func (e *PartialTransferError) Unwrap() error {
	return e.Err
}

func (e *PartialTransferError) Is(target error) bool {
	return target == ErrPartialTransfer
}

// NotFound is a shorthand constructor.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
