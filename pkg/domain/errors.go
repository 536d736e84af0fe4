package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every caller-facing business error matches exactly one
// of these via errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrOwnership    = errors.New("actor is not the current custodian")
	ErrInvalidState = errors.New("operation not valid in current state")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown batch, actor or certificate.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// OwnershipError reports an actor acting on a batch it does not hold.
type OwnershipError struct {
	BatchID string
	ActorID string
	OwnerID string
}

func (e OwnershipError) Error() string {
	return fmt.Sprintf("actor %s does not own batch %s (owner %s)", e.ActorID, e.BatchID, e.OwnerID)
}

// Is matches ErrOwnership.
func (e OwnershipError) Is(target error) bool { return target == ErrOwnership }

// InvalidStateError reports an operation attempted in the wrong lifecycle state.
type InvalidStateError struct {
	BatchID   string
	Status    BatchStatus
	Operation string
	Reason    string
}

func (e InvalidStateError) Error() string {
	msg := fmt.Sprintf("cannot %s batch %s in status %q", e.Operation, e.BatchID, e.Status)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is matches ErrInvalidState.
func (e InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// IsBusinessError reports whether err is one of the expected caller-facing
// outcomes rather than a system fault.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrOwnership) ||
		errors.Is(err, ErrInvalidState)
}
