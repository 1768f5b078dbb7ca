package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEntityNotFound           = errors.New("entity not found")
	ErrInvalidRelationship      = errors.New("invalid relationship")
	ErrQualityOutOfRange        = errors.New("quality dimension out of range")
	ErrInvalidStateTransition   = errors.New("invalid state transition")
	ErrInsufficientParticipants = errors.New("hyperedge requires at least 2 participants")
	ErrCIDResolutionFailed      = errors.New("cid resolution failed")
	ErrCrossDomainEventFailed   = errors.New("cross-domain event failed")
	ErrSpace                    = errors.New("space error")
)

// TransitionError reports a state change the lifecycle table does not allow.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

func invalidRelationship(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRelationship, fmt.Sprintf(format, args...))
}

func EntityNotFoundError(description string) error {
	return fmt.Errorf("%w: %s", ErrEntityNotFound, description)
}

func CIDResolutionError(cid string) error {
	return fmt.Errorf("%w: %s", ErrCIDResolutionFailed, cid)
}

func CrossDomainEventError(reason string) error {
	return fmt.Errorf("%w: %s", ErrCrossDomainEventFailed, reason)
}

func QualityOutOfRangeError(dimension string) error {
	return fmt.Errorf("%w: %s", ErrQualityOutOfRange, dimension)
}

// SpaceError wraps a failure from the conceptual-space collaborator so that
// both ErrSpace and the inner error match errors.Is.
func SpaceError(inner error) error {
	return fmt.Errorf("%w: %w", ErrSpace, inner)
}
