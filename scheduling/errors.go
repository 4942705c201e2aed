package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrInterviewNotFound = errors.New("interview not found")
	// ErrPersistenceConflict means the conflict check passed but the store's
	// uniqueness constraint rejected the write.
	ErrPersistenceConflict = errors.New("interview slot was booked concurrently")
)

// ConflictError carries one human-readable reason per colliding interview.
type ConflictError struct {
	Reasons []string
}

func (e *ConflictError) Error() string {
	return "scheduling conflict detected"
}

type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &InvalidArgumentError{Field: field, Reason: reason}
}

// CandidateExistsError is returned when the email already belongs to a candidate.
type CandidateExistsError struct {
	ID    uint
	Email string
}

func (e *CandidateExistsError) Error() string {
	return fmt.Sprintf("candidate with email %s already exists", e.Email)
}

// CollaboratorError wraps an unexpected failure of the persistence layer.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// IsExpected reports whether err is a domain outcome rather than an
// infrastructure failure.
func IsExpected(err error) bool {
	var (
		conflict *ConflictError
		inv      *InvalidArgumentError
		exists   *CandidateExistsError
	)
	switch {
	case errors.Is(err, ErrCandidateNotFound), errors.Is(err, ErrInterviewNotFound),
		errors.Is(err, ErrPersistenceConflict):
		return true
	case errors.As(err, &conflict), errors.As(err, &inv), errors.As(err, &exists):
		return true
	}
	return false
}
