package generation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound reports a lookup of an unknown tracker record or entity.
var ErrNotFound = errors.New("record not found")

// ValidationError rejects a malformed generation request before any
// pipeline state is created.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid generation request: " + e.Reason
}

// ReferentialIntegrityError reports a question registered against a
// passage that does not exist in the builder. Always a pipeline bug.
type ReferentialIntegrityError struct {
	PassageID uuid.UUID
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("question references unregistered passage %s", e.PassageID)
}

// OracleError wraps malformed, incomplete, or rejected oracle output.
// Fatal to the run; the message is surfaced verbatim in the failure record.
type OracleError struct {
	Phase string
	Err   error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle failure during %s: %v", e.Phase, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed final save. Fatal, and notably wasteful:
// all generation cost was already incurred, so callers log it distinctly.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist generated content: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
