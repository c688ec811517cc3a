/*
errors.go - Centralized error types for the absence engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these onto status codes; the core never retries.

ERROR CATEGORIES:
  1. Not found      - Referenced request/resource/group does not exist
  2. Invalid state  - A transition guard failed (e.g. approving an
                      already-approved request)
  3. Validation     - Structural violations caught before any mutation
  4. Unauthorized   - The caller's permission strategy said no
  5. Conflict       - Optimistic version check failed on update

USAGE:
    if errors.Is(err, absence.ErrInvalidState) {
        // 409 for the caller
    }

SEE ALSO:
  - lifecycle.go: Raises these from transition guards
  - api/handlers.go: Maps them to HTTP status codes
*/
package absence

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced request, resource, or
	// group does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a transition is attempted from a
	// status its guard forbids. Distinct from ErrNotFound: the row
	// exists but is not in the required state.
	ErrInvalidState = errors.New("invalid state for transition")

	// ErrUnauthorized is returned when the caller's permission strategy
	// denies the operation. The request itself may be perfectly valid.
	ErrUnauthorized = errors.New("operation not permitted for caller")

	// ErrConflict is returned when an optimistic version check detects
	// a concurrent modification. Callers should re-fetch and retry.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrGroupRequired is returned when saving a resource whose group
	// does not exist.
	ErrGroupRequired = errors.New("resource references unknown group")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports a structural violation caught before any
// state mutation. Field names the offending attribute.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// InvalidStateError carries the status that blocked a transition.
type InvalidStateError struct {
	RequestID RequestID
	Current   Status
	Action    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s request %s: status is %s", e.Action, e.RequestID, e.Current)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether the error is the caller's fault
// (as opposed to infrastructure failure).
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound)
}
