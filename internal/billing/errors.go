// Package billing holds the pure reservation/invoice domain logic: line
// amount computation, the reservation status machine and night counting.
// Nothing in this package touches the database; repositories and services
// call into it and persist the results.
package billing

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a caller supplies a malformed quantity,
// price, date range or enum value.  Validation happens before any mutation,
// so an operation failing with this error has written nothing.
var ErrInvalidInput = errors.New("invalid input")

// InvalidTransitionError reports a reservation status change that the
// transition table does not allow.  Both endpoints are carried so handlers
// can render "transition X -> Y is not allowed" without re-deriving them.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// ConsistencyError reports that a dependent write (typically the room state
// sync after a reservation status change) failed after its parent update
// succeeded inside the same transaction.  The transaction is rolled back and
// the error surfaced; it is never swallowed.
type ConsistencyError struct {
	Op  string
	Err error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency: %s: %v", e.Op, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }
