// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrConflict signals that an operation
// cannot proceed due to conflicting existing state (e.g. creating a
// room whose number is already taken by another active room).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a mutation cannot be performed because of
// conflicting state. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrRoomNumberTaken is returned when creating, updating or restoring a
// room would leave two active rooms with the same number.
var ErrRoomNumberTaken = errors.New("room number already in use")

// Not-found sentinels, one per entity, so handlers can name what was
// missing without string matching.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvoiceLineNotFound = errors.New("invoice line not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrUserNotFound        = errors.New("user not found")
)
