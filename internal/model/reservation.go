package model

import "time"

// Reservation records a guest's booking of a room for a date range.  Each
// reservation is created together with its invoice; date or room changes
// regenerate the invoice's lodging line, and status transitions drive the
// room's occupancy state.
//
// Fields:
//  ID          – primary key identifier.
//  BookingCode – unique short code in the form RES-XXXXXX.
//  UserID      – guest who owns the reservation.
//  RoomID      – room being reserved.
//  CheckIn     – arrival date.
//  CheckOut    – departure date, strictly after CheckIn.
//  Status      – Pending, Confirmed, Cancelled or Completed.
//  Note        – optional free-text note.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Reservation struct {
	ID          uint64    // reservations.id
	BookingCode string    // reservations.booking_code
	UserID      uint64    // reservations.user_id
	RoomID      uint64    // reservations.room_id
	CheckIn     time.Time // reservations.check_in
	CheckOut    time.Time // reservations.check_out
	Status      string    // reservations.status
	Note        *string   // reservations.note (nullable)
	CreatedAt   time.Time // reservations.created_at
	UpdatedAt   time.Time // reservations.updated_at
}
