package model

import "time"

// Room describes a physical hotel room.  Room numbers are unique among
// active rooms; a deactivated room keeps its number so reservation history
// stays intact, and the number becomes reusable.  The occupancy state is
// mutated only by reservation status transitions, never edited directly
// through the room CRUD surface (except the Maintenance toggle).
//
// Fields:
//  ID            – primary key identifier.
//  RoomNumber    – door number, e.g. "101".
//  RoomType      – Individual, Double, Suite or Family.
//  Capacity      – maximum number of guests.
//  Description   – optional descriptive text.
//  NightlyPrice  – price per night, non-negative.
//  State         – Available, Occupied or Maintenance.
//  PhotoPath     – optional stored image path (managed outside the core).
//  DeactivatedAt – soft-delete timestamp; nil means active.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Room struct {
	ID            uint64     // rooms.id
	RoomNumber    string     // rooms.room_number
	RoomType      string     // rooms.room_type
	Capacity      uint32     // rooms.capacity
	Description   *string    // rooms.description (nullable)
	NightlyPrice  float64    // rooms.nightly_price
	State         string     // rooms.state
	PhotoPath     *string    // rooms.photo_path (nullable)
	DeactivatedAt *time.Time // rooms.deactivated_at (nullable)
	CreatedAt     time.Time  // rooms.created_at
	UpdatedAt     time.Time  // rooms.updated_at
}

// Active reports whether the room has not been soft-deleted.
func (r *Room) Active() bool { return r.DeactivatedAt == nil }
