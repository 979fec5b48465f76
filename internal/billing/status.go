package billing

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

// RoomState is the stored occupancy state of a room.  It is mutated only by
// reservation transitions (and admin maintenance toggles).  The state is
// last-writer-wins: completing or cancelling a reservation returns its room
// to Available without checking other reservations on the same room, which
// mirrors the hotel's existing process.
type RoomState string

const (
	RoomAvailable   RoomState = "Available"
	RoomOccupied    RoomState = "Occupied"
	RoomMaintenance RoomState = "Maintenance"
)

// RoomType classifies a room for pricing and lodging descriptions.
type RoomType string

const (
	RoomTypeIndividual RoomType = "Individual"
	RoomTypeDouble     RoomType = "Double"
	RoomTypeSuite      RoomType = "Suite"
	RoomTypeFamily     RoomType = "Family"
)

// ValidStatus reports whether s is one of the four reservation statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ValidRoomState reports whether s is a known occupancy state.
func ValidRoomState(s RoomState) bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomMaintenance:
		return true
	}
	return false
}

// ValidRoomType reports whether t is a known room type.
func ValidRoomType(t RoomType) bool {
	switch t {
	case RoomTypeIndividual, RoomTypeDouble, RoomTypeSuite, RoomTypeFamily:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are accepted from s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// RoomEffect is the room-state side effect a transition demands.
type RoomEffect int

const (
	RoomEffectNone    RoomEffect = iota // room untouched
	RoomEffectOccupy                    // room -> Occupied
	RoomEffectRelease                   // room -> Available
)

// Transition validates a reservation status change against the allowed
// table and returns the room side effect to apply in the same transaction:
//
//	Pending   -> Confirmed  room -> Occupied
//	Pending   -> Pending    no-op
//	Confirmed -> Completed  room -> Available
//	non-terminal -> Cancelled  room -> Available
//
// Re-submitting the current state of a terminal reservation is a no-op
// success.  Everything else fails with *InvalidTransitionError and must
// leave both records untouched.
func Transition(from, to Status) (RoomEffect, error) {
	if !ValidStatus(from) || !ValidStatus(to) {
		return RoomEffectNone, ErrInvalidInput
	}
	if from == to && (from == StatusPending || from.Terminal()) {
		return RoomEffectNone, nil
	}
	switch {
	case from == StatusPending && to == StatusConfirmed:
		return RoomEffectOccupy, nil
	case from == StatusConfirmed && to == StatusCompleted:
		return RoomEffectRelease, nil
	case to == StatusCancelled && !from.Terminal():
		return RoomEffectRelease, nil
	}
	return RoomEffectNone, &InvalidTransitionError{From: from, To: to}
}
