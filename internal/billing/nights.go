package billing

import (
	"fmt"
	"time"
)

// Nights returns the billable night count for a stay: the calendar days
// between check-in and check-out, with a minimum of one night.  checkOut
// must be strictly after checkIn; reservation validation guarantees that
// before this is reached, so a violation here is rejected rather than
// silently billed as zero nights.
func Nights(checkIn, checkOut time.Time) (int, error) {
	if !checkOut.After(checkIn) {
		return 0, fmt.Errorf("%w: check-out %s must be after check-in %s",
			ErrInvalidInput, checkOut.Format("2006-01-02"), checkIn.Format("2006-01-02"))
	}
	nights := int(checkOut.Sub(checkIn) / (24 * time.Hour))
	if nights < 1 {
		nights = 1
	}
	return nights, nil
}

// LodgingDescription builds the description of the lodging line for a room
// type.  The lodging line is the one invoice line without a service
// reference; this prefix is what distinguishes it in listings.
func LodgingDescription(roomType RoomType) string {
	return "Lodging in room " + string(roomType)
}
