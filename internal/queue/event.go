// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// ReservationConfirmedEvent is published when a reservation moves to
// Confirmed.  It carries enough context for downstream consumers to log or
// notify without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	BookingCode   string  `json:"booking_code"`
	ClientID      uint64  `json:"client_id"`
	ClientName    string  `json:"client_name"`
	RoomID        uint64  `json:"room_id"`
	RoomNumber    string  `json:"room_number"`
	RoomType      string  `json:"room_type"`
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	Nights        int     `json:"nights"`
	InvoiceTotal  float64 `json:"invoice_total"`
	ConfirmedAt   string  `json:"confirmed_at"`
}

// InvoiceVoidedEvent is published when a cancellation voids an invoice.
type InvoiceVoidedEvent struct {
	InvoiceID     uint64  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	ReservationID uint64  `json:"reservation_id"`
	BookingCode   string  `json:"booking_code"`
	ClientID      uint64  `json:"client_id"`
	Total         float64 `json:"total"`
	VoidedAt      string  `json:"voided_at"`
}
