package model

import "time"

// Invoice aggregates the billable lines of a stay (or a standalone sale).
// Subtotal, Tax and Total are always the sums over the current lines and
// are recomputed inside the same transaction as any line mutation; they are
// never edited independently once lines exist.
//
// Fields:
//  ID            – primary key identifier.
//  Number        – sequential invoice number (max existing + 1, floor 1000).
//  Prefix        – invoice series prefix, "FV".
//  ReservationID – owning reservation; nil for standalone invoices.
//  ClientID      – user being billed.
//  IssuedAt      – issue date.
//  PaymentMethod – free-form method; "Pending" until payment is recorded,
//                  and reset to "Pending" when the invoice is voided.
//  Status        – Pending, Paid or Voided.
//  Subtotal      – Σ line.Subtotal.
//  Tax           – Σ line.Tax.
//  Total         – Σ line.Total.
//  Notes         – optional free-text notes.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Invoice struct {
	ID            uint64    // invoices.id
	Number        uint64    // invoices.number
	Prefix        string    // invoices.prefix
	ReservationID *uint64   // invoices.reservation_id (nullable)
	ClientID      uint64    // invoices.client_id
	IssuedAt      time.Time // invoices.issued_at
	PaymentMethod string    // invoices.payment_method
	Status        string    // invoices.status
	Subtotal      float64   // invoices.subtotal
	Tax           float64   // invoices.tax
	Total         float64   // invoices.total
	Notes         *string   // invoices.notes (nullable)
	CreatedAt     time.Time // invoices.created_at
	UpdatedAt     time.Time // invoices.updated_at
}

// Invoice status values.  Constants avoid scattering literals through
// handlers and services.
const (
	InvoiceStatusPending = "Pending"
	InvoiceStatusPaid    = "Paid"
	InvoiceStatusVoided  = "Voided"
)

// PaymentMethodPending marks an invoice whose payment has not been recorded.
const PaymentMethodPending = "Pending"

// InvoicePrefix is the series prefix every invoice is issued under.
const InvoicePrefix = "FV"

// InvoiceLine is a single billed item under an invoice.  A nil ServiceID
// marks the lodging line, of which each reservation-backed invoice has at
// most one; regeneration replaces it atomically.
//
// Fields:
//  ID          – primary key identifier.
//  InvoiceID   – owning invoice.
//  ServiceID   – referenced catalog service; nil for the lodging line.
//  Description – human-readable line description.
//  Quantity    – positive unit count (nights for the lodging line).
//  UnitPrice   – non-negative price per unit.
//  Subtotal    – Quantity × UnitPrice.
//  Tax         – Subtotal × tax rate, rounded to 2 decimals.
//  Total       – Subtotal + Tax.
//  CreatedAt   – creation timestamp.
type InvoiceLine struct {
	ID          uint64    // invoice_lines.id
	InvoiceID   uint64    // invoice_lines.invoice_id
	ServiceID   *uint64   // invoice_lines.service_id (nullable)
	Description string    // invoice_lines.description
	Quantity    uint32    // invoice_lines.quantity
	UnitPrice   float64   // invoice_lines.unit_price
	Subtotal    float64   // invoice_lines.subtotal
	Tax         float64   // invoice_lines.tax
	Total       float64   // invoice_lines.total
	CreatedAt   time.Time // invoice_lines.created_at
}

// Lodging reports whether the line is the reservation's lodging line.
func (l *InvoiceLine) Lodging() bool { return l.ServiceID == nil }
