// Package service holds the transactional business flows that span several
// repositories: booking a stay, moving it through its lifecycle, and
// mutating invoice ledgers.  Every flow runs in a single database
// transaction so a reservation, its room state and its invoice can never
// disagree.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hostaria/hotel-reservation-api/internal/billing"
	"github.com/hostaria/hotel-reservation-api/internal/bookingcode"
	"github.com/hostaria/hotel-reservation-api/internal/model"
	"github.com/hostaria/hotel-reservation-api/internal/queue"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
)

// ErrRoomUnavailable signals an attempt to confirm a stay in a room whose
// stored state is not Available.
var ErrRoomUnavailable = fmt.Errorf("room is not available: %w", repository.ErrConflict)

// BookingService creates reservations together with their invoices and
// drives the status lifecycle.  All mutations happen inside one
// transaction per call.
type BookingService struct {
	db           *sql.DB
	reservations *repository.ReservationRepo
	rooms        *repository.RoomRepo
	invoices     *repository.InvoiceRepo
	lines        *repository.InvoiceLineRepo
	users        *repository.UserRepo
	codes        bookingcode.Generator
	taxRate      float64
}

// NewBookingService wires a BookingService.  The tax rate is fixed for the
// lifetime of the process; it is read from configuration once at startup.
func NewBookingService(db *sql.DB, reservations *repository.ReservationRepo, rooms *repository.RoomRepo,
	invoices *repository.InvoiceRepo, lines *repository.InvoiceLineRepo, users *repository.UserRepo,
	codes bookingcode.Generator, taxRate float64) *BookingService {
	return &BookingService{
		db:           db,
		reservations: reservations,
		rooms:        rooms,
		invoices:     invoices,
		lines:        lines,
		users:        users,
		codes:        codes,
		taxRate:      taxRate,
	}
}

// CreateBookingInput carries everything needed to open a stay.
type CreateBookingInput struct {
	UserID   uint64
	RoomID   uint64
	CheckIn  time.Time
	CheckOut time.Time
	Status   string // Pending or Confirmed; empty means Pending
	Note     *string
}

// BookingResult is a freshly created or updated stay with its invoice.
type BookingResult struct {
	Reservation *model.Reservation
	Invoice     *model.Invoice
	Lines       []*model.InvoiceLine
}

// Create opens a reservation and issues its invoice with the lodging line
// in one transaction.  A Confirmed initial status additionally marks the
// room Occupied; confirming a room that is not Available fails with
// ErrRoomUnavailable.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*BookingResult, error) {
	status := billing.Status(in.Status)
	if in.Status == "" {
		status = billing.StatusPending
	}
	if status != billing.StatusPending && status != billing.StatusConfirmed {
		return nil, fmt.Errorf("initial status %q: %w", in.Status, billing.ErrInvalidInput)
	}
	nights, err := billing.Nights(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	room, err := s.rooms.GetByIDTx(ctx, tx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Active() {
		return nil, repository.ErrRoomNotFound
	}
	if status == billing.StatusConfirmed && room.State != string(billing.RoomAvailable) {
		return nil, ErrRoomUnavailable
	}

	code, err := s.newCodeTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	res := &model.Reservation{
		BookingCode: code,
		UserID:      in.UserID,
		RoomID:      in.RoomID,
		CheckIn:     in.CheckIn,
		CheckOut:    in.CheckOut,
		Status:      string(status),
		Note:        in.Note,
	}
	if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, err
	}

	if status == billing.StatusConfirmed {
		if err := s.rooms.UpdateStateTx(ctx, tx, room.ID, string(billing.RoomOccupied)); err != nil {
			return nil, &billing.ConsistencyError{Op: "occupy room", Err: err}
		}
	}

	inv, line, err := s.issueInvoiceTx(ctx, tx, res, room, nights)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if status == billing.StatusConfirmed {
		s.announceConfirmed(ctx, res, room, inv, nights)
	}
	return &BookingResult{Reservation: res, Invoice: inv, Lines: []*model.InvoiceLine{line}}, nil
}

// newCodeTx draws booking codes until one is free.  Collisions over a 36^6
// space are rare, so the retry cap is only a guard against a broken
// generator.
func (s *BookingService) newCodeTx(ctx context.Context, tx *sql.Tx) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := s.codes.NewCode()
		if err != nil {
			return "", err
		}
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reservations WHERE booking_code = ?`, code).Scan(&n); err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("booking code space exhausted after retries")
}

// issueInvoiceTx allocates the next number, creates the invoice and writes
// the lodging line, then recomputes the aggregates from the lines.
func (s *BookingService) issueInvoiceTx(ctx context.Context, tx *sql.Tx, res *model.Reservation,
	room *model.Room, nights int) (*model.Invoice, *model.InvoiceLine, error) {
	number, err := s.invoices.NextNumberTx(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	resID := res.ID
	inv := &model.Invoice{
		Number:        number,
		Prefix:        model.InvoicePrefix,
		ReservationID: &resID,
		ClientID:      res.UserID,
		IssuedAt:      time.Now().UTC(),
		PaymentMethod: model.PaymentMethodPending,
		Status:        model.InvoiceStatusPending,
	}
	if err := s.invoices.CreateTx(ctx, tx, inv); err != nil {
		return nil, nil, err
	}
	line, err := s.lodgingLineTx(ctx, tx, inv.ID, room, nights)
	if err != nil {
		return nil, nil, err
	}
	inv, err = s.invoices.RecomputeTotalsTx(ctx, tx, inv.ID)
	if err != nil {
		return nil, nil, err
	}
	return inv, line, nil
}

// lodgingLineTx prices the stay and inserts the lodging line.
func (s *BookingService) lodgingLineTx(ctx context.Context, tx *sql.Tx, invoiceID uint64,
	room *model.Room, nights int) (*model.InvoiceLine, error) {
	amounts, err := billing.ComputeLine(nights, room.NightlyPrice, s.taxRate)
	if err != nil {
		return nil, err
	}
	line := &model.InvoiceLine{
		InvoiceID:   invoiceID,
		ServiceID:   nil,
		Description: billing.LodgingDescription(billing.RoomType(room.RoomType)),
		Quantity:    uint32(nights),
		UnitPrice:   room.NightlyPrice,
		Subtotal:    amounts.Subtotal,
		Tax:         amounts.Tax,
		Total:       amounts.Total,
	}
	if err := s.lines.InsertTx(ctx, tx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateBookingInput carries the editable attributes of a stay.  Status is
// not here; it only moves through ChangeStatus.
type UpdateBookingInput struct {
	RoomID   uint64
	CheckIn  time.Time
	CheckOut time.Time
	Note     *string
}

// Update rewrites a reservation's room or dates and regenerates the
// invoice's lodging line with the new pricing, all in one transaction.
// Terminal reservations cannot be edited.  If the reservation is Confirmed
// and the room changes, occupancy moves with it.
func (s *BookingService) Update(ctx context.Context, id uint64, in UpdateBookingInput) (*BookingResult, error) {
	nights, err := billing.Nights(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	res, err := s.reservations.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if billing.Status(res.Status).Terminal() {
		return nil, fmt.Errorf("reservation is %s: %w", res.Status, repository.ErrConflict)
	}

	room, err := s.rooms.GetByIDTx(ctx, tx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Active() {
		return nil, repository.ErrRoomNotFound
	}

	if in.RoomID != res.RoomID && res.Status == string(billing.StatusConfirmed) {
		if room.State != string(billing.RoomAvailable) {
			return nil, ErrRoomUnavailable
		}
		if err := s.rooms.UpdateStateTx(ctx, tx, res.RoomID, string(billing.RoomAvailable)); err != nil {
			return nil, &billing.ConsistencyError{Op: "release room", Err: err}
		}
		if err := s.rooms.UpdateStateTx(ctx, tx, room.ID, string(billing.RoomOccupied)); err != nil {
			return nil, &billing.ConsistencyError{Op: "occupy room", Err: err}
		}
	}

	res.RoomID = in.RoomID
	res.CheckIn = in.CheckIn
	res.CheckOut = in.CheckOut
	res.Note = in.Note
	if err := s.reservations.UpdateTx(ctx, tx, res); err != nil {
		return nil, err
	}

	inv, err := s.invoices.GetByReservationTx(ctx, tx, res.ID)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvoiceStatusVoided {
		if err := s.lines.DeleteLodgingTx(ctx, tx, inv.ID); err != nil {
			return nil, err
		}
		if _, err := s.lodgingLineTx(ctx, tx, inv.ID, room, nights); err != nil {
			return nil, err
		}
		if inv, err = s.invoices.RecomputeTotalsTx(ctx, tx, inv.ID); err != nil {
			return nil, err
		}
	}
	lines, err := s.lines.ListByInvoiceTx(ctx, tx, inv.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &BookingResult{Reservation: res, Invoice: inv, Lines: lines}, nil
}

// ChangeStatus moves a reservation through its lifecycle and applies the
// room side effect the transition demands in the same transaction.
// Cancelling additionally voids the invoice.  A failing room update turns
// into a ConsistencyError and rolls back the whole change.
func (s *BookingService) ChangeStatus(ctx context.Context, id uint64, to billing.Status) (*model.Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	res, err := s.reservations.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	effect, err := billing.Transition(billing.Status(res.Status), to)
	if err != nil {
		return nil, err
	}
	if effect == billing.RoomEffectNone && billing.Status(res.Status) == to {
		// Idempotent re-submit; nothing to write.
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return res, nil
	}

	room, err := s.rooms.GetByIDTx(ctx, tx, res.RoomID)
	if err != nil {
		return nil, err
	}
	if effect == billing.RoomEffectOccupy && room.State != string(billing.RoomAvailable) {
		return nil, ErrRoomUnavailable
	}

	// The status write lands first; the dependent room write follows in the
	// same transaction and rolls the status back with it on failure.
	if err := s.reservations.UpdateStatusTx(ctx, tx, res.ID, string(to)); err != nil {
		return nil, err
	}
	res.Status = string(to)

	switch effect {
	case billing.RoomEffectOccupy:
		if err := s.rooms.UpdateStateTx(ctx, tx, room.ID, string(billing.RoomOccupied)); err != nil {
			return nil, &billing.ConsistencyError{Op: "occupy room", Err: err}
		}
	case billing.RoomEffectRelease:
		if err := s.rooms.UpdateStateTx(ctx, tx, room.ID, string(billing.RoomAvailable)); err != nil {
			return nil, &billing.ConsistencyError{Op: "release room", Err: err}
		}
	}

	var voided *model.Invoice
	if to == billing.StatusCancelled {
		inv, err := s.invoices.GetByReservationTx(ctx, tx, res.ID)
		switch {
		case err == nil:
			if inv.Status != model.InvoiceStatusVoided {
				if err := s.invoices.UpdateStatusTx(ctx, tx, inv.ID, model.InvoiceStatusVoided); err != nil {
					return nil, &billing.ConsistencyError{Op: "void invoice", Err: err}
				}
				inv.Status = model.InvoiceStatusVoided
				inv.PaymentMethod = model.PaymentMethodPending
				voided = inv
			}
		case errors.Is(err, repository.ErrInvoiceNotFound):
			// A stay without an invoice has nothing to void.
		default:
			return nil, err
		}
	}

	var confirmedInv *model.Invoice
	if to == billing.StatusConfirmed {
		if inv, err := s.invoices.GetByReservationTx(ctx, tx, res.ID); err == nil {
			confirmedInv = inv
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if to == billing.StatusConfirmed {
		nights, _ := billing.Nights(res.CheckIn, res.CheckOut)
		s.announceConfirmed(ctx, res, room, confirmedInv, nights)
	}
	if voided != nil {
		s.announceVoided(ctx, res, voided)
	}
	return res, nil
}

// Cancel is ChangeStatus to Cancelled.
func (s *BookingService) Cancel(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.ChangeStatus(ctx, id, billing.StatusCancelled)
}

// announceConfirmed publishes the confirmation event best-effort after
// commit; a broker outage never fails the booking.
func (s *BookingService) announceConfirmed(ctx context.Context, res *model.Reservation,
	room *model.Room, inv *model.Invoice, nights int) {
	clientName := ""
	if u, err := s.users.GetByID(ctx, res.UserID); err == nil {
		clientName = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	total := 0.0
	if inv != nil {
		total = inv.Total
	}
	ev := queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		BookingCode:   res.BookingCode,
		ClientID:      res.UserID,
		ClientName:    clientName,
		RoomID:        room.ID,
		RoomNumber:    room.RoomNumber,
		RoomType:      room.RoomType,
		CheckIn:       res.CheckIn.Format("2006-01-02"),
		CheckOut:      res.CheckOut.Format("2006-01-02"),
		Nights:        nights,
		InvoiceTotal:  total,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := PublishReservationConfirmed(ctx, ev); err != nil {
		log.Printf("booking: publish confirmation for %s failed: %v", res.BookingCode, err)
	}
}

func (s *BookingService) announceVoided(ctx context.Context, res *model.Reservation, inv *model.Invoice) {
	ev := queue.InvoiceVoidedEvent{
		InvoiceID:     inv.ID,
		InvoiceNumber: fmt.Sprintf("%s%d", inv.Prefix, inv.Number),
		ReservationID: res.ID,
		BookingCode:   res.BookingCode,
		ClientID:      inv.ClientID,
		Total:         inv.Total,
		VoidedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := PublishInvoiceVoided(ctx, ev); err != nil {
		log.Printf("booking: publish void for %s%d failed: %v", inv.Prefix, inv.Number, err)
	}
}
