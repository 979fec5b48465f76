package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hostaria/hotel-reservation-api/internal/billing"
	"github.com/hostaria/hotel-reservation-api/internal/model"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
)

// LedgerService mutates invoice lines.  Every mutation locks the invoice
// row first, writes the line, and recomputes the aggregates from the
// surviving lines before committing, so the stored totals are always the
// sum of the stored lines.
type LedgerService struct {
	db           *sql.DB
	invoices     *repository.InvoiceRepo
	lines        *repository.InvoiceLineRepo
	services     *repository.ServiceRepo
	reservations *repository.ReservationRepo
	users        *repository.UserRepo
	taxRate      float64
}

// NewLedgerService wires a LedgerService with the process-wide tax rate.
func NewLedgerService(db *sql.DB, invoices *repository.InvoiceRepo, lines *repository.InvoiceLineRepo,
	services *repository.ServiceRepo, reservations *repository.ReservationRepo,
	users *repository.UserRepo, taxRate float64) *LedgerService {
	return &LedgerService{
		db:           db,
		invoices:     invoices,
		lines:        lines,
		services:     services,
		reservations: reservations,
		users:        users,
		taxRate:      taxRate,
	}
}

// InvoiceSnapshot is an invoice with its lines after a ledger mutation.
type InvoiceSnapshot struct {
	Invoice *model.Invoice
	Lines   []*model.InvoiceLine
}

// lockMutable fetches the invoice with a row lock and rejects mutation of
// paid or voided invoices.
func (s *LedgerService) lockMutable(ctx context.Context, tx *sql.Tx, invoiceID uint64) (*model.Invoice, error) {
	inv, err := s.invoices.GetByIDTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvoiceStatusPending {
		return nil, fmt.Errorf("invoice is %s: %w", inv.Status, repository.ErrConflict)
	}
	return inv, nil
}

func (s *LedgerService) snapshotTx(ctx context.Context, tx *sql.Tx, invoiceID uint64) (*InvoiceSnapshot, error) {
	inv, err := s.invoices.RecomputeTotalsTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	lines, err := s.lines.ListByInvoiceTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceSnapshot{Invoice: inv, Lines: lines}, nil
}

// AddLineInput names a catalog service to bill and optional overrides.
// An empty Description falls back to the service name; a nil UnitPrice
// falls back to the service's current price.
type AddLineInput struct {
	ServiceID   uint64
	Quantity    int
	Description string
	UnitPrice   *float64
}

// AddServiceLine bills quantity units of a catalog service onto the
// invoice.  The default unit price is read inside the same transaction as
// the insert, so a concurrent price change cannot split a line's price
// from its amounts.
func (s *LedgerService) AddServiceLine(ctx context.Context, invoiceID uint64, in AddLineInput) (*InvoiceSnapshot, error) {
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

	if _, err := s.lockMutable(ctx, tx, invoiceID); err != nil {
		return nil, err
	}
	svc, err := s.services.GetActiveTx(ctx, tx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	price := svc.Price
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	description := in.Description
	if description == "" {
		description = svc.Name
	}
	amounts, err := billing.ComputeLine(in.Quantity, price, s.taxRate)
	if err != nil {
		return nil, err
	}
	svcID := svc.ID
	line := &model.InvoiceLine{
		InvoiceID:   invoiceID,
		ServiceID:   &svcID,
		Description: description,
		Quantity:    uint32(in.Quantity),
		UnitPrice:   price,
		Subtotal:    amounts.Subtotal,
		Tax:         amounts.Tax,
		Total:       amounts.Total,
	}
	if err := s.lines.InsertTx(ctx, tx, line); err != nil {
		return nil, err
	}
	snap, err := s.snapshotTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return snap, nil
}

// RemoveLine deletes one line and recomputes the totals over the survivors.
// Removing the lodging line is allowed; the invoice then bills services
// only until a reservation edit regenerates it.
func (s *LedgerService) RemoveLine(ctx context.Context, invoiceID, lineID uint64) (*InvoiceSnapshot, error) {
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

	if _, err := s.lockMutable(ctx, tx, invoiceID); err != nil {
		return nil, err
	}
	if err := s.lines.DeleteTx(ctx, tx, invoiceID, lineID); err != nil {
		return nil, err
	}
	snap, err := s.snapshotTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return snap, nil
}

// CreateInvoiceInput describes a standalone invoice.  ReservationID is
// optional; when set, the reservation must belong to the client and must
// not be invoiced already.
type CreateInvoiceInput struct {
	ClientID      uint64
	ReservationID *uint64
	Notes         *string
}

// CreateInvoice issues an empty invoice for later line entry.  It draws
// the next number under the same lock booking-issued invoices use.
func (s *LedgerService) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*InvoiceSnapshot, error) {
	client, err := s.users.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client.DeactivatedAt != nil {
		return nil, fmt.Errorf("client account is deactivated: %w", repository.ErrConflict)
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

	if in.ReservationID != nil {
		res, err := s.reservations.GetByIDTx(ctx, tx, *in.ReservationID)
		if err != nil {
			return nil, err
		}
		if res.UserID != in.ClientID {
			return nil, fmt.Errorf("reservation belongs to another client: %w", repository.ErrConflict)
		}
		if _, err := s.invoices.GetByReservationTx(ctx, tx, res.ID); err == nil {
			return nil, fmt.Errorf("reservation is already invoiced: %w", repository.ErrConflict)
		} else if !errors.Is(err, repository.ErrInvoiceNotFound) {
			return nil, err
		}
	}

	number, err := s.invoices.NextNumberTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	inv := &model.Invoice{
		Number:        number,
		Prefix:        model.InvoicePrefix,
		ReservationID: in.ReservationID,
		ClientID:      in.ClientID,
		IssuedAt:      time.Now().UTC(),
		PaymentMethod: model.PaymentMethodPending,
		Status:        model.InvoiceStatusPending,
		Notes:         in.Notes,
	}
	if err := s.invoices.CreateTx(ctx, tx, inv); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &InvoiceSnapshot{Invoice: inv, Lines: []*model.InvoiceLine{}}, nil
}

// Void marks an invoice Voided and resets its payment method.  Lines are
// preserved for the record.  Voiding an already voided invoice is a
// conflict.
func (s *LedgerService) Void(ctx context.Context, invoiceID uint64) (*InvoiceSnapshot, error) {
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

	inv, err := s.invoices.GetByIDTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceStatusVoided {
		return nil, fmt.Errorf("invoice is already Voided: %w", repository.ErrConflict)
	}
	if err := s.invoices.UpdateStatusTx(ctx, tx, invoiceID, model.InvoiceStatusVoided); err != nil {
		return nil, err
	}
	snap, err := s.snapshotTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return snap, nil
}

// Snapshot returns an invoice with its lines without mutating anything.
func (s *LedgerService) Snapshot(ctx context.Context, invoiceID uint64) (*InvoiceSnapshot, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	lines, err := s.lines.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceSnapshot{Invoice: inv, Lines: lines}, nil
}
