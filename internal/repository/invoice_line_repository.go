package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hostaria/hotel-reservation-api/internal/model"
)

// InvoiceLineRepo persists invoice lines.  Lines never update in place:
// a change is a delete plus insert so the stored amounts always come from
// a single pricing pass.
type InvoiceLineRepo struct {
	db *sql.DB
}

// NewInvoiceLineRepo returns a new InvoiceLineRepo bound to the given database.
func NewInvoiceLineRepo(db *sql.DB) *InvoiceLineRepo { return &InvoiceLineRepo{db: db} }

const invoiceLineColumns = `id, invoice_id, service_id, description, quantity, unit_price, subtotal, tax, total, created_at`

func scanInvoiceLine(row interface{ Scan(...any) error }) (*model.InvoiceLine, error) {
	var (
		line  model.InvoiceLine
		svcID sql.NullInt64
	)
	err := row.Scan(&line.ID, &line.InvoiceID, &svcID, &line.Description, &line.Quantity,
		&line.UnitPrice, &line.Subtotal, &line.Tax, &line.Total, &line.CreatedAt)
	if err != nil {
		return nil, err
	}
	if svcID.Valid {
		id := uint64(svcID.Int64)
		line.ServiceID = &id
	}
	return &line, nil
}

// InsertTx adds a line inside the caller's transaction and reads the row
// back to populate timestamps.  The caller recomputes the invoice totals
// afterwards, in the same transaction.
func (r *InvoiceLineRepo) InsertTx(ctx context.Context, tx *sql.Tx, line *model.InvoiceLine) error {
	const q = `INSERT INTO invoice_lines (invoice_id, service_id, description, quantity, unit_price, subtotal, tax, total)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, line.InvoiceID, line.ServiceID, line.Description,
		line.Quantity, line.UnitPrice, line.Subtotal, line.Tax, line.Total)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	line.ID = uint64(id)
	got, err := scanInvoiceLine(tx.QueryRowContext(ctx,
		`SELECT `+invoiceLineColumns+` FROM invoice_lines WHERE id = ?`, line.ID))
	if err != nil {
		return err
	}
	*line = *got
	return nil
}

// GetByIDTx returns a line by id, verifying it belongs to the given
// invoice.  Returns ErrInvoiceLineNotFound on a miss either way.
func (r *InvoiceLineRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, invoiceID, lineID uint64) (*model.InvoiceLine, error) {
	line, err := scanInvoiceLine(tx.QueryRowContext(ctx,
		`SELECT `+invoiceLineColumns+` FROM invoice_lines WHERE id = ? AND invoice_id = ?`, lineID, invoiceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceLineNotFound
		}
		return nil, err
	}
	return line, nil
}

// DeleteTx removes a single line inside the caller's transaction.
// Returns ErrInvoiceLineNotFound when the line does not exist on that
// invoice.
func (r *InvoiceLineRepo) DeleteTx(ctx context.Context, tx *sql.Tx, invoiceID, lineID uint64) error {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM invoice_lines WHERE id = ? AND invoice_id = ?`, lineID, invoiceID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvoiceLineNotFound
	}
	return nil
}

// DeleteLodgingTx removes the lodging line of an invoice, if present.
// Lodging lines are the ones with no service reference.
func (r *InvoiceLineRepo) DeleteLodgingTx(ctx context.Context, tx *sql.Tx, invoiceID uint64) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM invoice_lines WHERE invoice_id = ? AND service_id IS NULL`, invoiceID)
	return err
}

// ListByInvoice returns all lines of an invoice in insertion order.
func (r *InvoiceLineRepo) ListByInvoice(ctx context.Context, invoiceID uint64) ([]*model.InvoiceLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceLineColumns+` FROM invoice_lines WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.InvoiceLine, 0)
	for rows.Next() {
		line, err := scanInvoiceLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByInvoiceTx is ListByInvoice inside the caller's transaction, used
// when building the invoice snapshot after a ledger mutation.
func (r *InvoiceLineRepo) ListByInvoiceTx(ctx context.Context, tx *sql.Tx, invoiceID uint64) ([]*model.InvoiceLine, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+invoiceLineColumns+` FROM invoice_lines WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.InvoiceLine, 0)
	for rows.Next() {
		line, err := scanInvoiceLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
