package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/hostaria/hotel-reservation-api/internal/model"
)

// InvoiceRepo provides CRUD and aggregation operations for invoices.
// Number allocation and totals recomputation are transactional by
// construction: both lock the rows they read so concurrent billing
// operations serialize instead of racing.
type InvoiceRepo struct {
	db *sql.DB
}

// NewInvoiceRepo returns a new InvoiceRepo bound to the given database.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// DB exposes the underlying handle for service-level transactions.
func (r *InvoiceRepo) DB() *sql.DB { return r.db }

const invoiceColumns = `id, number, prefix, reservation_id, client_id, issued_at, payment_method, status, subtotal, tax, total, notes, created_at, updated_at`

func scanInvoice(row interface{ Scan(...any) error }) (*model.Invoice, error) {
	var (
		inv   model.Invoice
		resID sql.NullInt64
		notes sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.Number, &inv.Prefix, &resID, &inv.ClientID, &inv.IssuedAt,
		&inv.PaymentMethod, &inv.Status, &inv.Subtotal, &inv.Tax, &inv.Total, &notes,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if resID.Valid {
		id := uint64(resID.Int64)
		inv.ReservationID = &id
	}
	if notes.Valid {
		n := notes.String
		inv.Notes = &n
	}
	return &inv, nil
}

// NextNumberTx allocates the next invoice number inside the caller's
// transaction.  Numbering starts at 1001 and the MAX read takes a lock so
// two invoices issued at the same instant cannot draw the same number.
func (r *InvoiceRepo) NextNumberTx(ctx context.Context, tx *sql.Tx) (uint64, error) {
	var max uint64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 1000) FROM invoices FOR UPDATE`).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// CreateTx inserts a new invoice within the caller's transaction and reads
// the row back to populate timestamps.  The caller allocates the number
// via NextNumberTx first.
func (r *InvoiceRepo) CreateTx(ctx context.Context, tx *sql.Tx, inv *model.Invoice) error {
	const q = `INSERT INTO invoices (number, prefix, reservation_id, client_id, issued_at, payment_method, status, subtotal, tax, total, notes)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, inv.Number, inv.Prefix, inv.ReservationID, inv.ClientID,
		inv.IssuedAt, inv.PaymentMethod, inv.Status, inv.Subtotal, inv.Tax, inv.Total, inv.Notes)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	got, err := scanInvoice(tx.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, inv.ID))
	if err != nil {
		return err
	}
	*inv = *got
	return nil
}

// GetByID returns an invoice by its identifier.  Returns ErrInvoiceNotFound
// when no row exists.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (*model.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

// GetByIDTx is GetByID with a row lock inside the caller's transaction.
// Every ledger mutation locks the invoice first so line writes and totals
// recomputation serialize per invoice.
func (r *InvoiceRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Invoice, error) {
	inv, err := scanInvoice(tx.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

// GetByReservationTx returns the invoice belonging to a reservation,
// locked inside the caller's transaction.  Returns ErrInvoiceNotFound when
// the reservation has no invoice.
func (r *InvoiceRepo) GetByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (*model.Invoice, error) {
	inv, err := scanInvoice(tx.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE reservation_id = ? FOR UPDATE`, reservationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

// RecomputeTotalsTx rewrites the invoice aggregates as the sum of its
// current lines and returns the refreshed invoice.  Summing the stored
// per-line amounts keeps each line's own rounding instead of re-deriving
// tax from the aggregate subtotal.
func (r *InvoiceRepo) RecomputeTotalsTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Invoice, error) {
	const q = `UPDATE invoices i SET
                   i.subtotal = (SELECT COALESCE(SUM(l.subtotal), 0) FROM invoice_lines l WHERE l.invoice_id = i.id),
                   i.tax      = (SELECT COALESCE(SUM(l.tax), 0)      FROM invoice_lines l WHERE l.invoice_id = i.id),
                   i.total    = (SELECT COALESCE(SUM(l.total), 0)    FROM invoice_lines l WHERE l.invoice_id = i.id)
               WHERE i.id = ?`
	if _, err := tx.ExecContext(ctx, q, id); err != nil {
		return nil, err
	}
	inv, err := scanInvoice(tx.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

// UpdateStatusTx sets the invoice status inside the caller's transaction.
// Voiding also resets the payment method to its pending marker so a voided
// invoice never reads as paid by some method.
func (r *InvoiceRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	var (
		result sql.Result
		err    error
	)
	if status == model.InvoiceStatusVoided {
		result, err = tx.ExecContext(ctx,
			`UPDATE invoices SET status = ?, payment_method = ? WHERE id = ?`,
			status, model.PaymentMethodPending, id)
	} else {
		result, err = tx.ExecContext(ctx,
			`UPDATE invoices SET status = ? WHERE id = ?`, status, id)
	}
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrInvoiceNotFound
		}
	}
	return nil
}

// MarkPaid records payment of an invoice.  Paying a voided invoice is a
// conflict; paying an already paid invoice is idempotent.
func (r *InvoiceRepo) MarkPaid(ctx context.Context, id uint64, paymentMethod string) (*model.Invoice, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	inv, err := r.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceStatusVoided {
		return nil, ErrConflict
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE invoices SET status = ?, payment_method = ? WHERE id = ?`,
		model.InvoiceStatusPaid, paymentMethod, id); err != nil {
		return nil, err
	}
	inv, err = scanInvoice(tx.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return inv, nil
}

// InvoiceFilter narrows List.  Present fields compose with AND.
type InvoiceFilter struct {
	Query         string // matches full invoice number or client name
	Status        string
	PaymentMethod string
	ClientID      uint64
	From          *time.Time // issued_at on or after
	To            *time.Time // issued_at on or before
}

// InvoiceSummary is an invoice joined with its client for listings.
type InvoiceSummary struct {
	ID            uint64    `json:"id"`
	Prefix        string    `json:"prefix"`
	Number        uint64    `json:"number"`
	ReservationID *uint64   `json:"reservation_id,omitempty"`
	ClientID      uint64    `json:"client_id"`
	ClientName    string    `json:"client_name"`
	IssuedAt      time.Time `json:"issued_at"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	Subtotal      float64   `json:"subtotal"`
	Tax           float64   `json:"tax"`
	Total         float64   `json:"total"`
}

// List returns invoice summaries matching the filter, newest first.
func (r *InvoiceRepo) List(ctx context.Context, f InvoiceFilter) ([]*InvoiceSummary, error) {
	where := []string{}
	args := []any{}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		where = append(where, `(CONCAT(i.prefix, i.number) LIKE ? OR u.first_name LIKE ? OR u.last_name LIKE ?)`)
		args = append(args, like, like, like)
	}
	if f.Status != "" {
		where = append(where, "i.status = ?")
		args = append(args, f.Status)
	}
	if f.PaymentMethod != "" {
		where = append(where, "i.payment_method = ?")
		args = append(args, f.PaymentMethod)
	}
	if f.ClientID != 0 {
		where = append(where, "i.client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.From != nil {
		where = append(where, "i.issued_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "i.issued_at <= ?")
		args = append(args, *f.To)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT i.id, i.prefix, i.number, i.reservation_id, i.client_id,
               CONCAT(u.first_name, ' ', u.last_name),
               i.issued_at, i.payment_method, i.status, i.subtotal, i.tax, i.total
        FROM invoices i
        JOIN users u ON u.id = i.client_id
        WHERE `+cond+`
        ORDER BY i.issued_at DESC, i.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*InvoiceSummary, 0)
	for rows.Next() {
		var (
			s     InvoiceSummary
			resID sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Prefix, &s.Number, &resID, &s.ClientID, &s.ClientName,
			&s.IssuedAt, &s.PaymentMethod, &s.Status, &s.Subtotal, &s.Tax, &s.Total); err != nil {
			return nil, err
		}
		if resID.Valid {
			id := uint64(resID.Int64)
			s.ReservationID = &id
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RevenueBetween sums totals of non-voided invoices issued inside the
// range.  Nil bounds drop that side of the restriction.
func (r *InvoiceRepo) RevenueBetween(ctx context.Context, from, to *time.Time) (float64, int64, error) {
	where := []string{"status <> ?"}
	args := []any{model.InvoiceStatusVoided}
	if from != nil {
		where = append(where, "issued_at >= ?")
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, "issued_at <= ?")
		args = append(args, *to)
	}
	var (
		revenue sql.NullFloat64
		count   int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0), COUNT(*) FROM invoices WHERE `+strings.Join(where, " AND "),
		args...).Scan(&revenue, &count)
	if err != nil {
		return 0, 0, err
	}
	return revenue.Float64, count, nil
}
