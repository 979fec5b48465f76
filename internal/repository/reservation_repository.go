package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/hostaria/hotel-reservation-api/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  Writes that
// have side effects elsewhere (room state, invoice lines) only exist as
// ...Tx variants: the booking service owns the transaction and this
// repository never commits on its own for those paths.  All timestamp
// fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for service-level transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, booking_code, user_id, room_id, check_in, check_out, status, note, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var (
		res  model.Reservation
		note sql.NullString
	)
	err := row.Scan(&res.ID, &res.BookingCode, &res.UserID, &res.RoomID,
		&res.CheckIn, &res.CheckOut, &res.Status, &note, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if note.Valid {
		n := note.String
		res.Note = &n
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and reads the row back to populate timestamps and defaults.
// The caller must commit or rollback.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (booking_code, user_id, room_id, check_in, check_out, status, note)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.BookingCode, res.UserID, res.RoomID,
		res.CheckIn, res.CheckOut, res.Status, res.Note)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	got, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID))
	if err != nil {
		return err
	}
	*res = *got
	return nil
}

// GetByID returns a reservation by its identifier.  Returns
// ErrReservationNotFound when no row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// GetByIDTx is GetByID with a row lock inside the caller's transaction.
// Status transitions and updates read through here so the status they
// validate against cannot change underneath them.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// UpdateTx rewrites the reservation's bookable attributes (guest, room,
// dates, note) inside the caller's transaction.  Status is deliberately not
// written here; it only moves through UpdateStatusTx.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `UPDATE reservations SET user_id = ?, room_id = ?, check_in = ?, check_out = ?, note = ? WHERE id = ?`
	result, err := tx.ExecContext(ctx, q, res.UserID, res.RoomID, res.CheckIn, res.CheckOut, res.Note, res.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE id = ?`, res.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrReservationNotFound
		}
	}
	return nil
}

// UpdateStatusTx persists a status change inside the caller's transaction.
// The transition itself is validated by the billing package before this is
// called.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	result, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrReservationNotFound
		}
	}
	return nil
}

// ReservationDetail is a reservation joined with its room, guest and
// invoice summary for listing and detail screens.
type ReservationDetail struct {
	ID          uint64  `json:"id"`
	BookingCode string  `json:"booking_code"`
	Status      string  `json:"status"`
	CheckIn     string  `json:"check_in"`
	CheckOut    string  `json:"check_out"`
	Note        *string `json:"note,omitempty"`
	Room        struct {
		ID           uint64  `json:"id"`
		RoomNumber   string  `json:"room_number"`
		RoomType     string  `json:"room_type"`
		NightlyPrice float64 `json:"nightly_price"`
		State        string  `json:"state"`
	} `json:"room"`
	Client struct {
		ID        uint64 `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"client"`
	Invoice *struct {
		ID     uint64  `json:"id"`
		Prefix string  `json:"prefix"`
		Number uint64  `json:"number"`
		Status string  `json:"status"`
		Total  float64 `json:"total"`
	} `json:"invoice,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReservationFilter narrows List.  Present fields compose with AND.
type ReservationFilter struct {
	Query  string // matches booking code, guest name, room number or type
	Status string
	From   *time.Time // check_in on or after
	To     *time.Time // check_out on or before
	UserID uint64     // restrict to one guest's reservations (client view)
}

const reservationDetailSelect = `SELECT res.id, res.booking_code, res.status, res.check_in, res.check_out, res.note, res.created_at,
           r.id, r.room_number, r.room_type, r.nightly_price, r.state,
           u.id, u.first_name, u.last_name, u.email,
           i.id, i.prefix, i.number, i.status, i.total
    FROM reservations res
    JOIN rooms r ON r.id = res.room_id
    JOIN users u ON u.id = res.user_id
    LEFT JOIN invoices i ON i.reservation_id = res.id`

func scanReservationDetail(row interface{ Scan(...any) error }) (*ReservationDetail, error) {
	var (
		d        ReservationDetail
		note     sql.NullString
		checkIn  time.Time
		checkOut time.Time
		invID    sql.NullInt64
		invPfx   sql.NullString
		invNum   sql.NullInt64
		invSt    sql.NullString
		invTot   sql.NullFloat64
	)
	err := row.Scan(&d.ID, &d.BookingCode, &d.Status, &checkIn, &checkOut, &note, &d.CreatedAt,
		&d.Room.ID, &d.Room.RoomNumber, &d.Room.RoomType, &d.Room.NightlyPrice, &d.Room.State,
		&d.Client.ID, &d.Client.FirstName, &d.Client.LastName, &d.Client.Email,
		&invID, &invPfx, &invNum, &invSt, &invTot)
	if err != nil {
		return nil, err
	}
	d.CheckIn = checkIn.Format("2006-01-02")
	d.CheckOut = checkOut.Format("2006-01-02")
	if note.Valid {
		n := note.String
		d.Note = &n
	}
	if invID.Valid {
		inv := struct {
			ID     uint64  `json:"id"`
			Prefix string  `json:"prefix"`
			Number uint64  `json:"number"`
			Status string  `json:"status"`
			Total  float64 `json:"total"`
		}{
			ID:     uint64(invID.Int64),
			Prefix: invPfx.String,
			Number: uint64(invNum.Int64),
			Status: invSt.String,
			Total:  invTot.Float64,
		}
		d.Invoice = &inv
	}
	return &d, nil
}

// GetDetail returns one reservation joined with room, guest and invoice
// summary.  Returns ErrReservationNotFound when no row exists.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
	d, err := scanReservationDetail(r.db.QueryRowContext(ctx,
		reservationDetailSelect+` WHERE res.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns reservation details matching the filter, newest first.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]*ReservationDetail, error) {
	where := []string{}
	args := []any{}
	if f.Query != "" {
		where = append(where, `(res.booking_code LIKE ? OR u.first_name LIKE ? OR u.last_name LIKE ? OR r.room_number LIKE ? OR r.room_type LIKE ?)`)
		like := "%" + f.Query + "%"
		args = append(args, like, like, like, like, like)
	}
	if f.Status != "" {
		where = append(where, "res.status = ?")
		args = append(args, f.Status)
	}
	if f.From != nil {
		where = append(where, "res.check_in >= ?")
		args = append(args, f.From.Format("2006-01-02"))
	}
	if f.To != nil {
		where = append(where, "res.check_out <= ?")
		args = append(args, f.To.Format("2006-01-02"))
	}
	if f.UserID != 0 {
		where = append(where, "res.user_id = ?")
		args = append(args, f.UserID)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx,
		reservationDetailSelect+` WHERE `+cond+` ORDER BY res.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*ReservationDetail, 0)
	for rows.Next() {
		d, err := scanReservationDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountInRange counts reservations whose check-in falls inside the range;
// nil bounds drop that side of the restriction.  Used by the occupancy
// report.
func (r *ReservationRepo) CountInRange(ctx context.Context, from, to *time.Time) (int64, error) {
	where := []string{"status <> 'Cancelled'"}
	args := []any{}
	if from != nil {
		where = append(where, "check_in >= ?")
		args = append(args, from.Format("2006-01-02"))
	}
	if to != nil {
		where = append(where, "check_in <= ?")
		args = append(args, to.Format("2006-01-02"))
	}
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE `+strings.Join(where, " AND "), args...).Scan(&n)
	return n, err
}

// CountByClient returns how many reservations each guest has made.  Used by
// the client report.
func (r *ReservationRepo) CountByClient(ctx context.Context) (map[uint64]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, COUNT(*) FROM reservations GROUP BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64]int64)
	for rows.Next() {
		var userID uint64
		var n int64
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, err
		}
		out[userID] = n
	}
	return out, rows.Err()
}
