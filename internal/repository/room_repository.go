package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hostaria/hotel-reservation-api/internal/model"
)

// RoomRepo provides CRUD operations for rooms.  Rooms are soft-deleted:
// deactivation stamps deactivated_at and the room disappears from
// availability queries while historical reservations keep referencing it.
// Room numbers are unique among active rooms only, which is enforced here
// inside the insert/update/restore transactions since a plain unique index
// cannot express it.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so services can open transactions that
// span rooms, reservations and invoices.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, room_number, room_type, capacity, description, nightly_price, state, photo_path, deactivated_at, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
	var (
		rm    model.Room
		desc  sql.NullString
		photo sql.NullString
		deact sql.NullTime
	)
	err := row.Scan(&rm.ID, &rm.RoomNumber, &rm.RoomType, &rm.Capacity, &desc,
		&rm.NightlyPrice, &rm.State, &photo, &deact, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		rm.Description = &d
	}
	if photo.Valid {
		p := photo.String
		rm.PhotoPath = &p
	}
	if deact.Valid {
		t := deact.Time
		rm.DeactivatedAt = &t
	}
	return &rm, nil
}

// numberTakenTx reports whether another active room (id != exceptID) already
// uses the given room number.  Runs inside the caller's transaction with a
// locking read so two concurrent creates cannot both pass the check.
func numberTakenTx(ctx context.Context, tx *sql.Tx, number string, exceptID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM rooms WHERE room_number = ? AND deactivated_at IS NULL AND id <> ? FOR UPDATE`
	var n int
	if err := tx.QueryRowContext(ctx, q, number, exceptID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a new room and populates generated fields on the passed
// struct.  Returns ErrRoomNumberTaken when an active room already holds the
// number.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	taken, err := numberTakenTx(ctx, tx, rm.RoomNumber, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrRoomNumberTaken
	}
	const q = `INSERT INTO rooms (room_number, room_type, capacity, description, nightly_price, state, photo_path)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rm.RoomNumber, rm.RoomType, rm.Capacity,
		rm.Description, rm.NightlyPrice, rm.State, rm.PhotoPath)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	// Read the row back so timestamps and defaults are populated.
	got, err := scanRoom(tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, rm.ID))
	if err != nil {
		return err
	}
	*rm = *got
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID retrieves a room regardless of its active flag; deactivated rooms
// stay reachable for reservation history.  Returns ErrRoomNotFound when no
// row exists.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return rm, nil
}

// GetByIDTx is GetByID inside an existing transaction, with a row lock so
// booking and status-transition flows can read the room's price and state
// without another operation sliding in between.
func (r *RoomRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	rm, err := scanRoom(tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return rm, nil
}

// Update rewrites the room's editable attributes.  Occupancy state is not
// touched here; it belongs to reservation transitions and SetState.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	taken, err := numberTakenTx(ctx, tx, rm.RoomNumber, rm.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrRoomNumberTaken
	}
	const q = `UPDATE rooms SET room_number = ?, room_type = ?, capacity = ?, description = ?, nightly_price = ?, photo_path = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, rm.RoomNumber, rm.RoomType, rm.Capacity,
		rm.Description, rm.NightlyPrice, rm.PhotoPath, rm.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 both for a missing row and an unchanged one.
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, rm.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrRoomNotFound
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateStateTx flips the room's occupancy state inside the caller's
// transaction.  Reservation transitions are the only callers besides the
// maintenance toggle.
func (r *RoomRepo) UpdateStateTx(ctx context.Context, tx *sql.Tx, id uint64, state string) error {
	res, err := tx.ExecContext(ctx, `UPDATE rooms SET state = ? WHERE id = ?`, state, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrRoomNotFound
		}
	}
	return nil
}

// SetState is UpdateStateTx outside a transaction, for the admin
// maintenance toggle.
func (r *RoomRepo) SetState(ctx context.Context, id uint64, state string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET state = ? WHERE id = ?`, state, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrRoomNotFound
		}
	}
	return nil
}

// Deactivate soft-deletes a room.  Deactivating an already inactive room is
// a no-op success.  The room row is never physically removed while
// reservations reference it.
func (r *RoomRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET deactivated_at = UTC_TIMESTAMP() WHERE id = ? AND deactivated_at IS NULL`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrRoomNotFound
		}
	}
	return nil
}

// Restore reactivates a soft-deleted room.  Fails with ErrRoomNumberTaken
// when another active room has claimed the number in the meantime.
func (r *RoomRepo) Restore(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var number string
	err = tx.QueryRowContext(ctx, `SELECT room_number FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoomNotFound
		}
		return err
	}
	taken, err := numberTakenTx(ctx, tx, number, id)
	if err != nil {
		return err
	}
	if taken {
		return ErrRoomNumberTaken
	}
	if _, err := tx.ExecContext(ctx, `UPDATE rooms SET deactivated_at = NULL WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RoomFilter narrows List.  Zero-valued fields are not applied; present
// fields compose with AND.
type RoomFilter struct {
	Query           string // matches room number, type or description
	RoomType        string
	State           string
	IncludeInactive bool
}

// List returns rooms matching the filter ordered by room number.
func (r *RoomRepo) List(ctx context.Context, f RoomFilter) ([]*model.Room, error) {
	where := []string{}
	args := []any{}
	if !f.IncludeInactive {
		where = append(where, "deactivated_at IS NULL")
	}
	if f.Query != "" {
		where = append(where, "(room_number LIKE ? OR room_type LIKE ? OR description LIKE ?)")
		like := "%" + f.Query + "%"
		args = append(args, like, like, like)
	}
	if f.RoomType != "" {
		where = append(where, "room_type = ?")
		args = append(args, f.RoomType)
	}
	if f.State != "" {
		where = append(where, "state = ?")
		args = append(args, f.State)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE `+cond+` ORDER BY room_number`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAvailable returns active rooms currently in the Available state,
// which is what the booking form offers.
func (r *RoomRepo) ListAvailable(ctx context.Context) ([]*model.Room, error) {
	return r.List(ctx, RoomFilter{State: "Available"})
}

// CountByState tallies active rooms per occupancy state for the occupancy
// report.
func (r *RoomRepo) CountByState(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT state, COUNT(*) FROM rooms WHERE deactivated_at IS NULL GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var (
			state string
			n     int64
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		out[state] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
