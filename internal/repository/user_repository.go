package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hostaria/hotel-reservation-api/internal/model"
	"github.com/hostaria/hotel-reservation-api/internal/utils"
)

// UserRepo provides account storage for staff and guests.  Accounts are
// soft-deleted, and reads always join the role name in so callers never
// need a second lookup for authorization.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// ErrEmailExists signals a duplicate email on registration.
var ErrEmailExists = errors.New("email already exists")

const userColumns = `u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role_id, r.name, u.deactivated_at, u.created_at, u.updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u           model.User
		deactivated sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.RoleID, &u.Role, &deactivated, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if deactivated.Valid {
		t := deactivated.Time
		u.DeactivatedAt = &t
	}
	return &u, nil
}

// Create hashes the password and inserts the account, then reads the row
// back with its role name.  Email is normalized to lower case first.
// Returns ErrEmailExists on a duplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role_id) VALUES (?, ?, ?, ?, ?)`,
		u.Email, hash, u.FirstName, u.LastName, u.RoleID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	got, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = ?`, u.ID))
	if err != nil {
		return err
	}
	*u = *got
	return nil
}

// GetByEmail fetches an account by normalized email, including inactive
// ones; the login handler decides how to treat a deactivated account.
// Returns ErrUserNotFound on a miss.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.email = ? LIMIT 1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByID fetches an account by id with its role name joined in.
// Returns ErrUserNotFound on a miss.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = ? LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Deactivate soft-deletes an account.  Calling it on an already inactive
// account is a no-op.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET deactivated_at = UTC_TIMESTAMP() WHERE id = ? AND deactivated_at IS NULL`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrUserNotFound
		}
	}
	return nil
}

// Restore reactivates a soft-deleted account.
func (r *UserRepo) Restore(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET deactivated_at = NULL WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrUserNotFound
		}
	}
	return nil
}

// UserFilter narrows ListClients.  Present fields compose with AND.
type UserFilter struct {
	Query           string // matches name or email
	IncludeInactive bool
}

// ListClients returns guest accounts for the clients report, ordered by
// last name.
func (r *UserRepo) ListClients(ctx context.Context, f UserFilter) ([]*model.User, error) {
	where := []string{"r.name = ?"}
	args := []any{model.RoleClient}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		where = append(where, "(u.first_name LIKE ? OR u.last_name LIKE ? OR u.email LIKE ?)")
		args = append(args, like, like, like)
	}
	if !f.IncludeInactive {
		where = append(where, "u.deactivated_at IS NULL")
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id WHERE `+
			strings.Join(where, " AND ")+` ORDER BY u.last_name, u.first_name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
