package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hostaria/hotel-reservation-api/internal/model"
)

// ServiceRepo manages the catalog of billable extras (spa, laundry,
// restaurant and so on) and their categories.
type ServiceRepo struct {
	db *sql.DB
}

// NewServiceRepo returns a new ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

const serviceColumns = `id, category_id, name, description, price, active, created_at, updated_at`

func scanService(row interface{ Scan(...any) error }) (*model.Service, error) {
	var (
		svc   model.Service
		catID sql.NullInt64
		desc  sql.NullString
	)
	err := row.Scan(&svc.ID, &catID, &svc.Name, &desc, &svc.Price, &svc.Active,
		&svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if catID.Valid {
		id := uint64(catID.Int64)
		svc.CategoryID = &id
	}
	if desc.Valid {
		d := desc.String
		svc.Description = &d
	}
	return &svc, nil
}

// Create inserts a new catalog service and reads the row back.
func (r *ServiceRepo) Create(ctx context.Context, svc *model.Service) error {
	const q = `INSERT INTO services (category_id, name, description, price, active) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, svc.CategoryID, svc.Name, svc.Description, svc.Price, svc.Active)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	svc.ID = uint64(id)
	got, err := scanService(r.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, svc.ID))
	if err != nil {
		return err
	}
	*svc = *got
	return nil
}

// GetByID returns a catalog service.  Returns ErrServiceNotFound when no
// row exists.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*model.Service, error) {
	svc, err := scanService(r.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

// GetActiveTx returns a catalog service inside the caller's transaction,
// rejecting inactive ones.  Ledger writes price from this read, so it runs
// in the same transaction as the line insert.
func (r *ServiceRepo) GetActiveTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Service, error) {
	svc, err := scanService(tx.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if !svc.Active {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

// Update rewrites a catalog service.  Returns ErrServiceNotFound when the
// row does not exist.
func (r *ServiceRepo) Update(ctx context.Context, svc *model.Service) error {
	const q = `UPDATE services SET category_id = ?, name = ?, description = ?, price = ?, active = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, svc.CategoryID, svc.Name, svc.Description, svc.Price, svc.Active, svc.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services WHERE id = ?`, svc.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrServiceNotFound
		}
	}
	return nil
}

// SetActive toggles a service in or out of the bookable catalog.
func (r *ServiceRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE services SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrServiceNotFound
		}
	}
	return nil
}

// ServiceFilter narrows List.  Present fields compose with AND.
type ServiceFilter struct {
	Query      string
	CategoryID uint64
	ActiveOnly bool
}

// List returns catalog services matching the filter, ordered by name.
func (r *ServiceRepo) List(ctx context.Context, f ServiceFilter) ([]*model.Service, error) {
	where := []string{}
	args := []any{}
	if f.Query != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+f.Query+"%")
	}
	if f.CategoryID != 0 {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.ActiveOnly {
		where = append(where, "active = 1")
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE `+cond+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCategories returns active service categories ordered by name.
func (r *ServiceRepo) ListCategories(ctx context.Context) ([]*model.ServiceCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, active, created_at FROM service_categories WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.ServiceCategory, 0)
	for rows.Next() {
		var c model.ServiceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory inserts a new service category.
func (r *ServiceRepo) CreateCategory(ctx context.Context, c *model.ServiceCategory) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO service_categories (name) VALUES (?)`, c.Name)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT id, name, active, created_at FROM service_categories WHERE id = ?`, c.ID).
		Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt)
}
