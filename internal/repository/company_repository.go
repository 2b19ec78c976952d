package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/bus-ticketing/internal/model"
)

// CompanyRepo manages bus operator rows.  Companies are created by
// platform admins; everyone else only lists them.
type CompanyRepo struct {
	db *sql.DB
}

func NewCompanyRepo(db *sql.DB) *CompanyRepo { return &CompanyRepo{db: db} }

// Create inserts a company.  Duplicate names map to ErrConflict.
func (r *CompanyRepo) Create(ctx context.Context, c *model.Company) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (name, logo_path) VALUES (?, ?)`, c.Name, c.LogoPath)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID loads one company.  Returns ErrCompanyNotFound when absent.
func (r *CompanyRepo) GetByID(ctx context.Context, id uint64) (*model.Company, error) {
	var (
		c    model.Company
		logo sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, logo_path, created_at FROM companies WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &logo, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	if logo.Valid {
		p := logo.String
		c.LogoPath = &p
	}
	return &c, nil
}

// List returns all companies ordered by name.
func (r *CompanyRepo) List(ctx context.Context) ([]model.Company, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, logo_path, created_at FROM companies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Company, 0)
	for rows.Next() {
		var (
			c    model.Company
			logo sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &logo, &c.CreatedAt); err != nil {
			return nil, err
		}
		if logo.Valid {
			p := logo.String
			c.LogoPath = &p
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
