package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/bus-ticketing/internal/model"
	"github.com/iliyamo/bus-ticketing/internal/utils"
)

// UserRepo manages account rows.  Balance mutation lives in WalletRepo;
// this repository only creates and reads users.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, full_name, email, password_hash, role, company_id, balance, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (model.User, error) {
	var (
		u         model.User
		companyID sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&companyID, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if companyID.Valid {
		id := uint64(companyID.Int64)
		u.CompanyID = &id
	}
	return u, err
}

// Create inserts a user and returns its ID.  Passwords arrive in
// plaintext and are hashed here; new accounts start with a zero
// balance and must top up through the wallet.
func (r *UserRepo) Create(ctx context.Context, fullName, email, password, role string, companyID *uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var company interface{}
	if companyID != nil {
		company = *companyID
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (full_name, email, password_hash, role, company_id) VALUES (?, ?, ?, ?, ?)`,
		fullName, email, hash, role, company)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
}
