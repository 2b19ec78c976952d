package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User roles.  Company admins carry the company they manage in their
// token claims; platform admins manage companies and coupons.
const (
	RoleUser         = "USER"
	RoleCompanyAdmin = "COMPANY_ADMIN"
	RoleAdmin        = "ADMIN"
)

// User mirrors the 'users' table.  Balance is an internal ledger
// field, not external money: it is only ever mutated through the
// wallet store's atomic debit/credit operations and never goes
// negative as the result of a purchase.
type User struct {
	ID           uint64          // users.id
	FullName     string          // users.full_name
	Email        string          // users.email
	PasswordHash string          // users.password_hash
	Role         string          // users.role
	CompanyID    *uint64         // users.company_id (nullable, company admins only)
	Balance      decimal.Decimal // users.balance
	CreatedAt    time.Time       // users.created_at
	UpdatedAt    time.Time       // users.updated_at
}
