package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/booking"
)

// WalletRepo owns the balance column of the users table.  All balance
// mutations in the system flow through DebitTx, CreditTx or TopUp;
// nothing else writes the column, which keeps the non-negativity
// invariant in one place.
type WalletRepo struct {
	db *sql.DB
}

// NewWalletRepo returns a WalletRepo bound to the given database.
func NewWalletRepo(db *sql.DB) *WalletRepo { return &WalletRepo{db: db} }

// DebitTx conditionally subtracts amount inside the caller's
// transaction.  The WHERE clause carries the sufficiency check, so two
// racing purchases can never both pass a stale balance read and
// overdraw: the row matches only while balance >= amount, and a zero
// row count means the debit did not happen.
func (r *WalletRepo) DebitTx(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance - ? WHERE id = ? AND balance >= ?`,
		amount, userID, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrInsufficientFunds
	}
	return nil
}

// CreditTx unconditionally adds amount inside the caller's
// transaction.  Used for cancellation refunds; the amount must be the
// ticket's stored charge, not the trip's list price.
func (r *WalletRepo) CreditTx(ctx context.Context, tx *sql.Tx, userID uint64, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + ? WHERE id = ?`, amount, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrUserNotFound
	}
	return nil
}

// TopUp adds funds outside of any settlement unit.  Amount validation
// (positive, sane upper bound) is the handler's job.
func (r *WalletRepo) TopUp(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET balance = balance + ? WHERE id = ?`, amount, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrUserNotFound
	}
	return nil
}

// Balance returns the user's current balance.
func (r *WalletRepo) Balance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE id = ?`, userID).Scan(&bal)
	if err == sql.ErrNoRows {
		return decimal.Zero, booking.ErrUserNotFound
	}
	return bal, err
}
