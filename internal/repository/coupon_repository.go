package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/booking"
	"github.com/iliyamo/bus-ticketing/internal/model"
)

// CouponRepo provides data access to coupons and their per-user
// redemption history.  Coupon definitions are written by admin tooling
// only; the settlement path reads them and appends redemptions.
type CouponRepo struct {
	db *sql.DB
}

// NewCouponRepo returns a CouponRepo bound to the given database.
func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{db: db} }

// ByCodeTx loads a coupon by code (case-insensitively; codes are
// stored upper-case) together with its total redemption count.  Runs
// in the caller's transaction so the count is consistent with the
// redemption insert that may follow.  Returns booking.ErrCouponNotFound
// when the code is unknown.
func (r *CouponRepo) ByCodeTx(ctx context.Context, tx *sql.Tx, code string) (*model.Coupon, error) {
	const q = `SELECT c.id, c.code, c.discount, c.company_id, c.usage_limit, c.expire_date, c.created_at,
	                  (SELECT COUNT(*) FROM coupon_redemptions cr WHERE cr.coupon_id = c.id)
	           FROM coupons c WHERE c.code = ?`
	var (
		c          model.Coupon
		companyID  sql.NullInt64
		usageLimit sql.NullInt64
		expireDate sql.NullTime
	)
	err := tx.QueryRowContext(ctx, q, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&c.ID, &c.Code, &c.Discount, &companyID, &usageLimit, &expireDate, &c.CreatedAt, &c.UsageCount)
	if err == sql.ErrNoRows {
		return nil, booking.ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	if companyID.Valid {
		id := uint64(companyID.Int64)
		c.CompanyID = &id
	}
	if usageLimit.Valid {
		lim := uint32(usageLimit.Int64)
		c.UsageLimit = &lim
	}
	if expireDate.Valid {
		exp := expireDate.Time.UTC()
		c.ExpireDate = &exp
	}
	return &c, nil
}

// HasRedemptionTx reports whether the user already consumed the coupon.
func (r *CouponRepo) HasRedemptionTx(ctx context.Context, tx *sql.Tx, couponID, userID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM coupon_redemptions WHERE coupon_id = ? AND user_id = ? LIMIT 1`,
		couponID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordRedemptionTx appends a redemption row inside the caller's
// transaction.  The UNIQUE(coupon_id, user_id) constraint backstops
// the eligibility check: a racing second use fails here and rolls the
// whole purchase back.
func (r *CouponRepo) RecordRedemptionTx(ctx context.Context, tx *sql.Tx, couponID, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO coupon_redemptions (coupon_id, user_id) VALUES (?, ?)`, couponID, userID)
	return err
}

// Create inserts a coupon definition.  Codes are normalised to
// upper-case before insert; a duplicate code maps to ErrDuplicateCode.
func (r *CouponRepo) Create(ctx context.Context, c *model.Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	var expire interface{}
	if c.ExpireDate != nil {
		expire = c.ExpireDate.UTC().Format("2006-01-02 15:04:05")
	}
	var limit interface{}
	if c.UsageLimit != nil {
		limit = *c.UsageLimit
	}
	var company interface{}
	if c.CompanyID != nil {
		company = *c.CompanyID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO coupons (code, discount, company_id, usage_limit, expire_date) VALUES (?, ?, ?, ?, ?)`,
		c.Code, c.Discount, company, limit, expire)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateCode
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

// Delete removes a coupon definition.  Redemption rows cascade at the
// storage layer; tickets already discounted keep their stored charge.
func (r *CouponRepo) Delete(ctx context.Context, couponID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = ?`, couponID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrCouponNotFound
	}
	return nil
}

// CouponDetail is the admin listing row: a coupon definition joined
// with its company name (when scoped) and live usage count.
type CouponDetail struct {
	ID          uint64          `json:"id"`
	Code        string          `json:"code"`
	Discount    decimal.Decimal `json:"discount"`
	CompanyID   *uint64         `json:"company_id,omitempty"`
	CompanyName *string         `json:"company_name,omitempty"`
	UsageLimit  *uint32         `json:"usage_limit,omitempty"`
	UsageCount  uint32          `json:"usage_count"`
	ExpireDate  *time.Time      `json:"expire_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListWithUsage returns all coupons with company names and usage
// counts, newest first.
func (r *CouponRepo) ListWithUsage(ctx context.Context) ([]CouponDetail, error) {
	const q = `SELECT c.id, c.code, c.discount, c.company_id, co.name, c.usage_limit, c.expire_date, c.created_at,
	                  (SELECT COUNT(*) FROM coupon_redemptions cr WHERE cr.coupon_id = c.id)
	           FROM coupons c
	           LEFT JOIN companies co ON co.id = c.company_id
	           ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]CouponDetail, 0)
	for rows.Next() {
		var (
			d           CouponDetail
			companyID   sql.NullInt64
			companyName sql.NullString
			usageLimit  sql.NullInt64
			expireDate  sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.Code, &d.Discount, &companyID, &companyName,
			&usageLimit, &expireDate, &d.CreatedAt, &d.UsageCount); err != nil {
			return nil, err
		}
		if companyID.Valid {
			id := uint64(companyID.Int64)
			d.CompanyID = &id
		}
		if companyName.Valid {
			name := companyName.String
			d.CompanyName = &name
		}
		if usageLimit.Valid {
			lim := uint32(usageLimit.Int64)
			d.UsageLimit = &lim
		}
		if expireDate.Valid {
			exp := expireDate.Time.UTC()
			d.ExpireDate = &exp
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
