package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a percentage discount rule.  Codes are stored upper-case
// and matched case-insensitively.  CompanyID, UsageLimit and
// ExpireDate are all optional; nil means "any company", "unlimited"
// and "never expires" respectively.
//
// Fields:
//  ID         – primary key identifier.
//  Code       – unique coupon code (upper-case).
//  Discount   – percentage in (0, 100].
//  CompanyID  – restricts the coupon to one company's trips when set.
//  UsageLimit – caps total redemptions across all users when set.
//  ExpireDate – the coupon is unusable after this instant when set.
//  UsageCount – derived: total redemptions recorded so far.
//  CreatedAt  – creation timestamp.
type Coupon struct {
	ID         uint64          // coupons.id
	Code       string          // coupons.code
	Discount   decimal.Decimal // coupons.discount
	CompanyID  *uint64         // coupons.company_id (nullable)
	UsageLimit *uint32         // coupons.usage_limit (nullable)
	ExpireDate *time.Time      // coupons.expire_date (nullable)
	UsageCount uint32          // derived from coupon_redemptions
	CreatedAt  time.Time       // coupons.created_at
}

// Expired reports whether the coupon's expiry is set and lies before now.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpireDate != nil && c.ExpireDate.Before(now)
}

// LimitReached reports whether the usage limit is set and exhausted.
func (c *Coupon) LimitReached() bool {
	return c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit
}

// ValidForCompany reports whether the coupon may be applied to a trip
// operated by the given company.  Unscoped coupons apply everywhere.
func (c *Coupon) ValidForCompany(companyID uint64) bool {
	return c.CompanyID == nil || *c.CompanyID == companyID
}

// DiscountedPrice returns price * (1 - discount/100), rounded to two
// decimal places.  The result is computed once at purchase time and
// persisted on the ticket, so refunds are immune to later changes of
// the coupon's discount value.
func (c *Coupon) DiscountedPrice(price decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(c.Discount.Div(decimal.NewFromInt(100)))
	return price.Mul(factor).Round(2)
}

// CouponRedemption records one user's consumption of one coupon.  The
// pair (CouponID, UserID) is unique, enforcing one use per user.
// Redemptions are never deleted: cancelling a ticket does not restore
// coupon eligibility.
type CouponRedemption struct {
	ID         uint64    // coupon_redemptions.id
	CouponID   uint64    // coupon_redemptions.coupon_id
	UserID     uint64    // coupon_redemptions.user_id
	RedeemedAt time.Time // coupon_redemptions.redeemed_at
}
