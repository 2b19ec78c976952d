package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCouponExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c := Coupon{Code: "X", Discount: d("10")}
	assert.False(t, c.Expired(now), "nil expiry never expires")

	past := now.Add(-time.Minute)
	c.ExpireDate = &past
	assert.True(t, c.Expired(now))

	future := now.Add(time.Minute)
	c.ExpireDate = &future
	assert.False(t, c.Expired(now))
}

func TestCouponLimitReached(t *testing.T) {
	c := Coupon{Code: "X", Discount: d("10"), UsageCount: 100}
	assert.False(t, c.LimitReached(), "nil limit is unlimited")

	limit := uint32(100)
	c.UsageLimit = &limit
	assert.True(t, c.LimitReached())

	c.UsageCount = 99
	assert.False(t, c.LimitReached())
}

func TestCouponValidForCompany(t *testing.T) {
	c := Coupon{Code: "X", Discount: d("10")}
	assert.True(t, c.ValidForCompany(1), "unscoped coupons apply everywhere")

	companyID := uint64(2)
	c.CompanyID = &companyID
	assert.True(t, c.ValidForCompany(2))
	assert.False(t, c.ValidForCompany(1))
}

func TestCouponDiscountedPrice(t *testing.T) {
	cases := []struct {
		discount string
		price    string
		want     string
	}{
		{"10", "250.00", "225.00"},
		{"100", "250.00", "0.00"},
		{"7.5", "33.33", "30.83"},  // 30.83025 rounds down
		{"15", "99.99", "84.99"},   // 84.9915 rounds down
		{"33", "10.00", "6.70"},
	}
	for _, tc := range cases {
		c := Coupon{Code: "X", Discount: d(tc.discount)}
		got := c.DiscountedPrice(d(tc.price))
		assert.Equal(t, tc.want, got.StringFixed(2),
			"%s%% off %s", tc.discount, tc.price)
	}
}
