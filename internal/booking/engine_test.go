package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-ticketing/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptrU64(v uint64) *uint64 { return &v }
func ptrU32(v uint32) *uint32 { return &v }
func ptrTime(t time.Time) *time.Time { return &t }

// newTestStore seeds one trip (id 1, company 1, 40 seats, price 250.00)
// and one user (id 1, balance 1000.00).
func newTestStore() *MemoryStore {
	s := NewMemoryStore()
	s.AddTrip(model.Trip{
		ID:            1,
		CompanyID:     1,
		FromCity:      "Tehran",
		ToCity:        "Isfahan",
		DepartureTime: time.Now().UTC().Add(48 * time.Hour),
		ArrivalTime:   time.Now().UTC().Add(54 * time.Hour),
		Price:         dec("250.00"),
		Capacity:      40,
	})
	s.SetBalance(1, dec("1000.00"))
	return s
}

func requireReason(t *testing.T, err error, want Reason) *Rejection {
	t.Helper()
	require.Error(t, err)
	rej, ok := AsRejection(err)
	require.True(t, ok, "expected a business rejection, got %v", err)
	require.Equal(t, want, rej.Reason)
	return rej
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("charges the trip price and claims the seat", func(t *testing.T) {
		store := newTestStore()
		engine := NewEngine(store)

		ticket, err := engine.Purchase(ctx, 1, 1, 5, "")
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Equal(t, model.TicketActive, ticket.Status)
		assert.True(t, ticket.TotalPrice.Equal(dec("250.00")), "charged %s", ticket.TotalPrice)

		bal, err := engine.Balance(ctx, 1)
		require.NoError(t, err)
		assert.True(t, bal.Equal(dec("750.00")), "balance %s", bal)

		seats, err := engine.ClaimedSeats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint32{5}, seats)
	})

	t.Run("records the claim and redemption rows", func(t *testing.T) {
		store := newTestStore()
		store.AddCoupon(model.Coupon{ID: 1, Code: "WELCOME10", Discount: dec("10")})
		engine := NewEngine(store)

		ticket, err := engine.Purchase(ctx, 1, 1, 5, "welcome10")
		require.NoError(t, err)

		claims := store.Claims(1)
		require.Len(t, claims, 1)
		assert.Equal(t, model.SeatClaim{
			TripID:     1,
			TicketID:   ticket.ID,
			SeatNumber: 5,
			CreatedAt:  claims[0].CreatedAt,
		}, claims[0])
		assert.False(t, claims[0].CreatedAt.IsZero())

		reds := store.Redemptions(1)
		require.Len(t, reds, 1)
		assert.Equal(t, uint64(1), reds[0].CouponID)
		assert.Equal(t, uint64(1), reds[0].UserID)
		assert.False(t, reds[0].RedeemedAt.IsZero())
	})

	t.Run("unknown trip", func(t *testing.T) {
		engine := NewEngine(newTestStore())
		_, err := engine.Purchase(ctx, 1, 99, 5, "")
		requireReason(t, err, TripNotFound)
	})

	t.Run("seat outside 1..capacity", func(t *testing.T) {
		engine := NewEngine(newTestStore())
		for _, seat := range []uint32{0, 41} {
			_, err := engine.Purchase(ctx, 1, 1, seat, "")
			requireReason(t, err, InvalidSeat)
		}
	})

	t.Run("seat already taken leaves the loser untouched", func(t *testing.T) {
		store := newTestStore()
		store.SetBalance(2, dec("500.00"))
		engine := NewEngine(store)

		_, err := engine.Purchase(ctx, 1, 1, 7, "")
		require.NoError(t, err)

		_, err = engine.Purchase(ctx, 2, 1, 7, "")
		requireReason(t, err, AlreadyBooked)

		bal, err := engine.Balance(ctx, 2)
		require.NoError(t, err)
		assert.True(t, bal.Equal(dec("500.00")), "loser was charged: %s", bal)
	})

	t.Run("insufficient balance reports the untouched balance", func(t *testing.T) {
		store := newTestStore()
		store.SetBalance(1, dec("100.00"))
		engine := NewEngine(store)

		_, err := engine.Purchase(ctx, 1, 1, 5, "")
		rej := requireReason(t, err, InsufficientBalance)
		assert.Contains(t, rej.Message, "100.00")

		bal, err := engine.Balance(ctx, 1)
		require.NoError(t, err)
		assert.True(t, bal.Equal(dec("100.00")))
	})

	t.Run("balance equal to the price is enough", func(t *testing.T) {
		store := newTestStore()
		store.SetBalance(1, dec("250.00"))
		engine := NewEngine(store)

		_, err := engine.Purchase(ctx, 1, 1, 5, "")
		require.NoError(t, err)

		bal, err := engine.Balance(ctx, 1)
		require.NoError(t, err)
		assert.True(t, bal.IsZero(), "balance %s", bal)
	})
}

func TestPurchaseWithCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("ten percent off 250.00 charges 225.00", func(t *testing.T) {
		store := newTestStore()
		store.AddCoupon(model.Coupon{ID: 1, Code: "WELCOME10", Discount: dec("10")})
		engine := NewEngine(store)

		ticket, err := engine.Purchase(ctx, 1, 1, 5, "welcome10") // case-insensitive
		require.NoError(t, err)
		assert.Equal(t, "225.00", ticket.TotalPrice.StringFixed(2))

		bal, err := engine.Balance(ctx, 1)
		require.NoError(t, err)
		assert.True(t, bal.Equal(dec("775.00")), "balance %s", bal)
	})

	t.Run("unknown code", func(t *testing.T) {
		engine := NewEngine(newTestStore())
		_, err := engine.Purchase(ctx, 1, 1, 5, "NOPE")
		requireReason(t, err, InvalidCode)
	})

	t.Run("expired wins over every later check", func(t *testing.T) {
		store := newTestStore()
		// Expired AND limit-reached AND wrong company: expiry is reported.
		store.AddCoupon(model.Coupon{
			ID:         1,
			Code:       "OLD",
			Discount:   dec("10"),
			CompanyID:  ptrU64(2),
			UsageLimit: ptrU32(0),
			ExpireDate: ptrTime(time.Now().UTC().Add(-time.Hour)),
		})
		engine := NewEngine(store)
		_, err := engine.Purchase(ctx, 1, 1, 5, "OLD")
		requireReason(t, err, Expired)
	})

	t.Run("usage limit counts redemptions across users", func(t *testing.T) {
		store := newTestStore()
		store.SetBalance(2, dec("1000.00"))
		store.AddCoupon(model.Coupon{ID: 1, Code: "ONCE", Discount: dec("10"), UsageLimit: ptrU32(1)})
		engine := NewEngine(store)

		_, err := engine.Purchase(ctx, 1, 1, 5, "ONCE")
		require.NoError(t, err)

		_, err = engine.Purchase(ctx, 2, 1, 6, "ONCE")
		requireReason(t, err, LimitReached)
	})

	t.Run("company-scoped coupon rejects other companies", func(t *testing.T) {
		store := newTestStore()
		store.AddCoupon(model.Coupon{ID: 1, Code: "SCOPED", Discount: dec("10"), CompanyID: ptrU64(2)})
		engine := NewEngine(store)
		_, err := engine.Purchase(ctx, 1, 1, 5, "SCOPED")
		requireReason(t, err, CompanyMismatch)
	})

	t.Run("one use per user", func(t *testing.T) {
		store := newTestStore()
		store.AddCoupon(model.Coupon{ID: 1, Code: "MINE", Discount: dec("10")})
		engine := NewEngine(store)

		_, err := engine.Purchase(ctx, 1, 1, 5, "MINE")
		require.NoError(t, err)

		_, err = engine.Purchase(ctx, 1, 1, 6, "MINE")
		requireReason(t, err, AlreadyUsed)
	})

	t.Run("a failed purchase does not consume the coupon", func(t *testing.T) {
		store := newTestStore()
		store.SetBalance(2, dec("1000.00"))
		store.AddCoupon(model.Coupon{ID: 1, Code: "KEEP", Discount: dec("10")})
		engine := NewEngine(store)

		// User 2 occupies the seat first, so user 1's couponed purchase
		// loses the race and rolls back, redemption included.
		_, err := engine.Purchase(ctx, 2, 1, 5, "")
		require.NoError(t, err)
		_, err = engine.Purchase(ctx, 1, 1, 5, "KEEP")
		requireReason(t, err, AlreadyBooked)

		_, err = engine.Purchase(ctx, 1, 1, 6, "KEEP")
		require.NoError(t, err)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds exactly the charged amount and frees the seat", func(t *testing.T) {
		store := newTestStore()
		store.AddCoupon(model.Coupon{ID: 1, Code: "WELCOME10", Discount: dec("10")})
		engine := NewEngine(store)

		ticket, err := engine.Purchase(ctx, 1, 1, 5, "WELCOME10")
		require.NoError(t, err)

		require.NoError(t, engine.Cancel(ctx, ticket.ID, 1))

		bal, err := engine.Balance(ctx, 1)
		require.NoError(t, err)
		assert.True(t, bal.Equal(dec("1000.00")), "refund was not exact: %s", bal)

		seats, err := engine.ClaimedSeats(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, seats)

		stored, ok := store.Ticket(ticket.ID)
		require.True(t, ok)
		assert.Equal(t, model.TicketCancelled, stored.Status)
	})

	t.Run("released seat can be rebooked, coupon stays consumed", func(t *testing.T) {
		store := newTestStore()
		store.SetBalance(2, dec("1000.00"))
		store.AddCoupon(model.Coupon{ID: 1, Code: "WELCOME10", Discount: dec("10")})
		engine := NewEngine(store)

		ticket, err := engine.Purchase(ctx, 1, 1, 5, "WELCOME10")
		require.NoError(t, err)
		require.NoError(t, engine.Cancel(ctx, ticket.ID, 1))

		// Another user gets the seat.
		_, err = engine.Purchase(ctx, 2, 1, 5, "")
		require.NoError(t, err)

		// The redemption survived the cancellation.
		_, err = engine.Purchase(ctx, 1, 1, 6, "WELCOME10")
		requireReason(t, err, AlreadyUsed)
	})

	t.Run("double cancel and foreign tickets get one answer", func(t *testing.T) {
		store := newTestStore()
		store.SetBalance(2, dec("1000.00"))
		engine := NewEngine(store)

		ticket, err := engine.Purchase(ctx, 1, 1, 5, "")
		require.NoError(t, err)

		// Someone else's ticket.
		err = engine.Cancel(ctx, ticket.ID, 2)
		requireReason(t, err, NotFoundOrAlreadyCancelled)

		require.NoError(t, engine.Cancel(ctx, ticket.ID, 1))

		// Already cancelled.
		err = engine.Cancel(ctx, ticket.ID, 1)
		requireReason(t, err, NotFoundOrAlreadyCancelled)

		// Never existed.
		err = engine.Cancel(ctx, 999, 1)
		requireReason(t, err, NotFoundOrAlreadyCancelled)

		// The double cancel did not refund twice.
		bal, err := engine.Balance(ctx, 1)
		require.NoError(t, err)
		assert.True(t, bal.Equal(dec("1000.00")), "balance %s", bal)
	})
}

func TestCancelWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newEngineWithDeparture := func(departure time.Time) (*Engine, uint64) {
		store := NewMemoryStore()
		store.AddTrip(model.Trip{
			ID:            1,
			CompanyID:     1,
			FromCity:      "Tehran",
			ToCity:        "Shiraz",
			DepartureTime: departure,
			ArrivalTime:   departure.Add(6 * time.Hour),
			Price:         dec("250.00"),
			Capacity:      40,
		})
		store.SetBalance(1, dec("1000.00"))
		engine := NewEngine(store, WithNow(func() time.Time { return now }))
		ticket, err := engine.Purchase(ctx, 1, 1, 5, "")
		require.NoError(t, err)
		return engine, ticket.ID
	}

	t.Run("59 minutes before departure is closed", func(t *testing.T) {
		engine, ticketID := newEngineWithDeparture(now.Add(59 * time.Minute))
		err := engine.Cancel(ctx, ticketID, 1)
		requireReason(t, err, CancellationWindowClosed)
	})

	t.Run("exactly 60 minutes before departure is closed", func(t *testing.T) {
		engine, ticketID := newEngineWithDeparture(now.Add(60 * time.Minute))
		err := engine.Cancel(ctx, ticketID, 1)
		requireReason(t, err, CancellationWindowClosed)
	})

	t.Run("61 minutes before departure is open", func(t *testing.T) {
		engine, ticketID := newEngineWithDeparture(now.Add(61 * time.Minute))
		require.NoError(t, engine.Cancel(ctx, ticketID, 1))
	})

	t.Run("departed trips cannot be cancelled", func(t *testing.T) {
		engine, ticketID := newEngineWithDeparture(now.Add(-time.Hour))
		err := engine.Cancel(ctx, ticketID, 1)
		requireReason(t, err, CancellationWindowClosed)
	})
}

func TestConcurrentSeatRace(t *testing.T) {
	ctx := context.Background()
	const racers = 32

	store := newTestStore()
	for i := uint64(1); i <= racers; i++ {
		store.SetBalance(i, dec("250.00"))
	}
	engine := NewEngine(store)

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Purchase(ctx, uint64(i+1), 1, 13, "")
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		if err == nil {
			winners++
			continue
		}
		rej, ok := AsRejection(err)
		require.True(t, ok, "racer %d: unexpected error %v", i, err)
		require.Equal(t, AlreadyBooked, rej.Reason)

		// Losers keep their full balance.
		bal, balErr := engine.Balance(ctx, uint64(i+1))
		require.NoError(t, balErr)
		assert.True(t, bal.Equal(dec("250.00")), "racer %d was charged: %s", i, bal)
	}
	require.Equal(t, 1, winners, "exactly one purchase must win the seat")

	seats, err := engine.ClaimedSeats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []uint32{13}, seats)
}

func TestConcurrentSpendingNeverOverdraws(t *testing.T) {
	ctx := context.Background()

	// Funds for exactly two tickets; five attempts on distinct seats.
	store := newTestStore()
	store.SetBalance(1, dec("500.00"))
	engine := NewEngine(store)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Purchase(ctx, 1, 1, uint32(i+1), "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireReason(t, err, InsufficientBalance)
	}
	assert.Equal(t, 2, succeeded)

	bal, err := engine.Balance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, bal.IsZero(), "balance went to %s", bal)
	assert.False(t, bal.IsNegative())
}

func TestPurchaseMessagesAreStable(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newTestStore())

	_, err := engine.Purchase(ctx, 1, 1, 41, "")
	rej := requireReason(t, err, InvalidSeat)
	assert.Equal(t, fmt.Sprintf("Invalid seat number: this trip has seats 1 to %d.", 40), rej.Message)
}
