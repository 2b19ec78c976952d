package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/model"
)

// Engine coordinates the seat map, wallet ledger, coupon ledger and
// ticket store to execute purchases and cancellations as all-or-nothing
// operations.  It holds no mutable state of its own; all shared state
// lives behind the Store and every write path runs inside one atomic
// unit, so concurrent calls are safe by construction.
type Engine struct {
	store Store
	now   func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithNow overrides the engine's clock.  Tests use it to pin the
// cancellation-window boundary.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine constructs an Engine over the given store.  The store must
// be non-nil.
func NewEngine(store Store, opts ...Option) *Engine {
	if store == nil {
		panic("nil store passed to NewEngine")
	}
	e := &Engine{store: store, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Purchase durably and exclusively assigns one seat on one trip to the
// user, charging the (possibly coupon-discounted) price against their
// wallet balance.  Every write (debit, ticket row, seat claim, coupon
// redemption) commits together or not at all; a losing seat race
// leaves the user's balance untouched.
//
// Business outcomes are returned as *Rejection; any other error is a
// storage fault and guarantees no partial writes are visible.
func (e *Engine) Purchase(ctx context.Context, userID, tripID uint64, seat uint32, couponCode string) (*model.Ticket, error) {
	trip, err := e.store.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			return nil, reject(TripNotFound, "Trip not found.")
		}
		return nil, err
	}

	if seat < 1 || seat > trip.Capacity {
		return nil, reject(InvalidSeat,
			fmt.Sprintf("Invalid seat number: this trip has seats 1 to %d.", trip.Capacity))
	}

	couponCode = strings.ToUpper(strings.TrimSpace(couponCode))

	var ticket *model.Ticket
	err = e.store.Atomic(ctx, func(tx Tx) error {
		charged := trip.Price
		var coupon *model.Coupon

		if couponCode != "" {
			var rejErr error
			coupon, charged, rejErr = e.applyCoupon(ctx, tx, couponCode, userID, trip)
			if rejErr != nil {
				return rejErr
			}
		}

		if err := tx.Debit(ctx, userID, charged); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return reject(InsufficientBalance, "Insufficient balance.")
			}
			return err
		}

		t := &model.Ticket{
			TripID:     tripID,
			UserID:     userID,
			SeatNumber: seat,
			Status:     model.TicketActive,
			TotalPrice: charged,
			CreatedAt:  e.now(),
		}
		if err := tx.CreateTicket(ctx, t); err != nil {
			return err
		}

		// The claim is last among the money-moving writes: losing the seat
		// race rolls the debit and the ticket row back with it.
		if err := tx.ClaimSeat(ctx, tripID, t.ID, seat); err != nil {
			if errors.Is(err, ErrSeatTaken) {
				return reject(AlreadyBooked, fmt.Sprintf("Seat %d is already taken.", seat))
			}
			return err
		}

		if coupon != nil {
			if err := tx.RecordRedemption(ctx, coupon.ID, userID); err != nil {
				return err
			}
		}

		ticket = t
		return nil
	})
	if err != nil {
		if rej, ok := AsRejection(err); ok {
			if rej.Reason == InsufficientBalance {
				// The debit already rolled back; surface the untouched balance.
				if bal, balErr := e.store.Balance(ctx, userID); balErr == nil {
					rej.Message = fmt.Sprintf("Insufficient balance. Your balance is %s.", bal.StringFixed(2))
				}
			}
			return nil, rej
		}
		return nil, err
	}
	return ticket, nil
}

// applyCoupon evaluates coupon eligibility in the fixed order the
// product defines: unknown code, expiry, usage limit, company scope,
// then per-user one-time use.  The first failing check wins so error
// messages stay deterministic.  On success it returns the coupon and
// the discounted charge.
func (e *Engine) applyCoupon(ctx context.Context, tx Tx, code string, userID uint64, trip *model.Trip) (*model.Coupon, decimal.Decimal, error) {
	coupon, err := tx.CouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, decimal.Zero, reject(InvalidCode, "Invalid coupon code.")
		}
		return nil, decimal.Zero, err
	}
	if coupon.Expired(e.now()) {
		return nil, decimal.Zero, reject(Expired, "This coupon has expired.")
	}
	if coupon.LimitReached() {
		return nil, decimal.Zero, reject(LimitReached, "This coupon has reached its usage limit.")
	}
	if !coupon.ValidForCompany(trip.CompanyID) {
		return nil, decimal.Zero, reject(CompanyMismatch, "This coupon is not valid for the selected company.")
	}
	used, err := tx.HasRedemption(ctx, coupon.ID, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if used {
		return nil, decimal.Zero, reject(AlreadyUsed, "You have already used this coupon.")
	}
	return coupon, coupon.DiscountedPrice(trip.Price), nil
}

// Cancel reverses a purchase inside the cancellation window: the
// ticket flips to cancelled, the seat claim is released for re-booking
// and the wallet is credited with exactly the amount charged at
// purchase time (full refund, discount included).  The coupon
// redemption, if any, is deliberately left in place.
func (e *Engine) Cancel(ctx context.Context, ticketID, userID uint64) error {
	err := e.store.Atomic(ctx, func(tx Tx) error {
		ticket, departure, err := tx.ActiveTicket(ctx, ticketID, userID)
		if err != nil {
			if errors.Is(err, ErrTicketNotFound) {
				// One answer for "not yours", "doesn't exist" and "already
				// cancelled" so ticket existence never leaks to non-owners.
				return reject(NotFoundOrAlreadyCancelled, "Ticket not found or already cancelled.")
			}
			return err
		}

		// Hard business rule: exactly 60 minutes remaining is NOT cancellable.
		if departure.Sub(e.now()).Hours() <= 1 {
			return reject(CancellationWindowClosed,
				"Tickets cannot be cancelled less than 1 hour before departure.")
		}

		if err := tx.CancelTicket(ctx, ticket.ID); err != nil {
			return err
		}
		if err := tx.ReleaseSeat(ctx, ticket.ID); err != nil {
			return err
		}
		return tx.Credit(ctx, userID, ticket.TotalPrice)
	})
	return err
}

// ClaimedSeats exposes the occupancy read path for booking UIs.
func (e *Engine) ClaimedSeats(ctx context.Context, tripID uint64) ([]uint32, error) {
	return e.store.ClaimedSeats(ctx, tripID)
}

// Balance exposes the wallet read path so callers can refresh cached
// balance displays after a purchase or cancellation.
func (e *Engine) Balance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	return e.store.Balance(ctx, userID)
}
