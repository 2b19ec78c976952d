package booking

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/model"
)

// Sentinel errors returned by Store and Tx implementations.  The
// engine translates them into Rejections; anything else is treated as
// a storage fault and propagated unchanged.
var (
	// ErrTripNotFound: no trip with the requested ID exists.
	ErrTripNotFound = errors.New("trip not found")
	// ErrCouponNotFound: no coupon with the requested code exists.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrSeatTaken: a live claim for (trip, seat) already exists.  This is
	// raised by the store's uniqueness guarantee, never by a check-then-insert.
	ErrSeatTaken = errors.New("seat already claimed")
	// ErrInsufficientFunds: the conditional debit matched no row because
	// balance < amount at the instant of the attempt.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrTicketNotFound: no active ticket with the given ID belongs to the
	// given user.  Deliberately covers "not yours", "doesn't exist" and
	// "already cancelled" alike.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrClaimNotFound: no seat claim exists for the ticket.
	ErrClaimNotFound = errors.New("seat claim not found")
	// ErrUserNotFound: the user row does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Store is everything the settlement engine needs from durable
// storage.  Read paths run outside atomic units; all writes happen
// inside Atomic so that a purchase or cancellation commits entirely
// or not at all.
//
// Two implementations exist: the MySQL-backed store in
// internal/repository and the in-memory store in this package.
type Store interface {
	// GetTrip loads one trip from the catalog.  Returns ErrTripNotFound
	// when absent.  The engine never mutates trips.
	GetTrip(ctx context.Context, tripID uint64) (*model.Trip, error)

	// ClaimedSeats lists occupied seat numbers for a trip.  Used by the
	// occupancy read path; eventual consistency is acceptable here, the
	// write path is the source of truth.
	ClaimedSeats(ctx context.Context, tripID uint64) ([]uint32, error)

	// Balance returns the user's current wallet balance.
	Balance(ctx context.Context, userID uint64) (decimal.Decimal, error)

	// Atomic runs fn inside one atomic unit.  When fn returns an error
	// every write made through the Tx is discarded; otherwise all writes
	// commit together.  No partial state is ever observable.
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write surface available inside an atomic unit.
type Tx interface {
	// CouponByCode looks up a coupon case-insensitively, including its
	// total redemption count.  Returns ErrCouponNotFound when absent.
	CouponByCode(ctx context.Context, code string) (*model.Coupon, error)

	// HasRedemption reports whether the user has already consumed the coupon.
	HasRedemption(ctx context.Context, couponID, userID uint64) (bool, error)

	// RecordRedemption durably marks the coupon as consumed by the user.
	RecordRedemption(ctx context.Context, couponID, userID uint64) error

	// Debit atomically subtracts amount from the user's balance, failing
	// with ErrInsufficientFunds and leaving the balance unchanged when
	// balance < amount.
	Debit(ctx context.Context, userID uint64, amount decimal.Decimal) error

	// Credit unconditionally adds amount to the user's balance.
	Credit(ctx context.Context, userID uint64, amount decimal.Decimal) error

	// CreateTicket inserts a ticket row and populates its generated ID.
	CreateTicket(ctx context.Context, t *model.Ticket) error

	// ClaimSeat creates the seat claim for a ticket.  Exactly one of N
	// concurrent calls for the same (trip, seat) succeeds; the rest
	// observe ErrSeatTaken.
	ClaimSeat(ctx context.Context, tripID, ticketID uint64, seat uint32) error

	// ReleaseSeat removes the claim tied to a ticket.  Returns
	// ErrClaimNotFound when no claim exists.
	ReleaseSeat(ctx context.Context, ticketID uint64) error

	// ActiveTicket loads a ticket filtered by id, owner and active
	// status, together with its trip's departure time.  Returns
	// ErrTicketNotFound when no such row exists.
	ActiveTicket(ctx context.Context, ticketID, userID uint64) (*model.Ticket, time.Time, error)

	// CancelTicket transitions the ticket from active to cancelled.
	CancelTicket(ctx context.Context, ticketID uint64) error
}
