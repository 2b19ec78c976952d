package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/booking"
	"github.com/iliyamo/bus-ticketing/internal/model"
)

// SQLStore adapts the MySQL repositories to the settlement engine's
// Store contract.  Atomic maps one engine unit onto one database
// transaction; every Tx method delegates to a repository's *Tx method
// so the whole purchase or cancellation commits or rolls back as one.
type SQLStore struct {
	db      *sql.DB
	trips   *TripRepo
	seats   *SeatRepo
	wallet  *WalletRepo
	coupons *CouponRepo
	tickets *TicketRepo
}

// NewSQLStore wires the repositories into a booking.Store.  All
// dependencies must be non-nil.
func NewSQLStore(db *sql.DB, trips *TripRepo, seats *SeatRepo, wallet *WalletRepo, coupons *CouponRepo, tickets *TicketRepo) *SQLStore {
	if db == nil || trips == nil || seats == nil || wallet == nil || coupons == nil || tickets == nil {
		panic("nil dependency passed to NewSQLStore")
	}
	return &SQLStore{db: db, trips: trips, seats: seats, wallet: wallet, coupons: coupons, tickets: tickets}
}

func (s *SQLStore) GetTrip(ctx context.Context, tripID uint64) (*model.Trip, error) {
	return s.trips.GetByID(ctx, tripID)
}

func (s *SQLStore) ClaimedSeats(ctx context.Context, tripID uint64) ([]uint32, error) {
	return s.seats.ListClaimed(ctx, tripID)
}

func (s *SQLStore) Balance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	return s.wallet.Balance(ctx, userID)
}

// Atomic begins a transaction, runs fn against it and commits when fn
// returns nil.  Any error, business rejection or storage fault alike,
// rolls everything back, so no partial settlement state is observable.
func (s *SQLStore) Atomic(ctx context.Context, fn func(tx booking.Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = dbTx.Rollback()
		}
	}()
	if err := fn(&sqlTx{store: s, tx: dbTx}); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type sqlTx struct {
	store *SQLStore
	tx    *sql.Tx
}

func (t *sqlTx) CouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return t.store.coupons.ByCodeTx(ctx, t.tx, code)
}

func (t *sqlTx) HasRedemption(ctx context.Context, couponID, userID uint64) (bool, error) {
	return t.store.coupons.HasRedemptionTx(ctx, t.tx, couponID, userID)
}

func (t *sqlTx) RecordRedemption(ctx context.Context, couponID, userID uint64) error {
	return t.store.coupons.RecordRedemptionTx(ctx, t.tx, couponID, userID)
}

func (t *sqlTx) Debit(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	return t.store.wallet.DebitTx(ctx, t.tx, userID, amount)
}

func (t *sqlTx) Credit(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	return t.store.wallet.CreditTx(ctx, t.tx, userID, amount)
}

func (t *sqlTx) CreateTicket(ctx context.Context, ticket *model.Ticket) error {
	return t.store.tickets.CreateTx(ctx, t.tx, ticket)
}

func (t *sqlTx) ClaimSeat(ctx context.Context, tripID, ticketID uint64, seat uint32) error {
	return t.store.seats.ClaimTx(ctx, t.tx, tripID, ticketID, seat)
}

func (t *sqlTx) ReleaseSeat(ctx context.Context, ticketID uint64) error {
	return t.store.seats.ReleaseByTicketTx(ctx, t.tx, ticketID)
}

func (t *sqlTx) ActiveTicket(ctx context.Context, ticketID, userID uint64) (*model.Ticket, time.Time, error) {
	return t.store.tickets.ActiveByIDForUserTx(ctx, t.tx, ticketID, userID)
}

func (t *sqlTx) CancelTicket(ctx context.Context, ticketID uint64) error {
	return t.store.tickets.CancelTx(ctx, t.tx, ticketID)
}
