package booking

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/model"
)

type claimKey struct {
	tripID uint64
	seat   uint32
}

type redemptionKey struct {
	couponID uint64
	userID   uint64
}

// MemoryStore is a mutex-guarded, in-process implementation of Store.
// Atomic units run on staged copies of the mutable state and swap them
// in on success, so a failing unit leaves no trace, the same
// all-or-nothing contract the MySQL store gets from transactions.
// One mutex is held for the whole unit, which trivially serialises
// concurrent claims on the same (trip, seat).
type MemoryStore struct {
	mu            sync.Mutex
	trips         map[uint64]model.Trip
	coupons       map[uint64]model.Coupon
	couponsByCode map[string]uint64
	balances      map[uint64]decimal.Decimal
	tickets       map[uint64]model.Ticket
	claims        map[claimKey]model.SeatClaim
	claimByTicket map[uint64]claimKey
	redemptions   map[redemptionKey]model.CouponRedemption
	nextTicketID  uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:         make(map[uint64]model.Trip),
		coupons:       make(map[uint64]model.Coupon),
		couponsByCode: make(map[string]uint64),
		balances:      make(map[uint64]decimal.Decimal),
		tickets:       make(map[uint64]model.Ticket),
		claims:        make(map[claimKey]model.SeatClaim),
		claimByTicket: make(map[uint64]claimKey),
		redemptions:   make(map[redemptionKey]model.CouponRedemption),
	}
}

// AddTrip seeds a trip into the catalog.
func (s *MemoryStore) AddTrip(t model.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[t.ID] = t
}

// AddCoupon seeds a coupon definition.
func (s *MemoryStore) AddCoupon(c model.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[c.ID] = c
	s.couponsByCode[c.Code] = c.ID
}

// SetBalance seeds or overwrites a user's wallet balance.
func (s *MemoryStore) SetBalance(userID uint64, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = balance
}

// Ticket returns a copy of the stored ticket, for assertions.
func (s *MemoryStore) Ticket(id uint64) (model.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	return t, ok
}

// Claims returns the live seat claims of a trip, for assertions.
func (s *MemoryStore) Claims(tripID uint64) []model.SeatClaim {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SeatClaim, 0)
	for k, c := range s.claims {
		if k.tripID == tripID {
			out = append(out, c)
		}
	}
	return out
}

// Redemptions returns the recorded redemptions of a coupon, for assertions.
func (s *MemoryStore) Redemptions(couponID uint64) []model.CouponRedemption {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CouponRedemption, 0)
	for k, r := range s.redemptions {
		if k.couponID == couponID {
			out = append(out, r)
		}
	}
	return out
}

func (s *MemoryStore) GetTrip(_ context.Context, tripID uint64) (*model.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok {
		return nil, ErrTripNotFound
	}
	return &t, nil
}

func (s *MemoryStore) ClaimedSeats(_ context.Context, tripID uint64) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seats := make([]uint32, 0)
	for k := range s.claims {
		if k.tripID == tripID {
			seats = append(seats, k.seat)
		}
	}
	return seats, nil
}

func (s *MemoryStore) Balance(_ context.Context, userID uint64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.balances[userID]
	if !ok {
		return decimal.Zero, ErrUserNotFound
	}
	return bal, nil
}

// Atomic runs fn against staged copies under the store lock.  The
// copies replace the live maps only when fn returns nil.
func (s *MemoryStore) Atomic(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:        s,
		balances:     cloneMap(s.balances),
		tickets:      cloneMap(s.tickets),
		claims:       cloneMap(s.claims),
		claimByTkt:   cloneMap(s.claimByTicket),
		redemptions:  cloneMap(s.redemptions),
		nextTicketID: s.nextTicketID,
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.balances = tx.balances
	s.tickets = tx.tickets
	s.claims = tx.claims
	s.claimByTicket = tx.claimByTkt
	s.redemptions = tx.redemptions
	s.nextTicketID = tx.nextTicketID
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// memTx mutates the staged copies only.  The parent store's lock is
// held by Atomic for the lifetime of the tx.
type memTx struct {
	store        *MemoryStore
	balances     map[uint64]decimal.Decimal
	tickets      map[uint64]model.Ticket
	claims       map[claimKey]model.SeatClaim
	claimByTkt   map[uint64]claimKey
	redemptions  map[redemptionKey]model.CouponRedemption
	nextTicketID uint64
}

func (tx *memTx) CouponByCode(_ context.Context, code string) (*model.Coupon, error) {
	id, ok := tx.store.couponsByCode[code]
	if !ok {
		return nil, ErrCouponNotFound
	}
	c := tx.store.coupons[id]
	// Derive the live usage count from staged redemptions.
	var count uint32
	for k := range tx.redemptions {
		if k.couponID == id {
			count++
		}
	}
	c.UsageCount = count
	return &c, nil
}

func (tx *memTx) HasRedemption(_ context.Context, couponID, userID uint64) (bool, error) {
	_, ok := tx.redemptions[redemptionKey{couponID: couponID, userID: userID}]
	return ok, nil
}

func (tx *memTx) RecordRedemption(_ context.Context, couponID, userID uint64) error {
	tx.redemptions[redemptionKey{couponID: couponID, userID: userID}] = model.CouponRedemption{
		CouponID:   couponID,
		UserID:     userID,
		RedeemedAt: time.Now().UTC(),
	}
	return nil
}

func (tx *memTx) Debit(_ context.Context, userID uint64, amount decimal.Decimal) error {
	bal, ok := tx.balances[userID]
	if !ok {
		return ErrUserNotFound
	}
	if bal.LessThan(amount) {
		return ErrInsufficientFunds
	}
	tx.balances[userID] = bal.Sub(amount)
	return nil
}

func (tx *memTx) Credit(_ context.Context, userID uint64, amount decimal.Decimal) error {
	bal, ok := tx.balances[userID]
	if !ok {
		return ErrUserNotFound
	}
	tx.balances[userID] = bal.Add(amount)
	return nil
}

func (tx *memTx) CreateTicket(_ context.Context, t *model.Ticket) error {
	tx.nextTicketID++
	t.ID = tx.nextTicketID
	tx.tickets[t.ID] = *t
	return nil
}

func (tx *memTx) ClaimSeat(_ context.Context, tripID, ticketID uint64, seat uint32) error {
	key := claimKey{tripID: tripID, seat: seat}
	if _, taken := tx.claims[key]; taken {
		return ErrSeatTaken
	}
	tx.claims[key] = model.SeatClaim{
		TripID:     tripID,
		TicketID:   ticketID,
		SeatNumber: seat,
		CreatedAt:  time.Now().UTC(),
	}
	tx.claimByTkt[ticketID] = key
	return nil
}

func (tx *memTx) ReleaseSeat(_ context.Context, ticketID uint64) error {
	key, ok := tx.claimByTkt[ticketID]
	if !ok {
		return ErrClaimNotFound
	}
	delete(tx.claims, key)
	delete(tx.claimByTkt, ticketID)
	return nil
}

func (tx *memTx) ActiveTicket(_ context.Context, ticketID, userID uint64) (*model.Ticket, time.Time, error) {
	t, ok := tx.tickets[ticketID]
	if !ok || t.UserID != userID || t.Status != model.TicketActive {
		return nil, time.Time{}, ErrTicketNotFound
	}
	trip, ok := tx.store.trips[t.TripID]
	if !ok {
		return nil, time.Time{}, ErrTripNotFound
	}
	return &t, trip.DepartureTime, nil
}

func (tx *memTx) CancelTicket(_ context.Context, ticketID uint64) error {
	t, ok := tx.tickets[ticketID]
	if !ok {
		return ErrTicketNotFound
	}
	t.Status = model.TicketCancelled
	tx.tickets[ticketID] = t
	return nil
}
