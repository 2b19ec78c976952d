package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket status values.  A ticket moves from active to cancelled at
// most once.  StatusUsed is a reserved terminal state for boarding
// flows; no operation in this service transitions into it.
const (
	TicketActive    = "active"
	TicketCancelled = "cancelled"
	TicketUsed      = "used"
)

// Ticket records one purchase: one seat on one trip for one user.
// TotalPrice is the amount actually charged at purchase time, after
// any coupon discount, and is the exact amount refunded on
// cancellation regardless of later coupon or trip price changes.
//
// Fields:
//  ID         – primary key identifier.
//  TripID     – trip the seat belongs to.
//  UserID     – purchasing user.
//  SeatNumber – seat in 1..trip capacity.
//  Status     – active, cancelled or used.
//  TotalPrice – charged amount (post-discount), never negative.
//  CreatedAt  – purchase timestamp.
type Ticket struct {
	ID         uint64          // tickets.id
	TripID     uint64          // tickets.trip_id
	UserID     uint64          // tickets.user_id
	SeatNumber uint32          // tickets.seat_number
	Status     string          // tickets.status
	TotalPrice decimal.Decimal // tickets.total_price
	CreatedAt  time.Time       // tickets.created_at
}

// SeatClaim marks one seat on one trip as occupied by one ticket.
// The pair (TripID, SeatNumber) is unique across live claims; that
// uniqueness is the sole arbiter between racing purchases for the
// same seat.  Claims are created and destroyed together with their
// ticket inside the same atomic unit.
type SeatClaim struct {
	ID         uint64    // booked_seats.id
	TripID     uint64    // booked_seats.trip_id
	TicketID   uint64    // booked_seats.ticket_id
	SeatNumber uint32    // booked_seats.seat_number
	CreatedAt  time.Time // booked_seats.created_at
}
