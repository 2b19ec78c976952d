// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketPurchasedEvent is published after a purchase commits.  It carries
// enough information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type TicketPurchasedEvent struct {
	TicketID    uint64 `json:"ticket_id"`
	UserID      uint64 `json:"user_id"`
	TripID      uint64 `json:"trip_id"`
	FromCity    string `json:"from_city"`
	ToCity      string `json:"to_city"`
	DepartureAt string `json:"departure_at"`
	SeatNumber  uint32 `json:"seat_number"`
	CouponCode  string `json:"coupon_code,omitempty"`
	PaidAmount  string `json:"paid_amount"`
	PurchasedAt string `json:"purchased_at"`
}

// TicketCancelledEvent is published after a cancellation commits and the
// fare has been credited back to the passenger's wallet.
type TicketCancelledEvent struct {
	TicketID       uint64 `json:"ticket_id"`
	UserID         uint64 `json:"user_id"`
	TripID         uint64 `json:"trip_id"`
	SeatNumber     uint32 `json:"seat_number"`
	RefundedAmount string `json:"refunded_amount"`
	CancelledAt    string `json:"cancelled_at"`
}
