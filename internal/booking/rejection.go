// Package booking implements the seat reservation and settlement engine:
// the atomic composition of seat claims, wallet debits/credits, coupon
// redemption and ticket issuance.  All expected business outcomes are
// returned as typed Rejection values; plain errors are reserved for
// storage faults.
package booking

import "errors"

// Reason identifies one expected, user-facing business outcome.  Each
// reason maps to a single human-readable message that never exposes
// internal identifiers or storage errors.
type Reason string

const (
	TripNotFound               Reason = "trip_not_found"
	InvalidSeat                Reason = "invalid_seat"
	AlreadyBooked              Reason = "already_booked"
	InvalidCode                Reason = "invalid_code"
	Expired                    Reason = "coupon_expired"
	LimitReached               Reason = "coupon_limit_reached"
	CompanyMismatch            Reason = "coupon_company_mismatch"
	AlreadyUsed                Reason = "coupon_already_used"
	InsufficientBalance        Reason = "insufficient_balance"
	NotFoundOrAlreadyCancelled Reason = "not_found_or_already_cancelled"
	CancellationWindowClosed   Reason = "cancellation_window_closed"
)

// Rejection is a business outcome, not a fault.  Callers may retry
// with different input (another seat, another coupon, a topped-up
// balance); nothing about the system is broken.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func reject(reason Reason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg}
}

// AsRejection unwraps a Rejection from err when present.  Handlers use
// it to separate recoverable business outcomes from storage faults.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
