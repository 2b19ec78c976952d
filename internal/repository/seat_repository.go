package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/bus-ticketing/internal/booking"
)

// SeatRepo provides data access to the booked_seats table: the live
// seat claims.  Correctness under concurrent purchases rests entirely
// on the UNIQUE(trip_id, seat_number) constraint: a duplicate insert
// is rejected by the database, so exactly one of N racing claims for
// the same seat succeeds.  There is deliberately no check-then-insert
// path here.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// ClaimTx inserts a seat claim within the caller's transaction.  When
// the (trip, seat) pair is already claimed, the unique constraint
// fires (MySQL error 1062) and booking.ErrSeatTaken is returned; the
// caller's rollback then undoes any debit made earlier in the unit.
func (r *SeatRepo) ClaimTx(ctx context.Context, tx *sql.Tx, tripID, ticketID uint64, seat uint32) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO booked_seats (trip_id, ticket_id, seat_number) VALUES (?, ?, ?)`,
		tripID, ticketID, seat)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return booking.ErrSeatTaken
		}
		return err
	}
	return nil
}

// ReleaseByTicketTx removes the claim tied to a ticket.  Returns
// booking.ErrClaimNotFound when no claim existed.
func (r *SeatRepo) ReleaseByTicketTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM booked_seats WHERE ticket_id = ?`, ticketID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrClaimNotFound
	}
	return nil
}

// ListClaimed returns the occupied seat numbers of a trip in ascending
// order.  This is the occupancy read path used to render seat maps; the
// write path above remains the source of truth.
func (r *SeatRepo) ListClaimed(ctx context.Context, tripID uint64) ([]uint32, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_number FROM booked_seats WHERE trip_id = ? ORDER BY seat_number ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]uint32, 0)
	for rows.Next() {
		var n uint32
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		seats = append(seats, n)
	}
	return seats, rows.Err()
}
