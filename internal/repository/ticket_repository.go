package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/booking"
	"github.com/iliyamo/bus-ticketing/internal/model"
)

// TicketRepo provides CRUD operations for tickets.  Tickets are
// created only by the settlement engine and mutated only by
// cancellation; they are never physically deleted by this service.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts a ticket within the caller's transaction and
// populates the generated ID on the provided struct.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tickets (trip_id, user_id, seat_number, status, total_price) VALUES (?, ?, ?, ?, ?)`,
		t.TripID, t.UserID, t.SeatNumber, t.Status, t.TotalPrice)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ActiveByIDForUserTx loads a ticket filtered by id, owner and active
// status within the caller's transaction, joined with its trip's
// departure time for the cancellation-window check.  The row is locked
// FOR UPDATE so a concurrent cancel of the same ticket serialises
// here; only one transaction observes status = 'active'.  Returns
// booking.ErrTicketNotFound when no matching row exists; the caller
// cannot tell "not yours" from "already cancelled".
func (r *TicketRepo) ActiveByIDForUserTx(ctx context.Context, tx *sql.Tx, ticketID, userID uint64) (*model.Ticket, time.Time, error) {
	const q = `SELECT t.id, t.trip_id, t.user_id, t.seat_number, t.status, t.total_price, t.created_at,
	                  tr.departure_time
	           FROM tickets t
	           JOIN trips tr ON tr.id = t.trip_id
	           WHERE t.id = ? AND t.user_id = ? AND t.status = 'active'
	           FOR UPDATE`
	var (
		t         model.Ticket
		departure time.Time
	)
	err := tx.QueryRowContext(ctx, q, ticketID, userID).Scan(
		&t.ID, &t.TripID, &t.UserID, &t.SeatNumber, &t.Status, &t.TotalPrice, &t.CreatedAt, &departure)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, booking.ErrTicketNotFound
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return &t, departure.UTC(), nil
}

// CancelTx transitions a ticket from active to cancelled within the
// caller's transaction.
func (r *TicketRepo) CancelTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = 'cancelled' WHERE id = ? AND status = 'active'`, ticketID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrTicketNotFound
	}
	return nil
}

// TicketDetail is the "my tickets" listing row: a ticket joined with
// its trip and company for display.
type TicketDetail struct {
	ID            uint64          `json:"id"`
	TripID        uint64          `json:"trip_id"`
	SeatNumber    uint32          `json:"seat_number"`
	Status        string          `json:"status"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	FromCity      string          `json:"from_city"`
	ToCity        string          `json:"to_city"`
	DepartureTime time.Time       `json:"departure_time"`
	ArrivalTime   time.Time       `json:"arrival_time"`
	CompanyName   string          `json:"company_name"`
	PurchasedAt   time.Time       `json:"purchased_at"`
}

const ticketDetailQuery = `SELECT t.id, t.trip_id, t.seat_number, t.status, t.total_price,
	       tr.from_city, tr.to_city, tr.departure_time, tr.arrival_time, c.name, t.created_at
	FROM tickets t
	JOIN trips tr ON tr.id = t.trip_id
	JOIN companies c ON c.id = tr.company_id`

func scanTicketDetail(row interface{ Scan(...interface{}) error }) (*TicketDetail, error) {
	var d TicketDetail
	err := row.Scan(&d.ID, &d.TripID, &d.SeatNumber, &d.Status, &d.TotalPrice,
		&d.FromCity, &d.ToCity, &d.DepartureTime, &d.ArrivalTime, &d.CompanyName, &d.PurchasedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByUser returns all of the user's tickets with trip details,
// newest purchase first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		ticketDetailQuery+` WHERE t.user_id = ? ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]TicketDetail, 0)
	for rows.Next() {
		d, err := scanTicketDetail(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// GetByIDForUser returns one ticket with trip details, restricted to
// the owning user.  Returns booking.ErrTicketNotFound when absent or
// owned by someone else.
func (r *TicketRepo) GetByIDForUser(ctx context.Context, ticketID, userID uint64) (*TicketDetail, error) {
	d, err := scanTicketDetail(r.db.QueryRowContext(ctx,
		ticketDetailQuery+` WHERE t.id = ? AND t.user_id = ?`, ticketID, userID))
	if err == sql.ErrNoRows {
		return nil, booking.ErrTicketNotFound
	}
	return d, err
}

// CountByUserAndStatus returns the user's ticket count in one status,
// used on the account dashboard.
func (r *TicketRepo) CountByUserAndStatus(ctx context.Context, userID uint64, status string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE user_id = ? AND status = ?`, userID, status).Scan(&n)
	return n, err
}

// CountActive returns the platform-wide active ticket count, used on
// the admin dashboard.
func (r *TicketRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE status = 'active'`).Scan(&n)
	return n, err
}
