package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/booking"
	"github.com/iliyamo/bus-ticketing/internal/model"
)

// TripRepo manages persistence for trips.  The settlement engine only
// reads trips; writes come from company-admin tooling and are scoped
// to the admin's own company.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo constructs a TripRepo with the given DB handle.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *TripRepo) DB() *sql.DB { return r.db }

const tripColumns = `id, company_id, from_city, to_city, departure_time, arrival_time, price, capacity, created_at`

func scanTrip(row interface{ Scan(...interface{}) error }) (*model.Trip, error) {
	var t model.Trip
	err := row.Scan(&t.ID, &t.CompanyID, &t.FromCity, &t.ToCity,
		&t.DepartureTime, &t.ArrivalTime, &t.Price, &t.Capacity, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID loads one trip.  Returns booking.ErrTripNotFound when the
// trip does not exist so the engine and handlers share one sentinel.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	t, err := scanTrip(r.db.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, booking.ErrTripNotFound
	}
	return t, err
}

// Create inserts a trip and assigns the generated ID back to the
// struct.  The caller is responsible for validating the schedule and
// price; the database only enforces referential integrity.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trips (company_id, from_city, to_city, departure_time, arrival_time, price, capacity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.CompanyID, t.FromCity, t.ToCity,
		t.DepartureTime.UTC().Format("2006-01-02 15:04:05"),
		t.ArrivalTime.UTC().Format("2006-01-02 15:04:05"),
		t.Price, t.Capacity)
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

// Update rewrites a trip's mutable fields.  It verifies that the trip
// belongs to the given company and returns ErrForbidden otherwise,
// booking.ErrTripNotFound when the trip does not exist.
func (r *TripRepo) Update(ctx context.Context, companyID uint64, t *model.Trip) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx, `SELECT company_id FROM trips WHERE id = ?`, t.ID).Scan(&owner)
	if err == sql.ErrNoRows {
		return booking.ErrTripNotFound
	}
	if err != nil {
		return err
	}
	if owner != companyID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE trips SET from_city = ?, to_city = ?, departure_time = ?, arrival_time = ?, price = ?, capacity = ?
		 WHERE id = ?`,
		t.FromCity, t.ToCity,
		t.DepartureTime.UTC().Format("2006-01-02 15:04:05"),
		t.ArrivalTime.UTC().Format("2006-01-02 15:04:05"),
		t.Price, t.Capacity, t.ID)
	return err
}

// Delete removes a trip owned by the given company.  Seat claims and
// tickets cascade at the storage layer.  Returns ErrForbidden when the
// trip belongs to another company.
func (r *TripRepo) Delete(ctx context.Context, companyID, tripID uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx, `SELECT company_id FROM trips WHERE id = ?`, tripID).Scan(&owner)
	if err == sql.ErrNoRows {
		return booking.ErrTripNotFound
	}
	if err != nil {
		return err
	}
	if owner != companyID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, tripID)
	return err
}

// TripSearchQuery carries the public search filters.  Empty fields are
// skipped; Date, when set, matches trips departing on that calendar
// day (UTC).
type TripSearchQuery struct {
	FromCity string
	ToCity   string
	Date     *time.Time
	Page     int
	PageSize int
}

// TripListing is the public search result: a trip joined with its
// company name and remaining seat count.
type TripListing struct {
	ID            uint64          `json:"id"`
	CompanyID     uint64          `json:"company_id"`
	CompanyName   string          `json:"company_name"`
	FromCity      string          `json:"from_city"`
	ToCity        string          `json:"to_city"`
	DepartureTime time.Time       `json:"departure_time"`
	ArrivalTime   time.Time       `json:"arrival_time"`
	Price         decimal.Decimal `json:"price"`
	Capacity      uint32          `json:"capacity"`
	SeatsLeft     int64           `json:"seats_left"`
}

// Search returns upcoming trips matching the query, newest departures
// last, together with the total match count for pagination.
func (r *TripRepo) Search(ctx context.Context, q TripSearchQuery) ([]TripListing, int64, error) {
	where := []string{`t.departure_time > UTC_TIMESTAMP()`}
	args := []interface{}{}
	if s := strings.TrimSpace(q.FromCity); s != "" {
		where = append(where, `t.from_city LIKE ?`)
		args = append(args, "%"+s+"%")
	}
	if s := strings.TrimSpace(q.ToCity); s != "" {
		where = append(where, `t.to_city LIKE ?`)
		args = append(args, "%"+s+"%")
	}
	if q.Date != nil {
		where = append(where, `DATE(t.departure_time) = ?`)
		args = append(args, q.Date.UTC().Format("2006-01-02"))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trips t WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	offset := (page - 1) * size

	query := `SELECT t.id, t.company_id, c.name, t.from_city, t.to_city,
	                 t.departure_time, t.arrival_time, t.price, t.capacity,
	                 t.capacity - (SELECT COUNT(*) FROM booked_seats bs WHERE bs.trip_id = t.id)
	          FROM trips t
	          JOIN companies c ON c.id = t.company_id
	          WHERE ` + cond + `
	          ORDER BY t.departure_time ASC
	          LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, size, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]TripListing, 0)
	for rows.Next() {
		var l TripListing
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.CompanyName, &l.FromCity, &l.ToCity,
			&l.DepartureTime, &l.ArrivalTime, &l.Price, &l.Capacity, &l.SeatsLeft); err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, rows.Err()
}

// ListByCompany returns all trips of one company, soonest departure
// first.  Used by company-admin tooling.
func (r *TripRepo) ListByCompany(ctx context.Context, companyID uint64) ([]model.Trip, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE company_id = ? ORDER BY departure_time ASC`,
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	trips := make([]model.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}
