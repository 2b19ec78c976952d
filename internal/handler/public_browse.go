package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticketing/internal/booking"
	"github.com/iliyamo/bus-ticketing/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface: trip search,
// trip details, per-trip seat availability and the company list.  Guests
// use these endpoints to pick a seat before registering.
type PublicHandler struct {
	Trips     *repository.TripRepo
	Companies *repository.CompanyRepo
	Engine    *booking.Engine
}

func NewPublicHandler(trips *repository.TripRepo, companies *repository.CompanyRepo, engine *booking.Engine) *PublicHandler {
	if trips == nil || companies == nil || engine == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Trips: trips, Companies: companies, Engine: engine}
}

// SearchTrips handles GET /v1/trips.  Supported query parameters:
// from, to, date (YYYY-MM-DD), page, page_size.  Only upcoming trips
// are returned.
func (h *PublicHandler) SearchTrips(c echo.Context) error {
	q := repository.TripSearchQuery{
		FromCity: c.QueryParam("from"),
		ToCity:   c.QueryParam("to"),
	}
	if s := c.QueryParam("date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		q.Date = &d
	}
	if s := c.QueryParam("page"); s != "" {
		q.Page, _ = strconv.Atoi(s)
	}
	if s := c.QueryParam("page_size"); s != "" {
		q.PageSize, _ = strconv.Atoi(s)
	}

	items, total, err := h.Trips.Search(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": total,
	})
}

// GetTrip handles GET /v1/trips/:id.
func (h *PublicHandler) GetTrip(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	trip, err := h.Trips.GetByID(c.Request().Context(), tripID)
	if err != nil {
		if err == booking.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": trip})
}

// GetTripSeats handles GET /v1/trips/:id/seats.  It returns the trip's
// capacity together with the taken seat numbers so clients can render the
// seat map.  The free list is derived, not stored; the booked_seats table
// stays the single source of truth.
func (h *PublicHandler) GetTripSeats(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	ctx := c.Request().Context()

	trip, err := h.Trips.GetByID(ctx, tripID)
	if err != nil {
		if err == booking.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	taken, err := h.Engine.ClaimedSeats(ctx, tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}

	takenSet := make(map[uint32]struct{}, len(taken))
	for _, s := range taken {
		takenSet[s] = struct{}{}
	}
	free := make([]uint32, 0, int(trip.Capacity)-len(taken))
	for s := uint32(1); s <= trip.Capacity; s++ {
		if _, ok := takenSet[s]; !ok {
			free = append(free, s)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"trip_id":  tripID,
		"capacity": trip.Capacity,
		"taken":    taken,
		"free":     free,
	})
}

// ListCompanies handles GET /v1/companies.
func (h *PublicHandler) ListCompanies(c echo.Context) error {
	items, err := h.Companies.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load companies"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
