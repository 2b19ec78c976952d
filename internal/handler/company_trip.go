package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/booking"
	"github.com/iliyamo/bus-ticketing/internal/model"
	"github.com/iliyamo/bus-ticketing/internal/repository"
)

// CompanyTripHandler lets company admins manage their own trip catalog.
// The company is taken from the JWT's company_id claim; a company admin
// can never touch another operator's trips.
type CompanyTripHandler struct {
	Trips *repository.TripRepo
}

func NewCompanyTripHandler(trips *repository.TripRepo) *CompanyTripHandler {
	if trips == nil {
		panic("nil repository passed to NewCompanyTripHandler")
	}
	return &CompanyTripHandler{Trips: trips}
}

type tripReq struct {
	FromCity      string          `json:"from_city"`
	ToCity        string          `json:"to_city"`
	DepartureTime time.Time       `json:"departure_time"`
	ArrivalTime   time.Time       `json:"arrival_time"`
	Price         decimal.Decimal `json:"price"`
	Capacity      uint32          `json:"capacity"`
}

func (r *tripReq) validate() string {
	r.FromCity = strings.TrimSpace(r.FromCity)
	r.ToCity = strings.TrimSpace(r.ToCity)
	switch {
	case r.FromCity == "" || r.ToCity == "":
		return "from_city and to_city are required"
	case r.DepartureTime.IsZero() || r.ArrivalTime.IsZero():
		return "departure_time and arrival_time are required"
	case !r.DepartureTime.Before(r.ArrivalTime):
		return "departure_time must be before arrival_time"
	case r.Price.LessThanOrEqual(decimal.Zero):
		return "price must be positive"
	case r.Capacity == 0:
		return "capacity must be positive"
	}
	return ""
}

// CreateTrip handles POST /v1/company/trips.
func (h *CompanyTripHandler) CreateTrip(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no company scope"})
	}
	var req tripReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	trip := &model.Trip{
		CompanyID:     companyID,
		FromCity:      req.FromCity,
		ToCity:        req.ToCity,
		DepartureTime: req.DepartureTime.UTC(),
		ArrivalTime:   req.ArrivalTime.UTC(),
		Price:         req.Price.Round(2),
		Capacity:      req.Capacity,
	}
	if err := h.Trips.Create(c.Request().Context(), trip); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create trip failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": trip})
}

// UpdateTrip handles PUT /v1/company/trips/:id.
func (h *CompanyTripHandler) UpdateTrip(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no company scope"})
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var req tripReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	trip := &model.Trip{
		ID:            tripID,
		CompanyID:     companyID,
		FromCity:      req.FromCity,
		ToCity:        req.ToCity,
		DepartureTime: req.DepartureTime.UTC(),
		ArrivalTime:   req.ArrivalTime.UTC(),
		Price:         req.Price.Round(2),
		Capacity:      req.Capacity,
	}
	if err := h.Trips.Update(c.Request().Context(), companyID, trip); err != nil {
		switch err {
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "trip belongs to another company"})
		case booking.ErrTripNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update trip failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": trip})
}

// DeleteTrip handles DELETE /v1/company/trips/:id.
func (h *CompanyTripHandler) DeleteTrip(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no company scope"})
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	if err := h.Trips.Delete(c.Request().Context(), companyID, tripID); err != nil {
		switch err {
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "trip belongs to another company"})
		case booking.ErrTripNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete trip failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTrips handles GET /v1/company/trips.
func (h *CompanyTripHandler) ListTrips(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no company scope"})
	}
	items, err := h.Trips.ListByCompany(c.Request().Context(), companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trips"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
