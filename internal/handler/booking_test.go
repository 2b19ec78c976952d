package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-ticketing/internal/booking"
	"github.com/iliyamo/bus-ticketing/internal/model"
	"github.com/iliyamo/bus-ticketing/internal/repository"
)

func TestRejectionStatus(t *testing.T) {
	cases := map[booking.Reason]int{
		booking.TripNotFound:               http.StatusNotFound,
		booking.NotFoundOrAlreadyCancelled: http.StatusNotFound,
		booking.AlreadyBooked:              http.StatusConflict,
		booking.CancellationWindowClosed:   http.StatusConflict,
		booking.InsufficientBalance:        http.StatusPaymentRequired,
		booking.InvalidSeat:                http.StatusBadRequest,
		booking.InvalidCode:                http.StatusBadRequest,
		booking.Expired:                    http.StatusBadRequest,
		booking.LimitReached:               http.StatusBadRequest,
		booking.CompanyMismatch:            http.StatusBadRequest,
		booking.AlreadyUsed:                http.StatusBadRequest,
	}
	for reason, want := range cases {
		assert.Equal(t, want, rejectionStatus(reason), "reason %s", reason)
	}
}

// Seat validation is the engine's job: seat 0 must surface the same
// typed invalid_seat rejection as a seat beyond capacity, not a generic
// missing-field error from the handler.
func TestPurchaseSeatZeroGetsTypedRejection(t *testing.T) {
	store := booking.NewMemoryStore()
	store.AddTrip(model.Trip{
		ID:            1,
		CompanyID:     1,
		FromCity:      "Tehran",
		ToCity:        "Shiraz",
		DepartureTime: time.Now().Add(48 * time.Hour),
		ArrivalTime:   time.Now().Add(58 * time.Hour),
		Price:         decimal.RequireFromString("250.00"),
		Capacity:      40,
	})
	store.SetBalance(42, decimal.RequireFromString("1000.00"))

	h := NewBookingHandler(booking.NewEngine(store),
		repository.NewTicketRepo(nil), repository.NewTripRepo(nil))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets",
		strings.NewReader(`{"trip_id":1,"seat_number":0}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(42))

	require.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(booking.InvalidSeat), body["reason"])
	assert.Contains(t, body["error"], "seats 1 to 40")
}

func newTestContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestGetUserID(t *testing.T) {
	c := newTestContext(t)

	_, err := getUserID(c)
	assert.Error(t, err, "missing claim must not default to a user")

	// JWT numeric claims arrive as float64.
	c.Set("user_id", float64(42))
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	c.Set("user_id", "17")
	id, err = getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), id)
}

func TestGetCompanyID(t *testing.T) {
	c := newTestContext(t)

	_, err := getCompanyID(c)
	assert.Error(t, err, "regular users carry no company scope")

	c.Set("company_id", float64(3))
	id, err := getCompanyID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)
}

func TestPathID(t *testing.T) {
	c := newTestContext(t)
	c.SetParamNames("id")

	c.SetParamValues("12")
	id, ok := pathID(c, "id")
	require.True(t, ok)
	assert.Equal(t, uint64(12), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		c.SetParamValues(bad)
		_, ok := pathID(c, "id")
		assert.False(t, ok, "value %q", bad)
	}
}
