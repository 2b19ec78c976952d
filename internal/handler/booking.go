package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticketing/internal/booking"
	"github.com/iliyamo/bus-ticketing/internal/queue"
	"github.com/iliyamo/bus-ticketing/internal/repository"
	queue_publisher "github.com/iliyamo/bus-ticketing/internal/service"
)

// BookingHandler exposes the settlement engine over HTTP: purchasing a
// seat, cancelling a ticket and listing the caller's tickets.  Business
// rejections from the engine are mapped to 4xx responses; storage faults
// surface as 500.
type BookingHandler struct {
	Engine  *booking.Engine
	Tickets *repository.TicketRepo
	Trips   *repository.TripRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must be
// non-nil.
func NewBookingHandler(engine *booking.Engine, tickets *repository.TicketRepo, trips *repository.TripRepo) *BookingHandler {
	if engine == nil || tickets == nil || trips == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine, Tickets: tickets, Trips: trips}
}

type purchaseReq struct {
	TripID     uint64 `json:"trip_id"`
	SeatNumber uint32 `json:"seat_number"`
	CouponCode string `json:"coupon_code"`
}

// rejectionStatus maps engine rejection reasons onto HTTP status codes.
// Anything not listed is a plain validation failure (400).
func rejectionStatus(r booking.Reason) int {
	switch r {
	case booking.TripNotFound, booking.NotFoundOrAlreadyCancelled:
		return http.StatusNotFound
	case booking.AlreadyBooked, booking.CancellationWindowClosed:
		return http.StatusConflict
	case booking.InsufficientBalance:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadRequest
	}
}

// Purchase handles POST /v1/tickets.  It runs the whole settlement as one
// atomic unit and, on success, publishes a ticket.purchased event.
func (h *BookingHandler) Purchase(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_id required"})
	}
	// Seat validation belongs to the engine so that seat 0 and a seat
	// beyond capacity surface the same typed rejection.

	ctx := c.Request().Context()
	ticket, err := h.Engine.Purchase(ctx, userID, req.TripID, req.SeatNumber, req.CouponCode)
	if err != nil {
		if rej, ok := booking.AsRejection(err); ok {
			return c.JSON(rejectionStatus(rej.Reason), echo.Map{
				"error":  rej.Message,
				"reason": string(rej.Reason),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purchase failed"})
	}

	// Event publishing is best-effort; the purchase has already committed.
	if trip, err := h.Trips.GetByID(ctx, ticket.TripID); err == nil {
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := queue_publisher.PublishTicketPurchased(pubCtx, queue.TicketPurchasedEvent{
				TicketID:    ticket.ID,
				UserID:      ticket.UserID,
				TripID:      ticket.TripID,
				FromCity:    trip.FromCity,
				ToCity:      trip.ToCity,
				DepartureAt: trip.DepartureTime.UTC().Format(time.RFC3339),
				SeatNumber:  ticket.SeatNumber,
				CouponCode:  req.CouponCode,
				PaidAmount:  ticket.TotalPrice.StringFixed(2),
				PurchasedAt: time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				log.Printf("publish ticket.purchased failed: %v", err)
			}
		}()
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"ticket_id":   ticket.ID,
		"trip_id":     ticket.TripID,
		"seat_number": ticket.SeatNumber,
		"status":      ticket.Status,
		"total_price": ticket.TotalPrice,
	})
}

// Cancel handles DELETE /v1/tickets/:id.  The engine refunds the stored
// charge and releases the seat; afterwards a ticket.cancelled event is
// published with the refunded amount.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ctx := c.Request().Context()
	if err := h.Engine.Cancel(ctx, ticketID, userID); err != nil {
		if rej, ok := booking.AsRejection(err); ok {
			return c.JSON(rejectionStatus(rej.Reason), echo.Map{
				"error":  rej.Message,
				"reason": string(rej.Reason),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	if detail, err := h.Tickets.GetByIDForUser(ctx, ticketID, userID); err == nil {
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := queue_publisher.PublishTicketCancelled(pubCtx, queue.TicketCancelledEvent{
				TicketID:       detail.ID,
				UserID:         userID,
				TripID:         detail.TripID,
				SeatNumber:     detail.SeatNumber,
				RefundedAmount: detail.TotalPrice.StringFixed(2),
				CancelledAt:    time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				log.Printf("publish ticket.cancelled failed: %v", err)
			}
		}()
	}

	return c.NoContent(http.StatusNoContent)
}

// ListTickets handles GET /v1/my-tickets.  It returns all of the caller's
// tickets with trip details, newest first.
func (h *BookingHandler) ListTickets(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Tickets.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tickets"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetTicket handles GET /v1/tickets/:id for the owning user.
func (h *BookingHandler) GetTicket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	detail, err := h.Tickets.GetByIDForUser(c.Request().Context(), ticketID, userID)
	if err != nil {
		if err == booking.ErrTicketNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}
