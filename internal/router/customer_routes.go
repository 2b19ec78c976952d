package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticketing/internal/handler"
	"github.com/iliyamo/bus-ticketing/internal/middleware"
	"github.com/iliyamo/bus-ticketing/internal/model"
)

// RegisterCustomer registers passenger-scoped endpoints under /v1.  All
// routes require a valid JWT and the USER role.  Passengers can purchase
// tickets, cancel them, list their own tickets and manage their wallet.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, w *handler.WalletHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	)
	g.POST("/tickets", b.Purchase)
	g.GET("/tickets/:id", b.GetTicket)
	g.DELETE("/tickets/:id", b.Cancel)
	g.GET("/my-tickets", b.ListTickets)

	g.GET("/wallet", w.Balance)
	g.POST("/wallet/topup", w.TopUp)
}
