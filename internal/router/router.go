package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticketing/internal/handler"
	"github.com/iliyamo/bus-ticketing/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems probe this endpoint.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes and their middleware.
// Unauthenticated operations live under /v1/auth; /v1/me requires a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Revokes a single session by its refresh token; no JWT required.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	// Revokes every session of the current user across devices.
	auth.POST("/logout-all", a.LogoutAll)
}

// RegisterPublic registers the unauthenticated browse endpoints: trip
// search, trip details, seat availability and the company list.  These
// routes apply no JWT middleware so guests can inspect trips before
// registering.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	e.GET("/v1/trips", p.SearchTrips)
	e.GET("/v1/trips/:id", p.GetTrip)
	// Seat status is derived from booked_seats; free seats are computed
	// from the trip capacity.
	e.GET("/v1/trips/:id/seats", p.GetTripSeats)
	e.GET("/v1/companies", p.ListCompanies)
}
