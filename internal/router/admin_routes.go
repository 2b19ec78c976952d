package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticketing/internal/handler"
	"github.com/iliyamo/bus-ticketing/internal/middleware"
	"github.com/iliyamo/bus-ticketing/internal/model"
)

// RegisterCompany registers the company-admin trip catalog under
// /v1/company.  The handler scopes every operation to the company_id
// claim carried in the admin's token.
func RegisterCompany(e *echo.Echo, h *handler.CompanyTripHandler, jwtSecret string) {
	g := e.Group(
		"/v1/company",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCompanyAdmin),
	)
	g.GET("/trips", h.ListTrips)
	g.POST("/trips", h.CreateTrip)
	g.PUT("/trips/:id", h.UpdateTrip)
	g.DELETE("/trips/:id", h.DeleteTrip)
}

// RegisterAdmin registers the platform-admin surface under /v1/admin:
// company creation, coupon management and statistics.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.POST("/companies", h.CreateCompany)
	g.GET("/coupons", h.ListCoupons)
	g.POST("/coupons", h.CreateCoupon)
	g.DELETE("/coupons/:id", h.DeleteCoupon)
	g.GET("/stats", h.Stats)
}
