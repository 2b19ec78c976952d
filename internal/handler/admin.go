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

// AdminHandler serves the platform-admin surface: company management,
// coupon management and platform statistics.
type AdminHandler struct {
	Companies *repository.CompanyRepo
	Coupons   *repository.CouponRepo
	Tickets   *repository.TicketRepo
}

func NewAdminHandler(companies *repository.CompanyRepo, coupons *repository.CouponRepo, tickets *repository.TicketRepo) *AdminHandler {
	if companies == nil || coupons == nil || tickets == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Companies: companies, Coupons: coupons, Tickets: tickets}
}

type companyReq struct {
	Name     string  `json:"name"`
	LogoPath *string `json:"logo_path"`
}

// CreateCompany handles POST /v1/admin/companies.
func (h *AdminHandler) CreateCompany(c echo.Context) error {
	var req companyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	company := &model.Company{Name: req.Name, LogoPath: req.LogoPath}
	if err := h.Companies.Create(c.Request().Context(), company); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "company name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create company failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": company})
}

type couponReq struct {
	Code       string          `json:"code"`
	Discount   decimal.Decimal `json:"discount"`
	CompanyID  *uint64         `json:"company_id"`
	UsageLimit *uint32         `json:"usage_limit"`
	ExpireDate *time.Time      `json:"expire_date"`
}

// CreateCoupon handles POST /v1/admin/coupons.  Codes are stored
// upper-case; discount is a percentage in (0, 100].
func (h *AdminHandler) CreateCoupon(c echo.Context) error {
	var req couponReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}
	if req.Discount.LessThanOrEqual(decimal.Zero) || req.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "discount must be in (0, 100]"})
	}
	if req.CompanyID != nil {
		if _, err := h.Companies.GetByID(c.Request().Context(), *req.CompanyID); err != nil {
			if err == repository.ErrCompanyNotFound {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "company not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	coupon := &model.Coupon{
		Code:       code,
		Discount:   req.Discount,
		CompanyID:  req.CompanyID,
		UsageLimit: req.UsageLimit,
		ExpireDate: req.ExpireDate,
	}
	if err := h.Coupons.Create(c.Request().Context(), coupon); err != nil {
		if err == repository.ErrDuplicateCode {
			return c.JSON(http.StatusConflict, echo.Map{"error": "coupon code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create coupon failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": coupon})
}

// ListCoupons handles GET /v1/admin/coupons, including per-coupon usage
// counts.
func (h *AdminHandler) ListCoupons(c echo.Context) error {
	items, err := h.Coupons.ListWithUsage(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load coupons"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteCoupon handles DELETE /v1/admin/coupons/:id.  Redemption records
// stay behind so past tickets keep their audit trail.
func (h *AdminHandler) DeleteCoupon(c echo.Context) error {
	couponID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coupon id"})
	}
	if err := h.Coupons.Delete(c.Request().Context(), couponID); err != nil {
		if err == booking.ErrCouponNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "coupon not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete coupon failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/admin/stats: a small platform dashboard.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	activeTickets, err := h.Tickets.CountActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	companies, err := h.Companies.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	coupons, err := h.Coupons.ListWithUsage(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	var redemptions uint32
	for _, cp := range coupons {
		redemptions += cp.UsageCount
	}
	return c.JSON(http.StatusOK, echo.Map{
		"active_tickets":     activeTickets,
		"companies":          len(companies),
		"coupons":            len(coupons),
		"coupon_redemptions": redemptions,
	})
}
