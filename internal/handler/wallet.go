package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-ticketing/internal/repository"
)

// topUpCeiling bounds a single top-up so a typo cannot load an absurd
// amount onto a wallet.
var topUpCeiling = decimal.NewFromInt(10000)

// WalletHandler exposes the passenger wallet: reading the balance and
// topping it up.  Debits happen only inside the settlement engine.
type WalletHandler struct {
	Wallet *repository.WalletRepo
}

func NewWalletHandler(w *repository.WalletRepo) *WalletHandler {
	if w == nil {
		panic("nil repository passed to NewWalletHandler")
	}
	return &WalletHandler{Wallet: w}
}

// Balance handles GET /v1/wallet.
func (h *WalletHandler) Balance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bal, err := h.Wallet.Balance(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load balance"})
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": bal})
}

type topUpReq struct {
	Amount decimal.Decimal `json:"amount"`
}

// TopUp handles POST /v1/wallet/topup.  The amount must be positive and
// below the top-up ceiling; it is credited outside any purchase flow.
func (h *WalletHandler) TopUp(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req topUpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}
	if req.Amount.GreaterThan(topUpCeiling) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount exceeds the single top-up limit"})
	}

	ctx := c.Request().Context()
	if err := h.Wallet.TopUp(ctx, userID, req.Amount.Round(2)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "top-up failed"})
	}
	bal, err := h.Wallet.Balance(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load balance"})
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": bal})
}
