package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cartpay/internal/checkout"
	"cartpay/internal/gateway"
)

// CheckoutHandler exposes order placement and payment initiation to the
// storefront.
type CheckoutHandler struct {
	svc    *checkout.Service
	logger *zap.Logger
}

func NewCheckoutHandler(svc *checkout.Service, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, logger: logger}
}

type placeOrderRequest struct {
	Amount   float64            `json:"amount"`
	Currency string             `json:"currency"`
	Customer gateway.Customer   `json:"customer"`
	Items    []gateway.LineItem `json:"items"`
}

// PlaceOrder creates a store order in the created state.
// POST /orders
func (h *CheckoutHandler) PlaceOrder(c echo.Context) error {
	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	order, err := h.svc.PlaceOrder(c.Request().Context(), checkout.PlaceOrderInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Customer: req.Customer,
		Items:    req.Items,
	})
	if err != nil {
		h.logger.Error("place order failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, order)
}

// StartPayment initiates a payment with the active gateway.
// POST /checkout/:id/pay
func (h *CheckoutHandler) StartPayment(c echo.Context) error {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order id"})
	}

	result, err := h.svc.StartPayment(c.Request().Context(), uint(orderID))
	if err != nil {
		return h.paymentError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// CancelPayment records a buyer cancellation.
// POST /checkout/:id/cancel
func (h *CheckoutHandler) CancelPayment(c echo.Context) error {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order id"})
	}

	applied, err := h.svc.CancelPayment(c.Request().Context(), uint(orderID))
	if err != nil {
		h.logger.Error("cancel payment failed", zap.Error(err), zap.Uint64("order_id", orderID))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to cancel payment"})
	}
	if !applied {
		return c.JSON(http.StatusConflict, map[string]string{"error": "order has no pending payment"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *CheckoutHandler) paymentError(c echo.Context, err error) error {
	var cfgErr *gateway.ConfigError
	var callErr *gateway.CallError

	switch {
	case errors.Is(err, gateway.ErrNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "payments are not configured"})
	case errors.As(err, &cfgErr):
		h.logger.Error("gateway misconfigured", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "payment gateway is misconfigured"})
	case errors.As(err, &callErr):
		h.logger.Error("gateway call failed", zap.Error(err),
			zap.Int("provider_status", callErr.StatusCode))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "payment provider is unavailable"})
	default:
		h.logger.Error("payment initiation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
