package checkout

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cartpay/internal/gateway"
	"cartpay/internal/models"
)

// GatewaySource resolves the active payment gateway. Satisfied by
// *gateway.Resolver.
type GatewaySource interface {
	Active(ctx context.Context) (*gateway.Active, error)
}

// OrderStore is the slice of order persistence the orchestrator needs.
// Satisfied by *repository.OrderRepository.
type OrderStore interface {
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	ItemsByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error)
	Create(ctx context.Context, order *models.Order, items []models.OrderItem) error
	MarkPaymentPending(ctx context.Context, orderID uint, gatewayCode, gatewayOrderID, paymentToken string) (bool, error)
	MarkPaid(ctx context.Context, orderID uint, paymentID string) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID uint) (bool, error)
}

// AttemptStore records the payment attempt audit trail. Satisfied by
// *repository.PaymentAttemptRepository.
type AttemptStore interface {
	Create(ctx context.Context, attempt *models.PaymentAttempt) error
	RecordVerification(ctx context.Context, orderID uint, status, paymentID, detail string) error
}

// Fulfiller runs the side effects of an order becoming paid (inventory,
// notifications). It is invoked at most once per order: only by the
// verification that actually applied the paid transition.
type Fulfiller interface {
	OrderPaid(ctx context.Context, order *models.Order)
}

// Service orchestrates payment creation and verification around the
// order state machine:
//
//	created -> payment_pending -> {paid, payment_failed}
//
// Creation alone never marks an order paid; only a captured verification
// result does, exactly once.
type Service struct {
	gateways        GatewaySource
	orders          OrderStore
	attempts        AttemptStore
	fulfiller       Fulfiller
	logger          *zap.Logger
	callbackBaseURL string
}

func NewService(gateways GatewaySource, orders OrderStore, attempts AttemptStore, fulfiller Fulfiller, callbackBaseURL string, logger *zap.Logger) *Service {
	return &Service{
		gateways:        gateways,
		orders:          orders,
		attempts:        attempts,
		fulfiller:       fulfiller,
		callbackBaseURL: strings.TrimRight(callbackBaseURL, "/"),
		logger:          logger,
	}
}

// PlaceOrderInput is the storefront's hand-off into the payment layer.
// Pricing is already final; items are receipt metadata only.
type PlaceOrderInput struct {
	Amount   float64
	Currency string
	Customer gateway.Customer
	Items    []gateway.LineItem
}

// PlaceOrder records a new order in the created state.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if in.Amount <= 0 {
		return nil, errors.New("order amount must be positive")
	}

	order := &models.Order{
		OrderNumber:   newOrderNumber(),
		Status:        models.OrderStatusCreated,
		Currency:      currencyOrDefault(in.Currency),
		TotalAmount:   in.Amount,
		CustomerName:  in.Customer.Name,
		CustomerEmail: in.Customer.Email,
		CustomerPhone: in.Customer.Phone,
		AddressLine:   in.Customer.Address,
		City:          in.Customer.City,
		State:         in.Customer.State,
		PostalCode:    in.Customer.PostalCode,
	}
	items := make([]models.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, models.OrderItem{
			ItemID:    it.ID,
			Title:     it.Title,
			VariantID: it.VariantID,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	if err := s.orders.Create(ctx, order, items); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// StartResult is everything the storefront needs to hand the buyer to
// the provider.
type StartResult struct {
	Provider     gateway.Code           `json:"provider"`
	ProviderName string                 `json:"provider_name"`
	SDKURL       string                 `json:"sdk_url,omitempty"`
	Handle       *gateway.PaymentHandle `json:"handle"`
}

// StartPayment creates a payment order with the active gateway and moves
// the store order into payment_pending. Any failure before the provider
// confirms creation leaves the order in its current state, so the whole
// call is safe to retry from scratch.
func (s *Service) StartPayment(ctx context.Context, orderID uint) (*StartResult, error) {
	act, err := s.gateways.Active(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	switch order.Status {
	case models.OrderStatusCreated, models.OrderStatusPaymentPending:
		// first attempt, or retry of an abandoned one
	default:
		return nil, fmt.Errorf("order %s is %s and cannot start a payment", order.OrderNumber, order.Status)
	}

	items, err := s.orders.ItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	req := gateway.OrderRequest{
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Customer: gateway.Customer{
			Name:       order.CustomerName,
			Email:      order.CustomerEmail,
			Phone:      order.CustomerPhone,
			Address:    order.AddressLine,
			City:       order.City,
			State:      order.State,
			PostalCode: order.PostalCode,
		},
		ReturnURL: s.callbackBaseURL + "/payment/callback",
		NotifyURL: s.callbackBaseURL + "/payment/webhook",
	}
	for _, it := range items {
		req.Items = append(req.Items, gateway.LineItem{
			ID:        it.ItemID,
			Title:     it.Title,
			VariantID: it.VariantID,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	handle, err := act.Adapter.CreateOrder(ctx, req, act.Config)
	if err != nil {
		// The order stays where it was: a failed or timed-out creation
		// means no order exists on the provider side worth tracking.
		s.recordAttempt(ctx, order, act, "", models.AttemptStatusCreateFailed, err.Error())
		return nil, err
	}

	applied, err := s.orders.MarkPaymentPending(ctx, order.ID, string(act.Adapter.Code()), handle.GatewayOrderID, handle.PaymentToken)
	if err != nil {
		return nil, fmt.Errorf("persist payment handle: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("order %s changed state during payment creation", order.OrderNumber)
	}
	s.recordAttempt(ctx, order, act, handle.GatewayOrderID, models.AttemptStatusInitiated, "")

	s.logger.Info("payment order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("provider", string(act.Adapter.Code())),
		zap.String("gateway_order_id", handle.GatewayOrderID))

	return &StartResult{
		Provider:     act.Adapter.Code(),
		ProviderName: act.Adapter.Name(),
		SDKURL:       act.Adapter.SDKURL(),
		Handle:       handle,
	}, nil
}

// ConfirmPayment verifies a payment with the provider and applies the
// resulting state transition. It is safe to call from the user-return
// redirect and the provider webhook concurrently: the paid transition
// applies at most once, a pending result changes nothing, and a
// *gateway.CallError propagates without touching the order so the caller
// can retry once the provider is reachable again.
func (s *Service) ConfirmPayment(ctx context.Context, req gateway.VerifyRequest) (*gateway.Result, error) {
	act, err := s.gateways.Active(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.findOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusPaid {
		// Re-confirmation of an already settled order; no side effects.
		return &gateway.Result{
			Success:        true,
			Status:         gateway.StatusCaptured,
			PaymentID:      order.PaymentID,
			GatewayOrderID: order.GatewayOrderID,
			Amount:         order.TotalAmount,
			Currency:       order.Currency,
		}, nil
	}

	if req.GatewayOrderID == "" {
		req.GatewayOrderID = order.GatewayOrderID
	}
	if req.OrderNumber == "" {
		req.OrderNumber = order.OrderNumber
	}
	req.Amount = order.TotalAmount

	result, err := act.Adapter.Verify(ctx, req, act.Config)
	if err != nil {
		// Indeterminate: the provider may well have captured the payment.
		// No transition; the reconciler or the next callback retries.
		return nil, err
	}

	switch result.Status {
	case gateway.StatusCaptured:
		if result.Amount > 0 && order.TotalAmount > 0 && result.Amount != order.TotalAmount {
			s.logger.Warn("captured amount differs from order total",
				zap.String("order_number", order.OrderNumber),
				zap.Float64("order_total", order.TotalAmount),
				zap.Float64("captured", result.Amount))
		}
		applied, err := s.orders.MarkPaid(ctx, order.ID, result.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("mark order paid: %w", err)
		}
		if applied {
			s.recordVerification(ctx, order.ID, order.OrderNumber, models.AttemptStatusCaptured, result.PaymentID, "")
			s.fulfiller.OrderPaid(ctx, order)
			s.logger.Info("order paid",
				zap.String("order_number", order.OrderNumber),
				zap.String("payment_id", result.PaymentID))
		}
	case gateway.StatusFailed:
		applied, err := s.orders.MarkPaymentFailed(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("mark order failed: %w", err)
		}
		if applied {
			s.recordVerification(ctx, order.ID, order.OrderNumber, models.AttemptStatusFailed, result.PaymentID, result.Err)
			s.logger.Info("payment failed",
				zap.String("order_number", order.OrderNumber),
				zap.String("reason", result.Err))
		}
	case gateway.StatusPending:
		// Indeterminate status is not a transition.
		s.recordVerification(ctx, order.ID, order.OrderNumber, models.AttemptStatusPending, result.PaymentID, "")
	case gateway.StatusRefunded:
		// Refund state transitions belong to the returns subsystem.
		s.logger.Info("verification reported refunded payment",
			zap.String("order_number", order.OrderNumber))
	}

	return result, nil
}

// CancelPayment records a buyer-reported cancellation before any
// verification succeeded.
func (s *Service) CancelPayment(ctx context.Context, orderID uint) (bool, error) {
	applied, err := s.orders.MarkPaymentFailed(ctx, orderID)
	if err != nil {
		return false, err
	}
	if applied {
		s.recordVerification(ctx, orderID, "", models.AttemptStatusFailed, "", "cancelled by buyer")
	}
	return applied, nil
}

// recordVerification updates the audit trail; a persistence failure is
// logged rather than propagated so it never undoes an applied transition.
func (s *Service) recordVerification(ctx context.Context, orderID uint, orderNumber, status, paymentID, detail string) {
	if err := s.attempts.RecordVerification(ctx, orderID, status, paymentID, detail); err != nil {
		s.logger.Error("failed to record verification outcome", zap.Error(err),
			zap.Uint("order_id", orderID),
			zap.String("order_number", orderNumber),
			zap.String("status", status))
	}
}

func (s *Service) findOrder(ctx context.Context, req gateway.VerifyRequest) (*models.Order, error) {
	if req.OrderNumber != "" {
		return s.orders.FindByOrderNumber(ctx, req.OrderNumber)
	}
	if req.GatewayOrderID != "" {
		return s.orders.FindByGatewayOrderID(ctx, req.GatewayOrderID)
	}
	return nil, errors.New("verification request identifies no order")
}

func (s *Service) recordAttempt(ctx context.Context, order *models.Order, act *gateway.Active, gatewayOrderID, status, detail string) {
	attempt := &models.PaymentAttempt{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Gateway:        string(act.Adapter.Code()),
		GatewayOrderID: gatewayOrderID,
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		Status:         status,
		Detail:         detail,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.Error("failed to record payment attempt", zap.Error(err),
			zap.String("order_number", order.OrderNumber))
	}
}

func newOrderNumber() string {
	id := uuid.New()
	return "ORD" + strings.ToUpper(hex.EncodeToString(id[:8]))
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "INR"
	}
	return currency
}
