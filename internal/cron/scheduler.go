package cron

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"cartpay/internal/checkout"
	"cartpay/internal/config"
	"cartpay/internal/gateway"
	"cartpay/internal/models"
	"cartpay/internal/repository"
)

const (
	reconcileBatchSize    = 50
	fallbackReconcileSpec = "0 */5 * * * *"
)

// Scheduler runs the background payment reconciler. Buyers close the
// tab, redirects get lost, webhooks get dropped; the reconciler
// re-verifies stuck pending payments directly with the provider so
// orders eventually settle without any user action.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	svc      *checkout.Service
	orders   *repository.OrderRepository
	attempts *repository.PaymentAttemptRepository
	logger   *zap.Logger
}

func New(cfg *config.Config, svc *checkout.Service, orders *repository.OrderRepository, attempts *repository.PaymentAttemptRepository, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		svc:      svc,
		orders:   orders,
		attempts: attempts,
		logger:   logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	spec := s.cfg.Payment.ReconcileCron
	if _, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("Running: payment reconcile")
		s.reconcilePendingPayments()
	}); err != nil {
		s.logger.Error("Invalid reconcile cron expression, falling back to 5 minutes",
			zap.String("spec", spec), zap.Error(err))
		if _, err := s.cron.AddFunc(fallbackReconcileSpec, s.reconcilePendingPayments); err != nil {
			s.logger.Error("Failed to register fallback reconcile job", zap.Error(err))
		}
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) reconcilePendingPayments() {
	defer s.recoverFromPanic("reconcilePendingPayments")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.cfg.Payment.ReconcileGrace)
	orders, err := s.orders.FindStalePending(ctx, cutoff, reconcileBatchSize)
	if err != nil {
		s.logger.Error("reconcile: failed to load pending orders", zap.Error(err))
		return
	}
	if len(orders) == 0 {
		return
	}

	s.logger.Info("reconcile: checking stuck pending payments", zap.Int("count", len(orders)))

	for _, order := range orders {
		s.reconcileOrder(ctx, order)
	}
}

func (s *Scheduler) reconcileOrder(ctx context.Context, order models.Order) {
	req := gateway.VerifyRequest{
		OrderNumber:    order.OrderNumber,
		GatewayOrderID: order.GatewayOrderID,
	}

	// Some providers verify by payment id rather than order reference;
	// use the one captured on the latest attempt when present.
	if attempt, err := s.attempts.LatestByOrderID(ctx, order.ID); err == nil && attempt != nil {
		req.PaymentID = attempt.PaymentID
	}

	result, err := s.svc.ConfirmPayment(ctx, req)
	if err != nil {
		var callErr *gateway.CallError
		if errors.As(err, &callErr) {
			// Provider unreachable or still unsure; next run retries.
			s.logger.Warn("reconcile: verification call failed",
				zap.String("order_number", order.OrderNumber), zap.Error(err))
			return
		}
		s.logger.Error("reconcile: confirmation failed",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		return
	}

	s.logger.Info("reconcile: order checked",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(result.Status)))
}

func (s *Scheduler) recoverFromPanic(job string) {
	if r := recover(); r != nil {
		s.logger.Error("cron job panicked", zap.String("job", job), zap.Any("panic", r))
	}
}
