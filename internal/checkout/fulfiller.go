package checkout

import (
	"context"

	"go.uber.org/zap"

	"cartpay/internal/models"
)

// LogFulfiller is the default Fulfiller: it records the fulfillment
// hand-off. Inventory decrement and buyer notification live in the
// storefront, which replaces this with its own implementation.
type LogFulfiller struct {
	logger *zap.Logger
}

func NewLogFulfiller(logger *zap.Logger) *LogFulfiller {
	return &LogFulfiller{logger: logger}
}

func (f *LogFulfiller) OrderPaid(_ context.Context, order *models.Order) {
	f.logger.Info("order ready for fulfillment",
		zap.String("order_number", order.OrderNumber),
		zap.Float64("amount", order.TotalAmount),
		zap.String("currency", order.Currency))
}
