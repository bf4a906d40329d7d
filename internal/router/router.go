package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"gorm.io/gorm"

	"cartpay/internal/checkout"
	"cartpay/internal/handler"
	"cartpay/internal/middleware"
	"cartpay/internal/repository"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	db *gorm.DB,
	svc *checkout.Service,
	gateways checkout.GatewaySource,
	logger *zap.Logger,
	adminAPIKey string,
	eventDeduper middleware.EventDeduper,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Handlers
	checkoutHandler := handler.NewCheckoutHandler(svc, logger)
	callbackHandler := handler.NewPaymentCallbackHandler(svc, gateways, logger)
	adminHandler := handler.NewAdminGatewayHandler(repository.NewGatewayConfigRepository(db), logger)

	// Storefront routes
	e.POST("/orders", checkoutHandler.PlaceOrder)
	e.POST("/checkout/:id/pay", checkoutHandler.StartPayment)
	e.POST("/checkout/:id/cancel", checkoutHandler.CancelPayment)

	// Gateway return + webhook routes
	paymentGroup := e.Group("/payment")
	paymentGroup.GET("/callback", callbackHandler.Callback)
	paymentGroup.POST("/callback", callbackHandler.Callback)

	webhookGroup := e.Group("/payment/webhook")
	webhookGroup.Use(middleware.WebhookDedup(eventDeduper))
	webhookGroup.POST("", callbackHandler.Webhook)

	// Admin API with auth middleware
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.AdminAuth(adminAPIKey))
	apiGroup.GET("/gateways", adminHandler.List)
	apiGroup.POST("/gateways", adminHandler.Upsert)
	apiGroup.POST("/gateways/:code/activate", adminHandler.Activate)
	apiGroup.POST("/gateways/:code/deactivate", adminHandler.Deactivate)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
