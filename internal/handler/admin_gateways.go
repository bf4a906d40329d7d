package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cartpay/internal/gateway"
	"cartpay/internal/models"
	"cartpay/internal/repository"
)

// AdminGatewayHandler manages gateway configurations. Credentials are
// write-only through this API: list responses mask every secret.
type AdminGatewayHandler struct {
	repo   *repository.GatewayConfigRepository
	logger *zap.Logger
}

func NewAdminGatewayHandler(repo *repository.GatewayConfigRepository, logger *zap.Logger) *AdminGatewayHandler {
	return &AdminGatewayHandler{repo: repo, logger: logger}
}

type gatewayView struct {
	Code                string            `json:"code"`
	Name                string            `json:"name"`
	TestMode            bool              `json:"test_mode"`
	Active              bool              `json:"active"`
	SDKURL              string            `json:"sdk_url,omitempty"`
	RequiredCredentials []string          `json:"required_credentials"`
	Credentials         map[string]string `json:"credentials"`
	HasWebhookSecret    bool              `json:"has_webhook_secret"`
	Extra               map[string]string `json:"extra,omitempty"`
}

// List returns every configuration with secrets masked.
// GET /api/gateways
func (h *AdminGatewayHandler) List(c echo.Context) error {
	configs, err := h.repo.List(c.Request().Context())
	if err != nil {
		h.logger.Error("list gateway configs failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load gateways"})
	}

	views := make([]gatewayView, 0, len(configs))
	for _, cfg := range configs {
		adapter, err := gateway.New(gateway.Code(cfg.Code))
		if err != nil {
			// A row for a retired provider; surface it without adapter data.
			views = append(views, gatewayView{Code: cfg.Code, Active: cfg.Active, TestMode: cfg.TestMode})
			continue
		}

		stored := map[string]string{}
		if cfg.Credentials != "" {
			_ = json.Unmarshal([]byte(cfg.Credentials), &stored)
		}
		masked := make(map[string]string, len(stored))
		for key, value := range stored {
			masked[key] = maskSecret(value)
		}

		extra := map[string]string{}
		if cfg.Extra != "" {
			_ = json.Unmarshal([]byte(cfg.Extra), &extra)
		}

		views = append(views, gatewayView{
			Code:                cfg.Code,
			Name:                adapter.Name(),
			TestMode:            cfg.TestMode,
			Active:              cfg.Active,
			SDKURL:              adapter.SDKURL(),
			RequiredCredentials: adapter.RequiredCredentials(),
			Credentials:         masked,
			HasWebhookSecret:    cfg.WebhookSecret != "",
			Extra:               extra,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"gateways": views})
}

type upsertGatewayRequest struct {
	Code          string            `json:"code"`
	Credentials   map[string]string `json:"credentials"`
	TestMode      bool              `json:"test_mode"`
	WebhookSecret string            `json:"webhook_secret"`
	Extra         map[string]string `json:"extra"`
}

// Upsert creates or updates a provider configuration after validating
// the credential keys against the adapter's requirements.
// POST /api/gateways
func (h *AdminGatewayHandler) Upsert(c echo.Context) error {
	var req upsertGatewayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	adapter, err := gateway.New(gateway.Code(req.Code))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unsupported gateway code: " + req.Code})
	}

	var missing []string
	for _, key := range adapter.RequiredCredentials() {
		if req.Credentials[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "missing required credentials",
			"missing": missing,
		})
	}

	credsJSON, err := json.Marshal(req.Credentials)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid credentials"})
	}
	extraJSON := "{}"
	if req.Extra != nil {
		raw, err := json.Marshal(req.Extra)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid extra config"})
		}
		extraJSON = string(raw)
	}

	cfg := &models.GatewayConfig{
		Code:          req.Code,
		Credentials:   string(credsJSON),
		TestMode:      req.TestMode,
		WebhookSecret: req.WebhookSecret,
		Extra:         extraJSON,
	}
	if err := h.repo.Upsert(c.Request().Context(), cfg); err != nil {
		h.logger.Error("save gateway config failed", zap.Error(err), zap.String("code", req.Code))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save gateway"})
	}

	h.logger.Info("gateway config saved",
		zap.String("code", req.Code),
		zap.Bool("test_mode", req.TestMode))
	return c.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

// Activate makes one provider the active gateway, deactivating all
// others in the same transaction. The configuration must be complete
// before it can go live.
// POST /api/gateways/:code/activate
func (h *AdminGatewayHandler) Activate(c echo.Context) error {
	code := c.Param("code")
	ctx := c.Request().Context()

	adapter, err := gateway.New(gateway.Code(code))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unsupported gateway code: " + code})
	}

	cfg, err := h.repo.FindByCode(ctx, code)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "gateway is not configured"})
	}
	stored := map[string]string{}
	if cfg.Credentials != "" {
		_ = json.Unmarshal([]byte(cfg.Credentials), &stored)
	}
	for _, key := range adapter.RequiredCredentials() {
		if stored[key] == "" {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "gateway credentials are incomplete; save them before activating",
			})
		}
	}

	if err := h.repo.Activate(ctx, code); err != nil {
		h.logger.Error("activate gateway failed", zap.Error(err), zap.String("code", code))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to activate gateway"})
	}

	h.logger.Info("gateway activated", zap.String("code", code))
	return c.JSON(http.StatusOK, map[string]string{"status": "activated", "code": code})
}

// Deactivate turns a provider off without deleting its configuration.
// POST /api/gateways/:code/deactivate
func (h *AdminGatewayHandler) Deactivate(c echo.Context) error {
	code := c.Param("code")
	if err := h.repo.Deactivate(c.Request().Context(), code); err != nil {
		h.logger.Error("deactivate gateway failed", zap.Error(err), zap.String("code", code))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to deactivate gateway"})
	}
	h.logger.Info("gateway deactivated", zap.String("code", code))
	return c.JSON(http.StatusOK, map[string]string{"status": "deactivated", "code": code})
}

func maskSecret(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}
