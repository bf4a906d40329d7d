package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func adminTestServer(apiKey string) *echo.Echo {
	e := echo.New()
	g := e.Group("/api")
	g.Use(AdminAuth(apiKey))
	g.GET("/gateways", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return e
}

func getWithToken(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/gateways", nil)
	if token != "" {
		req.Header.Set("Token", token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuth(t *testing.T) {
	e := adminTestServer("s3cret")

	t.Run("valid token", func(t *testing.T) {
		rec := getWithToken(e, "s3cret")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := getWithToken(e, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		rec := getWithToken(e, "guess")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdminAuthDisabledWithoutKey(t *testing.T) {
	// An empty configured key rejects everything rather than opening up.
	e := adminTestServer("")

	rec := getWithToken(e, "anything")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
