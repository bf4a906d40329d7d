package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// AdminAuth validates the Token header for the administrative API.
func AdminAuth(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get("Token")
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"status": false,
					"msg":    "Token is required",
				})
			}
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"status": false,
					"msg":    "Invalid token",
				})
			}
			return next(c)
		}
	}
}

// CORS returns a permissive CORS policy for the storefront.
func CORS() echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, "Token"},
	})
}
