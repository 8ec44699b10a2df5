package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog/internal/utils"
)

// JWTAuth validates a Bearer access token and stores its subject and role
// in the context under "user_id" and "role". Missing, malformed or expired
// tokens are answered with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   "unauthorized",
					"message": "Please log in to continue.",
				})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   "unauthorized",
					"message": "Your session has expired. Please log in again.",
				})
			}
			c.Set(userIDKey, claims.UserID)
			c.Set(roleKey, claims.Role)
			return next(c)
		}
	}
}
