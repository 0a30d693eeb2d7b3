package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// RequireAuth returns a middleware that verifies Firebase ID tokens
// passed as "Authorization: Bearer <token>"
func RequireAuth(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "auth not configured")
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			token := strings.TrimPrefix(header, "Bearer ")

			decodedToken, err := authClient.VerifyIDToken(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			// Set user info in context for downstream handlers
			c.Set("userUID", decodedToken.UID)
			if email, ok := decodedToken.Claims["email"].(string); ok {
				c.Set("userEmail", email)
			}
			if name, ok := decodedToken.Claims["name"].(string); ok {
				c.Set("userName", name)
			}

			return next(c)
		}
	}
}
