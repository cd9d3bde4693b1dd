package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	// CookieName is the session cookie set at login.
	CookieName = "token"
	claimsKey  = "authClaims"
)

// TokenValidator validates session tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Middleware rejects requests without a valid token. The token is read from
// the Authorization header, then the session cookie, then the "token" query
// parameter (browsers cannot set headers on WebSocket upgrades).
func Middleware(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// GetClaims returns the authenticated claims, or nil.
func GetClaims(c echo.Context) *Claims {
	claims, ok := c.Get(claimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// UserID returns the authenticated user id or a 401 error.
func UserID(c echo.Context) (int64, error) {
	claims := GetClaims(c)
	if claims == nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return claims.UserID, nil
}

func extractToken(c echo.Context) string {
	if header := c.Request().Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return c.QueryParam("token")
}
