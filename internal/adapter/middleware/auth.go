package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	domainUser "lending-backend/internal/domain/user"

	"github.com/labstack/echo/v4"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domainUser.Principal, error)
}

func bearer(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	// browsers cannot set headers on websocket upgrades
	if websocketUpgrade(c.Request()) {
		return c.QueryParam("access_token")
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(echo.HeaderUpgrade), "websocket")
}

// RequireAuth resolves the bearer token to a principal carrying the client IP.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearer(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			p, err := a.Authenticate(c.Request().Context(), token)
			if errors.Is(err, domainUser.ErrInactive) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
			}
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			}
			p.IP = c.RealIP()
			SetPrincipal(c, *p)
			return next(c)
		}
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...domainUser.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			for _, r := range roles {
				if p.Role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient role"})
		}
	}
}
