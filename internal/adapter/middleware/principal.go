package middleware

import (
	domainUser "lending-backend/internal/domain/user"

	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

func SetPrincipal(c echo.Context, p domainUser.Principal) { c.Set(principalKey, p) }

// PrincipalFrom returns the caller set by RequireAuth.
func PrincipalFrom(c echo.Context) (domainUser.Principal, bool) {
	p, ok := c.Get(principalKey).(domainUser.Principal)
	return p, ok
}
