package http

import (
	"net/http"
	"strconv"
	"strings"

	"lending-backend/internal/adapter/middleware"
	domainUser "lending-backend/internal/domain/user"

	"github.com/labstack/echo/v4"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// bind decodes and validates req; on failure the 400/422 response is already
// written and ok is false.
func bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// principal is set by RequireAuth on every route that reaches a handler here.
func principal(c echo.Context) domainUser.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

// pathID returns a 32-char public id path param or writes a 400.
func pathID(c echo.Context, name string) (string, bool, error) {
	v := c.Param(name)
	if v == "" {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing " + name + " path param"})
	}
	if !reHex32.MatchString(v) {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
	}
	return v, true, nil
}

func pathUint(c echo.Context, name string) (uint64, bool, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
	}
	return n, true, nil
}

// page reads ?limit=&offset= clamped to [1, maxLimit] and >= 0.
func page(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func queryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
