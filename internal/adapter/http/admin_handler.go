package http

import (
	"net/http"
	"strconv"

	domainAudit "lending-backend/internal/domain/audit"
	ucAudit "lending-backend/internal/usecase/audit"
	ucDashboard "lending-backend/internal/usecase/dashboard"
	ucSetting "lending-backend/internal/usecase/setting"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves the back-office pages that have no borrower side.
type AdminHandler struct {
	settings  *ucSetting.Usecase
	audit     *ucAudit.Usecase
	dashboard *ucDashboard.Usecase
}

func NewAdminHandler(s *ucSetting.Usecase, a *ucAudit.Usecase, d *ucDashboard.Usecase) *AdminHandler {
	return &AdminHandler{settings: s, audit: a, dashboard: d}
}

type updateSettingReq struct {
	Value string `json:"value" validate:"max=1000"`
}

func (h *AdminHandler) ListSettings(c echo.Context) error {
	items, err := h.settings.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *AdminHandler) UpdateSetting(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing key path param"})
	}
	var req updateSettingReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	p := principal(c)
	dto, err := h.settings.Update(c.Request().Context(), ucSetting.UpdateInput{
		Key:     key,
		Value:   req.Value,
		ActorID: p.ID,
		IP:      p.IP,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ListAudit filters by ?entity_type=, ?entity_id= and ?actor_id=.
func (h *AdminHandler) ListAudit(c echo.Context) error {
	limit, offset := page(c)
	actor, _ := strconv.ParseUint(c.QueryParam("actor_id"), 10, 64)
	dto, err := h.audit.List(c.Request().Context(), domainAudit.Filter{
		EntityType: c.QueryParam("entity_type"),
		EntityID:   c.QueryParam("entity_id"),
		ActorID:    actor,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	dto, err := h.dashboard.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
