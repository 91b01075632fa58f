package http

import (
	"net/http"

	domainReferral "lending-backend/internal/domain/referral"
	ucReferral "lending-backend/internal/usecase/referral"

	"github.com/labstack/echo/v4"
)

type ReferralHandler struct{ uc *ucReferral.Usecase }

func NewReferralHandler(uc *ucReferral.Usecase) *ReferralHandler { return &ReferralHandler{uc: uc} }

func (h *ReferralHandler) Mine(c echo.Context) error {
	dto, err := h.uc.Mine(c.Request().Context(), principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ReferralHandler) AdminList(c echo.Context) error {
	limit, offset := page(c)
	dto, err := h.uc.List(c.Request().Context(), domainReferral.Status(c.QueryParam("status")), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ReferralHandler) Reward(c echo.Context) error {
	refID, ok, err := pathUint(c, "id")
	if !ok {
		return err
	}
	dto, err := h.uc.Reward(c.Request().Context(), principal(c), ucReferral.RewardInput{ReferralID: refID})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
