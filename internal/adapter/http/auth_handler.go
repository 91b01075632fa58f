package http

import (
	"net/http"

	ucAuth "lending-backend/internal/usecase/auth"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct{ uc *ucAuth.Usecase }

func NewAuthHandler(uc *ucAuth.Usecase) *AuthHandler { return &AuthHandler{uc: uc} }

type registerReq struct {
	Email        string `json:"email"         validate:"required,email,max=255"`
	Password     string `json:"password"      validate:"required,min=8,max=72"`
	FullName     string `json:"full_name"     validate:"required,max=255"`
	Phone        string `json:"phone"         validate:"omitempty,max=32"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=16"`
}

type loginReq struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Register(c.Request().Context(), ucAuth.RegisterInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Login(c.Request().Context(), ucAuth.LoginInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
