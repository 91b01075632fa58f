package http

import (
	"errors"
	"net/http"
	"time"

	domainUser "lending-backend/internal/domain/user"
	ucAccount "lending-backend/internal/usecase/account"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AccountHandler struct{ uc *ucAccount.Usecase }

func NewAccountHandler(uc *ucAccount.Usecase) *AccountHandler { return &AccountHandler{uc: uc} }

// Absent fields are left unchanged.
type updateProfileReq struct {
	FullName *string `json:"full_name"         validate:"omitempty,min=1,max=255"`
	Phone    *string `json:"phone"             validate:"omitempty,max=32"`
	// Accept canonical date `YYYY-MM-DD`
	DateOfBirth      *string          `json:"date_of_birth"     validate:"omitempty,datetime=2006-01-02"`
	Address          *string          `json:"address"           validate:"omitempty,max=500"`
	City             *string          `json:"city"              validate:"omitempty,max=100"`
	Country          *string          `json:"country"           validate:"omitempty,max=100"`
	EmploymentStatus *string          `json:"employment_status" validate:"omitempty,oneof=employed self_employed unemployed student retired"`
	MonthlyIncome    *decimal.Decimal `json:"monthly_income"    validate:"omitempty,gte=0,dec2"`
}

type updateKYCReq struct {
	NationalIDNumber string `json:"national_id_number" validate:"required,min=4,max=64"`
	IDDocumentType   string `json:"id_document_type"   validate:"required,oneof=passport national_id drivers_license"`
}

type changePasswordReq struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password"     validate:"required,min=8,max=72,nefield=Current"`
}

func (h *AccountHandler) Profile(c echo.Context) error {
	dto, err := h.uc.Profile(c.Request().Context(), principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	in := ucAccount.UpdateProfileInput{
		FullName:         req.FullName,
		Phone:            req.Phone,
		Address:          req.Address,
		City:             req.City,
		Country:          req.Country,
		EmploymentStatus: req.EmploymentStatus,
		MonthlyIncome:    req.MonthlyIncome,
	}
	if req.DateOfBirth != nil {
		dob, _ := time.Parse(time.DateOnly, *req.DateOfBirth)
		in.DateOfBirth = &dob
	}
	dto, err := h.uc.UpdateProfile(c.Request().Context(), principal(c).ID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) UpdateKYC(c echo.Context) error {
	var req updateKYCReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.UpdateKYC(c.Request().Context(), principal(c).ID, ucAccount.UpdateKYCInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	err := h.uc.ChangePassword(c.Request().Context(), principal(c).ID, ucAccount.ChangePasswordInput(req))
	if errors.Is(err, domainUser.ErrInvalidCredentials) {
		// the caller is authenticated; a wrong current password is a bad field
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "current_password", Message: "is incorrect"}},
		})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) Delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), principal(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
