package http

import (
	"context"
	"net/http"

	domainDisb "lending-backend/internal/domain/disbursement"
	domainUser "lending-backend/internal/domain/user"
	ucDisb "lending-backend/internal/usecase/disbursement"

	"github.com/labstack/echo/v4"
)

type DisbursementHandler struct{ uc *ucDisb.Usecase }

func NewDisbursementHandler(uc *ucDisb.Usecase) *DisbursementHandler {
	return &DisbursementHandler{uc: uc}
}

type disbursementReq struct {
	BankName          string `json:"bank_name"           validate:"required,max=255"`
	AccountHolderName string `json:"account_holder_name" validate:"required,max=255"`
	AccountNumber     string `json:"account_number"      validate:"required,min=4,max=64"`
	RoutingNumber     string `json:"routing_number"      validate:"omitempty,max=64"`
}

type adminDisbursementReq struct {
	Reference string `json:"reference" validate:"max=255"`
	Reason    string `json:"reason"    validate:"max=500"`
}

func (h *DisbursementHandler) Request(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	var req disbursementReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Request(c.Request().Context(), principal(c), ucDisb.RequestInput{
		ApplicationID:     appID,
		BankName:          req.BankName,
		AccountHolderName: req.AccountHolderName,
		AccountNumber:     req.AccountNumber,
		RoutingNumber:     req.RoutingNumber,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *DisbursementHandler) GetForLoan(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	dto, err := h.uc.GetForLoan(c.Request().Context(), principal(c), appID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DisbursementHandler) AdminList(c echo.Context) error {
	limit, offset := page(c)
	dto, err := h.uc.List(c.Request().Context(), domainDisb.Status(c.QueryParam("status")), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DisbursementHandler) MarkProcessing(c echo.Context) error {
	return h.admin(c, h.uc.MarkProcessing)
}

func (h *DisbursementHandler) Complete(c echo.Context) error {
	return h.admin(c, h.uc.Complete)
}

func (h *DisbursementHandler) Fail(c echo.Context) error {
	return h.admin(c, h.uc.Fail)
}

type disbursementAction func(context.Context, domainUser.Principal, ucDisb.AdminInput) (*ucDisb.DisbursementDTO, error)

func (h *DisbursementHandler) admin(c echo.Context, action disbursementAction) error {
	disbID, ok, err := pathID(c, "disbursement_id")
	if !ok {
		return err
	}
	var req adminDisbursementReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := action(c.Request().Context(), principal(c), ucDisb.AdminInput{
		DisbursementID: disbID,
		Reference:      req.Reference,
		Reason:         req.Reason,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
