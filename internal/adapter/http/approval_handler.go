package http

import (
	"net/http"

	ucApproval "lending-backend/internal/usecase/approval"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ApprovalHandler struct{ uc *ucApproval.Usecase }

func NewApprovalHandler(uc *ucApproval.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

type approveLoanReq struct {
	ApprovedAmount decimal.Decimal `json:"approved_amount" validate:"gt=0,dec2"`
	// omitted → default_interest_rate setting
	InterestRate *decimal.Decimal `json:"interest_rate" validate:"omitempty,gte=0,lte=100"`
	Note         string           `json:"note"          validate:"max=500"`
}

type reasonReq struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *ApprovalHandler) StartReview(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	dto, err := h.uc.StartReview(c.Request().Context(), principal(c), appID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Approve(c echo.Context) error {
	// Validate path param
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	// Bind + validate body payload JSON
	var req approveLoanReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Approve(c.Request().Context(), principal(c), ucApproval.ApproveInput{
		ApplicationID:  appID,
		ApprovedAmount: req.ApprovedAmount,
		InterestRate:   req.InterestRate,
		Note:           req.Note,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Reject(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	var req reasonReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), principal(c), ucApproval.ReviewInput{ApplicationID: appID, Reason: req.Reason})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) VerifyID(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	dto, err := h.uc.VerifyID(c.Request().Context(), principal(c), appID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) RejectID(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	var req reasonReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.RejectID(c.Request().Context(), principal(c), ucApproval.ReviewInput{ApplicationID: appID, Reason: req.Reason})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
