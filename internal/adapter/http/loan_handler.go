package http

import (
	"net/http"

	domainLoan "lending-backend/internal/domain/loan"
	ucLoan "lending-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct{ uc *ucLoan.Usecase }

func NewLoanHandler(uc *ucLoan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

// Range checks against the configured limits happen in the usecase.
type applyLoanReq struct {
	Amount     decimal.Decimal `json:"amount"      validate:"gt=0,dec2"`
	TermMonths int             `json:"term_months" validate:"gt=0"`
	Purpose    string          `json:"purpose"     validate:"max=255"`
}

type documentsReq struct {
	FrontURL  string `json:"id_document_front_url" validate:"required,url"`
	BackURL   string `json:"id_document_back_url"  validate:"omitempty,url"`
	SelfieURL string `json:"selfie_url"            validate:"required,url"`
}

func (h *LoanHandler) Apply(c echo.Context) error {
	var req applyLoanReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Apply(c.Request().Context(), principal(c).ID, ucLoan.ApplyInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) Get(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	dto, err := h.uc.Get(c.Request().Context(), principal(c), appID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListMine(c echo.Context) error {
	limit, offset := page(c)
	dto, err := h.uc.ListMine(c.Request().Context(), principal(c).ID, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) UploadDocuments(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	var req documentsReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.UploadDocuments(c.Request().Context(), principal(c), appID, ucLoan.DocumentsInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Quote previews the processing fee for ?amount=.
func (h *LoanHandler) Quote(c echo.Context) error {
	amount, err := decimal.NewFromString(c.QueryParam("amount"))
	if err != nil || !amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount query param must be a positive number"})
	}
	dto, err := h.uc.Quote(c.Request().Context(), amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// AdminList pages every application, optionally narrowed by ?status=.
func (h *LoanHandler) AdminList(c echo.Context) error {
	limit, offset := page(c)
	f := domainLoan.ListFilter{Status: domainLoan.Status(c.QueryParam("status")), Limit: limit, Offset: offset}
	dto, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
