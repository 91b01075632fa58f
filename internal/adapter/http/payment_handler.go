package http

import (
	"context"
	"io"
	"net/http"

	"lending-backend/internal/adapter/gateway/card"
	domainPayment "lending-backend/internal/domain/payment"
	domainUser "lending-backend/internal/domain/user"
	ucPayment "lending-backend/internal/usecase/payment"

	"github.com/labstack/echo/v4"
)

// webhook bodies are small JSON events
const maxWebhookBody = 1 << 20

type PaymentHandler struct{ uc *ucPayment.Usecase }

func NewPaymentHandler(uc *ucPayment.Usecase) *PaymentHandler { return &PaymentHandler{uc: uc} }

type cryptoPaymentReq struct {
	Currency string `json:"currency" validate:"required,oneof=btc eth usdt"`
}

type txReq struct {
	TxHash string `json:"tx_hash" validate:"required,min=16,max=128"`
}

type adminPaymentReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *PaymentHandler) InitiateCard(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	dto, err := h.uc.InitiateCard(c.Request().Context(), principal(c), appID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *PaymentHandler) InitiateCrypto(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	var req cryptoPaymentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.InitiateCrypto(c.Request().Context(), principal(c), ucPayment.CryptoInput{
		ApplicationID: appID,
		Coin:          domainPayment.Coin(req.Currency),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *PaymentHandler) SubmitTx(c echo.Context) error {
	payID, ok, err := pathID(c, "payment_id")
	if !ok {
		return err
	}
	var req txReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.SubmitTx(c.Request().Context(), principal(c), ucPayment.TxInput{PaymentID: payID, TxHash: req.TxHash})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PaymentHandler) Recheck(c echo.Context) error {
	payID, ok, err := pathID(c, "payment_id")
	if !ok {
		return err
	}
	dto, err := h.uc.Recheck(c.Request().Context(), principal(c), payID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PaymentHandler) Get(c echo.Context) error {
	payID, ok, err := pathID(c, "payment_id")
	if !ok {
		return err
	}
	dto, err := h.uc.Get(c.Request().Context(), principal(c), payID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PaymentHandler) ListForLoan(c echo.Context) error {
	appID, ok, err := pathID(c, "application_id")
	if !ok {
		return err
	}
	items, err := h.uc.ListForLoan(c.Request().Context(), principal(c), appID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// CardWebhook needs the raw body: the signature covers the exact bytes sent.
func (h *PaymentHandler) CardWebhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	sig := c.Request().Header.Get(card.SignatureHeader)
	if sig == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing " + card.SignatureHeader + " header"})
	}
	if err := h.uc.HandleCardWebhook(c.Request().Context(), payload, sig); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *PaymentHandler) AdminConfirm(c echo.Context) error {
	return h.admin(c, h.uc.AdminConfirm)
}

func (h *PaymentHandler) AdminFail(c echo.Context) error {
	return h.admin(c, h.uc.AdminFail)
}

type paymentAction func(context.Context, domainUser.Principal, ucPayment.AdminInput) (*ucPayment.PaymentDTO, error)

func (h *PaymentHandler) admin(c echo.Context, action paymentAction) error {
	payID, ok, err := pathID(c, "payment_id")
	if !ok {
		return err
	}
	var req adminPaymentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := action(c.Request().Context(), principal(c), ucPayment.AdminInput{PaymentID: payID, Reason: req.Reason})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
