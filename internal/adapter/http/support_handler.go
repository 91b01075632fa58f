package http

import (
	"net/http"

	domainSupport "lending-backend/internal/domain/support"
	ucSupport "lending-backend/internal/usecase/support"

	"github.com/labstack/echo/v4"
)

type SupportHandler struct{ uc *ucSupport.Usecase }

func NewSupportHandler(uc *ucSupport.Usecase) *SupportHandler { return &SupportHandler{uc: uc} }

type ticketReq struct {
	Subject string `json:"subject"  validate:"required,max=255"`
	Body    string `json:"body"     validate:"required,max=5000"`
	// unknown categories are filed under general
	Category string `json:"category" validate:"max=32"`
}

type replyReq struct {
	Body string `json:"body" validate:"required,max=5000"`
}

func (h *SupportHandler) Create(c echo.Context) error {
	var req ticketReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), principal(c).ID, ucSupport.CreateInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *SupportHandler) ListMine(c echo.Context) error {
	items, err := h.uc.ListMine(c.Request().Context(), principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *SupportHandler) Get(c echo.Context) error {
	msgID, ok, err := pathID(c, "message_id")
	if !ok {
		return err
	}
	dto, err := h.uc.Get(c.Request().Context(), principal(c), msgID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Reply serves both the owner and staff routes; the usecase tells them apart.
func (h *SupportHandler) Reply(c echo.Context) error {
	msgID, ok, err := pathID(c, "message_id")
	if !ok {
		return err
	}
	var req replyReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reply(c.Request().Context(), principal(c), ucSupport.ReplyInput{MessageID: msgID, Body: req.Body})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *SupportHandler) Close(c echo.Context) error {
	msgID, ok, err := pathID(c, "message_id")
	if !ok {
		return err
	}
	dto, err := h.uc.Close(c.Request().Context(), principal(c), msgID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *SupportHandler) AdminList(c echo.Context) error {
	limit, offset := page(c)
	dto, err := h.uc.List(c.Request().Context(), domainSupport.Status(c.QueryParam("status")), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
