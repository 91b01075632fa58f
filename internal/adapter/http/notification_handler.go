package http

import (
	"net/http"

	ucNotification "lending-backend/internal/usecase/notification"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct{ uc *ucNotification.Usecase }

func NewNotificationHandler(uc *ucNotification.Usecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

// Inbox accepts ?unread=true and ?limit=.
func (h *NotificationHandler) Inbox(c echo.Context) error {
	limit, _ := page(c)
	dto, err := h.uc.Inbox(c.Request().Context(), principal(c).ID, queryBool(c, "unread"), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	n, err := h.uc.UnreadCount(c.Request().Context(), principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread": n})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, ok, err := pathUint(c, "id")
	if !ok {
		return err
	}
	if err := h.uc.MarkRead(c.Request().Context(), principal(c).ID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	n, err := h.uc.MarkAllRead(c.Request().Context(), principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"marked": n})
}
