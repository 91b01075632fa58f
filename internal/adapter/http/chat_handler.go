package http

import (
	"net/http"
	"time"

	domainChat "lending-backend/internal/domain/livechat"
	ucChat "lending-backend/internal/usecase/livechat"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// Subscriber is satisfied by realtime.Hub.
type Subscriber interface {
	Subscribe(topic string) (<-chan []byte, func())
}

type ChatHandler struct {
	uc       *ucChat.Usecase
	hub      Subscriber
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

func NewChatHandler(uc *ucChat.Usecase, hub Subscriber, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		uc:  uc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// token auth, not cookies, so any origin may connect
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

type startChatReq struct {
	Subject string `json:"subject" validate:"max=255"`
	Message string `json:"message" validate:"required,max=4000"`
}

type chatMessageReq struct {
	Body string `json:"body" validate:"required,max=4000"`
}

func (h *ChatHandler) Start(c echo.Context) error {
	var req startChatReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Start(c.Request().Context(), principal(c), ucChat.StartInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ChatHandler) ListMine(c echo.Context) error {
	items, err := h.uc.ListMine(c.Request().Context(), principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *ChatHandler) Messages(c echo.Context) error {
	convID, ok, err := pathID(c, "conversation_id")
	if !ok {
		return err
	}
	limit, _ := page(c)
	items, err := h.uc.Messages(c.Request().Context(), principal(c), convID, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *ChatHandler) Post(c echo.Context) error {
	convID, ok, err := pathID(c, "conversation_id")
	if !ok {
		return err
	}
	var req chatMessageReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.PostUserMessage(c.Request().Context(), principal(c), ucChat.PostInput{ConversationID: convID, Body: req.Body})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ChatHandler) RequestAgent(c echo.Context) error {
	convID, ok, err := pathID(c, "conversation_id")
	if !ok {
		return err
	}
	dto, err := h.uc.RequestAgent(c.Request().Context(), principal(c), convID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ChatHandler) Close(c echo.Context) error {
	convID, ok, err := pathID(c, "conversation_id")
	if !ok {
		return err
	}
	dto, err := h.uc.Close(c.Request().Context(), principal(c), convID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Queue lists conversations for agents, waiting_agent by default.
func (h *ChatHandler) Queue(c echo.Context) error {
	limit, _ := page(c)
	items, err := h.uc.Queue(c.Request().Context(), domainChat.Status(c.QueryParam("status")), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *ChatHandler) AgentJoin(c echo.Context) error {
	convID, ok, err := pathID(c, "conversation_id")
	if !ok {
		return err
	}
	dto, err := h.uc.AgentJoin(c.Request().Context(), principal(c), convID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ChatHandler) AgentReply(c echo.Context) error {
	convID, ok, err := pathID(c, "conversation_id")
	if !ok {
		return err
	}
	var req chatMessageReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.AgentReply(c.Request().Context(), principal(c), ucChat.PostInput{ConversationID: convID, Body: req.Body})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Stream upgrades to a websocket and forwards every event on the
// conversation topic until either side goes away. Inbound frames are only
// read to notice the close; messages are posted over HTTP.
func (h *ChatHandler) Stream(c echo.Context) error {
	convID, ok, err := pathID(c, "conversation_id")
	if !ok {
		return err
	}
	if err := h.uc.Authorize(c.Request().Context(), principal(c), convID); err != nil {
		return fail(c, err)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the error response
		h.log.WithError(err).Debug("chat stream upgrade")
		return nil
	}
	defer ws.Close()

	events, cancel := h.hub.Subscribe(ucChat.Topic(convID))
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
		ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(wsPongWait)) })
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	entry := h.log.WithFields(logrus.Fields{"conversation": convID, "user": principal(c).UserID})
	entry.Debug("chat stream opened")
	for {
		select {
		case <-done:
			entry.Debug("chat stream closed by client")
			return nil
		case msg, ok := <-events:
			if !ok {
				return nil
			}
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				entry.WithError(err).Debug("chat stream write")
				return nil
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}
