package http

import (
	"bufio"
	"errors"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/lanyu617/next-chat/internal/chat/domain/model"
	"github.com/lanyu617/next-chat/internal/chat/usecase"
	"github.com/lanyu617/next-chat/internal/shared/logger"
	"github.com/lanyu617/next-chat/internal/shared/utils"
)

// ChatHTTPHandler handles the chat streaming endpoint and transcript reads.
type ChatHTTPHandler struct {
	chat     usecase.ChatUsecaseInterface
	sessions usecase.SessionUsecaseInterface
	log      logger.Logger
}

// NewChatHTTPHandler creates a new chat HTTP handler
func NewChatHTTPHandler(
	chat usecase.ChatUsecaseInterface,
	sessions usecase.SessionUsecaseInterface,
	log logger.Logger,
) *ChatHTTPHandler {
	return &ChatHTTPHandler{
		chat:     chat,
		sessions: sessions,
		log:      log.WithComponent("chat.http"),
	}
}

// SetupChatRoutes sets up the chat routes.
func (h *ChatHTTPHandler) SetupChatRoutes(router fiber.Router) {
	router.Get("/chat", h.History)
	router.Post("/chat", h.Send)
}

// History returns the full transcript of one of the caller's sessions in
// creation order.
func (h *ChatHTTPHandler) History(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthenticated()
	}

	sessionID := c.Query("sessionId")
	messages, err := h.sessions.ListMessages(c.UserContext(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrSessionIDRequired):
			return badRequest(err)
		case errors.Is(err, model.ErrSessionNotFound):
			return sessionNotFound()
		default:
			h.log.WithContext(c.UserContext()).Errorf("list messages failed: %v", err)
			return internalError(err)
		}
	}

	return c.JSON(messages)
}

type sendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Send accepts a user message and streams the model's reply back as plain
// text chunks. The user turn is persisted before any upstream call; the bot
// turn is persisted when the stream ends, however it ends.
func (h *ChatHTTPHandler) Send(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthenticated()
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	exchange, err := h.chat.Send(c.UserContext(), userID, req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrSessionIDRequired), errors.Is(err, usecase.ErrContentRequired):
			return badRequest(err)
		case errors.Is(err, model.ErrSessionNotFound):
			return sessionNotFound()
		default:
			h.log.WithContext(c.UserContext()).Errorf("send message failed: %v", err)
			return internalError(err)
		}
	}

	// A chunked response that simply stops writing looks complete to the
	// client. When the reply cannot be finished, closing the connection
	// directly is the only way to signal abnormal termination mid-stream.
	conn := c.Context().Conn()
	abort := func() {
		h.closeConn(conn)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		exchange.Relay(w, abort)
	}))
	return nil
}

func (h *ChatHTTPHandler) closeConn(conn net.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		h.log.Debugf("closing client connection: %v", err)
	}
}
