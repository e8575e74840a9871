package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/lanyu617/next-chat/internal/chat/domain/model"
	"github.com/lanyu617/next-chat/internal/chat/usecase"
	sharederrors "github.com/lanyu617/next-chat/internal/shared/errors"
	"github.com/lanyu617/next-chat/internal/shared/logger"
	"github.com/lanyu617/next-chat/internal/shared/utils"
)

// SessionHTTPHandler handles HTTP requests for session management
type SessionHTTPHandler struct {
	usecase usecase.SessionUsecaseInterface
	log     logger.Logger
}

// NewSessionHTTPHandler creates a new session HTTP handler
func NewSessionHTTPHandler(uc usecase.SessionUsecaseInterface, log logger.Logger) *SessionHTTPHandler {
	return &SessionHTTPHandler{
		usecase: uc,
		log:     log.WithComponent("chat.http.sessions"),
	}
}

// SetupSessionRoutes sets up session routes. All of them require an
// authenticated identity in the request context.
func (h *SessionHTTPHandler) SetupSessionRoutes(router fiber.Router) {
	router.Get("/sessions", h.List)
	router.Post("/sessions", h.Create)
	router.Patch("/sessions", h.Rename)
	router.Delete("/sessions", h.Delete)
}

// List returns the caller's sessions, newest first.
func (h *SessionHTTPHandler) List(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthenticated()
	}

	sessions, err := h.usecase.ListSessions(c.UserContext(), userID)
	if err != nil {
		h.log.WithContext(c.UserContext()).Errorf("list sessions failed: %v", err)
		return internalError(err)
	}

	return c.JSON(sessions)
}

type createSessionRequest struct {
	Title string `json:"title"`
}

// Create makes a new empty session for the caller.
func (h *SessionHTTPHandler) Create(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthenticated()
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	session, err := h.usecase.CreateSession(c.UserContext(), userID, req.Title)
	if err != nil {
		if errors.Is(err, usecase.ErrTitleRequired) {
			return badRequest(err)
		}
		h.log.WithContext(c.UserContext()).Errorf("create session failed: %v", err)
		return internalError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

type renameSessionRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Rename retitles one of the caller's sessions. A session that does not
// exist or belongs to someone else yields the same 404.
func (h *SessionHTTPHandler) Rename(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthenticated()
	}

	var req renameSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	session, err := h.usecase.RenameSession(c.UserContext(), userID, req.ID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrSessionIDRequired), errors.Is(err, usecase.ErrTitleRequired):
			return badRequest(err)
		case errors.Is(err, model.ErrSessionNotFound):
			return sessionNotFound()
		default:
			h.log.WithContext(c.UserContext()).Errorf("rename session failed: %v", err)
			return internalError(err)
		}
	}

	return c.JSON(session)
}

type deleteSessionRequest struct {
	ID string `json:"id"`
}

// Delete removes one of the caller's sessions and its transcript.
func (h *SessionHTTPHandler) Delete(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return unauthenticated()
	}

	var req deleteSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	if err := h.usecase.DeleteSession(c.UserContext(), userID, req.ID); err != nil {
		switch {
		case errors.Is(err, usecase.ErrSessionIDRequired):
			return badRequest(err)
		case errors.Is(err, model.ErrSessionNotFound):
			return sessionNotFound()
		default:
			h.log.WithContext(c.UserContext()).Errorf("delete session failed: %v", err)
			return internalError(err)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Session deleted",
	})
}

// Shared error constructors. The app-level error handler maps these onto
// the response status and body.

func unauthenticated() error {
	return sharederrors.NewAuthenticationError("Authentication required")
}

func sessionNotFound() error {
	return sharederrors.NewNotFoundError("Session not found or unauthorized")
}

func invalidBody() error {
	return sharederrors.NewValidationError("Invalid request body")
}

func badRequest(err error) error {
	return sharederrors.NewValidationError(err.Error())
}

func internalError(cause error) error {
	return sharederrors.NewInternalError("Internal server error").WithCause(cause)
}
