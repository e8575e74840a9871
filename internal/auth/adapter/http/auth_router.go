package http

import (
	"errors"
	"time"

	"github.com/lanyu617/next-chat/internal/auth/domain/model"
	"github.com/lanyu617/next-chat/internal/auth/usecase"
	sharederrors "github.com/lanyu617/next-chat/internal/shared/errors"
	"github.com/lanyu617/next-chat/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase        usecase.AuthUsecaseInterface
	log            logger.Logger
	cookieName     string
	cookiePath     string
	cookieDomain   string
	cookieMaxAge   int
	cookieSecure   bool
	cookieHTTPOnly bool
	cookieSameSite string
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(
	uc usecase.AuthUsecaseInterface,
	log logger.Logger,
	cookieName, cookiePath, cookieDomain string,
	cookieMaxAge int,
	cookieSecure, cookieHTTPOnly bool,
	cookieSameSite string,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		usecase:        uc,
		log:            log.WithComponent("auth.http"),
		cookieName:     cookieName,
		cookiePath:     cookiePath,
		cookieDomain:   cookieDomain,
		cookieMaxAge:   cookieMaxAge,
		cookieSecure:   cookieSecure,
		cookieHTTPOnly: cookieHTTPOnly,
		cookieSameSite: cookieSameSite,
	}
}

// SetupAuthRoutes sets up authentication routes. All three endpoints are
// public; logout only clears the cookie carrier, the token itself stays
// valid until expiry.
func (h *AuthHTTPHandler) SetupAuthRoutes(router fiber.Router) {
	router.Post("/register", h.Register)
	router.Post("/login", h.Login)
	router.Post("/logout", h.Logout)
}

// Register handles user registration
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	var req usecase.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return sharederrors.NewValidationError("Invalid request body")
	}

	user, err := h.usecase.Register(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUserExists):
			return sharederrors.NewConflictError("User already exists")
		case errors.Is(err, usecase.ErrUsernameRequired), errors.Is(err, usecase.ErrInvalidPasswordFormat):
			return sharederrors.NewValidationError(err.Error())
		default:
			h.log.WithContext(c.UserContext()).Errorf("registration failed: %v", err)
			return sharederrors.NewInternalError("Internal server error").WithCause(err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles user login. On success the identity token travels in an
// http-only cookie; the body carries the identity only.
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return sharederrors.NewValidationError("Invalid request body")
	}

	user, token, err := h.usecase.Login(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUsernameRequired), errors.Is(err, usecase.ErrInvalidPasswordFormat):
			return sharederrors.NewValidationError(err.Error())
		case errors.Is(err, usecase.ErrInvalidCredentials):
			return sharederrors.NewAuthenticationError("Invalid credentials")
		default:
			h.log.WithContext(c.UserContext()).Errorf("login failed: %v", err)
			return sharederrors.NewInternalError("Internal server error").WithCause(err)
		}
	}

	h.setCookie(c, token)

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Logout clears the auth cookie.
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	h.clearCookie(c)
	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}

// Helper methods

func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     h.cookiePath,
		Domain:   h.cookieDomain,
		MaxAge:   h.cookieMaxAge,
		Secure:   h.cookieSecure,
		HTTPOnly: h.cookieHTTPOnly,
		SameSite: h.cookieSameSite,
		Expires:  time.Now().Add(time.Duration(h.cookieMaxAge) * time.Second),
	})
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     h.cookiePath,
		Domain:   h.cookieDomain,
		MaxAge:   -1,
		Secure:   h.cookieSecure,
		HTTPOnly: h.cookieHTTPOnly,
		SameSite: h.cookieSameSite,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
