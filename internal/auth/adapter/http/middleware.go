package http

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lanyu617/next-chat/internal/auth/adapter/security"
	"github.com/lanyu617/next-chat/internal/auth/usecase"
	"github.com/lanyu617/next-chat/internal/shared/contextkeys"
	sharederrors "github.com/lanyu617/next-chat/internal/shared/errors"
	"github.com/lanyu617/next-chat/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// UserDataHeader carries a pre-decoded identity injected by a trusted
// upstream component that has already verified the token.
const UserDataHeader = "X-User-Data"

// AuthMiddleware provides authentication middleware for Fiber
type AuthMiddleware struct {
	usecase       usecase.AuthUsecaseInterface
	cookieName    string
	trustInternal bool
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface, cookieName string, trustInternal bool) *AuthMiddleware {
	return &AuthMiddleware{
		usecase:       uc,
		cookieName:    cookieName,
		trustInternal: trustInternal,
	}
}

// CORS middleware with credentials support for the browser client
func (m *AuthMiddleware) CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With",
		AllowCredentials: true,
		MaxAge:           86400,
	})
}

// SecurityHeaders adds security headers
func (m *AuthMiddleware) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RateLimiter creates rate limiting middleware for auth endpoints
func (m *AuthMiddleware) RateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return sharederrors.NewRateLimitedError("Rate limit exceeded. Please try again later.")
		},
	})
}

// RequestID middleware
func (m *AuthMiddleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     "X-Request-ID",
		ContextKey: string(contextkeys.RequestIDKey),
	})
}

// identity is the decoded form carried by the trusted header.
type identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Protect returns middleware that requires authentication. Credential
// resolution order: pre-decoded identity from a trusted proxy, then the
// Authorization bearer header, then the auth cookie. Verification failures
// map to distinct 401 messages so the client can tell an expired session
// from a bad token.
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ident, ok := m.trustedIdentity(c); ok {
			m.injectIdentity(c, ident.ID, ident.Username)
			return c.Next()
		}

		claims, err := m.usecase.ValidateToken(c.Context(), m.extractToken(c))
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenMissing):
				return sharederrors.NewAuthenticationError("Authentication required")
			case errors.Is(err, security.ErrTokenExpired):
				return sharederrors.NewAuthenticationError("Session expired, please log in again")
			default:
				return sharederrors.NewAuthenticationError("Invalid token, please log in again")
			}
		}

		m.injectIdentity(c, claims.UserID, claims.Username)
		return c.Next()
	}
}

// trustedIdentity returns the pre-decoded identity when the fast path is
// enabled and the request came through a trusted proxy. The header is never
// honored from the public edge: that would let any caller forge an identity.
func (m *AuthMiddleware) trustedIdentity(c *fiber.Ctx) (identity, bool) {
	if !m.trustInternal || !c.IsProxyTrusted() {
		return identity{}, false
	}
	raw := c.Get(UserDataHeader)
	if raw == "" {
		return identity{}, false
	}
	var ident identity
	if err := json.Unmarshal([]byte(raw), &ident); err != nil || ident.ID == "" {
		return identity{}, false
	}
	return ident, true
}

func (m *AuthMiddleware) injectIdentity(c *fiber.Ctx, userID, username string) {
	ctx := utils.WithUserID(c.UserContext(), userID)
	c.SetUserContext(utils.WithUsername(ctx, username))
}

// extractToken extracts the token from the Authorization header or cookie.
// An empty result is reported as a missing token by the validator.
func (m *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return c.Cookies(m.cookieName)
}
