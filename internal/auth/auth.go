package auth

import (
	"database/sql"
	"fmt"

	authhttp "github.com/lanyu617/next-chat/internal/auth/adapter/http"
	"github.com/lanyu617/next-chat/internal/auth/adapter/persistence/postgres"
	"github.com/lanyu617/next-chat/internal/auth/adapter/security"
	"github.com/lanyu617/next-chat/internal/auth/config"
	"github.com/lanyu617/next-chat/internal/auth/domain/repository"
	"github.com/lanyu617/next-chat/internal/auth/usecase"
	"github.com/lanyu617/next-chat/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// AuthModule represents the complete authentication module
type AuthModule struct {
	repository repository.UserRepository
	tokenSvc   repository.TokenService
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	config     *config.Config
}

// NewAuthModule creates a new authentication module instance
func NewAuthModule(db *sql.DB, cfg *config.Config, log logger.Logger) (*AuthModule, error) {
	userRepo := postgres.NewUserRepository(db)

	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	authUsecase := usecase.NewAuthUsecase(userRepo, tokenSvc, cfg)

	handler := authhttp.NewAuthHTTPHandler(
		authUsecase,
		log,
		cfg.CookieName,
		cfg.CookiePath,
		cfg.CookieDomain,
		int(cfg.AccessTokenTTL.Seconds()),
		cfg.CookieSecure,
		cfg.CookieHTTPOnly,
		cfg.CookieSameSite,
	)

	return &AuthModule{
		repository: userRepo,
		tokenSvc:   tokenSvc,
		usecase:    authUsecase,
		handler:    handler,
		config:     cfg,
	}, nil
}

// RegisterRoutes registers authentication routes with the provided router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	am.handler.SetupAuthRoutes(router)
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetTokenService returns the token service
func (am *AuthModule) GetTokenService() repository.TokenService {
	return am.tokenSvc
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return authhttp.NewAuthMiddleware(am.usecase, am.config.CookieName, am.config.TrustInternalHeader)
}
