package chat

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lanyu617/next-chat/internal/chat/adapter/cache"
	chathttp "github.com/lanyu617/next-chat/internal/chat/adapter/http"
	"github.com/lanyu617/next-chat/internal/chat/adapter/llm"
	"github.com/lanyu617/next-chat/internal/chat/adapter/persistence/postgres"
	"github.com/lanyu617/next-chat/internal/chat/config"
	"github.com/lanyu617/next-chat/internal/chat/usecase"
	"github.com/lanyu617/next-chat/internal/shared/logger"
)

// ChatModule represents the complete chat module: sessions, transcripts and
// the streaming proxy to the completion API.
type ChatModule struct {
	sessionUsecase usecase.SessionUsecaseInterface
	chatUsecase    usecase.ChatUsecaseInterface
	sessionHandler *chathttp.SessionHTTPHandler
	chatHandler    *chathttp.ChatHTTPHandler
	reconciler     *usecase.Reconciler
	config         *config.Config
}

// NewChatModule creates a new chat module instance. redisClient may be nil,
// in which case session ownership is always resolved against the database.
func NewChatModule(db *sql.DB, redisClient *redis.Client, cfg *config.Config, log logger.Logger) *ChatModule {
	sessionRepo := postgres.NewSessionRepoPG(db)
	messageRepo := postgres.NewMessageRepoPG(db)
	ownerCache := cache.NewSessionCache(redisClient, cfg.SessionCacheTTL)
	completer := llm.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model)

	sessionUsecase := usecase.NewSessionUsecase(
		sessionRepo, messageRepo, ownerCache, cfg.DefaultSessionTitle, log,
	)
	chatUsecase := usecase.NewChatUsecase(
		sessionUsecase, messageRepo, completer, cfg.UpstreamTimeout, log,
	)
	reconciler := usecase.NewReconciler(
		messageRepo, cfg.ReconcilerSchedule, cfg.ReconcilerStaleAfter, log,
	)

	return &ChatModule{
		sessionUsecase: sessionUsecase,
		chatUsecase:    chatUsecase,
		sessionHandler: chathttp.NewSessionHTTPHandler(sessionUsecase, log),
		chatHandler:    chathttp.NewChatHTTPHandler(chatUsecase, sessionUsecase, log),
		reconciler:     reconciler,
		config:         cfg,
	}
}

// RegisterRoutes registers session and chat routes with the provided router.
// The router is expected to already carry the auth middleware.
func (cm *ChatModule) RegisterRoutes(router fiber.Router) {
	cm.sessionHandler.SetupSessionRoutes(router)
	cm.chatHandler.SetupChatRoutes(router)
}

// StartReconciler begins the background scan for unanswered sessions.
func (cm *ChatModule) StartReconciler() error {
	return cm.reconciler.Start()
}

// StopReconciler halts the background scan.
func (cm *ChatModule) StopReconciler() {
	cm.reconciler.Stop()
}

// GetSessionUsecase returns the session usecase for external access
func (cm *ChatModule) GetSessionUsecase() usecase.SessionUsecaseInterface {
	return cm.sessionUsecase
}
