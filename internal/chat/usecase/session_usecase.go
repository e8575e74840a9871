package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/lanyu617/next-chat/internal/chat/adapter/cache"
	"github.com/lanyu617/next-chat/internal/chat/domain/model"
	"github.com/lanyu617/next-chat/internal/chat/domain/repository"
	"github.com/lanyu617/next-chat/internal/shared/logger"
)

var (
	ErrTitleRequired     = errors.New("session title is required")
	ErrSessionIDRequired = errors.New("session id is required")
)

const maxTitleLength = 200

// truncateTitle caps a title at maxTitleLength characters. Counting runes
// rather than bytes keeps a multi-byte title valid UTF-8 after the cut.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}
	return string(runes[:maxTitleLength])
}

// SessionUsecaseInterface defines session management operations. Every
// operation is scoped to the calling user; sessions belonging to other users
// behave exactly like sessions that do not exist.
type SessionUsecaseInterface interface {
	ListSessions(ctx context.Context, userID string) ([]*model.Session, error)
	CreateSession(ctx context.Context, userID, title string) (*model.Session, error)
	RenameSession(ctx context.Context, userID, sessionID, title string) (*model.Session, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
	ResolveSession(ctx context.Context, userID, sessionID string) error
	ListMessages(ctx context.Context, userID, sessionID string) ([]*model.Message, error)
}

type SessionUsecase struct {
	sessions     repository.SessionRepository
	messages     repository.MessageRepository
	ownerCache   *cache.SessionCache
	defaultTitle string
	logger       logger.Logger
}

func NewSessionUsecase(
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	ownerCache *cache.SessionCache,
	defaultTitle string,
	log logger.Logger,
) *SessionUsecase {
	return &SessionUsecase{
		sessions:     sessions,
		messages:     messages,
		ownerCache:   ownerCache,
		defaultTitle: defaultTitle,
		logger:       log,
	}
}

var _ SessionUsecaseInterface = (*SessionUsecase)(nil)

// ListSessions returns the user's sessions, newest first. A user with no
// sessions gets one created on the spot so the client always has somewhere
// to send the first message.
func (uc *SessionUsecase) ListSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	sessions, err := uc.sessions.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(sessions) > 0 {
		return sessions, nil
	}

	created, err := uc.CreateSession(ctx, userID, uc.defaultTitle)
	if err != nil {
		return nil, err
	}
	uc.logger.WithContext(ctx).WithField("session_id", created.ID).
		Info("Auto-created initial session")
	return []*model.Session{created}, nil
}

func (uc *SessionUsecase) CreateSession(ctx context.Context, userID, title string) (*model.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	title = truncateTitle(title)

	session := &model.Session{
		ID:     uuid.New().String(),
		UserID: userID,
		Title:  title,
	}
	if err := uc.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *SessionUsecase) RenameSession(ctx context.Context, userID, sessionID, title string) (*model.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	return uc.sessions.RenameSession(ctx, sessionID, userID, truncateTitle(title))
}

func (uc *SessionUsecase) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}
	if err := uc.sessions.DeleteSession(ctx, sessionID, userID); err != nil {
		return err
	}
	uc.ownerCache.Invalidate(ctx, sessionID)
	return nil
}

// ResolveSession verifies the session exists and belongs to the user. The
// ownership cache short-circuits the lookup on the hot streaming path; a
// cache hit for a different owner still falls through to the database so a
// stale entry can never grant access.
func (uc *SessionUsecase) ResolveSession(ctx context.Context, userID, sessionID string) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}
	if owner, ok := uc.ownerCache.GetOwner(ctx, sessionID); ok && owner == userID {
		return nil
	}
	if _, err := uc.sessions.GetSessionForUser(ctx, sessionID, userID); err != nil {
		return err
	}
	uc.ownerCache.SetOwner(ctx, sessionID, userID)
	return nil
}

func (uc *SessionUsecase) ListMessages(ctx context.Context, userID, sessionID string) ([]*model.Message, error) {
	if err := uc.ResolveSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return uc.messages.ListBySession(ctx, sessionID)
}
