package repository

import (
	"context"
	"time"

	"github.com/lanyu617/next-chat/internal/chat/domain/model"
)

// SessionRepository defines the interface for session persistence. Methods
// taking a userID scope the operation to that owner and return
// model.ErrSessionNotFound when the session is absent or owned by someone
// else; storage never distinguishes the two.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSessionForUser(ctx context.Context, sessionID, userID string) (*model.Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]*model.Session, error)
	RenameSession(ctx context.Context, sessionID, userID, title string) (*model.Session, error)
	DeleteSession(ctx context.Context, sessionID, userID string) error
}

// MessageRepository defines the interface for transcript persistence.
type MessageRepository interface {
	// AppendMessage inserts a message; messages are never updated or deleted
	// individually.
	AppendMessage(ctx context.Context, message *model.Message) error
	ListBySession(ctx context.Context, sessionID string) ([]*model.Message, error)
	// FindUnansweredSessions returns ids of sessions whose latest message is a
	// user turn created before the cutoff, i.e. turns whose bot reply was
	// never persisted.
	FindUnansweredSessions(ctx context.Context, cutoff time.Time) ([]string, error)
}
