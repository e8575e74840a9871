package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lanyu617/next-chat/internal/chat/domain/model"
	"github.com/lanyu617/next-chat/internal/chat/domain/repository"
)

// MessageRepoPG implements repository.MessageRepository on PostgreSQL.
type MessageRepoPG struct {
	db *sql.DB
}

func NewMessageRepoPG(db *sql.DB) *MessageRepoPG {
	return &MessageRepoPG{db: db}
}

var _ repository.MessageRepository = (*MessageRepoPG)(nil)

func (r *MessageRepoPG) AppendMessage(ctx context.Context, message *model.Message) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO messages (id, session_id, sender, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		message.ID, message.SessionID, string(message.Sender), message.Content,
	).Scan(&message.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MessageRepoPG) ListBySession(ctx context.Context, sessionID string) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, sender, content, created_at
		 FROM messages
		 WHERE session_id = $1
		 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		m := &model.Message{}
		var sender string
		if err := rows.Scan(&m.ID, &m.SessionID, &sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Sender = model.Sender(sender)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return messages, nil
}

// FindUnansweredSessions picks the latest message per session and keeps those
// where it is a user turn older than the cutoff. Those sessions had a request
// accepted but never got a bot reply persisted.
func (r *MessageRepoPG) FindUnansweredSessions(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id FROM (
		     SELECT DISTINCT ON (session_id) session_id, sender, created_at
		     FROM messages
		     ORDER BY session_id, created_at DESC
		 ) latest
		 WHERE latest.sender = 'user' AND latest.created_at < $1`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}
