package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lanyu617/next-chat/internal/chat/domain/model"
	"github.com/lanyu617/next-chat/internal/chat/domain/repository"
)

// SessionRepoPG implements repository.SessionRepository on PostgreSQL.
type SessionRepoPG struct {
	db *sql.DB
}

func NewSessionRepoPG(db *sql.DB) *SessionRepoPG {
	return &SessionRepoPG{db: db}
}

var _ repository.SessionRepository = (*SessionRepoPG)(nil)

func (r *SessionRepoPG) CreateSession(ctx context.Context, session *model.Session) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (id, user_id, title)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		session.ID, session.UserID, session.Title,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SessionRepoPG) GetSessionForUser(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	s := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at
		 FROM sessions
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	).Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SessionRepoPG) ListSessionsByUser(ctx context.Context, userID string) ([]*model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at
		 FROM sessions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s := &model.Session{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return sessions, nil
}

// RenameSession updates the title, scoped to the owner. The RETURNING clause
// makes a miss (no such session, or not the caller's) a single round trip.
func (r *SessionRepoPG) RenameSession(ctx context.Context, sessionID, userID, title string) (*model.Session, error) {
	s := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE sessions
		 SET title = $3
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, created_at`,
		sessionID, userID, title,
	).Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SessionRepoPG) DeleteSession(ctx context.Context, sessionID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}
