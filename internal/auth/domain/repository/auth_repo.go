package repository

import (
	"context"

	"github.com/lanyu617/next-chat/internal/auth/domain/model"
)

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	// CreateUser inserts a new user. Returns model.ErrUserExists when the
	// username is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByUsername returns model.ErrUserNotFound when no such account exists.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
