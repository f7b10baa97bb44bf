package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/vidtube/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	FullName       string
	Avatar         string
	CoverImage     string
	HashedPassword string
}

// User repository interface
// Username and email are stored as is, callers normalize them
// Usernames never contain '@' and emails always do, so a login resolves to one account at most
type UserRepo interface {
	// Create user
	// If user with username or email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or by login
	// Login containing '@' is matched against email only, any other against username only
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByLogin(ctx context.Context, login string) (models.User, error)

	// Replace stored password hash
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Unconditionally set (or clear with nil) the stored refresh token
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error

	// Atomically replace the stored refresh token with next if and only if it equals current
	// If it does not (superseded, cleared) has to return apperrors.ErrRefreshTokenReused
	SwapRefreshToken(ctx context.Context, userID uuid.UUID, current string, next string) error

	// Update public account details
	// If email is taken by other user has to return apperrors.ErrUserAlreadyExists
	UpdateAccount(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error)

	// Replace image references, nil keeps the stored value
	UpdateImages(ctx context.Context, userID uuid.UUID, avatar *string, coverImage *string) (models.User, error)
}

// IsEmailLogin tells whether login has to be matched against email rather than username
func IsEmailLogin(login string) bool {
	return strings.Contains(login, "@")
}
