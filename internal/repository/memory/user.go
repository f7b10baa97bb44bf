// Package memory is a thread-safe in-process UserRepo for tests and local runs
// Data is lost when the process exits
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/vidtube/internal/apperrors"
	"github.com/nkiryanov/vidtube/internal/models"
	"github.com/nkiryanov/vidtube/internal/repository"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
	now   func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users: make(map[uuid.UUID]*models.User),
		now:   time.Now,
	}
}

func (r *UserRepo) CreateUser(_ context.Context, params repository.CreateUserParams) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == params.Username || u.Email == params.Email {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	now := r.now()
	u := &models.User{
		ID:             uuid.New(),
		CreatedAt:      now,
		UpdatedAt:      now,
		Username:       params.Username,
		Email:          params.Email,
		FullName:       params.FullName,
		Avatar:         params.Avatar,
		CoverImage:     params.CoverImage,
		HashedPassword: params.HashedPassword,
	}
	r.users[u.ID] = u

	return copyUser(u), nil
}

func (r *UserRepo) GetUserByID(_ context.Context, userID uuid.UUID) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepo) GetUserByLogin(_ context.Context, login string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byEmail := repository.IsEmailLogin(login)
	for _, u := range r.users {
		if (byEmail && u.Email == login) || (!byEmail && u.Username == login) {
			return copyUser(u), nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func (r *UserRepo) UpdatePasswordHash(_ context.Context, userID uuid.UUID, hashedPassword string) error {
	return r.update(userID, func(u *models.User) error {
		u.HashedPassword = hashedPassword
		return nil
	})
}

func (r *UserRepo) SetRefreshToken(_ context.Context, userID uuid.UUID, token *string) error {
	return r.update(userID, func(u *models.User) error {
		u.RefreshToken = clone(token)
		return nil
	})
}

func (r *UserRepo) SwapRefreshToken(_ context.Context, userID uuid.UUID, current string, next string) error {
	err := r.update(userID, func(u *models.User) error {
		if u.RefreshToken == nil || *u.RefreshToken != current {
			return apperrors.ErrRefreshTokenReused
		}
		u.RefreshToken = &next
		return nil
	})
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return apperrors.ErrRefreshTokenReused
	}
	return err
}

func (r *UserRepo) UpdateAccount(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error) {
	err := r.update(userID, func(u *models.User) error {
		for id, other := range r.users {
			if id != userID && other.Email == email {
				return apperrors.ErrUserAlreadyExists
			}
		}
		u.FullName = fullName
		u.Email = email
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return r.GetUserByID(ctx, userID)
}

func (r *UserRepo) UpdateImages(ctx context.Context, userID uuid.UUID, avatar *string, coverImage *string) (models.User, error) {
	err := r.update(userID, func(u *models.User) error {
		if avatar != nil {
			u.Avatar = *avatar
		}
		if coverImage != nil {
			u.CoverImage = *coverImage
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return r.GetUserByID(ctx, userID)
}

// Apply fn to the stored user under write lock
func (r *UserRepo) update(userID uuid.UUID, fn func(u *models.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	if err := fn(u); err != nil {
		return err
	}
	u.UpdatedAt = r.now()
	return nil
}

func copyUser(u *models.User) models.User {
	c := *u
	c.RefreshToken = clone(u.RefreshToken)
	return c
}

func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
