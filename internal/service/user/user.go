package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/vidtube/internal/apperrors"
	"github.com/nkiryanov/vidtube/internal/models"
	"github.com/nkiryanov/vidtube/internal/repository"
)

// RegisterParams are the fields a new account is created from
// Avatar and CoverImage are references to already hosted images
type RegisterParams struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     string
	CoverImage string
}

// UserService is the credential store: it owns password hashing and the stored refresh token
type UserService struct {
	hasher   PasswordHasher
	userRepo repository.UserRepo
}

func NewService(hasher PasswordHasher, userRepo repository.UserRepo) *UserService {
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &UserService{
		hasher:   hasher,
		userRepo: userRepo,
	}
}

// Create new user with hashed password
// Username and email are trimmed and lower cased, every field except CoverImage is required
func (s *UserService) CreateUser(ctx context.Context, params RegisterParams) (models.User, error) {
	params.Username = normalize(params.Username)
	params.Email = normalize(params.Email)
	params.FullName = strings.TrimSpace(params.FullName)
	params.Avatar = strings.TrimSpace(params.Avatar)
	params.CoverImage = strings.TrimSpace(params.CoverImage)

	switch {
	case params.Username == "":
		return models.User{}, apperrors.Validation("Username is required")
	case repository.IsEmailLogin(params.Username):
		return models.User{}, apperrors.Validation("Username must not contain '@'")
	case params.Email == "":
		return models.User{}, apperrors.Validation("Email is required")
	case !repository.IsEmailLogin(params.Email):
		return models.User{}, apperrors.Validation("Invalid email address")
	case params.FullName == "":
		return models.User{}, apperrors.Validation("Full name is required")
	case strings.TrimSpace(params.Password) == "":
		return models.User{}, apperrors.Validation("Password is required")
	case params.Avatar == "":
		return models.User{}, apperrors.Validation("Avatar is required")
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return models.User{}, apperrors.Internal(fmt.Errorf("can't use this as password, Err: %w", err))
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Username:       params.Username,
		Email:          params.Email,
		FullName:       params.FullName,
		Avatar:         params.Avatar,
		CoverImage:     params.CoverImage,
		HashedPassword: hash,
	})
	if err != nil {
		return models.User{}, storageErr(err)
	}

	return user, nil
}

// Find user by username or email, case insensitive
func (s *UserService) FindByLogin(ctx context.Context, login string) (models.User, error) {
	user, err := s.userRepo.GetUserByLogin(ctx, normalize(login))
	if err != nil {
		return models.User{}, storageErr(err)
	}
	return user, nil
}

func (s *UserService) FindByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, storageErr(err)
	}
	return user, nil
}

// Check password against the user stored hash
func (s *UserService) VerifyPassword(user models.User, password string) bool {
	if user.HashedPassword == "" {
		return false
	}
	return s.hasher.Compare(user.HashedPassword, password) == nil
}

// Hash and persist new password
// Password is hashed exactly once per call
func (s *UserService) SetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	if strings.TrimSpace(password) == "" {
		return apperrors.Validation("Password is required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("can't use this as password, Err: %w", err))
	}

	return storageErr(s.userRepo.UpdatePasswordHash(ctx, userID, hash))
}

// Persist the single trusted refresh token or clear it with nil
func (s *UserService) SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error {
	return storageErr(s.userRepo.SetRefreshToken(ctx, userID, token))
}

// Replace refresh token only if current is still the stored one
// Returns apperrors.ErrRefreshTokenReused otherwise
func (s *UserService) RotateRefreshToken(ctx context.Context, userID uuid.UUID, current string, next string) error {
	return storageErr(s.userRepo.SwapRefreshToken(ctx, userID, current, next))
}

// Update full name and email, both required
func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalize(email)

	if fullName == "" || email == "" {
		return models.User{}, apperrors.Validation("Full name and email are required")
	}
	if !repository.IsEmailLogin(email) {
		return models.User{}, apperrors.Validation("Invalid email address")
	}

	user, err := s.userRepo.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		return models.User{}, storageErr(err)
	}
	return user, nil
}

// Replace avatar reference, it can't be blank
func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatar string) (models.User, error) {
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		return models.User{}, apperrors.Validation("Avatar is required")
	}

	user, err := s.userRepo.UpdateImages(ctx, userID, &avatar, nil)
	if err != nil {
		return models.User{}, storageErr(err)
	}
	return user, nil
}

// Replace cover image reference, it can't be blank
func (s *UserService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, coverImage string) (models.User, error) {
	coverImage = strings.TrimSpace(coverImage)
	if coverImage == "" {
		return models.User{}, apperrors.Validation("Cover image is required")
	}

	user, err := s.userRepo.UpdateImages(ctx, userID, nil, &coverImage)
	if err != nil {
		return models.User{}, storageErr(err)
	}
	return user, nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Keep application errors as is, hide everything else behind internal error
func storageErr(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal(fmt.Errorf("db error: %w", err))
}
