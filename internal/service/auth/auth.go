package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/vidtube/internal/apperrors"
	"github.com/nkiryanov/vidtube/internal/logger"
	"github.com/nkiryanov/vidtube/internal/models"
	"github.com/nkiryanov/vidtube/internal/service/audit"
	"github.com/nkiryanov/vidtube/internal/service/user"
)

// Issue and verify signed token pairs
type TokenIssuer interface {
	IssuePair(user models.User) (models.TokenPair, error)
	ParseAccess(access string) (models.AccessClaims, error)
	ParseRefresh(refresh string) (models.RefreshClaims, error)
}

// Throttle failed logins per identifier
type LoginLimiter interface {
	Check(ctx context.Context, login string) error
	RecordFailure(ctx context.Context, login string) error
	Reset(ctx context.Context, login string) error
}

type Config struct {
	// Optional, if nil logins are not throttled
	Limiter LoginLimiter

	// Optional, if nil events are dropped
	Audit audit.Sink

	// Optional, if nil nothing is logged
	Logger logger.Logger

	// If not set time.Now is used
	Clock func() time.Time
}

// AuthService is the session manager and request authenticator
// It holds no session state itself: the only source of truth is the user stored refresh token
type AuthService struct {
	tokens  TokenIssuer
	users   *user.UserService
	limiter LoginLimiter
	audit   audit.Sink
	log     logger.Logger
	now     func() time.Time
}

func NewService(cfg Config, tokens TokenIssuer, users *user.UserService) (*AuthService, error) {
	if tokens == nil || users == nil {
		return nil, errors.New("token issuer and user service must not be nil")
	}

	s := &AuthService{
		tokens:  tokens,
		users:   users,
		limiter: cfg.Limiter,
		audit:   cfg.Audit,
		log:     cfg.Logger,
		now:     cfg.Clock,
	}
	if s.audit == nil {
		s.audit = audit.NoOp{}
	}
	if s.log == nil {
		s.log = logger.NewNoOpLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s, nil
}

// Register creates new account, the returned user is meant to be shown as profile
func (s *AuthService) Register(ctx context.Context, params user.RegisterParams) (models.User, error) {
	u, err := s.users.CreateUser(ctx, params)
	if err != nil {
		return models.User{}, err
	}

	s.record(ctx, audit.EventRegister, u.ID, nil)
	return u, nil
}

// Login by username or email
// Issued refresh token replaces the stored one, so any previous session can't be refreshed anymore
func (s *AuthService) Login(ctx context.Context, login string, password string) (models.Session, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" {
		return models.Session{}, apperrors.Validation("Username or email is required")
	}

	if err := s.checkLimit(ctx, login); err != nil {
		s.record(ctx, audit.EventLogin, uuid.Nil, err)
		return models.Session{}, err
	}

	u, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.recordFailure(ctx, login)
			s.record(ctx, audit.EventLogin, uuid.Nil, err)
		}
		return models.Session{}, err
	}

	if !s.users.VerifyPassword(u, password) {
		s.recordFailure(ctx, login)
		s.record(ctx, audit.EventLogin, u.ID, apperrors.ErrInvalidCredentials)
		return models.Session{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return models.Session{}, apperrors.Internal(err)
	}

	if err := s.users.SetRefreshToken(ctx, u.ID, &pair.Refresh.Value); err != nil {
		return models.Session{}, err
	}
	u.RefreshToken = &pair.Refresh.Value

	s.resetLimit(ctx, login)
	s.record(ctx, audit.EventLogin, u.ID, nil)

	return models.Session{User: u, Tokens: pair}, nil
}

// Logout clears the stored refresh token
// Calling it for user without session is not an error
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	err := s.users.SetRefreshToken(ctx, userID, nil)
	if err != nil {
		return s.accountErr(err)
	}

	s.record(ctx, audit.EventLogout, userID, nil)
	return nil
}

// Refresh exchanges the stored refresh token for new pair
// Token that is valid but not the stored one (superseded or cleared) fails with apperrors.ErrRefreshTokenReused
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.Session, error) {
	refresh = strings.TrimSpace(refresh)
	if refresh == "" {
		return models.Session{}, apperrors.ErrTokenMissing
	}

	claims, err := s.tokens.ParseRefresh(refresh)
	if err != nil {
		return models.Session{}, err
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.Session{}, fmt.Errorf("refresh token owner is gone. Err: %w", apperrors.ErrTokenInvalid)
		}
		return models.Session{}, err
	}

	if u.RefreshToken == nil || *u.RefreshToken != refresh {
		return models.Session{}, s.tokenReused(ctx, u.ID)
	}

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return models.Session{}, apperrors.Internal(err)
	}

	// Stored token could be replaced since it was read, only one of concurrent refreshes may win
	err = s.users.RotateRefreshToken(ctx, u.ID, refresh, pair.Refresh.Value)
	if err != nil {
		if errors.Is(err, apperrors.ErrRefreshTokenReused) {
			return models.Session{}, s.tokenReused(ctx, u.ID)
		}
		return models.Session{}, err
	}
	u.RefreshToken = &pair.Refresh.Value

	s.record(ctx, audit.EventRefresh, u.ID, nil)
	return models.Session{User: u, Tokens: pair}, nil
}

// ChangePassword replaces password if the old one matches
// Stored refresh token is kept, so the current session stays alive
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.Validation("New password is required")
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return s.accountErr(err)
	}

	if !s.users.VerifyPassword(u, oldPassword) {
		s.record(ctx, audit.EventPasswordChange, userID, apperrors.ErrInvalidCredentials)
		return apperrors.ErrInvalidCredentials
	}

	if err := s.users.SetPassword(ctx, userID, newPassword); err != nil {
		return err
	}

	s.record(ctx, audit.EventPasswordChange, userID, nil)
	return nil
}

// Authenticate resolves access token to principal
// It never issues or changes tokens
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.Principal, error) {
	access = strings.TrimSpace(access)
	if access == "" {
		return models.Principal{}, apperrors.ErrTokenMissing
	}

	claims, err := s.tokens.ParseAccess(access)
	if err != nil {
		return models.Principal{}, err
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return models.Principal{}, s.accountErr(err)
	}

	return u.Principal(), nil
}

// CurrentUser returns the principal's account
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, s.accountErr(err)
	}
	return u, nil
}

// UpdateAccount changes full name and email of the principal's account
func (s *AuthService) UpdateAccount(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error) {
	u, err := s.users.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			s.record(ctx, audit.EventAccountUpdate, userID, err)
		}
		return models.User{}, s.accountErr(err)
	}

	s.record(ctx, audit.EventAccountUpdate, userID, nil)
	return u, nil
}

// ChangeAvatar replaces the avatar reference of the principal's account
func (s *AuthService) ChangeAvatar(ctx context.Context, userID uuid.UUID, avatar string) (models.User, error) {
	u, err := s.users.UpdateAvatar(ctx, userID, avatar)
	if err != nil {
		return models.User{}, s.accountErr(err)
	}

	s.record(ctx, audit.EventAccountUpdate, userID, nil)
	return u, nil
}

// ChangeCoverImage replaces the cover image reference of the principal's account
func (s *AuthService) ChangeCoverImage(ctx context.Context, userID uuid.UUID, coverImage string) (models.User, error) {
	u, err := s.users.UpdateCoverImage(ctx, userID, coverImage)
	if err != nil {
		return models.User{}, s.accountErr(err)
	}

	s.record(ctx, audit.EventAccountUpdate, userID, nil)
	return u, nil
}

func (s *AuthService) tokenReused(ctx context.Context, userID uuid.UUID) error {
	s.log.Warn("superseded refresh token presented", "user_id", userID.String())
	s.record(ctx, audit.EventTokenReuse, userID, apperrors.ErrRefreshTokenReused)
	return apperrors.ErrRefreshTokenReused
}

// Authenticated user may be deleted while its token is still valid
func (s *AuthService) accountErr(err error) error {
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return apperrors.ErrAccountGone
	}
	return err
}

func (s *AuthService) checkLimit(ctx context.Context, login string) error {
	if s.limiter == nil {
		return nil
	}

	err := s.limiter.Check(ctx, login)
	if err != nil && !errors.Is(err, apperrors.ErrTooManyAttempts) {
		s.log.Error("login limiter check failed, let login through", "error", err)
		return nil
	}
	return err
}

func (s *AuthService) recordFailure(ctx context.Context, login string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, login); err != nil {
		s.log.Error("can't record failed login", "error", err)
	}
}

func (s *AuthService) resetLimit(ctx context.Context, login string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, login); err != nil {
		s.log.Error("can't reset failed logins", "error", err)
	}
}

// Record event, failed if err is not nil
func (s *AuthService) record(ctx context.Context, t audit.EventType, userID uuid.UUID, err error) {
	event := audit.Event{
		Type:    t,
		UserID:  userID,
		Success: err == nil,
		Time:    s.now().UTC(),
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		event.Reason = appErr.ErrorCode()
	}

	s.audit.Record(ctx, event)
}
