package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/vidtube/internal/apperrors"
	"github.com/nkiryanov/vidtube/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 10 * 24 * time.Hour
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Kind     string    `json:"typ"`
	UserID   uuid.UUID `json:"uid"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// Refresh token carries user id only
type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	Kind   string    `json:"typ"`
	UserID uuid.UUID `json:"uid"`
}

// Token manager with sensible default
type Config struct {
	// Secret keys to sign access and refresh tokens
	// Both required and must differ
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// If not set time.Now is used
	Clock func() time.Time
}

type TokenManager struct {
	accessKey  []byte
	refreshKey []byte

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("signing method %q is not supported, use HMAC one", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &TokenManager{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Clock,
	}, nil
}

func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// Issue short living access token with user id, username and email
func (m *TokenManager) IssueAccess(user models.User) (models.IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.accessTTL)

	token := jwt.NewWithClaims(m.alg, AccessTokenClaims{
		RegisteredClaims: registeredClaims(user, now, expiresAt),
		Kind:             models.TokenKindAccess,
		UserID:           user.ID,
		Username:         user.Username,
		Email:            user.Email,
	})

	signed, err := token.SignedString(m.accessKey)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Issue long living refresh token with user id only
func (m *TokenManager) IssueRefresh(user models.User) (models.IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.refreshTTL)

	token := jwt.NewWithClaims(m.alg, RefreshTokenClaims{
		RegisteredClaims: registeredClaims(user, now, expiresAt),
		Kind:             models.TokenKindRefresh,
		UserID:           user.ID,
	})

	signed, err := token.SignedString(m.refreshKey)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

func (m *TokenManager) IssuePair(user models.User) (models.TokenPair, error) {
	access, err := m.IssueAccess(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := m.IssueRefresh(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(access string) (models.AccessClaims, error) {
	claims := &AccessTokenClaims{}

	err := m.parse(access, claims, m.accessKey)
	if err != nil {
		return models.AccessClaims{}, err
	}
	if claims.Kind != models.TokenKindAccess || claims.UserID == uuid.Nil {
		return models.AccessClaims{}, apperrors.ErrTokenInvalid
	}

	return models.AccessClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse and validate refresh token
// Whether the token is still the trusted one is decided by the caller
func (m *TokenManager) ParseRefresh(refresh string) (models.RefreshClaims, error) {
	claims := &RefreshTokenClaims{}

	err := m.parse(refresh, claims, m.refreshKey)
	if err != nil {
		return models.RefreshClaims{}, err
	}
	if claims.Kind != models.TokenKindRefresh || claims.UserID == uuid.Nil {
		return models.RefreshClaims{}, apperrors.ErrTokenInvalid
	}

	return models.RefreshClaims{
		UserID:    claims.UserID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (m *TokenManager) parse(value string, claims jwt.Claims, key []byte) error {
	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("error while validating token. Err: %w", apperrors.ErrTokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("error while validating token. Err: %w", apperrors.ErrTokenSignatureInvalid)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("error while parsing token. Err: %w", apperrors.ErrTokenMalformed)
	default:
		return fmt.Errorf("error while validating token: %v. Err: %w", err, apperrors.ErrTokenInvalid)
	}
}

// Every token gets unique jti, so two tokens issued within the same second never collide
func registeredClaims(user models.User, issuedAt time.Time, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}
