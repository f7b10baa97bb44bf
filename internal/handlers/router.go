package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/vidtube/internal/handlers/credentials"
	"github.com/nkiryanov/vidtube/internal/handlers/middleware"
	"github.com/nkiryanov/vidtube/internal/logger"
	"github.com/nkiryanov/vidtube/internal/models"
	"github.com/nkiryanov/vidtube/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	Auth        authService
	Credentials *credentials.Transport
	Logger      logger.Logger

	// Optional, if nil /metrics is not served
	Metrics http.Handler

	// Optional, if nil /healthz reports ok without checks
	Health pinger
}

func NewRouter(cfg RouterConfig) http.Handler {
	authMiddleware := middleware.NewAuth(cfg.Auth, cfg.Credentials)
	withAuth := authMiddleware.Auth
	auth, l := cfg.Auth, cfg.Logger

	apiuser := http.NewServeMux()

	apiuser.Handle("POST /register", handleRegister(auth, l))
	apiuser.Handle("POST /login", handleLogin(auth, cfg.Credentials, l))
	apiuser.Handle("POST /refresh-token", handleRefresh(auth, cfg.Credentials, l))

	apiuser.Handle("POST /logout", withAuth(handleLogout(auth, cfg.Credentials, l)))
	apiuser.Handle("POST /change-password", withAuth(handleChangePassword(auth, l)))
	apiuser.Handle("GET /current-user", withAuth(handleCurrentUser(auth, l)))
	apiuser.Handle("PATCH /update-account", withAuth(handleUpdateAccount(auth, l)))
	apiuser.Handle("PATCH /change-avatar", withAuth(handleChangeAvatar(auth, l)))
	apiuser.Handle("PATCH /change-coverImage", withAuth(handleChangeCoverImage(auth, l)))

	root := http.NewServeMux()
	root.Handle("/api/v1/users/", http.StripPrefix("/api/v1/users", apiuser))
	root.Handle("GET /healthz", handleHealth(cfg.Health, l))
	if cfg.Metrics != nil {
		root.Handle("GET /metrics", cfg.Metrics)
	}

	handler := chain(root,
		middleware.RecoverMiddleware(l),
		middleware.LoggerMiddleware(l),
	)

	return handler
}

type authService interface {
	// Register user
	// Has to return apperrors.ErrUserAlreadyExists if username or email is taken
	Register(ctx context.Context, params user.RegisterParams) (models.User, error)

	// Login user with username or email and password
	Login(ctx context.Context, login string, password string) (models.Session, error)

	// Clear user refresh token, idempotent
	Logout(ctx context.Context, userID uuid.UUID) error

	// Refresh tokens using refresh token
	// If token is not the stored one: has to return apperrors.ErrRefreshTokenReused
	Refresh(ctx context.Context, refresh string) (models.Session, error)

	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error

	// Resolve access token to principal
	Authenticate(ctx context.Context, access string) (models.Principal, error)

	CurrentUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateAccount(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error)

	// Replace image references, media itself is hosted elsewhere
	ChangeAvatar(ctx context.Context, userID uuid.UUID, avatar string) (models.User, error)
	ChangeCoverImage(ctx context.Context, userID uuid.UUID, coverImage string) (models.User, error)
}
