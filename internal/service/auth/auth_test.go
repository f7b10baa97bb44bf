package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/vidtube/internal/apperrors"
	"github.com/nkiryanov/vidtube/internal/models"
	"github.com/nkiryanov/vidtube/internal/repository"
	"github.com/nkiryanov/vidtube/internal/repository/memory"
	"github.com/nkiryanov/vidtube/internal/service/audit"
	"github.com/nkiryanov/vidtube/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/vidtube/internal/service/ratelimit"
	"github.com/nkiryanov/vidtube/internal/service/user"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recorder) Record(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t audit.EventType) []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []audit.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type brokenLimiter struct{}

func (brokenLimiter) Check(context.Context, string) error {
	return errors.New("redis: connection refused")
}
func (brokenLimiter) RecordFailure(context.Context, string) error {
	return errors.New("redis: connection refused")
}
func (brokenLimiter) Reset(context.Context, string) error {
	return errors.New("redis: connection refused")
}

type env struct {
	repo   *memory.UserRepo
	s      *AuthService
	users  *user.UserService
	tokens *tokenmanager.TokenManager
	clock  *clock
	audit  *recorder
}

func newEnv(t *testing.T, limiter LoginLimiter) env {
	t.Helper()

	c := &clock{now: time.Now()}
	tokens, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Clock:         c.Now,
	})
	require.NoError(t, err, "token manager should be created without errors")

	repo := memory.NewUserRepo()
	users := user.NewService(user.BcryptHasher{Cost: bcrypt.MinCost}, repo)
	rec := &recorder{}

	s, err := NewService(Config{Limiter: limiter, Audit: rec, Clock: c.Now}, tokens, users)
	require.NoError(t, err, "auth service could't be started")

	return env{repo: repo, s: s, users: users, tokens: tokens, clock: c, audit: rec}
}

func anaParams() user.RegisterParams {
	return user.RegisterParams{
		Username: "ana",
		Email:    "ana@x.com",
		FullName: "Ana Smith",
		Password: "Secret123",
		Avatar:   "https://img.example.com/ana.png",
	}
}

func (e env) registerAna(t *testing.T) models.User {
	t.Helper()
	u, err := e.s.Register(t.Context(), anaParams())
	require.NoError(t, err)
	return u
}

func (e env) loginAna(t *testing.T) models.Session {
	t.Helper()
	session, err := e.s.Login(t.Context(), "ana", "Secret123")
	require.NoError(t, err)
	return session
}

func (e env) storedToken(t *testing.T, userID uuid.UUID) *string {
	t.Helper()
	u, err := e.users.FindByID(t.Context(), userID)
	require.NoError(t, err)
	return u.RefreshToken
}

func Test_Auth(t *testing.T) {
	t.Parallel()

	t.Run("new service requires collaborators", func(t *testing.T) {
		_, err := NewService(Config{}, nil, nil)
		require.Error(t, err)
	})

	t.Run("new service defaults", func(t *testing.T) {
		e := newEnv(t, nil)
		s, err := NewService(Config{}, e.tokens, e.users)
		require.NoError(t, err)

		require.Equal(t, audit.NoOp{}, s.audit, "default audit sink drops events")
		require.Nil(t, s.limiter, "login is not throttled by default")
		require.NotNil(t, s.log)
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			e := newEnv(t, nil)

			u, err := e.s.Register(t.Context(), anaParams())

			require.NoError(t, err, "registering new user should be ok")
			require.Nil(t, u.RefreshToken, "registration does not start session")

			data, err := json.Marshal(u.Profile())
			require.NoError(t, err)
			require.NotContains(t, string(data), "password")
			require.NotContains(t, string(data), "refresh")
			require.Len(t, e.audit.ofType(audit.EventRegister), 1)
		})

		t.Run("fail if user exists", func(t *testing.T) {
			e := newEnv(t, nil)
			e.registerAna(t)

			params := anaParams()
			params.Username = "ANA"
			_, err := e.s.Register(t.Context(), params)

			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			require.Equal(t, http.StatusConflict, apperrors.KindOf(err).HTTPStatus())
		})

		t.Run("fail if blank field", func(t *testing.T) {
			e := newEnv(t, nil)
			params := anaParams()
			params.FullName = "   "

			_, err := e.s.Register(t.Context(), params)

			require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})

		t.Run("fail if username looks like email", func(t *testing.T) {
			e := newEnv(t, nil)
			e.registerAna(t)
			params := anaParams()
			params.Username, params.Email = "ana@x.com", "other@x.com"

			_, err := e.s.Register(t.Context(), params)

			require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			require.Len(t, e.audit.ofType(audit.EventRegister), 1, "only ana is registered")
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("existing user ok", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)

			session, err := e.s.Login(t.Context(), "ana", "Secret123")

			require.NoError(t, err)
			require.Equal(t, u.ID, session.User.ID)
			require.NotEmpty(t, session.Tokens.Access.Value, "access token should not be empty")
			require.NotEmpty(t, session.Tokens.Refresh.Value, "refresh token should not be empty")

			stored := e.storedToken(t, u.ID)
			require.NotNil(t, stored, "refresh token has to be stored")
			require.Equal(t, session.Tokens.Refresh.Value, *stored)
		})

		t.Run("login by email case insensitive", func(t *testing.T) {
			e := newEnv(t, nil)
			e.registerAna(t)

			_, err := e.s.Login(t.Context(), " ANA@x.com ", "Secret123")

			require.NoError(t, err)
		})

		tests := []struct {
			name        string
			login       string
			password    string
			expectedErr error
			kind        apperrors.Kind
		}{
			{
				name:     "login fail if no identifier",
				login:    "  ",
				password: "Secret123",
				kind:     apperrors.KindValidation,
			},
			{
				name:        "login fail if user not exists",
				login:       "not-existed-user",
				password:    "Secret123",
				expectedErr: apperrors.ErrUserNotFound,
				kind:        apperrors.KindNotFound,
			},
			{
				name:        "login fail if wrong password",
				login:       "ana",
				password:    "WrongPW",
				expectedErr: apperrors.ErrInvalidCredentials,
				kind:        apperrors.KindUnauthorized,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				e := newEnv(t, nil)
				e.registerAna(t)

				_, err := e.s.Login(t.Context(), tt.login, tt.password)

				require.Error(t, err)
				require.Equal(t, tt.kind, apperrors.KindOf(err))
				if tt.expectedErr != nil {
					require.ErrorIs(t, err, tt.expectedErr)
				}
			})
		}

		t.Run("failed login is audited", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)

			_, _ = e.s.Login(t.Context(), "ana", "WrongPW")

			events := e.audit.ofType(audit.EventLogin)
			require.Len(t, events, 1)
			require.False(t, events[0].Success)
			require.Equal(t, u.ID, events[0].UserID)
			require.Equal(t, "unauthorized", events[0].Reason)
		})

		t.Run("email login never resolves to other user username", func(t *testing.T) {
			e := newEnv(t, nil)
			bob := anaParams()
			bob.Username, bob.Email, bob.Password = "bob", "bob@x.com", "Other123"
			victim, err := e.s.Register(t.Context(), bob)
			require.NoError(t, err)

			// Account whose username equals bob's email, as if created before usernames were restricted
			_, err = e.repo.CreateUser(t.Context(), repository.CreateUserParams{
				Username:       "bob@x.com",
				Email:          "squatter@x.com",
				FullName:       "Squatter",
				Avatar:         "s.png",
				HashedPassword: "not-a-bcrypt-hash",
			})
			require.NoError(t, err)

			for range 20 {
				session, err := e.s.Login(t.Context(), "bob@x.com", "Other123")

				require.NoError(t, err)
				require.Equal(t, victim.ID, session.User.ID)
			}

			_, err = e.s.Login(t.Context(), "bob", "Other123")
			require.NoError(t, err, "username login still works")
		})

		t.Run("new login supersedes previous session", func(t *testing.T) {
			e := newEnv(t, nil)
			e.registerAna(t)
			first := e.loginAna(t)
			second := e.loginAna(t)

			_, err := e.s.Refresh(t.Context(), first.Tokens.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenReused)

			_, err = e.s.Refresh(t.Context(), second.Tokens.Refresh.Value)
			require.NoError(t, err)
		})
	})

	t.Run("Login throttling", func(t *testing.T) {
		newLimited := func(t *testing.T) env {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return newEnv(t, ratelimit.NewLoginLimiter(client, ratelimit.Config{MaxAttempts: 2, Cooldown: time.Minute}))
		}

		t.Run("too many attempts", func(t *testing.T) {
			e := newLimited(t)
			e.registerAna(t)

			for range 2 {
				_, err := e.s.Login(t.Context(), "ana", "WrongPW")
				require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			}

			_, err := e.s.Login(t.Context(), "ANA", "Secret123")

			require.ErrorIs(t, err, apperrors.ErrTooManyAttempts, "even right password is rejected in cooldown")
			require.Equal(t, http.StatusTooManyRequests, apperrors.KindOf(err).HTTPStatus())
		})

		t.Run("successful login resets counter", func(t *testing.T) {
			e := newLimited(t)
			e.registerAna(t)

			_, err := e.s.Login(t.Context(), "ana", "WrongPW")
			require.Error(t, err)
			e.loginAna(t)

			_, err = e.s.Login(t.Context(), "ana", "WrongPW")
			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			e.loginAna(t)
		})

		t.Run("unavailable limiter lets login through", func(t *testing.T) {
			e := newEnv(t, brokenLimiter{})
			e.registerAna(t)

			_, err := e.s.Login(t.Context(), "ana", "Secret123")

			require.NoError(t, err)
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("clear refresh token", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)
			session := e.loginAna(t)

			err := e.s.Logout(t.Context(), u.ID)

			require.NoError(t, err)
			require.Nil(t, e.storedToken(t, u.ID))

			_, err = e.s.Refresh(t.Context(), session.Tokens.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenReused, "logged out token can't be refreshed")
		})

		t.Run("idempotent", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)
			e.loginAna(t)

			require.NoError(t, e.s.Logout(t.Context(), u.ID))
			require.Nil(t, e.storedToken(t, u.ID))

			require.NoError(t, e.s.Logout(t.Context(), u.ID), "second logout is not an error")
			require.Nil(t, e.storedToken(t, u.ID))
		})

		t.Run("account gone", func(t *testing.T) {
			e := newEnv(t, nil)

			err := e.s.Logout(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrAccountGone)
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("refresh once ok", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)
			initial := e.loginAna(t)

			session, err := e.s.Refresh(t.Context(), initial.Tokens.Refresh.Value)

			require.NoError(t, err)
			require.Equal(t, u.ID, session.User.ID)
			require.NotEqual(t, initial.Tokens.Access.Value, session.Tokens.Access.Value, "new access token should be different")
			require.NotEqual(t, initial.Tokens.Refresh.Value, session.Tokens.Refresh.Value, "new refresh token should be different")
			require.Equal(t, session.Tokens.Refresh.Value, *e.storedToken(t, u.ID), "rotated token is stored")
		})

		t.Run("reuse of superseded token", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)
			token1 := e.loginAna(t).Tokens.Refresh.Value

			second, err := e.s.Refresh(t.Context(), token1)
			require.NoError(t, err)
			token2 := second.Tokens.Refresh.Value

			_, err = e.s.Refresh(t.Context(), token1)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenReused, "should return error if token already used")
			require.Equal(t, apperrors.KindTokenReuse, apperrors.KindOf(err), "reuse must not be downgraded")

			_, err = e.s.Refresh(t.Context(), token2)
			require.NoError(t, err, "current token still works")

			reuse := e.audit.ofType(audit.EventTokenReuse)
			require.Len(t, reuse, 1)
			require.Equal(t, u.ID, reuse[0].UserID)
		})

		t.Run("missing token", func(t *testing.T) {
			e := newEnv(t, nil)

			_, err := e.s.Refresh(t.Context(), "  ")

			require.ErrorIs(t, err, apperrors.ErrTokenMissing)
			require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
		})

		t.Run("malformed token", func(t *testing.T) {
			e := newEnv(t, nil)

			_, err := e.s.Refresh(t.Context(), "not-a-token")

			require.Equal(t, apperrors.KindInvalidToken, apperrors.KindOf(err))
		})

		t.Run("access token is not accepted", func(t *testing.T) {
			e := newEnv(t, nil)
			e.registerAna(t)
			session := e.loginAna(t)

			_, err := e.s.Refresh(t.Context(), session.Tokens.Access.Value)

			require.Equal(t, apperrors.KindInvalidToken, apperrors.KindOf(err))
		})

		t.Run("fail if expired", func(t *testing.T) {
			e := newEnv(t, nil)
			e.registerAna(t)
			session := e.loginAna(t)

			// Move time forward to make sure refresh token is expired
			e.clock.Advance(25 * time.Hour)

			_, err := e.s.Refresh(t.Context(), session.Tokens.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrTokenExpired, "should return error if token expired")
			require.Equal(t, apperrors.KindInvalidToken, apperrors.KindOf(err))
		})

		t.Run("fail if owner is gone", func(t *testing.T) {
			e := newEnv(t, nil)
			orphan, err := e.tokens.IssuePair(models.User{ID: uuid.New(), Username: "ghost"})
			require.NoError(t, err)

			_, err = e.s.Refresh(t.Context(), orphan.Refresh.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("concurrent refresh with same token", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)
			token := e.loginAna(t).Tokens.Refresh.Value

			const n = 16
			var wg sync.WaitGroup
			results := make([]error, n)
			sessions := make([]models.Session, n)
			start := make(chan struct{})

			for i := range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					sessions[i], results[i] = e.s.Refresh(context.Background(), token)
				}()
			}
			close(start)
			wg.Wait()

			var won int
			var winner models.Session
			for i, err := range results {
				if err == nil {
					won++
					winner = sessions[i]
					continue
				}
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenReused)
			}

			require.Equal(t, 1, won, "exactly one refresh has to win")
			require.Equal(t, winner.Tokens.Refresh.Value, *e.storedToken(t, u.ID), "winner token is the stored one")
		})
	})

	t.Run("ChangePassword", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)

			err := e.s.ChangePassword(t.Context(), u.ID, "Secret123", "NewSecret456")
			require.NoError(t, err)

			_, err = e.s.Login(t.Context(), "ana", "Secret123")
			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "old password does not work")

			_, err = e.s.Login(t.Context(), "ana", "NewSecret456")
			require.NoError(t, err)

			require.Len(t, e.audit.ofType(audit.EventPasswordChange), 1)
		})

		t.Run("session survives password change", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)
			session := e.loginAna(t)

			err := e.s.ChangePassword(t.Context(), u.ID, "Secret123", "NewSecret456")
			require.NoError(t, err)

			_, err = e.s.Refresh(t.Context(), session.Tokens.Refresh.Value)
			require.NoError(t, err)
		})

		t.Run("wrong old password", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)

			err := e.s.ChangePassword(t.Context(), u.ID, "WrongOld", "NewSecret456")

			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			require.Equal(t, http.StatusUnauthorized, apperrors.KindOf(err).HTTPStatus())

			_, err = e.s.Login(t.Context(), "ana", "Secret123")
			require.NoError(t, err, "password is not changed")
		})

		t.Run("blank new password", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)

			err := e.s.ChangePassword(t.Context(), u.ID, "Secret123", " ")

			require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)
			session := e.loginAna(t)

			principal, err := e.s.Authenticate(t.Context(), session.Tokens.Access.Value)

			require.NoError(t, err)
			require.Equal(t, models.Principal{UserID: u.ID, Username: "ana", Email: "ana@x.com"}, principal)
		})

		t.Run("no token", func(t *testing.T) {
			e := newEnv(t, nil)

			_, err := e.s.Authenticate(t.Context(), "")

			require.ErrorIs(t, err, apperrors.ErrTokenMissing)
		})

		t.Run("expired token is distinguished", func(t *testing.T) {
			e := newEnv(t, nil)
			e.registerAna(t)
			session := e.loginAna(t)
			e.clock.Advance(16 * time.Minute)

			_, err := e.s.Authenticate(t.Context(), session.Tokens.Access.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenExpired)
			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, "token_expired", appErr.ErrorCode())
		})

		t.Run("refresh token is not accepted", func(t *testing.T) {
			e := newEnv(t, nil)
			e.registerAna(t)
			session := e.loginAna(t)

			_, err := e.s.Authenticate(t.Context(), session.Tokens.Refresh.Value)

			require.Equal(t, apperrors.KindInvalidToken, apperrors.KindOf(err))
		})

		t.Run("account gone", func(t *testing.T) {
			e := newEnv(t, nil)
			pair, err := e.tokens.IssuePair(models.User{ID: uuid.New(), Username: "ghost"})
			require.NoError(t, err)

			_, err = e.s.Authenticate(t.Context(), pair.Access.Value)

			require.ErrorIs(t, err, apperrors.ErrAccountGone)
			require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
		})

		t.Run("does not touch stored token", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)
			session := e.loginAna(t)

			_, err := e.s.Authenticate(t.Context(), session.Tokens.Access.Value)
			require.NoError(t, err)

			require.Equal(t, session.Tokens.Refresh.Value, *e.storedToken(t, u.ID))
		})
	})

	t.Run("CurrentUser", func(t *testing.T) {
		e := newEnv(t, nil)
		u := e.registerAna(t)

		got, err := e.s.CurrentUser(t.Context(), u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Profile(), got.Profile())

		_, err = e.s.CurrentUser(t.Context(), uuid.New())
		require.ErrorIs(t, err, apperrors.ErrAccountGone)
	})

	t.Run("UpdateAccount", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)

			updated, err := e.s.UpdateAccount(t.Context(), u.ID, "Ana Lee", "Ana.Lee@x.com")

			require.NoError(t, err)
			require.Equal(t, "Ana Lee", updated.FullName)
			require.Equal(t, "ana.lee@x.com", updated.Email)
			require.Len(t, e.audit.ofType(audit.EventAccountUpdate), 1)
		})

		t.Run("email taken", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)
			bob := anaParams()
			bob.Username, bob.Email = "bob", "bob@x.com"
			_, err := e.s.Register(t.Context(), bob)
			require.NoError(t, err)

			_, err = e.s.UpdateAccount(t.Context(), u.ID, "Ana", "BOB@x.com")

			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("ChangeAvatar", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)

			updated, err := e.s.ChangeAvatar(t.Context(), u.ID, " https://img.example.com/new.png ")

			require.NoError(t, err)
			require.Equal(t, "https://img.example.com/new.png", updated.Avatar)
			require.Equal(t, u.CoverImage, updated.CoverImage, "cover image untouched")
			require.Len(t, e.audit.ofType(audit.EventAccountUpdate), 1)
		})

		t.Run("blank avatar", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)

			_, err := e.s.ChangeAvatar(t.Context(), u.ID, "  ")

			require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})

		t.Run("account gone", func(t *testing.T) {
			e := newEnv(t, nil)

			_, err := e.s.ChangeAvatar(t.Context(), uuid.New(), "a.png")

			require.ErrorIs(t, err, apperrors.ErrAccountGone)
		})
	})

	t.Run("ChangeCoverImage", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			e := newEnv(t, nil)
			u := e.registerAna(t)

			updated, err := e.s.ChangeCoverImage(t.Context(), u.ID, "https://img.example.com/cover.png")

			require.NoError(t, err)
			require.Equal(t, "https://img.example.com/cover.png", updated.CoverImage)
			require.Equal(t, u.Avatar, updated.Avatar, "avatar untouched")
		})

		t.Run("account gone", func(t *testing.T) {
			e := newEnv(t, nil)

			_, err := e.s.ChangeCoverImage(t.Context(), uuid.New(), "c.png")

			require.ErrorIs(t, err, apperrors.ErrAccountGone)
		})
	})

	t.Run("scenario", func(t *testing.T) {
		e := newEnv(t, nil)

		u, err := e.s.Register(t.Context(), anaParams())
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, u.Profile().ID)

		session, err := e.s.Login(t.Context(), "ana", "Secret123")
		require.NoError(t, err)
		require.NotEmpty(t, session.Tokens.Access.Value)
		require.NotEmpty(t, session.Tokens.Refresh.Value)

		_, err = e.s.Login(t.Context(), "ana", "WrongPW")
		require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

		e.clock.Advance(25 * time.Hour)
		_, err = e.s.Refresh(t.Context(), session.Tokens.Refresh.Value)
		require.Equal(t, apperrors.KindInvalidToken, apperrors.KindOf(err))

		err = e.s.ChangePassword(t.Context(), u.ID, "WrongOld", "Whatever1")
		require.Equal(t, http.StatusUnauthorized, apperrors.KindOf(err).HTTPStatus())
	})
}
