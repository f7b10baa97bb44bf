package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/vidtube/internal/handlers/render"
	"github.com/nkiryanov/vidtube/internal/handlers/userctx"
	"github.com/nkiryanov/vidtube/internal/models"
)

type authenticator interface {
	Authenticate(ctx context.Context, access string) (models.Principal, error)
}

type tokenReader interface {
	AccessToken(r *http.Request) string
}

type Auth struct {
	auth   authenticator
	tokens tokenReader
}

func NewAuth(auth authenticator, tokens tokenReader) *Auth {
	return &Auth{auth: auth, tokens: tokens}
}

// Auth lets request through only with valid access token
// The principal is put to request context, see userctx.FromContext
func (m *Auth) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.auth.Authenticate(r.Context(), m.tokens.AccessToken(r))
		if err != nil {
			render.Error(w, err)
			return
		}

		ctx := userctx.New(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
