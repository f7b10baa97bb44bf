// Package credentials moves tokens between HTTP requests/responses and the service
//
// Tokens are delivered both as cookies and in the response body, so browsers and
// programmatic clients can use whichever transport they prefer
package credentials

import (
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/vidtube/internal/models"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"

	defaultHeaderName = "Authorization"
	defaultAuthScheme = "Bearer"
	defaultCookiePath = "/"
)

type Config struct {
	// Send cookies over https only, disable for local development only
	Secure bool

	// If not set http.SameSiteStrictMode is used
	SameSite http.SameSite

	// If not set time.Now is used
	Clock func() time.Time
}

type Transport struct {
	secure   bool
	sameSite http.SameSite
	now      func() time.Time
}

func New(cfg Config) *Transport {
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteStrictMode
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Transport{
		secure:   cfg.Secure,
		sameSite: cfg.SameSite,
		now:      cfg.Clock,
	}
}

// SetTokens sets both tokens as HttpOnly cookies living as long as the tokens do
func (t *Transport) SetTokens(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, t.cookie(AccessCookieName, pair.Access))
	http.SetCookie(w, t.cookie(RefreshCookieName, pair.Refresh))
}

// ClearTokens expires both cookies
func (t *Transport) ClearTokens(w http.ResponseWriter) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     defaultCookiePath,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   t.secure,
			SameSite: t.sameSite,
		})
	}
}

// AccessToken reads token from cookie, falls back to "Authorization: Bearer <token>" header
// Returns empty string if there is none
func (t *Transport) AccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get(defaultHeaderName)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, defaultAuthScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// RefreshToken reads token from cookie, falls back to value sent in request body
func (t *Transport) RefreshToken(r *http.Request, fromBody string) string {
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return strings.TrimSpace(fromBody)
}

func (t *Transport) cookie(name string, token models.IssuedToken) *http.Cookie {
	maxAge := int(token.ExpiresAt.Sub(t.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	return &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     defaultCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: t.sameSite,
	}
}
