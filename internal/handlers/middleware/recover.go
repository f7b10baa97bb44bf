package middleware

import (
	"fmt"
	"net/http"

	"github.com/nkiryanov/vidtube/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// RecoverMiddleware turns handler panic into internal error response
func RecoverMiddleware(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				l.Error("handler panicked", "method", r.Method, "uri", r.RequestURI, "panic", fmt.Sprint(rec))
				render.Error(w, fmt.Errorf("panic: %v", rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
