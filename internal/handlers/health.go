package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/vidtube/internal/apperrors"
	"github.com/nkiryanov/vidtube/internal/handlers/render"
	"github.com/nkiryanov/vidtube/internal/logger"
)

const healthTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func handleHealth(p pinger, l logger.Logger) http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()

			if err := p.Ping(ctx); err != nil {
				l.Error("health check failed", "error", err)
				render.Error(w, apperrors.Internal(err))
				return
			}
		}

		render.JSON(w, http.StatusOK, response{Status: "ok"}, "Service is healthy")
	})
}
