package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/vidtube/internal/db"
	"github.com/nkiryanov/vidtube/internal/handlers"
	"github.com/nkiryanov/vidtube/internal/handlers/credentials"
	"github.com/nkiryanov/vidtube/internal/logger"
	"github.com/nkiryanov/vidtube/internal/metrics"
	"github.com/nkiryanov/vidtube/internal/repository/postgres"
	"github.com/nkiryanov/vidtube/internal/service/audit"
	"github.com/nkiryanov/vidtube/internal/service/auth"
	"github.com/nkiryanov/vidtube/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/vidtube/internal/service/ratelimit"
	"github.com/nkiryanov/vidtube/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: l}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		AccessTTL:     c.AccessTTL,
		RefreshSecret: c.RefreshSecret,
		RefreshTTL:    c.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(user.DefaultHasher, storage.User())

	m := metrics.New()
	sinks := audit.Multi{audit.NewLogSink(l), m}
	authCfg := auth.Config{Logger: l}

	if c.RedisURL != "" {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("error while parsing redis url. Err: %w", err)
		}
		client := redis.NewClient(opts)
		app.closers = append(app.closers, func() { _ = client.Close() })

		authCfg.Limiter = ratelimit.NewLoginLimiter(client, ratelimit.Config{
			MaxAttempts: c.LoginMaxAttempts,
			Cooldown:    c.LoginCooldown,
		})
		l.Info("Login throttling enabled", "max_attempts", c.LoginMaxAttempts, "cooldown", c.LoginCooldown.String())
	}

	if c.NATSURL != "" {
		conn, err := nats.Connect(c.NATSURL, nats.Name("vidtube"))
		if err != nil {
			return nil, fmt.Errorf("error while connecting to nats. Err: %w", err)
		}
		app.closers = append(app.closers, func() { _ = conn.Drain() })

		sinks = append(sinks, audit.NewNATSSink(conn, audit.DefaultSubjectPrefix, l))
		l.Info("Audit events publishing enabled", "subject_prefix", audit.DefaultSubjectPrefix)
	}
	authCfg.Audit = sinks

	authService, err := auth.NewService(authCfg, tokenManager, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	app.Handler = handlers.NewRouter(handlers.RouterConfig{
		Auth:        authService,
		Credentials: credentials.New(credentials.Config{Secure: c.CookieSecure}),
		Logger:      l,
		Metrics:     m.Handler(),
		Health:      pool,
	})

	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

// Close releases connections in reverse order of opening
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
