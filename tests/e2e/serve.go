package e2e

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/vidtube/internal/handlers"
	"github.com/nkiryanov/vidtube/internal/handlers/credentials"
	"github.com/nkiryanov/vidtube/internal/logger"
	"github.com/nkiryanov/vidtube/internal/metrics"
	"github.com/nkiryanov/vidtube/internal/repository/postgres"
	"github.com/nkiryanov/vidtube/internal/service/auth"
	"github.com/nkiryanov/vidtube/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/vidtube/internal/service/user"
	"github.com/nkiryanov/vidtube/internal/testutil"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 24 * time.Hour
)

type Services struct {
	AuthService *auth.AuthService
	UserService *user.UserService
	Metrics     *metrics.Metrics
}

// Serve runs the whole app over db and stops it when test ends
func Serve(db postgres.DBTX, t *testing.T) (string, Services) {
	t.Helper()

	// Initialize repositories
	storage := postgres.NewStorage(db)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     AccessTTL,
		RefreshTTL:    RefreshTTL,
	})
	require.NoError(t, err, "token manager should be created without errors")

	us := user.NewService(user.BcryptHasher{Cost: bcrypt.MinCost}, storage.User())
	m := metrics.New()

	as, err := auth.NewService(auth.Config{Audit: m}, tokenManager, us)
	require.NoError(t, err, "auth service starting error", err)

	// Complete all together as router
	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:        as,
		Credentials: credentials.New(credentials.Config{Secure: true}),
		Logger:      logger.NewNoOpLogger(),
		Metrics:     m.Handler(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv.URL, Services{
		AuthService: as,
		UserService: us,
		Metrics:     m,
	}
}

// Create db transaction and run server in with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.InTx with it
// Requests must be sent one by one: transaction can't be shared between concurrent queries
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		srvURL, services := Serve(tx, t)
		fn(tx, srvURL, services)
	})
}
