package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/vidtube/internal/apperrors"
	"github.com/nkiryanov/vidtube/internal/models"
	"github.com/nkiryanov/vidtube/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, updated_at, username, email, full_name, avatar, cover_image, password_hash, refresh_token`

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(),
		params.Username,
		params.Email,
		params.FullName,
		params.Avatar,
		params.CoverImage,
		params.HashedPassword,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case isUniqueViolation(err):
		return user, apperrors.ErrUserAlreadyExists
	case isCheckViolation(err):
		return user, apperrors.ErrInvalidIdentifier
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT ` + userColumns + ` FROM users
WHERE username = $1
`

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	query := getUserByUsername
	if repository.IsEmailLogin(login) {
		query = getUserByEmail
	}

	rows, _ := r.DB.Query(ctx, query, login)
	return collectUser(rows)
}

const updatePasswordHash = `-- name: UpdatePasswordHash
UPDATE users
SET password_hash = $2, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updatePasswordHash, id, hashedPassword)
	return affectedOne(tag, err, apperrors.ErrUserNotFound)
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users
SET refresh_token = $2, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	tag, err := r.DB.Exec(ctx, setRefreshToken, id, token)
	return affectedOne(tag, err, apperrors.ErrUserNotFound)
}

// Compare-and-swap: the row is updated only if the stored token equals current
// Concurrent swaps with the same current token are serialized by the row lock, the loser sees 0 rows
const swapRefreshToken = `-- name: SwapRefreshToken
UPDATE users
SET refresh_token = $3, updated_at = now()
WHERE id = $1 AND refresh_token = $2
`

func (r *UserRepo) SwapRefreshToken(ctx context.Context, id uuid.UUID, current string, next string) error {
	tag, err := r.DB.Exec(ctx, swapRefreshToken, id, current, next)
	return affectedOne(tag, err, apperrors.ErrRefreshTokenReused)
}

const updateAccount = `-- name: UpdateAccount
UPDATE users
SET full_name = $2, email = $3, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateAccount(ctx context.Context, id uuid.UUID, fullName string, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateAccount, id, fullName, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	case isUniqueViolation(err):
		return user, apperrors.ErrUserAlreadyExists
	case isCheckViolation(err):
		return user, apperrors.ErrInvalidIdentifier
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

// NULL keeps the stored reference
const updateImages = `-- name: UpdateImages
UPDATE users
SET avatar = COALESCE($2, avatar), cover_image = COALESCE($3, cover_image), updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateImages(ctx context.Context, id uuid.UUID, avatar *string, coverImage *string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateImages, id, avatar, coverImage)
	return collectUser(rows)
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.Avatar,
		&u.CoverImage,
		&u.HashedPassword,
		&u.RefreshToken,
	)
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation
}

// Return notFound if no rows were affected by update
func affectedOne(tag pgconn.CommandTag, err error, notFound error) error {
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return notFound
	default:
		return nil
	}
}
