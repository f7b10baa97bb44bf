package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Claims decoded from verified access token
type AccessClaims struct {
	UserID    uuid.UUID
	Username  string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims decoded from verified refresh token
type RefreshClaims struct {
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Result of successful login or refresh
type Session struct {
	User   User
	Tokens TokenPair
}
