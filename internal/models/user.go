package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Username       string
	Email          string
	FullName       string
	Avatar         string
	CoverImage     string
	HashedPassword string
	RefreshToken   *string // nil if user has no live session
}

// Principal is the authenticated identity attached to a request
type Principal struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Username: u.Username, Email: u.Email}
}

// Public user projection: never contains password hash or refresh token
type UserProfile struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u User) Profile() UserProfile {
	return UserProfile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
