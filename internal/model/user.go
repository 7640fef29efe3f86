package model

import (
	"database/sql"
	"time"
)

// User represents an account record as stored in the `users` table.
// PasswordHash and RefreshToken never leave the repository/auth layers;
// handlers respond with the PublicUser projection instead.
//
// RefreshToken holds the single outstanding refresh token for the account.
// It is overwritten on every login and rotation and set to NULL on logout,
// so at most one refresh token is valid for a user at any time.
type User struct {
	ID            string         // users.id (uuid, generated at creation)
	Username      string         // users.username (unique, stored lowercase)
	Email         string         // users.email (unique, stored lowercase)
	FullName      string         // users.full_name
	AvatarURL     string         // users.avatar_url
	CoverImageURL string         // users.cover_image_url
	PasswordHash  string         // users.password_hash (bcrypt)
	RefreshToken  sql.NullString // users.refresh_token (current outstanding token)
	CreatedAt     time.Time      // users.created_at
	UpdatedAt     time.Time      // users.updated_at
}

// PublicUser is the response-safe projection of a User. It deliberately
// has no password or refresh-token fields.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public returns the projection of u that is safe to serialize.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}
