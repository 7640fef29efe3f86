package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/vidtube/internal/model"
)

// UserRepo persists user accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,full_name,avatar_url,cover_image_url,password_hash,refresh_token,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL,
		&u.CoverImageURL, &u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a new user with a generated uuid and returns its ID.
// Username and email are normalized to lowercase before insert.
func (r *UserRepo) Create(ctx context.Context, username, email, fullName, passwordHash, avatarURL, coverURL string) (string, error) {
	id := uuid.NewString()
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash) VALUES (?,?,?,?,?,?,?)",
		id, username, email, fullName, avatarURL, coverURL, passwordHash)
	if err != nil {
		// MySQL 1062 = duplicate entry; the message names the violated index.
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "username") {
				return "", ErrUsernameExists
			}
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByIdentifier fetches a user by username or email. The identifier is
// matched against both columns after lowercasing.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? OR email=? LIMIT 1",
		identifier, identifier))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetRefreshToken overwrites the stored refresh token unconditionally.
// Used by login, which establishes a fresh session regardless of any
// previously outstanding token.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=?", token, id)
	return err
}

// ClearRefreshToken sets the stored refresh token to NULL (logout).
func (r *UserRepo) ClearRefreshToken(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=NULL WHERE id=?", id)
	return err
}

// RotateRefreshToken replaces the stored refresh token with next, but only
// if the stored value still equals presented. The compare and the overwrite
// happen in a single conditional UPDATE, so two concurrent rotations with
// the same presented token cannot both succeed: the loser sees zero rows
// affected and gets ErrTokenMismatch.
func (r *UserRepo) RotateRefreshToken(ctx context.Context, id, presented, next string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=? AND refresh_token=?",
		next, id, presented)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenMismatch
	}
	return nil
}

// UpdateAccount changes email and full name.
func (r *UserRepo) UpdateAccount(ctx context.Context, id, email, fullName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, full_name=? WHERE id=?", email, fullName, id)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrEmailExists
	}
	return err
}

// UpdatePassword stores a new bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	return err
}

// UpdateAvatar stores a new avatar URL.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id, url string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET avatar_url=? WHERE id=?", url, id)
	return err
}

// UpdateCoverImage stores a new cover image URL.
func (r *UserRepo) UpdateCoverImage(ctx context.Context, id, url string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET cover_image_url=? WHERE id=?", url, id)
	return err
}
