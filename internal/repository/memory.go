package repository

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/vidtube/internal/model"
)

// MemoryUserRepo is an in-memory user store with the same contract as
// UserRepo, including the atomic rotate semantics. It backs tests and
// local development without a MySQL instance.
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // by id
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: map[string]*model.User{}}
}

func (r *MemoryUserRepo) Create(_ context.Context, username, email, fullName, passwordHash, avatarURL, coverURL string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Username == username {
			return "", ErrUsernameExists
		}
		if u.Email == email {
			return "", ErrEmailExists
		}
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	r.users[id] = &model.User{
		ID:            id,
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  passwordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return id, nil
}

func (r *MemoryUserRepo) GetByIdentifier(_ context.Context, identifier string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return *u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return *u, nil
	}
	return model.User{}, ErrNotFound
}

func (r *MemoryUserRepo) SetRefreshToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = sql.NullString{String: token, Valid: true}
	return nil
}

func (r *MemoryUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = sql.NullString{}
	return nil
}

// RotateRefreshToken compares and overwrites under one lock, mirroring the
// single conditional UPDATE of the SQL implementation.
func (r *MemoryUserRepo) RotateRefreshToken(_ context.Context, id, presented, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	if !u.RefreshToken.Valid || u.RefreshToken.String != presented {
		return ErrTokenMismatch
	}
	u.RefreshToken = sql.NullString{String: next, Valid: true}
	return nil
}

func (r *MemoryUserRepo) UpdateAccount(_ context.Context, id, email, fullName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for otherID, u := range r.users {
		if otherID != id && u.Email == email {
			return ErrEmailExists
		}
	}
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Email = email
	u.FullName = fullName
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.update(id, func(u *model.User) { u.PasswordHash = passwordHash })
}

func (r *MemoryUserRepo) UpdateAvatar(_ context.Context, id, url string) error {
	return r.update(id, func(u *model.User) { u.AvatarURL = url })
}

func (r *MemoryUserRepo) UpdateCoverImage(_ context.Context, id, url string) error {
	return r.update(id, func(u *model.User) { u.CoverImageURL = url })
}

// Delete removes an account. Account lifecycle belongs to external
// tooling in production; tests use this to simulate a deleted subject
// behind a still-valid token.
func (r *MemoryUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepo) update(id string, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}
