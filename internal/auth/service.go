// Package auth implements the authentication kernel: credential
// verification, token issuance, the request-time auth gate, and the
// refresh rotation protocol with reuse detection.
package auth

import (
	"context"
	"errors"

	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/repository"
	"github.com/iliyamo/vidtube/internal/token"
	"github.com/iliyamo/vidtube/internal/utils"
)

// Store is the slice of the user repository the kernel needs. The kernel
// reads users and updates only the refresh-token field; account lifecycle
// belongs to the caller.
type Store interface {
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, id string) error
	// RotateRefreshToken must compare presented against the stored value
	// and overwrite it with next in one atomic conditional update,
	// returning repository.ErrTokenMismatch when the values differ.
	RotateRefreshToken(ctx context.Context, id, presented, next string) error
}

// EventSink receives security-relevant signals. Implementations must not
// block the request path; failures are the sink's problem.
type EventSink interface {
	TokenReused(ctx context.Context, userID string)
}

// Pair is a freshly issued access/refresh token pair.
type Pair struct {
	Access  token.Signed `json:"access"`
	Refresh token.Signed `json:"refresh"`
}

// Service is the authentication kernel. Events is optional; when set it is
// notified whenever rotation detects a reused refresh token.
type Service struct {
	Store  Store
	Issuer token.Issuer
	Events EventSink
}

func NewService(store Store, issuer token.Issuer) *Service {
	return &Service{Store: store, Issuer: issuer}
}

// Login verifies credentials and establishes a new session: it issues a
// token pair and persists the refresh token before returning, so no valid
// refresh token exists that the store does not know about.
func (s *Service) Login(ctx context.Context, identifier, secret string) (Pair, model.User, error) {
	u, err := s.Store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Pair{}, model.User{}, ErrNotFound
		}
		return Pair{}, model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, secret) {
		return Pair{}, model.User{}, ErrCredentialMismatch
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return Pair{}, model.User{}, err
	}
	if err := s.Store.SetRefreshToken(ctx, u.ID, pair.Refresh.Token); err != nil {
		return Pair{}, model.User{}, err
	}
	return pair, u, nil
}

// Authenticate resolves a presented access token to a live user. It is
// read-only: no token state changes. Handlers use it as the gate before
// every protected operation.
func (s *Service) Authenticate(ctx context.Context, raw string) (model.User, error) {
	if raw == "" {
		return model.User{}, ErrUnauthenticated
	}
	claims, err := s.Issuer.ParseAccess(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return model.User{}, &Error{KindInvalidToken, "access token expired"}
		}
		return model.User{}, ErrInvalidToken
	}
	u, err := s.Store.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUnknownSubject
		}
		return model.User{}, err
	}
	return u, nil
}

// Refresh exchanges a valid, non-superseded refresh token for a new pair.
//
// The presented token moves through verification (signature/expiry),
// subject resolution, and the match-and-rotate step. The match is the
// invariant that makes refresh tokens single-use: the stored value must
// still equal the presented one, checked and overwritten atomically by the
// store. A mismatch means the token was already rotated or replayed; the
// session is torn down and the caller must log in again.
func (s *Service) Refresh(ctx context.Context, presented string) (Pair, error) {
	if presented == "" {
		return Pair{}, ErrUnauthenticated
	}
	claims, err := s.Issuer.ParseRefresh(presented)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return Pair{}, &Error{KindInvalidToken, "refresh token expired"}
		}
		return Pair{}, ErrInvalidToken
	}
	u, err := s.Store.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Pair{}, ErrInvalidToken
		}
		return Pair{}, err
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return Pair{}, err
	}
	if err := s.Store.RotateRefreshToken(ctx, u.ID, presented, pair.Refresh.Token); err != nil {
		if errors.Is(err, repository.ErrTokenMismatch) {
			// Replay of a superseded token. Clear the live session too:
			// whoever holds the rotated-away token may also hold the
			// current one.
			_ = s.Store.ClearRefreshToken(ctx, u.ID)
			if s.Events != nil {
				s.Events.TokenReused(ctx, u.ID)
			}
			return Pair{}, ErrTokenReused
		}
		return Pair{}, err
	}
	return pair, nil
}

// Logout clears the stored refresh token. Every previously issued refresh
// token for the user fails the match step from here on.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.Store.ClearRefreshToken(ctx, userID)
}

func (s *Service) issuePair(u model.User) (Pair, error) {
	access, err := s.Issuer.IssueAccess(u)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.Issuer.IssueRefresh(u)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}
