// Package token mints and verifies the two JWT kinds used by the service.
// Access tokens are short-lived and carry the profile claims needed to
// render a session without a database round trip. Refresh tokens are
// long-lived and carry only the subject id, so a leaked refresh token
// exposes nothing beyond the opaque user id. The two kinds are signed
// with independent secrets.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/vidtube/internal/model"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	// ErrExpired reports a token whose exp claim is in the past.
	ErrExpired = errors.New("token expired")
	// ErrInvalid reports any other verification failure: bad signature,
	// malformed string, wrong signing method, or wrong token kind.
	ErrInvalid = errors.New("invalid token")
)

// Claims is the JWT payload for both token kinds. Profile fields are only
// populated on access tokens; the Kind claim pins each token to the parser
// for its kind so a refresh token can never pass as an access token.
type Claims struct {
	jwt.RegisteredClaims
	Kind     string `json:"kind"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// Issuer holds the process-lifetime signing configuration. It is built
// once at startup from validated config and passed explicitly to the auth
// service, never read from globals, so tests can inject fake secrets.
type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Signed is an issued token together with its expiry.
type Signed struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueAccess signs a short-lived access token for u.
func (i Issuer) IssueAccess(u model.User) (Signed, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind:     KindAccess,
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
	}
	return sign(claims, i.AccessSecret, exp)
}

// IssueRefresh signs a long-lived refresh token for u. Only the subject id
// is embedded; issuing does not persist the token — the caller writes it
// into the user's session state.
func (i Issuer) IssueRefresh(u model.User) (Signed, error) {
	now := time.Now().UTC()
	exp := now.Add(i.RefreshTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: KindRefresh,
	}
	return sign(claims, i.RefreshSecret, exp)
}

// ParseAccess verifies signature, expiry and kind of an access token and
// returns its claims.
func (i Issuer) ParseAccess(raw string) (*Claims, error) {
	return parse(raw, i.AccessSecret, KindAccess)
}

// ParseRefresh verifies signature, expiry and kind of a refresh token and
// returns its claims.
func (i Issuer) ParseRefresh(raw string) (*Claims, error) {
	return parse(raw, i.RefreshSecret, KindRefresh)
}

func sign(claims Claims, secret []byte, exp time.Time) (Signed, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return Signed{}, err
	}
	return Signed{Token: signed, ExpiresAt: exp}, nil
}

func parse(raw string, secret []byte, kind string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !tok.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
