package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube/internal/auth"
	"github.com/iliyamo/vidtube/internal/repository"
	"github.com/iliyamo/vidtube/internal/token"
	"github.com/iliyamo/vidtube/internal/utils"
)

func gateFixture(t *testing.T) (*auth.Service, auth.Pair) {
	t.Helper()

	store := repository.NewMemoryUserRepo()
	hash, err := utils.HashPassword("secret", 4)
	require.NoError(t, err)
	_, err = store.Create(context.Background(), "ada", "ada@example.com", "Ada Lovelace", hash, "", "")
	require.NoError(t, err)

	svc := auth.NewService(store, token.Issuer{
		AccessSecret:  []byte("gate-access-secret-0123456789abc"),
		RefreshSecret: []byte("gate-refresh-secret-0123456789ab"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	pair, _, err := svc.Login(context.Background(), "ada", "secret")
	require.NoError(t, err)
	return svc, pair
}

// runGate sends a request through AuthGate into a handler that reports the
// resolved username.
func runGate(t *testing.T, svc *auth.Service, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := AuthGate(svc)(func(c echo.Context) error {
		u, ok := CurrentUser(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, u.Username)
	})
	require.NoError(t, h(c))
	return rec
}

func TestAuthGate_CookieToken(t *testing.T) {
	t.Parallel()

	svc, pair := gateFixture(t)
	rec := runGate(t, svc, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: pair.Access.Token})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada", rec.Body.String())
}

func TestAuthGate_BearerFallback(t *testing.T) {
	t.Parallel()

	svc, pair := gateFixture(t)
	rec := runGate(t, svc, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+pair.Access.Token)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada", rec.Body.String())
}

func TestAuthGate_CookiePreferredOverHeader(t *testing.T) {
	t.Parallel()

	// A garbage cookie must lose against nothing: the cookie wins over a
	// valid header, so the request is rejected.
	svc, pair := gateFixture(t)
	rec := runGate(t, svc, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "garbage"})
		req.Header.Set("Authorization", "Bearer "+pair.Access.Token)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGate_NoToken(t *testing.T) {
	t.Parallel()

	svc, _ := gateFixture(t)
	rec := runGate(t, svc, func(*http.Request) {})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGate_RefreshTokenRejected(t *testing.T) {
	t.Parallel()

	// The long-lived token must not open the gate.
	svc, pair := gateFixture(t)
	rec := runGate(t, svc, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: pair.Refresh.Token})
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
