package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube/internal/repository"
	"github.com/iliyamo/vidtube/internal/token"
	"github.com/iliyamo/vidtube/internal/utils"
)

const adaPassword = "correct horse battery staple"

type recordingSink struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingSink) TokenReused(_ context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func (r *recordingSink) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.users...)
}

// newTestService builds a Service over the in-memory store, seeded with a
// single account "ada".
func newTestService(t *testing.T) (*Service, *repository.MemoryUserRepo, string) {
	t.Helper()

	store := repository.NewMemoryUserRepo()
	hash, err := utils.HashPassword(adaPassword, 4) // min cost keeps tests fast
	require.NoError(t, err)
	adaID, err := store.Create(context.Background(), "ada", "ada@example.com", "Ada Lovelace", hash, "", "")
	require.NoError(t, err)

	iss := token.Issuer{
		AccessSecret:  []byte("test-access-secret-0123456789abc"),
		RefreshSecret: []byte("test-refresh-secret-0123456789ab"),
		AccessTTL:     time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
	return NewService(store, iss), store, adaID
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	svc, store, adaID := newTestService(t)

	pair, u, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)
	assert.Equal(t, adaID, u.ID)
	assert.NotEmpty(t, pair.Access.Token)
	assert.NotEmpty(t, pair.Refresh.Token)

	// The refresh token is persisted before Login returns.
	stored, err := store.GetByID(context.Background(), adaID)
	require.NoError(t, err)
	require.True(t, stored.RefreshToken.Valid)
	assert.Equal(t, pair.Refresh.Token, stored.RefreshToken.String)
}

func TestLogin_ByEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, u, err := svc.Login(context.Background(), "ada@example.com", adaPassword)
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)
}

func TestLogin_UnknownIdentifier(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, _, err := svc.Login(context.Background(), "nobody", adaPassword)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_WrongSecret(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, _, err := svc.Login(context.Background(), "ada", "wrong")
	assert.ErrorIs(t, err, ErrCredentialMismatch)
}

func TestLogin_StoredHashIsNotASecret(t *testing.T) {
	t.Parallel()

	// Presenting the stored hash itself as the password must fail: only
	// the exact original secret verifies.
	svc, store, adaID := newTestService(t)
	stored, err := store.GetByID(context.Background(), adaID)
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ada", stored.PasswordHash)
	assert.ErrorIs(t, err, ErrCredentialMismatch)
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, adaID := newTestService(t)

	pair, _, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)

	u, err := svc.Authenticate(context.Background(), pair.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, adaID, u.ID)
	assert.Equal(t, "ada", u.Username)
}

func TestAuthenticate_NoToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticate_Expired(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	svc.Issuer.AccessTTL = -time.Second

	pair, _, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)

	// Expired beats everything else: the signature is genuine.
	_, err = svc.Authenticate(context.Background(), pair.Access.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_UnknownSubject(t *testing.T) {
	t.Parallel()

	svc, store, adaID := newTestService(t)

	pair, _, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)

	// Delete the account out from under a still-valid token.
	require.NoError(t, store.Delete(context.Background(), adaID))

	_, err = svc.Authenticate(context.Background(), pair.Access.Token)
	assert.ErrorIs(t, err, ErrUnknownSubject)
}

func TestAuthenticate_RefreshTokenRejected(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	pair, _, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), pair.Refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_SingleUse(t *testing.T) {
	t.Parallel()

	svc, _, adaID := newTestService(t)
	sink := &recordingSink{}
	svc.Events = sink

	pair, _, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)
	old := pair.Refresh.Token

	next, err := svc.Refresh(context.Background(), old)
	require.NoError(t, err)
	assert.NotEqual(t, old, next.Refresh.Token)

	// Replaying the rotated-away token must fail with TokenReused and
	// emit the security signal.
	_, err = svc.Refresh(context.Background(), old)
	assert.ErrorIs(t, err, ErrTokenReused)
	assert.Equal(t, []string{adaID}, sink.seen())

	// Reuse detection tears down the live session too.
	_, err = svc.Refresh(context.Background(), next.Refresh.Token)
	assert.ErrorIs(t, err, ErrTokenReused)
}

func TestRefresh_NoToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRefresh_Expired(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	svc.Issuer.RefreshTTL = -time.Second

	pair, _, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.Refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_UnknownSubject(t *testing.T) {
	t.Parallel()

	svc, store, adaID := newTestService(t)

	pair, _, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), adaID))

	_, err = svc.Refresh(context.Background(), pair.Refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_AfterLogout(t *testing.T) {
	t.Parallel()

	svc, _, adaID := newTestService(t)

	pair, _, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), adaID))

	// A previously valid refresh token must never succeed after logout.
	_, err = svc.Refresh(context.Background(), pair.Refresh.Token)
	assert.ErrorIs(t, err, ErrTokenReused)
}

func TestRefresh_ConcurrentRotationHasOneWinner(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	pair, _, err := svc.Login(context.Background(), "ada", adaPassword)
	require.NoError(t, err)
	old := pair.Refresh.Token

	const n = 8
	errs := make(chan error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			<-start
			_, err := svc.Refresh(context.Background(), old)
			errs <- err
		}()
	}
	close(start)

	wins := 0
	for i := 0; i < n; i++ {
		if err := <-errs; err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrTokenReused)
		}
	}
	// The atomic compare-and-swap admits exactly one rotation per token.
	assert.Equal(t, 1, wins)
}
