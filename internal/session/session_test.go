package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/backendtest"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
)

type stack struct {
	srv   *backendtest.Server
	store *MemoryStore
	api   *api.API
	sess  *Session
}

func newStack(t *testing.T, token string) *stack {
	t.Helper()
	srv := backendtest.New(t)
	bc, err := backend.New(srv.URL, httpclient.New(httpclient.DefaultConfig()), logger.Discard())
	require.NoError(t, err)

	store := NewMemoryStore(token)
	a := api.New(bc, nil)
	sess := New(store, a.Auth, logger.Discard())
	bc.SetTokenSource(sess)
	bc.SetUnauthorizedHandler(sess.Expire)
	return &stack{srv: srv, store: store, api: a, sess: sess}
}

func stored(t *testing.T, s TokenStore) string {
	t.Helper()
	token, err := s.Load(context.Background())
	require.NoError(t, err)
	return token
}

func TestRestore_NoToken(t *testing.T) {
	st := newStack(t, "")

	assert.Equal(t, Anonymous, st.sess.Restore(context.Background()))
	assert.Empty(t, st.srv.Calls())
	assert.False(t, st.sess.IsAuthenticated())
}

func TestRestore_ValidToken(t *testing.T) {
	st := newStack(t, "")
	st.srv.AddUser("admin@example.com", "secret1", domain.RoleAdmin)
	token := st.srv.Token("admin@example.com", time.Hour)
	require.NoError(t, st.store.Save(context.Background(), token))

	assert.Equal(t, Authenticated, st.sess.Restore(context.Background()))

	u, ok := st.sess.User()
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", u.Email)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, token, st.sess.Token())

	calls := st.srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/auth/check-auth", calls[0].Path)
	assert.Equal(t, "Bearer "+token, calls[0].Authorization)
}

func TestRestore_ExpiredClaimsSkipBackend(t *testing.T) {
	st := newStack(t, "")
	st.srv.AddUser("user@example.com", "secret1", domain.RoleUser)
	require.NoError(t, st.store.Save(context.Background(), st.srv.Token("user@example.com", -time.Minute)))

	assert.Equal(t, Expired, st.sess.Restore(context.Background()))
	assert.Empty(t, st.srv.Calls(), "expired token is dropped without a network call")
	assert.Empty(t, stored(t, st.store))
}

func TestRestore_RejectedTokenExpiresSession(t *testing.T) {
	st := newStack(t, "")
	st.srv.AddUser("user@example.com", "secret1", domain.RoleUser)
	token := st.srv.Token("user@example.com", time.Hour)
	st.srv.Revoke(token)
	require.NoError(t, st.store.Save(context.Background(), token))

	assert.Equal(t, Expired, st.sess.Restore(context.Background()))
	assert.Empty(t, stored(t, st.store))
	assert.Empty(t, st.sess.Token())
	_, ok := st.sess.User()
	assert.False(t, ok)
}

func TestRestore_ServerErrorExpiresSession(t *testing.T) {
	st := newStack(t, "")
	st.srv.AddUser("user@example.com", "secret1", domain.RoleUser)
	require.NoError(t, st.store.Save(context.Background(), st.srv.Token("user@example.com", time.Hour)))
	st.srv.Fail(http.MethodPost, "/api/auth/check-auth", http.StatusInternalServerError, `{"message":"boom"}`)

	assert.Equal(t, Expired, st.sess.Restore(context.Background()))
	assert.Empty(t, stored(t, st.store))
}

func TestRestore_TransportErrorExpiresSession(t *testing.T) {
	st := newStack(t, "")
	st.srv.AddUser("user@example.com", "secret1", domain.RoleUser)
	require.NoError(t, st.store.Save(context.Background(), st.srv.Token("user@example.com", time.Hour)))
	st.srv.Close()

	assert.Equal(t, Expired, st.sess.Restore(context.Background()))
	assert.False(t, st.sess.CanManageCatalog())
}

func TestPrivilegedCallRejectedWith401ExpiresSession(t *testing.T) {
	st := newStack(t, "")
	st.srv.AddUser("admin@example.com", "secret1", domain.RoleAdmin)
	ctx := context.Background()

	res, err := st.api.Auth.SignIn(ctx, api.SignInRequest{Email: "admin@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, st.sess.SignIn(ctx, res.User, res.Token))
	require.True(t, st.sess.CanManageCatalog())

	_, err = st.api.Admin.Products.List(ctx)
	require.NoError(t, err)

	st.srv.Revoke(res.Token)
	_, err = st.api.Admin.Products.List(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))

	assert.Equal(t, Expired, st.sess.State())
	assert.Empty(t, st.sess.Token())
	assert.Empty(t, stored(t, st.store))
	assert.False(t, st.sess.CanManageCatalog())

	_, err = st.api.Admin.Products.List(ctx)
	assert.True(t, errors.Is(err, backend.ErrNotSignedIn))
}

func TestForbiddenDoesNotExpireSession(t *testing.T) {
	st := newStack(t, "")
	st.srv.AddUser("admin@example.com", "secret1", domain.RoleAdmin)
	ctx := context.Background()

	res, err := st.api.Auth.SignIn(ctx, api.SignInRequest{Email: "admin@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, st.sess.SignIn(ctx, res.User, res.Token))

	_, err = st.api.Owner.Users.List(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.Equal(t, Authenticated, st.sess.State())
}

func TestRoleGates(t *testing.T) {
	tests := []struct {
		role            domain.Role
		catalog, people bool
	}{
		{domain.RoleUser, false, false},
		{domain.RoleAdmin, true, false},
		{domain.RoleOwner, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			s := New(NewMemoryStore(""), nil, logger.Discard())
			require.NoError(t, s.SignIn(context.Background(), domain.User{ID: 1, Role: tt.role}, "t"))
			assert.Equal(t, tt.catalog, s.CanManageCatalog())
			assert.Equal(t, tt.people, s.CanManageUsers())
		})
	}
}

func TestSignOut(t *testing.T) {
	store := NewMemoryStore("")
	s := New(store, nil, logger.Discard())
	ctx := context.Background()

	require.NoError(t, s.SignIn(ctx, domain.User{ID: 3, Role: domain.RoleOwner}, "tok"))
	assert.Equal(t, "tok", stored(t, store))

	require.NoError(t, s.SignOut(ctx))
	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, stored(t, store))
	assert.False(t, s.CanManageUsers())
}

func TestExpire_IgnoredWhenNotAuthenticated(t *testing.T) {
	s := New(NewMemoryStore(""), nil, logger.Discard())
	s.Expire(context.Background(), "tok")
	assert.Equal(t, Anonymous, s.State())
}

func TestExpire_RejectedCurrentToken(t *testing.T) {
	store := NewMemoryStore("")
	s := New(store, nil, logger.Discard())
	ctx := context.Background()
	require.NoError(t, s.SignIn(ctx, domain.User{ID: 1}, "tok"))

	s.Expire(ctx, "tok")
	assert.Equal(t, Expired, s.State())
	assert.Empty(t, s.Token())
	assert.Empty(t, stored(t, store))
}

// signInDoer signs the session in with a new token while the request that
// carries the old one is in flight, then rejects it.
type signInDoer struct {
	sess *Session
	seen string
}

func (d *signInDoer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	d.seen = req.Header.Get("Authorization")
	if err := d.sess.SignIn(ctx, domain.User{ID: 2, Role: domain.RoleAdmin}, "new-token"); err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: http.StatusUnauthorized,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(`{"message":"Token expired"}`)),
	}, nil
}

func TestExpire_StaleRejectionKeepsNewSession(t *testing.T) {
	store := NewMemoryStore("")
	sess := New(store, nil, logger.Discard())
	ctx := context.Background()
	require.NoError(t, sess.SignIn(ctx, domain.User{ID: 1, Role: domain.RoleAdmin}, "old-token"))

	doer := &signInDoer{sess: sess}
	bc, err := backend.New("http://backend.local", doer, logger.Discard())
	require.NoError(t, err)
	bc.SetTokenSource(sess)
	bc.SetUnauthorizedHandler(sess.Expire)

	_, err = bc.Do(ctx, backend.Request{Method: http.MethodGet, Path: "/api/admin/products", Auth: true}, nil)
	require.Error(t, err)
	assert.Equal(t, "Bearer old-token", doer.seen)

	assert.Equal(t, Authenticated, sess.State())
	assert.Equal(t, "new-token", sess.Token())
	assert.Equal(t, "new-token", stored(t, store))
}

func TestContext_CarriesUserID(t *testing.T) {
	s := New(NewMemoryStore(""), nil, logger.Discard())
	ctx := context.Background()
	assert.Empty(t, logger.UserIDFromContext(s.Context(ctx)))

	require.NoError(t, s.SignIn(ctx, domain.User{ID: 42}, "tok"))
	assert.Equal(t, "42", logger.UserIDFromContext(s.Context(ctx)))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "authenticating", Authenticating.String())
	assert.Equal(t, "expired", Expired.String())
	assert.Equal(t, "unknown", State(9).String())
}
