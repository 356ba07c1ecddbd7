package session

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user@example.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewFileStore(path)
	ctx := context.Background()

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save(ctx, "abc.def.ghi"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clearing twice is fine")
	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func setupRedisStore(t *testing.T, profile string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, profile), mr
}

func TestRedisStore_SaveUsesClaimExpiry(t *testing.T) {
	store, mr := setupRedisStore(t, "alice")
	ctx := context.Background()
	token := signed(t, time.Now().Add(time.Hour))

	require.NoError(t, store.Save(ctx, token))
	assert.True(t, mr.Exists("storefront:session:alice"))
	ttl := mr.TTL("storefront:session:alice")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)

	mr.FastForward(2 * time.Hour)
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStore_OpaqueTokenHasNoExpiry(t *testing.T) {
	store, mr := setupRedisStore(t, "")
	require.NoError(t, store.Save(context.Background(), "opaque"))
	assert.Equal(t, time.Duration(0), mr.TTL("storefront:session:default"))
}

func TestRedisStore_ExpiredTokenIsCleared(t *testing.T) {
	store, mr := setupRedisStore(t, "bob")
	require.NoError(t, mr.Set("storefront:session:bob", "old"))

	require.NoError(t, store.Save(context.Background(), signed(t, time.Now().Add(-time.Minute))))
	assert.False(t, mr.Exists("storefront:session:bob"))
}

func TestRedisStore_Clear(t *testing.T) {
	store, mr := setupRedisStore(t, "carol")
	require.NoError(t, mr.Set("storefront:session:carol", "tok"))

	require.NoError(t, store.Clear(context.Background()))
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	host, port := splitAddr(t, addr)
	_, err := NewRedisClient(context.Background(), RedisConfig{Host: host, Port: port})
	assert.Error(t, err)
}

func TestNewRedisClient_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := splitAddr(t, mr.Addr())

	client, err := NewRedisClient(context.Background(), RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer client.Close()
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := tokenExpiry(signed(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = tokenExpiry("not-a-jwt")
	assert.False(t, ok)
}
