package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/veritas/core/session"
	testutil "github.com/trezcool/veritas/tests"
)

func openMini(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := Open(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	store := New(rdb, ttl)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStorage(t *testing.T) {
	store, _ := openMini(t, time.Minute)
	testutil.StorageContract(t, store.For)
}

// Set VERITAS_TEST_REDIS_URL (e.g. redis://localhost:6379/15) to also run against a real server.
func TestStorage_server(t *testing.T) {
	url := os.Getenv("VERITAS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("VERITAS_TEST_REDIS_URL not set")
	}
	rdb, err := Open(context.Background(), url)
	require.NoError(t, err)
	store := New(rdb, time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	run := uuid.NewString()
	testutil.StorageContract(t, func(ns string) session.Storage {
		return store.For(run + ":" + ns)
	})
}

func TestStorage_ttl(t *testing.T) {
	ctx := context.Background()
	store, mr := openMini(t, time.Minute)
	st := store.For("browser")

	require.NoError(t, st.Replace(ctx, map[string]string{session.KeyToken: "tok", session.KeyUser: `{"id":1}`}))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"browser"))
	assert.Equal(t, "tok", mr.HGet(keyPrefix+"browser", session.KeyToken))
	assert.Equal(t, `{"id":1}`, mr.HGet(keyPrefix+"browser", session.KeyUser))

	// every write pushes the expiry back
	mr.FastForward(30 * time.Second)
	require.NoError(t, st.Replace(ctx, map[string]string{session.KeyToken: "tok2"}))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"browser"))

	mr.FastForward(time.Minute + time.Second)
	_, ok, err := st.Get(ctx, session.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_noTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := openMini(t, 0)

	require.NoError(t, store.For("cli").Replace(ctx, map[string]string{session.KeyToken: "tok"}))
	assert.Zero(t, mr.TTL(keyPrefix+"cli"))
}

func TestStorage_remove(t *testing.T) {
	ctx := context.Background()
	store, mr := openMini(t, time.Minute)
	st := store.For("browser")

	require.NoError(t, st.Replace(ctx, map[string]string{session.KeyToken: "tok", session.KeyUser: "u"}))
	require.NoError(t, st.Remove(ctx, session.KeyToken, session.KeyUser))
	assert.False(t, mr.Exists(keyPrefix+"browser"))
}

func TestOpen_badURL(t *testing.T) {
	_, err := Open(context.Background(), "http://localhost")
	require.Error(t, err)
}

func TestOpen_unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), "redis://"+addr)
	require.Error(t, err)
}
