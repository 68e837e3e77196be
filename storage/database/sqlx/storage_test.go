package sqlxstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/session"
	"github.com/trezcool/veritas/storage/database"
	testutil "github.com/trezcool/veritas/tests"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	conf := core.NewConfig()
	conf.Storage.Engine = database.EngineSQLite
	conf.Storage.URL = filepath.Join(t.TempDir(), "portal.db")

	db, err := database.Open(context.Background(), conf)
	require.NoError(t, err)
	store := New(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorage_sqlite(t *testing.T) {
	testutil.StorageContract(t, openSQLite(t).For)
}

func TestStorage_reopen(t *testing.T) {
	ctx := context.Background()
	conf := core.NewConfig()
	conf.Storage.Engine = database.EngineSQLite
	conf.Storage.URL = filepath.Join(t.TempDir(), "portal.db")

	db, err := database.Open(ctx, conf)
	require.NoError(t, err)
	require.NoError(t, New(db).For("b1").Replace(ctx, map[string]string{session.KeyToken: "tok"}))
	require.NoError(t, db.Close())

	// the schema migration is idempotent and data survives restarts
	db, err = database.Open(ctx, conf)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	tok, ok, err := New(db).For("b1").Get(ctx, session.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
}

func TestDB_Sweep(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	nowFunc = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()
	require.NoError(t, store.For("viejo").Replace(ctx, map[string]string{session.KeyToken: "a", session.KeyUser: "u"}))

	nowFunc = func() time.Time { return time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC) }
	require.NoError(t, store.For("nuevo").Replace(ctx, map[string]string{session.KeyToken: "b"}))

	n, err := store.Sweep(ctx, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok, err := store.For("viejo").Get(ctx, session.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.For("nuevo").Get(ctx, session.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_unknownEngine(t *testing.T) {
	conf := core.NewConfig()
	conf.Storage.Engine = "mysql"
	_, err := database.Open(context.Background(), conf)
	assert.Error(t, err)
}
