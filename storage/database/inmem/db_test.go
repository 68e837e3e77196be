package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/veritas/core/session"
	testutil "github.com/trezcool/veritas/tests"
)

func TestStorage(t *testing.T) {
	testutil.StorageContract(t, Open().For)
}

func TestDB_Sweep(t *testing.T) {
	ctx := context.Background()
	db := Open()

	nowFunc = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()
	require.NoError(t, db.For("viejo").Replace(ctx, map[string]string{session.KeyToken: "a"}))

	nowFunc = func() time.Time { return time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC) }
	require.NoError(t, db.For("nuevo").Replace(ctx, map[string]string{session.KeyToken: "b"}))

	n, err := db.Sweep(ctx, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, _ := db.For("viejo").Get(ctx, session.KeyToken)
	assert.False(t, ok)
	_, ok, _ = db.For("nuevo").Get(ctx, session.KeyToken)
	assert.True(t, ok)
}
