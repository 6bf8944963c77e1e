package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	assert.Error(t, err)
}

// Runs against a live database when WATCHER_TEST_PG_DSN is set.
func TestStateRoundTrip(t *testing.T) {
	dsn := os.Getenv("WATCHER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("WATCHER_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.EnsureSchema(ctx))

	name := "test:" + t.Name()
	require.NoError(t, store.SaveState(ctx, name, 100))
	require.NoError(t, store.SaveState(ctx, name, 150))

	watermark, ok, err := store.LoadState(ctx, name)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(150), watermark)

	_, ok, err = store.LoadState(ctx, "missing:"+t.Name())
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = store.LoadState(ctx, "")
	assert.Error(t, err)
}
