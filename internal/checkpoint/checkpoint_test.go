package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &FileStore{Path: filepath.Join(t.TempDir(), "state", "checkpoint.json"), Name: "1:0xabc"}

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, 1200))
	require.NoError(t, store.Save(ctx, 1250))

	watermark, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(1250), watermark)

	_, err = os.Stat(store.Path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreRejectsForeignCheckpoint(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	require.NoError(t, (&FileStore{Path: path, Name: "1:0xabc"}).Save(ctx, 10))

	_, _, err := (&FileStore{Path: path, Name: "1:0xdef"}).Load(ctx)
	assert.Error(t, err)
}

func TestFileStoreInvalidContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := (&FileStore{Path: path}).Load(context.Background())
	assert.Error(t, err)

	_, _, err = (&FileStore{Path: dir}).Load(context.Background())
	assert.Error(t, err)
}

func TestNilStoresAreNoop(t *testing.T) {
	ctx := context.Background()
	var file *FileStore
	var db *DBStore

	_, ok, err := file.Load(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, file.Save(ctx, 1))

	_, ok, err = db.Load(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, db.Save(ctx, 1))
}
