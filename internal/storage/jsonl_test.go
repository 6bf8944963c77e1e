package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractwatch/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	store := NewJsonlStorage(path)

	require.NoError(t, store.PutRecordBatch([]model.Record{{Kind: model.KindDecoded, EventName: "Transfer"}}))
	require.NoError(t, store.PutRecordBatch(nil))
	require.NoError(t, store.PutRecordBatch([]model.Record{
		{Kind: model.KindUndecoded, Reason: "no watched event matches topic"},
		{Kind: model.KindDecoded, EventName: "Approval"},
	}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var got []model.Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		got = append(got, record)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, got, 3)
	assert.Equal(t, "Transfer", got[0].EventName)
	assert.Equal(t, model.KindUndecoded, got[1].Kind)
	assert.Equal(t, "Approval", got[2].EventName)
}
