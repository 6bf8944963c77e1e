package model

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogRecord(t *testing.T) {
	log := types.Log{
		Address:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Topics:      []common.Hash{common.HexToHash("0xaaa"), common.HexToHash("0xbbb")},
		Data:        []byte{0xde, 0xad, 0xbe, 0xef},
		BlockNumber: 36000000,
		TxHash:      common.HexToHash("0xdef456"),
		TxIndex:     7,
		BlockHash:   common.HexToHash("0xabc123"),
		Index:       12,
	}

	record := NewLogRecord(log)

	assert.Equal(t, uint64(36000000), record.BlockNumber)
	assert.Equal(t, uint64(7), record.TxIndex)
	assert.Equal(t, uint64(12), record.LogIndex)
	assert.Equal(t, "0xdeadbeef", record.Data)
	assert.Equal(t, log.Address.Hex(), record.Address)
	require.Len(t, record.Topics, 2)
	assert.Equal(t, common.HexToHash("0xaaa").Hex(), record.Topic0())
}

func TestLogRecordJSONFieldNames(t *testing.T) {
	record := NewLogRecord(types.Log{BlockNumber: 5, Index: 2})

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))

	for _, key := range []string{"block_number", "block_hash", "tx_hash", "log_index", "address", "topics", "data"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "", NewLogRecord(types.Log{}).Topic0())
}
