package storage

import "contractwatch/internal/model"

// Storage defines an append-only sink for event records.
type Storage interface {
	PutRecordBatch(records []model.Record) error
}
