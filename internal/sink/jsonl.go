package sink

import (
	"context"
	"sync"
	"time"

	"contractwatch/internal/model"
	"contractwatch/internal/storage"
)

// JSONL buffers records for the running cycle and writes them once the
// cycle commits. A faulted cycle's records are discarded; the retry
// delivers them again.
type JSONL struct {
	store storage.Storage
	now   func() time.Time

	mu      sync.Mutex
	pending []model.Record
}

func NewJSONL(store storage.Storage) *JSONL {
	return &JSONL{store: store, now: time.Now}
}

func (j *JSONL) Emit(_ context.Context, ev model.Event) error {
	record := model.NewRecord(ev, j.now())
	j.mu.Lock()
	j.pending = append(j.pending, record)
	j.mu.Unlock()
	return nil
}

func (j *JSONL) Fault(error) {
	j.mu.Lock()
	j.pending = nil
	j.mu.Unlock()
}

func (j *JSONL) Committed(uint64) error {
	j.mu.Lock()
	pending := j.pending
	j.pending = nil
	j.mu.Unlock()

	return j.store.PutRecordBatch(pending)
}
