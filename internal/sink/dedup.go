package sink

import (
	"context"
	"sync"

	"contractwatch/internal/model"
)

// Dedup drops events already forwarded, keyed by block, tx hash and log
// index. Keys below the committed watermark can no longer be re-delivered
// and are pruned. Keys added during a faulted cycle are forgotten so the
// retry forwards them again.
type Dedup struct {
	next Sink

	mu      sync.Mutex
	seen    map[string]uint64
	pending []string
}

func NewDedup(next Sink) *Dedup {
	return &Dedup{next: next, seen: make(map[string]uint64)}
}

func (d *Dedup) Emit(ctx context.Context, ev model.Event) error {
	log := ev.RawLog()
	key := model.Key(log)

	d.mu.Lock()
	_, dup := d.seen[key]
	d.mu.Unlock()
	if dup {
		return nil
	}

	if err := d.next.Emit(ctx, ev); err != nil {
		return err
	}

	d.mu.Lock()
	d.seen[key] = log.BlockNumber
	d.pending = append(d.pending, key)
	d.mu.Unlock()
	return nil
}

func (d *Dedup) Fault(err error) {
	d.mu.Lock()
	for _, key := range d.pending {
		delete(d.seen, key)
	}
	d.pending = nil
	d.mu.Unlock()

	d.next.Fault(err)
}

func (d *Dedup) Committed(watermark uint64) error {
	if c, ok := d.next.(Committer); ok {
		if err := c.Committed(watermark); err != nil {
			return err
		}
	}

	d.mu.Lock()
	d.pending = nil
	for key, block := range d.seen {
		if block < watermark {
			delete(d.seen, key)
		}
	}
	d.mu.Unlock()
	return nil
}

// Len returns the number of remembered keys.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
