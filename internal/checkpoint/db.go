package checkpoint

import (
	"context"

	"contractwatch/internal/storage/postgres"
)

// DBStore keeps the watermark in the watcher_state table.
type DBStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBStore) Save(ctx context.Context, watermark uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, watermark)
}
