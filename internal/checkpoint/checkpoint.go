// Package checkpoint persists the poll watermark so a restarted watcher
// resumes where it left off.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store loads and saves the watermark.
type Store interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, watermark uint64) error
}

// Checkpoint is the on-disk record.
type Checkpoint struct {
	Watermark uint64 `json:"watermark"`
	Name      string `json:"name,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// FileStore keeps the checkpoint in a local JSON file.
type FileStore struct {
	Path string
	Name string
}

func (s *FileStore) Load(context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}

	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return 0, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	if s.Name != "" && cp.Name != "" && cp.Name != s.Name {
		return 0, false, fmt.Errorf("checkpoint belongs to %s, not %s", cp.Name, s.Name)
	}

	return cp.Watermark, true, nil
}

func (s *FileStore) Save(_ context.Context, watermark uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}

	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	cp := Checkpoint{
		Watermark: watermark,
		Name:      s.Name,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := s.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}
