package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Bhati90/workw-sub001/config"
)

// ErrNoSnapshot means the backend has no saved snapshot yet; callers start
// from an empty roster
var ErrNoSnapshot = errors.New("no snapshot")

// SnapshotStore persists an opaque roster snapshot
type SnapshotStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// NewSnapshotStore builds the configured snapshot backend, or nil when
// snapshots are disabled
func NewSnapshotStore(cfg *config.Config) (SnapshotStore, error) {
	switch cfg.Snapshot.Backend {
	case "", "none":
		return nil, nil
	case "file":
		return &FileSnapshotStore{Path: cfg.Snapshot.Path}, nil
	case "minio":
		return NewObjectSnapshotStore(&cfg.Minio, cfg.Snapshot.ObjectName)
	}
	return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
}

// FileSnapshotStore keeps the snapshot in a local JSON file, written
// atomically with a .bak of the previous version
type FileSnapshotStore struct {
	Path string
}

func (f *FileSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (f *FileSnapshotStore) Save(ctx context.Context, data []byte) error {
	// Keep the previous snapshot as a backup
	if _, err := os.Stat(f.Path); err == nil {
		if err := os.Rename(f.Path, f.Path+".bak"); err != nil {
			slog.Warn("failed to create snapshot backup", "error", err)
		}
	}

	// Write to a temp file first, then rename into place
	tmpPath := f.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, f.Path)
}

// SaveRoster serializes the roster and writes it to the backend
func SaveRoster(ctx context.Context, store SnapshotStore, roster *RosterStore) error {
	if store == nil {
		return nil
	}

	data, err := json.MarshalIndent(roster.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := store.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadRoster restores the roster from the backend. A missing snapshot is
// not an error; the roster is left untouched.
func LoadRoster(ctx context.Context, store SnapshotStore, roster *RosterStore) error {
	if store == nil {
		return nil
	}

	data, err := store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap RosterSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	roster.Restore(snap)
	return nil
}
