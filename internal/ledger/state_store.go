package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"poolLedger/internal/model"
)

// StateStore persists ledger snapshots between runs.
type StateStore interface {
	Load(ctx context.Context) (*Snapshot, bool, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// FileStateStore stores the snapshot in a local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	Snapshot  *Snapshot `json:"snapshot"`
	UpdatedAt string    `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (*Snapshot, bool, error) {
	if s == nil || s.Path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read state: %w", err)
	}

	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("parse state: %w", err)
	}
	if rec.Snapshot == nil {
		return nil, false, nil
	}
	return rec.Snapshot, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	rec := stateRecord{
		Snapshot:  snapshot,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// SnapshotBackend is a keyed blob store for serialized snapshots.
type SnapshotBackend interface {
	LoadSnapshot(ctx context.Context, name string) ([]byte, bool, error)
	SaveSnapshot(ctx context.Context, name string, cursor model.EventPosition, data []byte) error
}

// DBStateStore stores the snapshot through a database backend.
type DBStateStore struct {
	Backend SnapshotBackend
	Name    string
}

func (s *DBStateStore) Load(ctx context.Context) (*Snapshot, bool, error) {
	if s == nil || s.Backend == nil {
		return nil, false, nil
	}
	data, ok, err := s.Backend.LoadSnapshot(ctx, s.Name)
	if err != nil || !ok {
		return nil, false, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("parse state: %w", err)
	}
	return &snapshot, true, nil
}

func (s *DBStateStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if s == nil || s.Backend == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return s.Backend.SaveSnapshot(ctx, s.Name, snapshot.Cursor, data)
}
