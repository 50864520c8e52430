package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ticktraq/field-service/internal/persistence"
)

// ErrCorruptSnapshot marks a stored value that could not be decoded.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// SnapshotRepository stores one JSON document of type T under a fixed key.
type SnapshotRepository[T any] struct {
	kv  persistence.KV
	key string
}

// NewSnapshotRepository builds a repository for key.
func NewSnapshotRepository[T any](kv persistence.KV, key string) *SnapshotRepository[T] {
	return &SnapshotRepository[T]{kv: kv, key: key}
}

// Key returns the storage key.
func (r *SnapshotRepository[T]) Key() string {
	return r.key
}

// Load decodes the stored snapshot. found is false when nothing is stored.
func (r *SnapshotRepository[T]) Load(ctx context.Context) (T, bool, error) {
	var snap T
	raw, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return snap, false, fmt.Errorf("read %s: %w", r.key, err)
	}
	if !found || len(raw) == 0 {
		return snap, false, nil
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, false, fmt.Errorf("decode %s: %w: %w", r.key, ErrCorruptSnapshot, err)
	}
	return snap, true, nil
}

// Save encodes and writes snap.
func (r *SnapshotRepository[T]) Save(ctx context.Context, snap T) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	if err := r.kv.Set(ctx, r.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", r.key, err)
	}
	return nil
}
