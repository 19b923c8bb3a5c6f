// Package store persists the analytics snapshot in a single key-value slot
// and recovers from absent, corrupt or unreachable storage.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rcliao/site-analytics/internal/model"
)

var (
	// ErrUnavailable means the backend could not be read or written.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded means a write was larger than the backend allows.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrCorrupt means a stored blob could not be decoded or failed validation.
	ErrCorrupt = errors.New("corrupt analytics blob")
	// ErrVersionMismatch means a blob carried an unknown schema version.
	ErrVersionMismatch = errors.New("analytics schema version mismatch")
)

// Backend is a persistent key-value slot store. Set must replace the whole
// value atomically; readers never observe a partial write.
type Backend interface {
	// Get returns the value stored under key. ok is false if nothing is stored.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Accessor loads and saves the analytics snapshot. None of its methods
// return storage errors: failures are logged at debug level and the store
// behaves as if it were empty.
type Accessor struct {
	backend Backend
	key     string
	logger  *slog.Logger
}

// NewAccessor wraps backend. An empty key means model.StorageKey, a nil
// logger discards.
func NewAccessor(backend Backend, key string, logger *slog.Logger) *Accessor {
	if key == "" {
		key = model.StorageKey
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Accessor{
		backend: backend,
		key:     key,
		logger:  logger.With(slog.String("component", "store")),
	}
}

// Backend returns the wrapped backend.
func (a *Accessor) Backend() Backend {
	return a.backend
}

// Key returns the slot key the snapshot lives under.
func (a *Accessor) Key() string {
	return a.key
}

// Load returns the stored snapshot, or an empty one if the blob is absent,
// corrupt or unreadable.
func (a *Accessor) Load(ctx context.Context) model.Snapshot {
	snap, _, _ := a.Inspect(ctx)
	return snap
}

// Inspect is Load with the blob classification exposed. The returned
// snapshot is always usable; err explains a StatusCorrupt result or a read
// failure.
func (a *Accessor) Inspect(ctx context.Context) (model.Snapshot, Status, error) {
	raw, ok, err := a.backend.Get(ctx, a.key)
	if err != nil {
		a.logger.Debug("load failed", slog.String("key", a.key), slog.Any("error", err))
		return model.Empty(), StatusAbsent, fmt.Errorf("load %s: %w", a.key, err)
	}
	if !ok {
		return model.Empty(), StatusAbsent, nil
	}

	snap, status, err := Decode(raw)
	if status == StatusCorrupt {
		a.logger.Debug("discarding stored blob", slog.String("key", a.key), slog.Any("error", err))
	}
	return snap, status, err
}

// Save overwrites the stored snapshot. Failures are dropped.
func (a *Accessor) Save(ctx context.Context, snap model.Snapshot) {
	data, err := Encode(snap)
	if err != nil {
		a.logger.Debug("encode failed", slog.Any("error", err))
		return
	}
	if err := a.backend.Set(ctx, a.key, data); err != nil {
		a.logger.Debug("save failed", slog.String("key", a.key), slog.Int("bytes", len(data)), slog.Any("error", err))
	}
}

// Clear deletes the stored snapshot. Failures are dropped.
func (a *Accessor) Clear(ctx context.Context) {
	if err := a.backend.Delete(ctx, a.key); err != nil {
		a.logger.Debug("clear failed", slog.String("key", a.key), slog.Any("error", err))
	}
}

// Put is Save for explicit user actions: it reports the failure instead of
// dropping it.
func (a *Accessor) Put(ctx context.Context, snap model.Snapshot) error {
	if err := Validate(snap); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := a.backend.Set(ctx, a.key, data); err != nil {
		return fmt.Errorf("save %s: %w", a.key, err)
	}
	return nil
}
