// Package store persists small JSON documents in a local key-value backend.
// Reads and writes never fail the caller: missing or corrupt data loads as
// the zero value and write failures are logged.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

var ErrNotFound = errors.New("key not found")

// KV is the backend the Adapter reads from and writes to.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Adapter struct {
	kv     KV
	logger *slog.Logger
}

func NewAdapter(kv KV, logger *slog.Logger) *Adapter {
	return &Adapter{
		kv:     kv,
		logger: logger,
	}
}

// Load returns the value stored under key. The second result is false when
// the key is absent, the backend fails, or the stored text does not parse;
// the returned value is then the zero value of T.
func Load[T any](ctx context.Context, a *Adapter, key string) (T, bool) {
	var zero T

	data, err := a.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return zero, false
	}
	if err != nil {
		a.logger.Warn("storage read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return zero, false
	}

	var v T
	if errUnmarshal := json.Unmarshal(data, &v); errUnmarshal != nil {
		a.logger.Warn("stored value is corrupt, ignoring it",
			slog.String("key", key),
			slog.String("error", errUnmarshal.Error()),
		)
		return zero, false
	}
	return v, true
}

// Save serializes value under key. It reports whether the write went
// through; on failure the previously stored value may be stale.
func (a *Adapter) Save(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		a.logger.Warn("storage write failed",
			slog.String("key", key),
			slog.String("error", fmt.Errorf("marshal value failed: %w", err).Error()),
		)
		return false
	}

	if errSet := a.kv.Set(ctx, key, data); errSet != nil {
		a.logger.Warn("storage write failed",
			slog.String("key", key),
			slog.String("error", errSet.Error()),
		)
		return false
	}
	return true
}

// Remove deletes key. A missing key is not a failure.
func (a *Adapter) Remove(ctx context.Context, key string) bool {
	err := a.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		a.logger.Warn("storage delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
