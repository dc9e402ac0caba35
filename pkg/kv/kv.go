// Package kv is the blob store behind every collection: JSON documents
// stored whole under fixed string keys.
//
// Drivers:
//   - "memory"   process-local map (tests, single-shot demos)
//   - "redis"    go-redis client from pkg/cache
//   - "database" kv_entries table through gorm (sqlite, postgres, mysql, sqlserver)
//   - "disk"     one JSON object per key on a pkg/storage disk (local or s3)
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/mazraa/pkg/metrics"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("kv: key not found")

// Store is the minimal blob store contract.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the document under key into dest.
// A missing key is not an error: found is false and dest is left untouched.
func GetJSON(ctx context.Context, s Store, key string, dest any) (found bool, err error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// Instrument wraps s so every call is observed in the store latency histogram.
func Instrument(driver string, s Store) Store {
	return &instrumented{driver: driver, next: s}
}

type instrumented struct {
	driver string
	next   Store
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	defer metrics.ObserveStoreOp(i.driver, "get", time.Now())
	return i.next.Get(ctx, key)
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte) error {
	defer metrics.ObserveStoreOp(i.driver, "set", time.Now())
	return i.next.Set(ctx, key, value)
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	defer metrics.ObserveStoreOp(i.driver, "delete", time.Now())
	return i.next.Delete(ctx, key)
}

func (i *instrumented) Close() error { return i.next.Close() }
