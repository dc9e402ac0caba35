package kv

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/shashiranjanraj/mazraa/pkg/storage"
)

// Disk stores each document as <dir>/<key>.json on a storage disk.
// ":" in keys becomes a path separator, so "cart:abc" is kv/cart/abc.json.
type Disk struct {
	disk storage.Disk
	dir  string
}

func NewDisk(d storage.Disk, dir string) *Disk {
	return &Disk{disk: d, dir: dir}
}

func (d *Disk) file(key string) string {
	return path.Join(d.dir, strings.ReplaceAll(key, ":", "/")+".json")
}

func (d *Disk) Get(_ context.Context, key string) ([]byte, error) {
	f := d.file(key)
	if d.disk.Missing(f) {
		return nil, ErrNotFound
	}
	v, err := d.disk.Get(f)
	if err != nil {
		return nil, fmt.Errorf("kv/disk: %w", err)
	}
	return v, nil
}

func (d *Disk) Set(_ context.Context, key string, value []byte) error {
	if err := d.disk.Put(d.file(key), value); err != nil {
		return fmt.Errorf("kv/disk: %w", err)
	}
	return nil
}

func (d *Disk) Delete(_ context.Context, key string) error {
	if err := d.disk.Delete(d.file(key)); err != nil {
		return fmt.Errorf("kv/disk: %w", err)
	}
	return nil
}

func (d *Disk) Close() error { return nil }
