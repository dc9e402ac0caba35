package storage

import (
	"fmt"
	"sync"

	"github.com/shashiranjanraj/mazraa/config"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
)

var (
	managerMu sync.RWMutex
	disks     = map[string]Disk{}
)

// Connect boots the local disk, and the s3 disk when a bucket is configured.
func Connect() {
	RegisterDisk("local", NewLocalDisk(config.StorageLocalRoot(), config.StorageURL()))

	if config.StorageS3Bucket() == "" {
		return
	}
	d, err := newS3Disk()
	if err != nil {
		logger.Warn("storage: s3 disk disabled", "error", err)
		return
	}
	RegisterDisk("s3", d)
}

// Lookup returns the named disk.
func Lookup(name string) (Disk, error) {
	managerMu.RLock()
	d, ok := disks[name]
	managerMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the disk named by STORAGE_DISK.
func Default() (Disk, error) {
	return Lookup(config.StorageDefault())
}

// RegisterDisk plugs a Disk in under name, replacing any previous one.
func RegisterDisk(name string, d Disk) {
	managerMu.Lock()
	disks[name] = d
	managerMu.Unlock()
}
