package kv

import (
	"fmt"

	"github.com/shashiranjanraj/mazraa/config"
	"github.com/shashiranjanraj/mazraa/pkg/cache"
	"github.com/shashiranjanraj/mazraa/pkg/database"
	"github.com/shashiranjanraj/mazraa/pkg/storage"
)

// Open returns the driver named by STORE_DRIVER. The redis and database
// drivers expect pkg/cache and pkg/database to be connected already.
func Open(driver string) (Store, error) {
	var s Store
	switch driver {
	case "", "memory":
		driver = "memory"
		s = NewMemory()
	case "redis":
		if cache.RDB == nil {
			return nil, fmt.Errorf("kv: redis driver selected but redis is not connected")
		}
		s = NewRedis(cache.RDB, "mazraa:kv:")
	case "database":
		if database.DB == nil {
			return nil, fmt.Errorf("kv: database driver selected but the database is not connected")
		}
		s = NewDatabase(database.DB)
	case "disk":
		d, err := storage.Lookup(config.StorageDefault())
		if err != nil {
			return nil, fmt.Errorf("kv: %w", err)
		}
		s = NewDisk(d, "kv")
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", driver)
	}
	return Instrument(driver, s), nil
}
