// Package storage is the filesystem abstraction used for product photos and
// for the "disk" blob store driver.
//
// Drivers:
//   - "local"  local filesystem (default)
//   - "s3"     S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
//	storage.Connect()
//	disk, _ := storage.Lookup("s3")
//	_ = disk.Put("photos/abc.jpg", data)
//	url := disk.URL("photos/abc.jpg")
package storage

// Disk is the filesystem driver interface.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(path string, content []byte) error
	Get(path string) ([]byte, error)
	Exists(path string) bool
	Missing(path string) bool
	// URL returns the public URL for path.
	URL(path string) string
	// Delete removes a file. Returns nil if the file did not exist.
	Delete(path string) error
}
