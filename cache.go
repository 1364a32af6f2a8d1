package ddnsync

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
)

// NewFileCache returns a cache which stores the last synced address for record in dir.
// If dir is empty then os.TempDir is used.
//
// The file name is the hex MD5 digest of the record name.
// The digest only derives a stable, filesystem-safe key and is not an integrity check.
func NewFileCache(dir, record string) *FileCache {
	if dir == "" {
		dir = os.TempDir()
	}
	sum := md5.Sum([]byte(record))
	return &FileCache{path: filepath.Join(dir, hex.EncodeToString(sum[:]))}
}

// FileCache implements ddnsync.Cache with a single plain-text file.
type FileCache struct {
	path string
}

// Path is the location of the cache file.
func (c *FileCache) Path() string { return c.path }

// IsSame reports whether the cache holds addr.
// Any failure to read the file is treated as a miss.
func (c *FileCache) IsSame(addr netip.Addr) bool {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(b)) == addr.String()
}

// Write replaces the cached address with addr.
func (c *FileCache) Write(addr netip.Addr) error {
	if err := os.WriteFile(c.path, []byte(addr.String()), 0644); err != nil {
		return fmt.Errorf("error writing cache file: %w", err)
	}
	return nil
}

// NopCache never reports a match and discards writes.
type NopCache struct{}

func (NopCache) IsSame(netip.Addr) bool { return false }
func (NopCache) Write(netip.Addr) error { return nil }
