package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scriplabs/scrip/internal/fileutil"
)

const (
	// cacheFilePermissions is the permission mode for cache files.
	cacheFilePermissions = 0o600

	// cacheDirPermissions is the permission mode for cache directories.
	cacheDirPermissions = 0o750
)

// ErrCorruptCache indicates the cache file is malformed JSON.
var ErrCorruptCache = errors.New("cache file is corrupted")

// FileStorage persists an address cache on the filesystem.
type FileStorage struct {
	path string
}

// NewFileStorage creates file-based cache storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Save writes the cache to the filesystem.
func (s *FileStorage) Save(cache *AddressCache) error {
	if err := os.MkdirAll(filepath.Dir(s.path), cacheDirPermissions); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	if err := fileutil.WriteAtomic(s.path, data, cacheFilePermissions); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Load reads the cache from the filesystem. A missing file yields an
// empty cache. A corrupt file is moved aside so the next Save starts
// clean, and the returned error wraps ErrCorruptCache while the cache
// itself is empty but usable.
func (s *FileStorage) Load() (*AddressCache, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return NewAddressCache(), nil
	}

	data, err := os.ReadFile(s.path) // #nosec G304 -- path is fixed at construction
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var cache AddressCache
	if err := json.Unmarshal(data, &cache); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			return NewAddressCache(), fmt.Errorf("%w: %w (also failed to move file: %w)", ErrCorruptCache, err, renameErr)
		}
		return NewAddressCache(), fmt.Errorf("%w: %w (moved to %s)", ErrCorruptCache, err, corruptPath)
	}

	if cache.Entries == nil {
		cache.Entries = make(map[string]Entry)
	}
	return &cache, nil
}

// Delete removes the cache file.
func (s *FileStorage) Delete() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// Exists reports whether the cache file exists.
func (s *FileStorage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the cache file path.
func (s *FileStorage) Path() string {
	return s.path
}
