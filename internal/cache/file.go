package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore persists one record file per cache key under a dedicated
// directory. Records survive process restarts; a corrupted file is deleted
// on the next read and treated as a miss.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates (if needed) the cache directory and returns a store
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// path maps a cache key to its record file. The key is hashed so no key
// character can collide with or escape the directory layout.
func (fs *FileStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(fs.dir, hex.EncodeToString(sum[:])+".json")
}

// Get reads the record for key. Missing, unreadable, or corrupted records
// all report a miss; corrupted ones are deleted so they cannot poison later
// reads.
func (fs *FileStore) Get(ctx context.Context, key string) (Entry, bool) {
	path := fs.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[cache] unreadable cache record for %q: %v", key, err)
		}
		return Entry{}, false
	}

	entry, ok := decodeRecord(data, key)
	if !ok {
		log.Printf("[cache] deleting corrupted cache record for %q", key)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[cache] failed to delete corrupted record %s: %v", path, err)
		}
		return Entry{}, false
	}

	return entry, true
}

// Put serializes payload with the current timestamp, replacing any prior
// record for key. Write failures propagate to the caller.
func (fs *FileStore) Put(ctx context.Context, key string, payload []byte) error {
	data, err := encodeRecord(key, payload, fs.now())
	if err != nil {
		return fmt.Errorf("encoding cache record: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a truncated record
	// under the live name.
	path := fs.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing cache record: %w", err)
	}
	return nil
}

// Delete removes the records for the given keys. Missing records are not an
// error.
func (fs *FileStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(fs.path(key)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting cache record for %q: %w", key, err)
		}
	}
	return nil
}

// Sweep scans every record in the cache directory and deletes those older
// than ttl, plus any record it cannot decode. Housekeeping only: Get
// callers re-check freshness themselves.
func (fs *FileStore) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return 0, fmt.Errorf("scanning cache dir: %w", err)
	}

	removed := 0
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), ".json") {
			continue
		}
		path := filepath.Join(fs.dir, dirEntry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[cache] sweep: unreadable record %s: %v", path, err)
			continue
		}

		age, ok := recordAge(data, fs.now())
		if ok && age < ttl {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[cache] sweep: failed to delete %s: %v", path, err)
			continue
		}
		removed++
	}

	return removed, nil
}

// Close is a no-op for the file backend.
func (fs *FileStore) Close() error { return nil }
