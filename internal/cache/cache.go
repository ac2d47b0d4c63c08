// Package cache provides in-memory caching for the upstream archive and for
// rendered ruleset results.
package cache

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ArchiveCache holds the upstream domain-list archive bytes together with
// the ETag they were downloaded under. It can persist itself to disk so a
// fetch survives process restarts.
type ArchiveCache struct {
	mu          sync.RWMutex
	data        []byte
	reader      *zip.Reader
	etag        string
	fetchedAt   time.Time
	persistPath string
}

func NewArchiveCache() *ArchiveCache {
	return &ArchiveCache{}
}

// SetPersistPath enables on-disk persistence for the archive cache.
func (c *ArchiveCache) SetPersistPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persistPath = path
}

// Get returns the cached zip.Reader and its ETag, if any.
func (c *ArchiveCache) Get() (*zip.Reader, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.reader == nil {
		return nil, "", false
	}
	return c.reader, c.etag, true
}

// ETag returns the ETag of the cached archive, empty when nothing is cached.
func (c *ArchiveCache) ETag() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.etag
}

// Set replaces the cached archive, verifying the bytes parse as a ZIP, and
// persists to disk when a persist path is configured.
func (c *ArchiveCache) Set(data []byte, etag string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	c.reader = reader
	c.etag = etag
	c.fetchedAt = time.Now()
	if c.persistPath == "" {
		return nil
	}
	return c.persistLocked()
}

type archivePersist struct {
	Data      []byte
	ETag      string
	FetchedAt time.Time
}

// LoadFromFile restores a persisted archive from disk.
func (c *ArchiveCache) LoadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var persisted archivePersist
	if err := gob.NewDecoder(file).Decode(&persisted); err != nil {
		return err
	}
	reader, err := zip.NewReader(bytes.NewReader(persisted.Data), int64(len(persisted.Data)))
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = persisted.Data
	c.reader = reader
	c.etag = persisted.ETag
	c.fetchedAt = persisted.FetchedAt
	c.persistPath = path
	return nil
}

func (c *ArchiveCache) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(c.persistPath), 0o755); err != nil {
		return err
	}

	tmpPath := c.persistPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(file).Encode(archivePersist{
		Data:      c.data,
		ETag:      c.etag,
		FetchedAt: c.fetchedAt,
	})
	closeErr := file.Close()
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	return os.Rename(tmpPath, c.persistPath)
}

// ResultCache caches rendered ruleset text keyed by request and archive
// ETag, so a result is reused only while the upstream it was built from is
// current.
type ResultCache struct {
	mu      sync.RWMutex
	results map[string]*resultEntry
	ttl     time.Duration
}

type resultEntry struct {
	value     string
	etag      string
	timestamp time.Time
}

func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		results: make(map[string]*resultEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached result if its ETag matches and it has not expired.
func (c *ResultCache) Get(key, etag string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.results[key]
	if !ok {
		return "", false
	}
	if entry.etag != etag || time.Since(entry.timestamp) > c.ttl {
		return "", false
	}
	return entry.value, true
}

// Set stores a rendered result under the given key and archive ETag.
func (c *ResultCache) Set(key, value, etag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = &resultEntry{
		value:     value,
		etag:      etag,
		timestamp: time.Now(),
	}
}

// Cleanup removes expired entries.
func (c *ResultCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.results {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.results, key)
		}
	}
}
