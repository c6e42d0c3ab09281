// Package cache implements the content cache and the shared resource cache
// that compile jobs read through.
package cache

import (
	"io"
	"os"
	"sync"

	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ContentCache = (*ContentCache)(nil)

// ContentCache memoizes file contents by path. Every lookup stats the file,
// so an entry is returned only while its mtime and size are unchanged.
type ContentCache struct {
	mu      sync.RWMutex
	entries map[domain.InternedString]ports.CacheEntry
	hasher  ports.Hasher
	metrics ports.MetricsRecorder
}

// NewContentCache creates an empty cache. metrics may be nil.
func NewContentCache(hasher ports.Hasher, metrics ports.MetricsRecorder) *ContentCache {
	return &ContentCache{
		entries: make(map[domain.InternedString]ports.CacheEntry),
		hasher:  hasher,
		metrics: metrics,
	}
}

// GetOrLoad returns the cached entry for path, reloading it when the file
// changed on disk.
func (c *ContentCache) GetOrLoad(path string) (ports.CacheEntry, error) {
	key := domain.NewPath(path)
	path = key.String()

	// The stat is taken before the read: a write racing the read leaves an
	// entry whose fingerprint is already stale, never the reverse.
	info, err := os.Stat(path)
	if err != nil {
		return ports.CacheEntry{}, domain.NewIOError(path, zerr.Wrap(err, "failed to stat file"))
	}
	if info.IsDir() {
		return ports.CacheEntry{}, domain.NewIOError(path, zerr.New("is a directory"))
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && entry.Fingerprint.SameStat(info.ModTime(), info.Size()) {
		c.count(true)
		return entry, nil
	}
	c.count(false)

	data, err := readFile(path)
	if err != nil {
		return ports.CacheEntry{}, domain.NewIOError(path, err)
	}

	entry = ports.CacheEntry{
		Payload: data,
		Fingerprint: domain.Fingerprint{
			Hash:    c.hasher.HashBytes(data),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		},
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	return entry, nil
}

// Peek returns the stored fingerprint of path without touching the disk.
func (c *ContentCache) Peek(path string) (domain.Fingerprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[domain.NewPath(path)]
	return entry.Fingerprint, ok
}

// Invalidate drops the entry for path.
func (c *ContentCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, domain.NewPath(path))
}

// Len returns the number of cached entries.
func (c *ContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ContentCache) count(hit bool) {
	if c.metrics != nil {
		c.metrics.IncCache(hit)
	}
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open file")
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read file")
	}
	return data, nil
}
