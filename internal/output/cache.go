package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// UploadCache maps content hashes of previously uploaded files to their
// remote URLs, persisted as JSON. It is an explicit dependency of the
// upload handler, constructed by the caller; there is no process-global
// cache.
type UploadCache struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

// NewUploadCache creates a cache persisted at path. An empty path yields an
// in-memory cache that is never saved.
func NewUploadCache(path string) *UploadCache {
	return &UploadCache{
		path:    path,
		entries: map[string]string{},
	}
}

// Load reads the cache file. A missing file is not an error; a corrupt file
// resets the cache to empty.
func (c *UploadCache) Load() error {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read upload cache: %w", err)
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		c.mu.Lock()
		c.entries = map[string]string{}
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Get returns the cached URL for a content key.
func (c *UploadCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.entries[key]
	return url, ok
}

// Put records a key/URL pair and persists the cache.
func (c *UploadCache) Put(key, url string) error {
	c.mu.Lock()
	c.entries[key] = url
	c.mu.Unlock()
	return c.Save()
}

// Save writes the cache atomically: marshal to a temp file in the same
// directory, then rename over the target.
func (c *UploadCache) Save() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal upload cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename cache: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *UploadCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
