package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadCachePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	cache := NewUploadCache(path)
	require.NoError(t, cache.Load(), "missing file is not an error")
	require.NoError(t, cache.Put("key1", "https://example.com/a"))
	require.NoError(t, cache.Put("key2", "https://example.com/b"))

	reloaded := NewUploadCache(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 2, reloaded.Len())
	url, ok := reloaded.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/a", url)
}

func TestUploadCacheCorruptFileResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	cache := NewUploadCache(path)
	require.NoError(t, cache.Load())
	assert.Equal(t, 0, cache.Len())
}

func TestUploadCacheInMemory(t *testing.T) {
	cache := NewUploadCache("")
	require.NoError(t, cache.Load())
	require.NoError(t, cache.Put("k", "v"))
	url, ok := cache.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", url)
	assert.NoError(t, cache.Save())
}
