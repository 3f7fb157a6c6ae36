package skill

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnManifestChange(t *testing.T) {
	base := t.TempDir()
	writeSkill(t, base, "existing", "existing")

	loader := NewLoader(base)
	loader.DiscoverSkills()
	require.Equal(t, 1, loader.Len())

	w, err := NewWatcher(loader)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	// A new skill directory with a manifest should be picked up.
	dir := filepath.Join(base, "added")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := "---\nname: added\ndescription: added skill\nentry: python3 run.py\n---\n\nDocs.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644))

	assert.Eventually(t, func() bool {
		_, ok := loader.Get("added")
		return ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	base := t.TempDir()
	writeSkill(t, base, "only", "only")

	loader := NewLoader(base)
	loader.DiscoverSkills()

	w, err := NewWatcher(loader)
	require.NoError(t, err)
	w.Start()

	require.NoError(t, os.WriteFile(filepath.Join(base, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(800 * time.Millisecond)
	assert.Equal(t, 1, loader.Len())

	assert.NoError(t, w.Stop())
}

func TestWatcherStopIdempotentBeforeStart(t *testing.T) {
	base := t.TempDir()
	loader := NewLoader(base)
	w, err := NewWatcher(loader)
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}
