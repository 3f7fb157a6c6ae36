package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

func resetInitFlags() {
	initName = ""
	initDescription = ""
	initForce = false
}

func TestInitScaffoldsSkill(t *testing.T) {
	resetInitFlags()
	dir := filepath.Join(t.TempDir(), "my-skill")

	require.NoError(t, runInit(initCmd, []string{dir}))

	s, err := skill.Load(filepath.Join(dir, skill.ManifestName))
	require.NoError(t, err)
	assert.Equal(t, "my-skill", s.Name)
	assert.Equal(t, "python3 my_skill.py", s.EntryCommand)

	script, err := os.ReadFile(filepath.Join(dir, "my_skill.py"))
	require.NoError(t, err)
	assert.Contains(t, string(script), "argparse.ArgumentParser")

	_, err = os.Stat(filepath.Join(dir, "output", ".gitkeep"))
	assert.NoError(t, err)
}

func TestInitRefusesInitializedSkill(t *testing.T) {
	resetInitFlags()
	dir := filepath.Join(t.TempDir(), "done")
	require.NoError(t, runInit(initCmd, []string{dir}))

	err := runInit(initCmd, []string{dir})
	assert.Error(t, err, "re-init without --force must fail")
}

func TestInitConvertsDocumentationSkill(t *testing.T) {
	resetInitFlags()
	dir := filepath.Join(t.TempDir(), "docs-only")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := "---\nname: fancy-name\ndescription: existing description\n---\n\n# Existing Docs\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, skill.ManifestName), []byte(manifest), 0o644))

	require.NoError(t, runInit(initCmd, []string{dir}))

	s, err := skill.Load(filepath.Join(dir, skill.ManifestName))
	require.NoError(t, err)
	assert.Equal(t, "fancy-name", s.Name)
	assert.Equal(t, "existing description", s.Description)
	assert.Contains(t, s.Documentation, "# Existing Docs")
	assert.NotEmpty(t, s.EntryCommand)
}
