package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

const validateHelpScript = `#!/bin/sh
cat <<'HELP'
usage: run.sh [-h] [--name NAME]

options:
  -h, --help   show this help message and exit
  --name NAME  Name to use
HELP
`

func TestValidatePasses(t *testing.T) {
	dir := t.TempDir()
	manifest := "---\nname: ok\ndescription: works\nentry: sh run.sh\n---\n\nDocs.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, skill.ManifestName), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte(validateHelpScript), 0o755))

	assert.NoError(t, runValidate(validateCmd, []string{dir}))
}

func TestValidateFailsWithoutManifest(t *testing.T) {
	assert.Error(t, runValidate(validateCmd, []string{t.TempDir()}))
}

func TestValidateFailsOnMissingScript(t *testing.T) {
	dir := t.TempDir()
	manifest := "---\nname: bad\ndescription: broken\nentry: python3 missing.py\n---\n\nDocs.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, skill.ManifestName), []byte(manifest), 0o644))

	assert.Error(t, runValidate(validateCmd, []string{dir}))
}

func TestValidateFailsOnDisallowedRuntime(t *testing.T) {
	dir := t.TempDir()
	manifest := "---\nname: bad\ndescription: broken\nentry: perl run.pl\n---\n\nDocs.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, skill.ManifestName), []byte(manifest), 0o644))

	assert.Error(t, runValidate(validateCmd, []string{dir}))
}
