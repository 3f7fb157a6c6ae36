package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

const subcommandScript = `#!/bin/sh
if [ "$1" = "-h" ]; then
cat <<'HELP'
usage: tool.sh [-h] {greet,farewell} ...

positional arguments:
  {greet,farewell}
    greet        Greet someone
    farewell     Say goodbye

options:
  -h, --help     show this help message and exit
HELP
exit 0
fi
if [ "$1" = "greet" ]; then
cat <<'HELP'
usage: tool.sh greet [-h] --name NAME [--shout]

options:
  -h, --help   show this help message and exit
  --name NAME  Name to greet
  --shout      Shout the greeting
HELP
exit 0
fi
if [ "$1" = "farewell" ]; then
cat <<'HELP'
usage: tool.sh farewell [-h] [--name NAME]

options:
  -h, --help   show this help message and exit
  --name NAME  Name to bid farewell
HELP
exit 0
fi
exit 1
`

const flatScript = `#!/bin/sh
cat <<'HELP'
usage: flat.sh [-h] --input INPUT_FILE [--verbose]

options:
  -h, --help            show this help message and exit
  --input INPUT_FILE    Input file to process
  --verbose             Enable verbose output
HELP
`

func writeScript(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o755))
}

func TestDiscoverSubcommands(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "tool.sh", subcommandScript)

	engine := NewEngine()
	commands := engine.Discover(context.Background(), "sh tool.sh", dir)
	require.Len(t, commands, 2)

	greet, ok := commands["greet"]
	require.True(t, ok)
	assert.Equal(t, "Greet someone", greet.Description)
	assert.Equal(t, "sh tool.sh greet", greet.Template)
	require.Len(t, greet.Parameters, 2)

	byName := map[string]skill.Parameter{}
	for _, p := range greet.Parameters {
		byName[p.Name] = p
	}
	assert.True(t, byName["name"].Required)
	assert.Equal(t, skill.TypeBool, byName["shout"].Type)

	farewell := commands["farewell"]
	require.Len(t, farewell.Parameters, 1)
	assert.False(t, farewell.Parameters[0].Required)
}

func TestDiscoverSingleCommandScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "flat.sh", flatScript)

	engine := NewEngine()
	commands := engine.Discover(context.Background(), "sh flat.sh", dir)
	require.Len(t, commands, 1)

	def, ok := commands[skill.DefaultCommandName]
	require.True(t, ok)
	assert.Empty(t, def.Description)
	assert.Equal(t, "sh flat.sh", def.Template)
	require.Len(t, def.Parameters, 2)
}

func TestDiscoverIgnoresStderr(t *testing.T) {
	dir := t.TempDir()
	// Deprecation warnings and runner chatter on stderr can look like
	// option lines; only stdout feeds the parser.
	script := `#!/bin/sh
echo "  --bogus VALUE  DeprecationWarning: do not use" >&2
cat <<'HELP'
usage: noisy.sh [-h] [--name NAME]

options:
  -h, --help   show this help message and exit
  --name NAME  Name to greet
HELP
`
	writeScript(t, dir, "noisy.sh", script)

	commands := NewEngine().Discover(context.Background(), "sh noisy.sh", dir)
	require.Len(t, commands, 1)

	def := commands[skill.DefaultCommandName]
	require.Len(t, def.Parameters, 1)
	assert.Equal(t, "name", def.Parameters[0].Name)
}

func TestDiscoverRejectedEntryCommand(t *testing.T) {
	dir := t.TempDir()
	// Script does not exist; validation fails and discovery degrades to an
	// empty schema.
	commands := NewEngine().Discover(context.Background(), "sh missing.sh", dir)
	assert.Empty(t, commands)

	commands = NewEngine().Discover(context.Background(), "rm -rf /", dir)
	assert.Empty(t, commands)
}

func TestDiscoverHelpFailure(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.sh", "#!/bin/sh\nexit 2\n")

	commands := NewEngine().Discover(context.Background(), "sh broken.sh", dir)
	assert.Empty(t, commands)
}

func TestDiscoverTimeout(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "slow.sh", "#!/bin/sh\nsleep 5\n")

	engine := NewEngine(WithTimeout(100 * time.Millisecond))
	start := time.Now()
	commands := engine.Discover(context.Background(), "sh slow.sh", dir)
	assert.Empty(t, commands)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestDiscoverDropsFailingSubcommand(t *testing.T) {
	dir := t.TempDir()
	script := `#!/bin/sh
if [ "$1" = "-h" ]; then
cat <<'HELP'
usage: partial.sh [-h] {ok,bad} ...

positional arguments:
  {ok,bad}
    ok         Works fine
    bad        Always fails

options:
  -h, --help   show this help message and exit
HELP
exit 0
fi
if [ "$1" = "ok" ]; then
  echo "usage: partial.sh ok [-h]"
  exit 0
fi
exit 1
`
	writeScript(t, dir, "partial.sh", script)

	commands := NewEngine().Discover(context.Background(), "sh partial.sh", dir)
	require.Len(t, commands, 1)
	_, ok := commands["ok"]
	assert.True(t, ok)
}

func TestDiscoverDropsTimedOutSubcommand(t *testing.T) {
	dir := t.TempDir()
	script := `#!/bin/sh
if [ "$1" = "-h" ]; then
cat <<'HELP'
usage: mixed.sh [-h] {fast,slow,steady} ...

positional arguments:
  {fast,slow,steady}
    fast       Returns immediately
    slow       Hangs
    steady     Returns immediately

options:
  -h, --help   show this help message and exit
HELP
exit 0
fi
if [ "$1" = "slow" ]; then
  sleep 5
  exit 0
fi
echo "usage: mixed.sh $1 [-h] [--name NAME]"
echo ""
echo "options:"
echo "  --name NAME  A name"
exit 0
`
	writeScript(t, dir, "mixed.sh", script)

	engine := NewEngine(WithTimeout(200 * time.Millisecond))
	start := time.Now()
	commands := engine.Discover(context.Background(), "sh mixed.sh", dir)
	assert.Less(t, time.Since(start), 3*time.Second)

	// The hanging subcommand is omitted; the others still get schemas.
	require.Len(t, commands, 2)
	_, ok := commands["slow"]
	assert.False(t, ok)
	for _, name := range []string{"fast", "steady"} {
		cmd, ok := commands[name]
		require.True(t, ok)
		require.Len(t, cmd.Parameters, 1)
		assert.Equal(t, "name", cmd.Parameters[0].Name)
	}
}
