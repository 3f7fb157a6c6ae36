package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcc-ne/mcp-skill-server/internal/discovery"
	"github.com/jcc-ne/mcp-skill-server/internal/execute"
	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

const greeterScript = `#!/bin/sh
if [ "$1" = "-h" ] || [ "$1" = "--help" ]; then
cat <<'HELP'
usage: greeter.sh [-h] [--name NAME]

options:
  -h, --help   show this help message and exit
  --name NAME  Name to greet
HELP
exit 0
fi
name=World
while [ $# -gt 0 ]; do
  case "$1" in
    --name) name="$2"; shift 2 ;;
    *) shift ;;
  esac
done
echo "Hello, $name!"
`

func newTestServer(t *testing.T, skills map[string]string, opts ...Option) *Server {
	t.Helper()
	base := t.TempDir()
	for name, script := range skills {
		dir := filepath.Join(base, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		manifest := "---\nname: " + name + "\ndescription: " + name + " skill\nentry: sh run.sh\n---\n\nDocs for " + name + ".\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, skill.ManifestName), []byte(manifest), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o755))
	}

	loader := skill.NewLoader(base)
	loader.DiscoverSkills()

	return New("0.0.1", loader, discovery.NewEngine(), execute.NewExecutor(), opts...)
}

// recordingHandler counts Process calls and remembers the last file set.
type recordingHandler struct {
	calls int
	paths []string
}

func (h *recordingHandler) Process(_ context.Context, filePaths []string, skillName, _ string) []skill.ProcessedOutput {
	h.calls++
	h.paths = filePaths
	outputs := make([]skill.ProcessedOutput, 0, len(filePaths))
	for _, p := range filePaths {
		outputs = append(outputs, skill.ProcessedOutput{
			Filename: filepath.Base(p),
			URL:      "recorded://" + skillName + "/" + filepath.Base(p),
		})
	}
	return outputs
}

func callText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return tc.Text
}

func request(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestListSkills(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"greeter": greeterScript,
		"other":   greeterScript,
	})

	result, err := srv.handleListSkills(context.Background(), request(nil))
	require.NoError(t, err)
	text := callText(t, result)

	assert.Contains(t, text, "Available skills (2):")
	assert.Contains(t, text, "- greeter: greeter skill")
	assert.Contains(t, text, "- other: other skill")
}

func TestGetSkill(t *testing.T) {
	srv := newTestServer(t, map[string]string{"greeter": greeterScript})

	result, err := srv.handleGetSkill(context.Background(), request(map[string]any{"skill_name": "greeter"}))
	require.NoError(t, err)
	text := callText(t, result)

	assert.Contains(t, text, "Skill: greeter")
	assert.Contains(t, text, "default:")
	assert.Contains(t, text, "--name [string] (optional): Name to greet")
	assert.Contains(t, text, "Docs for greeter.")
}

func TestGetSkillUnknownSuggests(t *testing.T) {
	srv := newTestServer(t, map[string]string{"greeter": greeterScript})

	result, err := srv.handleGetSkill(context.Background(), request(map[string]any{"skill_name": "greetr"}))
	require.NoError(t, err)
	text := callText(t, result)

	assert.Contains(t, text, "Skill 'greetr' not found")
	assert.Contains(t, text, "Available: [greeter]")
	assert.Contains(t, text, "Did you mean 'greeter'?")
}

func TestRunSkill(t *testing.T) {
	srv := newTestServer(t, map[string]string{"greeter": greeterScript})

	result, err := srv.handleRunSkill(context.Background(), request(map[string]any{
		"skill_name": "greeter",
		"parameters": map[string]any{"name": "alice"},
	}))
	require.NoError(t, err)
	text := callText(t, result)

	assert.Contains(t, text, "Status: SUCCESS")
	assert.Contains(t, text, "Hello, alice!")
}

const failingWriterScript = `#!/bin/sh
if [ "$1" = "-h" ] || [ "$1" = "--help" ]; then
  echo "usage: writer.sh [-h]"
  exit 0
fi
mkdir -p output
echo "partial" > output/report.csv
echo "something went wrong" >&2
exit 1
`

const writerScript = `#!/bin/sh
if [ "$1" = "-h" ] || [ "$1" = "--help" ]; then
  echo "usage: writer.sh [-h]"
  exit 0
fi
mkdir -p output
echo "done" > output/report.csv
`

func TestRunSkillFailureSkipsOutputHandler(t *testing.T) {
	handler := &recordingHandler{}
	srv := newTestServer(t, map[string]string{"writer": failingWriterScript},
		WithOutputHandler(handler))

	result, err := srv.handleRunSkill(context.Background(), request(map[string]any{
		"skill_name": "writer",
	}))
	require.NoError(t, err)
	text := callText(t, result)

	assert.Contains(t, text, "Status: FAILED")
	assert.Contains(t, text, "Return code: 1")
	// Files written before the failure stay unprocessed.
	assert.Zero(t, handler.calls)
	assert.NotContains(t, text, "recorded://")
}

func TestRunSkillSuccessProcessesOutputs(t *testing.T) {
	handler := &recordingHandler{}
	srv := newTestServer(t, map[string]string{"writer": writerScript},
		WithOutputHandler(handler))

	result, err := srv.handleRunSkill(context.Background(), request(map[string]any{
		"skill_name": "writer",
	}))
	require.NoError(t, err)
	text := callText(t, result)

	assert.Contains(t, text, "Status: SUCCESS")
	assert.Equal(t, 1, handler.calls)
	require.Len(t, handler.paths, 1)
	assert.Equal(t, "report.csv", filepath.Base(handler.paths[0]))
	assert.Contains(t, text, "recorded://writer/report.csv")
}

func TestRunSkillUnknownCommand(t *testing.T) {
	srv := newTestServer(t, map[string]string{"greeter": greeterScript})

	result, err := srv.handleRunSkill(context.Background(), request(map[string]any{
		"skill_name": "greeter",
		"command":    "bogus",
	}))
	require.NoError(t, err)
	text := callText(t, result)

	assert.Contains(t, text, "Error:")
	assert.Contains(t, text, `command "bogus" not found`)
}

func TestRefreshSkills(t *testing.T) {
	srv := newTestServer(t, map[string]string{"greeter": greeterScript})

	result, err := srv.handleRefreshSkills(context.Background(), request(nil))
	require.NoError(t, err)
	text := callText(t, result)

	assert.Contains(t, text, "Refreshed. Found 1 skills: [greeter]")
}

func TestToolPrefix(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.Equal(t, "list_skills", srv.toolName("list_skills"))

	srv.prefix = "coding"
	assert.Equal(t, "coding_list_skills", srv.toolName("list_skills"))
}
