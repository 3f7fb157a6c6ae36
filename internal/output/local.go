package output

import (
	"context"
	"path/filepath"

	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

// LocalHandler returns output files as file:// URLs without moving them.
// Suitable for local development or stdio deployments where the client can
// read the filesystem directly.
type LocalHandler struct{}

// NewLocalHandler creates a LocalHandler.
func NewLocalHandler() *LocalHandler {
	return &LocalHandler{}
}

// Process implements Handler.
func (h *LocalHandler) Process(_ context.Context, filePaths []string, _, _ string) []skill.ProcessedOutput {
	results := make([]skill.ProcessedOutput, 0, len(filePaths))
	for _, p := range filePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		results = append(results, skill.ProcessedOutput{
			Filename:  filepath.Base(p),
			LocalPath: p,
			URL:       "file://" + abs,
		})
	}
	return results
}
