package output

import (
	"context"

	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

// Handler processes output files from a skill execution. Implementations
// decide what "processing" means: returning local paths, uploading to
// remote storage, copying to a shared location.
//
// A handler must be total over its input: a file that fails to process is
// still returned, without a URL, so callers always see one ProcessedOutput
// per input path.
type Handler interface {
	Process(ctx context.Context, filePaths []string, skillName, skillDir string) []skill.ProcessedOutput
}
