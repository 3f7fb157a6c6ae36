package skill

// ProcessedOutput is the record an output handler produces for one output
// file (for example a local file:// reference or an upload URL).
type ProcessedOutput struct {
	Filename  string         `json:"filename"`
	LocalPath string         `json:"-"`
	URL       string         `json:"url,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ExecutionResult is the outcome of one skill execution. It is created once
// per execution and never mutated afterwards; ownership transfers to the
// caller. A non-zero exit code is represented here as Success=false, not as
// an error.
type ExecutionResult struct {
	ExecutionID      string            `json:"execution_id"`
	Success          bool              `json:"success"`
	Stdout           string            `json:"stdout"`
	Stderr           string            `json:"stderr"`
	ReturnCode       int               `json:"return_code"`
	OutputFiles      []string          `json:"output_files"` // relative to the skill directory
	NewFilePaths     []string          `json:"-"`            // absolute paths of the same files
	ProcessedOutputs []ProcessedOutput `json:"processed_outputs,omitempty"`
}

// ToMap converts the result to a plain structure for serialization.
func (r *ExecutionResult) ToMap() map[string]any {
	out := map[string]any{
		"success":      r.Success,
		"stdout":       r.Stdout,
		"stderr":       r.Stderr,
		"return_code":  r.ReturnCode,
		"output_files": r.OutputFiles,
	}
	if len(r.ProcessedOutputs) > 0 {
		processed := make([]map[string]any, 0, len(r.ProcessedOutputs))
		for _, po := range r.ProcessedOutputs {
			entry := map[string]any{"filename": po.Filename}
			if po.URL != "" {
				entry["url"] = po.URL
			}
			if po.Metadata != nil {
				entry["metadata"] = po.Metadata
			}
			processed = append(processed, entry)
		}
		out["processed_outputs"] = processed
	}
	return out
}
