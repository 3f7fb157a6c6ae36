package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionResultToMap(t *testing.T) {
	r := &ExecutionResult{
		ExecutionID: "01J0000000000000000000AAAA",
		Success:     true,
		Stdout:      "out",
		Stderr:      "",
		ReturnCode:  0,
		OutputFiles: []string{"output/a.txt"},
	}

	m := r.ToMap()
	assert.Equal(t, true, m["success"])
	assert.Equal(t, "out", m["stdout"])
	assert.Equal(t, 0, m["return_code"])
	assert.Equal(t, []string{"output/a.txt"}, m["output_files"])
	_, hasProcessed := m["processed_outputs"]
	assert.False(t, hasProcessed, "processed_outputs omitted when empty")
}

func TestExecutionResultToMapProcessed(t *testing.T) {
	r := &ExecutionResult{
		Success: true,
		ProcessedOutputs: []ProcessedOutput{
			{Filename: "a.txt", URL: "file:///a.txt"},
			{Filename: "b.txt", Metadata: map[string]any{"error": "upload failed"}},
		},
	}

	m := r.ToMap()
	processed := m["processed_outputs"].([]map[string]any)
	assert.Len(t, processed, 2)
	assert.Equal(t, "file:///a.txt", processed[0]["url"])
	_, hasURL := processed[1]["url"]
	assert.False(t, hasURL)
	assert.Equal(t, map[string]any{"error": "upload failed"}, processed[1]["metadata"])
}
