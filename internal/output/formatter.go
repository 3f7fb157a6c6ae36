package output

import (
	"fmt"
	"strings"

	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

// ResponseFormatter renders an execution result for a tool response.
type ResponseFormatter interface {
	FormatExecutionResult(result *skill.ExecutionResult, s *skill.Skill, command string) string
}

// DefaultFormatter renders results as human-readable text with stdout,
// stderr, and output file sections.
type DefaultFormatter struct{}

// NewDefaultFormatter creates a DefaultFormatter.
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// FormatExecutionResult implements ResponseFormatter.
func (f *DefaultFormatter) FormatExecutionResult(result *skill.ExecutionResult, s *skill.Skill, command string) string {
	status := "FAILED"
	if result.Success {
		status = "SUCCESS"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Skill: %s\n", s.Name)
	fmt.Fprintf(&b, "Command: %s\n", command)
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Return code: %d\n", result.ReturnCode)
	fmt.Fprintf(&b, "\n--- stdout ---\n%s\n", result.Stdout)
	fmt.Fprintf(&b, "\n--- stderr ---\n%s\n", result.Stderr)

	if len(result.OutputFiles) > 0 {
		b.WriteString("\nOutput files:\n")
		for _, name := range result.OutputFiles {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}

	if len(result.ProcessedOutputs) > 0 {
		b.WriteString("\nProcessed outputs:\n")
		for _, po := range result.ProcessedOutputs {
			b.WriteString("  - " + po.Filename)
			if po.URL != "" {
				b.WriteString(" -> " + po.URL)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
