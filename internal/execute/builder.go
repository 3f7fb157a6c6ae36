package execute

import (
	"fmt"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

// BuildCommand appends supplied parameter values to an invocation template
// as --flag arguments. Flag names swap underscores back to hyphens; every
// value is shell-escaped so it stays a single token no matter what it
// contains. Parameters without a supplied value are omitted; enforcing
// required parameters is the caller's job before this step.
func BuildCommand(template string, schema []skill.Parameter, values map[string]any) string {
	var sb strings.Builder
	sb.WriteString(template)

	for _, param := range schema {
		value, ok := values[param.Name]
		if !ok || value == nil {
			continue
		}
		flag := strings.ReplaceAll(param.Name, "_", "-")
		sb.WriteString(" --")
		sb.WriteString(flag)
		sb.WriteString(" ")
		sb.WriteString(shellescape.Quote(formatValue(value)))
	}

	return sb.String()
}

// formatValue renders a parameter value for the command line. JSON numbers
// arrive as float64; integral values must not grow a trailing ".0".
func formatValue(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%v", n)
	case float32:
		if n == float32(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%v", n)
	default:
		return fmt.Sprintf("%v", v)
	}
}
