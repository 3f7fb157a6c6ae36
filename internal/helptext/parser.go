// Package helptext infers command schemas from a script's --help output.
//
// The extraction targets the common argparse-style layout (a "usage:" line,
// a "positional arguments" section, an options list). It is a best-effort
// heuristic, not a grammar: help text that deviates from the convention
// degrades to an empty schema rather than an error.
package helptext

import (
	"regexp"
	"strings"

	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

var (
	choiceListRe = regexp.MustCompile(`\{([^}]+)\}`)
	subcommandRe = regexp.MustCompile(`^\s{4,}(\S+)\s{2,}(.+)`)

	// Bracketed long-flag groups in a usage synopsis mark optional flags;
	// whatever --flag tokens survive the strip are treated as required.
	optionalGroupRe = regexp.MustCompile(`\[--[\w-]+(?:\s+[A-Z_]+)?\]`)
	flagTokenRe     = regexp.MustCompile(`--?([\w-]+)`)

	optionLineRe   = regexp.MustCompile(`^\s+(?:-\w,\s+)?--?([\w-]+)(?:\s+([A-Z_]+))?(?:\s|$)`)
	sameLineDescRe = regexp.MustCompile(`--[\w-]+(?:\s+[A-Z_]+)?\s{2,}(.+)`)
	requiredTagRe  = regexp.MustCompile(`(?i)\(required\)`)
)

// continuationIndent is the minimum indentation of wrapped option
// descriptions in argparse output.
const continuationIndent = "          "

// ParseSubcommands extracts subcommand names and descriptions from a help
// text. It looks for a "positional arguments" section, skips to the
// brace-delimited choice list ({a,b,c}), and captures the indented
// name/description lines that follow. No subcommands means the script is a
// single-command script.
func ParseSubcommands(helpText string) map[string]string {
	subcommands := make(map[string]string)

	inPositional := false
	foundChoices := false

	for _, line := range strings.Split(helpText, "\n") {
		if strings.Contains(strings.ToLower(line), "positional arguments:") {
			inPositional = true
			continue
		}

		if inPositional && line != "" && !strings.HasPrefix(line, " ") {
			break
		}

		if inPositional && !foundChoices {
			if choiceListRe.MatchString(line) {
				foundChoices = true
			}
			continue
		}

		if inPositional && foundChoices {
			if m := subcommandRe.FindStringSubmatch(line); m != nil {
				subcommands[m[1]] = strings.TrimSpace(m[2])
			}
		}
	}

	return subcommands
}

// InferType infers a parameter's primitive type from its placeholder token
// (metavar) and description. First matching rule wins:
//
//	no metavar                                     -> bool (bare flag)
//	metavar contains year/count/num/id/port/size   -> int
//	metavar contains file/path/name/dir/url/string -> string
//	description contains integer/number            -> int
//	description contains float/decimal             -> float
//	description contains true/false/enable/disable -> bool
//	otherwise                                      -> string
//
// This is a best-effort heuristic; consumers must tolerate misclassification.
func InferType(metavar, description string) skill.ParamType {
	if metavar == "" {
		return skill.TypeBool
	}

	mv := strings.ToLower(metavar)
	desc := strings.ToLower(description)

	if containsAny(mv, "year", "count", "num", "id", "port", "size") {
		return skill.TypeInt
	}
	if containsAny(mv, "file", "path", "name", "dir", "url", "string") {
		return skill.TypeString
	}
	if containsAny(desc, "integer", "number") {
		return skill.TypeInt
	}
	if containsAny(desc, "float", "decimal") {
		return skill.TypeFloat
	}
	if containsAny(desc, "true", "false", "enable", "disable") {
		return skill.TypeBool
	}

	return skill.TypeString
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ParseParameters extracts parameter declarations from a help text.
//
// The usage line determines which flags are required: optional flags appear
// inside [...] groups, so stripping those groups and harvesting the
// remaining --flag tokens yields the required set. The heuristic is known to
// misfire on nested brackets and mutually-exclusive groups; schema consumers
// depend on that exact behavior, so it is preserved as-is.
//
// Each option line yields a parameter with a normalized name (hyphens to
// underscores, help/h excluded), an optional metavar, and a description
// taken from the same line (after two or more spaces) or from continuation
// lines indented at least ten columns. A "(required)" substring in the
// description forces required and is stripped. Duplicates are dropped,
// first occurrence wins.
func ParseParameters(helpText string) []skill.Parameter {
	var parameters []skill.Parameter
	lines := strings.Split(helpText, "\n")

	requiredParams := make(map[string]bool)
	if len(lines) > 0 && strings.HasPrefix(lines[0], "usage:") {
		stripped := optionalGroupRe.ReplaceAllString(lines[0], "")
		for _, m := range flagTokenRe.FindAllStringSubmatch(stripped, -1) {
			name := strings.ReplaceAll(m[1], "-", "_")
			if name == "h" || name == "help" {
				continue
			}
			requiredParams[name] = true
		}
	}

	seen := make(map[string]bool)

	for i := 0; i < len(lines); i++ {
		m := optionLineRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		name := strings.ReplaceAll(m[1], "-", "_")
		metavar := m[2]

		if name == "help" || name == "h" {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		var description string
		if d := sameLineDescRe.FindStringSubmatch(lines[i]); d != nil {
			description = strings.TrimSpace(d[1])
		} else {
			j := i + 1
			var sb strings.Builder
			for j < len(lines) && strings.HasPrefix(lines[j], continuationIndent) {
				sb.WriteString(strings.TrimSpace(lines[j]))
				sb.WriteString(" ")
				j++
			}
			description = strings.TrimSpace(sb.String())
			i = j - 1
		}

		required := requiredParams[name]
		if requiredTagRe.MatchString(description) {
			required = true
			description = strings.TrimSpace(requiredTagRe.ReplaceAllString(description, ""))
		}

		parameters = append(parameters, skill.Parameter{
			Name:        name,
			Required:    required,
			Type:        InferType(metavar, description),
			Description: description,
		})
	}

	return parameters
}
