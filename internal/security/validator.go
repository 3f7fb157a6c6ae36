// Package security validates entry commands before any process is spawned.
//
// Entry commands come from skill manifests and are executed through a shell,
// so every execution and every discovery run must pass through
// ValidateEntryCommand first. Discovery and execution do not trust each
// other's prior checks.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// AllowedRuntimes is the fixed allow-list of interpreter and runtime
// prefixes an entry command may start with.
var AllowedRuntimes = []string{
	"python3 ",
	"python ",
	"uv run ",
	"node ",
	"bash ",
	"sh ",
	"./",
}

// ScriptExtensions are the file extensions recognized as script files when
// locating the script token of an entry command.
var ScriptExtensions = []string{".py", ".sh", ".js"}

// SecurityError reports a rejected entry command. The Reason is stable and
// caller-facing; it is never recovered from.
type SecurityError struct {
	Reason string
	Detail string
}

func (e *SecurityError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Detail
}

// Stable rejection reasons, one per validation step.
const (
	ReasonDisallowedRuntime = "entry command must start with allowed runtime"
	ReasonUnparseable       = "entry command could not be parsed"
	ReasonAbsolutePath      = "absolute paths not allowed"
	ReasonEscapesSandbox    = "script escapes skill directory"
	ReasonScriptNotFound    = "script not found"
)

// Tokenize splits a command line into tokens respecting shell quoting
// rules. Tokens from every simple command in the line are returned, so
// pipelines and compound commands contribute all their words.
func Tokenize(command string) ([]string, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}

	var tokens []string
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok {
			for _, arg := range call.Args {
				if s := wordToString(arg); s != "" {
					tokens = append(tokens, s)
				}
			}
		}
		return true
	})

	return tokens, nil
}

// wordToString flattens a shell word to its literal text.
func wordToString(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				if lit, ok := qp.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		case *syntax.ParamExp:
			sb.WriteString("$" + p.Param.Value)
		case *syntax.CmdSubst:
			sb.WriteString("$()")
		}
	}
	return sb.String()
}

// ScriptToken returns the first token that looks like the script file of an
// entry command: a token ending in a known script extension or starting
// with "./". Empty if none is identifiable.
func ScriptToken(tokens []string) string {
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "./") {
			return tok
		}
		for _, ext := range ScriptExtensions {
			if strings.HasSuffix(tok, ext) {
				return tok
			}
		}
	}
	return ""
}

// ValidateEntryCommand verifies that an entry command is safe to execute
// inside skillDir. It checks, in order: the runtime allow-list, absolute
// path tokens, sandbox containment of the script path (after resolving
// traversal and symlinks), and script existence. If no script token can be
// identified, validation passes without a file-existence check; the caller
// may warn.
func ValidateEntryCommand(entryCommand, skillDir string) error {
	entry := strings.TrimSpace(entryCommand)

	allowed := false
	for _, runtime := range AllowedRuntimes {
		if strings.HasPrefix(entry, runtime) {
			allowed = true
			break
		}
	}
	if !allowed {
		return &SecurityError{
			Reason: ReasonDisallowedRuntime,
			Detail: fmt.Sprintf("%q (allowed: %s)", entry, strings.Join(AllowedRuntimes, " ")),
		}
	}

	tokens, err := Tokenize(entry)
	if err != nil {
		return &SecurityError{Reason: ReasonUnparseable, Detail: err.Error()}
	}

	for _, tok := range tokens {
		if filepath.IsAbs(tok) {
			return &SecurityError{Reason: ReasonAbsolutePath, Detail: tok}
		}
	}

	script := ScriptToken(tokens)
	if script == "" {
		return nil
	}

	baseDir, err := filepath.Abs(skillDir)
	if err != nil {
		return &SecurityError{Reason: ReasonEscapesSandbox, Detail: err.Error()}
	}
	if resolved, err := filepath.EvalSymlinks(baseDir); err == nil {
		baseDir = resolved
	}

	// Lexical containment first: catches plain ../ traversal even when the
	// target does not exist.
	scriptPath := filepath.Join(baseDir, script)
	if !isWithinDir(scriptPath, baseDir) {
		return &SecurityError{Reason: ReasonEscapesSandbox, Detail: script}
	}

	resolved, err := filepath.EvalSymlinks(scriptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &SecurityError{Reason: ReasonScriptNotFound, Detail: script}
		}
		return &SecurityError{Reason: ReasonScriptNotFound, Detail: err.Error()}
	}

	if !isWithinDir(resolved, baseDir) {
		return &SecurityError{Reason: ReasonEscapesSandbox, Detail: script}
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return &SecurityError{Reason: ReasonScriptNotFound, Detail: script}
	}

	return nil
}

// isWithinDir checks if path is dir or a descendant of dir.
func isWithinDir(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}
