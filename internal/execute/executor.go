package execute

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/jcc-ne/mcp-skill-server/internal/event"
	"github.com/jcc-ne/mcp-skill-server/internal/logging"
	"github.com/jcc-ne/mcp-skill-server/internal/security"
	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

// OutputDirName is the directory, relative to a skill's root, that is
// watched for newly produced files.
const OutputDirName = "output"

// outputMarkerRe matches the inline fallback marker a script may print to
// report an output file when the directory diff finds nothing.
var outputMarkerRe = regexp.MustCompile(`OUTPUT_FILE:(.+)`)

// Executor runs skill commands. It validates the entry command, builds the
// shell line, spawns the process inside the skill directory, and reconciles
// output files afterwards. Execution is not time-bounded here; cancellation
// is delegated to the caller through ctx.
//
// Concurrent executions of the same skill directory race on the output
// directory diff: a file created by a parallel run may be misattributed.
// The executor does not serialize executions and must not be assumed to.
type Executor struct {
	bus    *event.Bus
	logger zerolog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithBus attaches an event bus; execution lifecycle events are published
// on it.
func WithBus(bus *event.Bus) ExecutorOption {
	return func(e *Executor) { e.bus = bus }
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{logger: logging.Component("executor")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one command of a skill with the supplied parameter values.
// It fails fast with an InvocationError for an unknown command or a missing
// required parameter, and with a SecurityError when the entry command does
// not pass validation. A non-zero exit code is not an error: it comes back
// as Success=false with the captured output.
func (e *Executor) Execute(ctx context.Context, s *skill.Skill, commandName string, parameters map[string]any) (*skill.ExecutionResult, error) {
	cmd, ok := s.Command(commandName)
	if !ok {
		return nil, unknownCommandError(commandName, s.CommandNames())
	}

	var missing []string
	for _, p := range cmd.Parameters {
		if !p.Required {
			continue
		}
		if v, ok := parameters[p.Name]; !ok || v == nil {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return nil, missingParamsError(missing)
	}

	if err := security.ValidateEntryCommand(s.EntryCommand, s.Directory); err != nil {
		return nil, err
	}

	commandLine := BuildCommand(cmd.Template, cmd.Parameters, parameters)
	executionID := ulid.Make().String()

	e.logger.Info().
		Str("execution", executionID).
		Str("skill", s.Name).
		Str("command", commandName).
		Str("dir", s.Directory).
		Str("commandLine", commandLine).
		Msg("executing skill")

	if e.bus != nil {
		e.bus.Publish(event.Event{
			Type: event.ExecutionStarted,
			Data: event.ExecutionStartedData{
				ExecutionID: executionID,
				SkillID:     s.ID(),
				Command:     commandName,
			},
		})
	}

	result, err := e.runSubprocess(ctx, commandLine, s.Directory)
	if err != nil {
		return nil, err
	}
	result.ExecutionID = executionID

	if result.Success {
		e.logger.Info().
			Str("execution", executionID).
			Strs("outputFiles", result.OutputFiles).
			Msg("skill completed")
	} else {
		e.logger.Error().
			Str("execution", executionID).
			Int("returnCode", result.ReturnCode).
			Str("stderr", result.Stderr).
			Msg("skill failed")
	}

	if e.bus != nil {
		e.bus.Publish(event.Event{
			Type: event.ExecutionFinished,
			Data: event.ExecutionFinishedData{
				ExecutionID: executionID,
				SkillID:     s.ID(),
				Command:     commandName,
				Success:     result.Success,
				ReturnCode:  result.ReturnCode,
				OutputFiles: result.OutputFiles,
			},
		})
	}

	return result, nil
}

// runSubprocess spawns the command through a shell in the given directory,
// streaming stdout and stderr line by line, and diffs the output directory
// before and after to find newly produced files.
func (e *Executor) runSubprocess(ctx context.Context, commandLine, dir string) (*skill.ExecutionResult, error) {
	outputDir := filepath.Join(dir, OutputDirName)
	before := listDir(outputDir)

	cmd := exec.CommandContext(ctx, shellPath(), "-c", commandLine)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	// Both streams must drain concurrently so neither pipe blocks the
	// process, and both must finish before the result is assembled.
	var stdoutLines, stderrLines []string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stdoutLines = e.drainLines(stdoutPipe, "stdout")
	}()
	go func() {
		defer wg.Done()
		stderrLines = e.drainLines(stderrPipe, "stderr")
	}()
	wg.Wait()

	returnCode := 0
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			returnCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("wait command: %w", err)
		}
	}

	stdout := strings.Join(stdoutLines, "\n")
	stderr := strings.Join(stderrLines, "\n")
	success := returnCode == 0

	after := listDir(outputDir)
	var newAbs []string
	for name := range after {
		if !before[name] {
			newAbs = append(newAbs, filepath.Join(outputDir, name))
		}
	}
	sort.Strings(newAbs)

	if success && len(newAbs) == 0 {
		if marked := findOutputMarker(stdout, dir); marked != "" {
			newAbs = []string{marked}
		}
	}

	newRel := make([]string, 0, len(newAbs))
	for _, p := range newAbs {
		if rel, err := filepath.Rel(dir, p); err == nil {
			newRel = append(newRel, rel)
		} else {
			newRel = append(newRel, p)
		}
	}

	return &skill.ExecutionResult{
		Success:      success,
		Stdout:       stdout,
		Stderr:       stderr,
		ReturnCode:   returnCode,
		OutputFiles:  newRel,
		NewFilePaths: newAbs,
	}, nil
}

func (e *Executor) drainLines(r io.Reader, stream string) []string {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)
		e.logger.Debug().Str("stream", stream).Msg(line)
	}
	return lines
}

// findOutputMarker scans stdout for an OUTPUT_FILE:<path> line and returns
// the absolute path if the referenced file exists.
func findOutputMarker(stdout, dir string) string {
	m := outputMarkerRe.FindStringSubmatch(stdout)
	if m == nil {
		return ""
	}
	p := strings.TrimSpace(m[1])
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return ""
	}
	return p
}

// listDir returns the set of entry names in a directory, empty if the
// directory does not exist.
func listDir(dir string) map[string]bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return map[string]bool{}
	}
	set := make(map[string]bool, len(entries))
	for _, entry := range entries {
		set[entry.Name()] = true
	}
	return set
}

// shellPath picks the shell used to run entry commands. Entry commands may
// carry compound runtime prefixes (e.g. a package runner), so they go
// through a shell rather than direct exec.
func shellPath() string {
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash
	}
	return "/bin/sh"
}
