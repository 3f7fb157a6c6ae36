// Package discovery infers a skill's command schema by invoking its entry
// command with -h and parsing the help output.
package discovery

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcc-ne/mcp-skill-server/internal/event"
	"github.com/jcc-ne/mcp-skill-server/internal/helptext"
	"github.com/jcc-ne/mcp-skill-server/internal/logging"
	"github.com/jcc-ne/mcp-skill-server/internal/security"
	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

// DefaultTimeout bounds each individual help invocation.
const DefaultTimeout = 30 * time.Second

// Engine discovers command schemas. Discovery is best effort: any failure
// (validation, timeout, non-zero exit) degrades to an empty or partial
// schema and is logged, never returned as an error.
type Engine struct {
	timeout time.Duration
	bus     *event.Bus
	logger  zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides the per-invocation help timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithBus attaches an event bus; a schema.discovered event is published
// after each discovery run.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// NewEngine creates a discovery Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout: DefaultTimeout,
		logger:  logging.Component("discovery"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Discover runs `entry -h` inside dir and builds the command map. When the
// top-level help lists subcommands, each subcommand's own help is fetched
// concurrently and parsed into its parameter schema; subcommands whose help
// cannot be fetched are dropped. When no subcommands are listed, a single
// "default" command is built from the top-level help.
func (e *Engine) Discover(ctx context.Context, entryCommand, dir string) map[string]skill.Command {
	commands := map[string]skill.Command{}

	if err := security.ValidateEntryCommand(entryCommand, dir); err != nil {
		e.logger.Warn().Err(err).Str("entry", entryCommand).Msg("entry command rejected, skipping discovery")
		return commands
	}

	helpText, err := e.runHelp(ctx, entryCommand+" -h", dir)
	if err != nil {
		e.logger.Warn().Err(err).Str("entry", entryCommand).Msg("help invocation failed")
		return commands
	}

	subcommands := helptext.ParseSubcommands(helpText)
	if len(subcommands) == 0 {
		commands[skill.DefaultCommandName] = skill.Command{
			Name:       skill.DefaultCommandName,
			Template:   entryCommand,
			Parameters: helptext.ParseParameters(helpText),
		}
		e.publishDiscovered(entryCommand, commands)
		return commands
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, description := range subcommands {
		wg.Add(1)
		go func(name, description string) {
			defer wg.Done()
			subHelp, err := e.runHelp(ctx, entryCommand+" "+name+" -h", dir)
			if err != nil {
				e.logger.Warn().Err(err).Str("subcommand", name).Msg("subcommand help failed, omitting")
				return
			}
			cmd := skill.Command{
				Name:        name,
				Description: description,
				Template:    entryCommand + " " + name,
				Parameters:  helptext.ParseParameters(subHelp),
			}
			mu.Lock()
			commands[name] = cmd
			mu.Unlock()
		}(name, description)
	}
	wg.Wait()

	e.publishDiscovered(entryCommand, commands)
	return commands
}

func (e *Engine) publishDiscovered(entryCommand string, commands map[string]skill.Command) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	e.logger.Debug().Str("entry", entryCommand).Strs("commands", names).Msg("schema discovered")
	if e.bus != nil {
		e.bus.Publish(event.Event{
			Type: event.SchemaDiscovered,
			Data: event.SchemaDiscoveredData{
				EntryCommand: entryCommand,
				Commands:     names,
			},
		})
	}
}

// runHelp executes a help command through the shell with a bounded timeout
// and returns its stdout. Only stdout is parsed; interpreter or runner
// noise on stderr must not corrupt the inferred schema, so stderr is
// logged instead.
func (e *Engine) runHelp(ctx context.Context, commandLine, dir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, shellPath(), "-c", commandLine)
	cmd.Dir = dir
	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}
	// Grandchildren can keep the output pipes open past cancellation; don't
	// wait for them forever.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stderr.Len() > 0 {
		e.logger.Debug().Str("command", commandLine).Str("stderr", strings.TrimSpace(stderr.String())).Msg("help invocation stderr")
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ctx.Err()
		}
		return "", err
	}
	return stdout.String(), nil
}

func shellPath() string {
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash
	}
	return "/bin/sh"
}
