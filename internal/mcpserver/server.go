package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/jcc-ne/mcp-skill-server/internal/discovery"
	"github.com/jcc-ne/mcp-skill-server/internal/event"
	"github.com/jcc-ne/mcp-skill-server/internal/execute"
	"github.com/jcc-ne/mcp-skill-server/internal/logging"
	"github.com/jcc-ne/mcp-skill-server/internal/output"
	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

const serverName = "mcp-skill-server"

// Server wires the skill loader, discovery engine, and executor into an MCP
// server with four tools: list_skills, get_skill, run_skill,
// refresh_skills. An optional tool prefix avoids name collisions when a
// client connects to several skill servers at once.
type Server struct {
	mcpServer *server.MCPServer
	loader    *skill.Loader
	engine    *discovery.Engine
	executor  *execute.Executor
	handler   output.Handler
	formatter output.ResponseFormatter
	bus       *event.Bus
	prefix    string
	logger    zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithToolPrefix prefixes every tool name (e.g. "coding" yields
// "coding_list_skills").
func WithToolPrefix(prefix string) Option {
	return func(s *Server) { s.prefix = prefix }
}

// WithOutputHandler overrides the output handler (default LocalHandler).
func WithOutputHandler(h output.Handler) Option {
	return func(s *Server) { s.handler = h }
}

// WithFormatter overrides the response formatter.
func WithFormatter(f output.ResponseFormatter) Option {
	return func(s *Server) { s.formatter = f }
}

// WithBus attaches an event bus for output.processed events.
func WithBus(bus *event.Bus) Option {
	return func(s *Server) { s.bus = bus }
}

// New creates a Server around the given collaborators and registers its
// tools.
func New(version string, loader *skill.Loader, engine *discovery.Engine, executor *execute.Executor, opts ...Option) *Server {
	s := &Server{
		loader:    loader,
		engine:    engine,
		executor:  executor,
		handler:   output.NewLocalHandler(),
		formatter: output.NewDefaultFormatter(),
		logger:    logging.Component("mcpserver"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server, for mounting on a transport.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio blocks serving the MCP protocol over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) toolName(base string) string {
	if s.prefix != "" {
		return s.prefix + "_" + base
	}
	return base
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(s.toolName("list_skills"),
		mcp.WithDescription("List all available skills"),
	), s.handleListSkills)

	s.mcpServer.AddTool(mcp.NewTool(s.toolName("get_skill"),
		mcp.WithDescription("Get skill details including commands and parameters"),
		mcp.WithString("skill_name",
			mcp.Required(),
			mcp.Description("Name of the skill to get details for"),
		),
	), s.handleGetSkill)

	s.mcpServer.AddTool(mcp.NewTool(s.toolName("run_skill"),
		mcp.WithDescription("Execute a skill command with parameters"),
		mcp.WithString("skill_name",
			mcp.Required(),
			mcp.Description("Name of the skill to run"),
		),
		mcp.WithString("command",
			mcp.Description("Command to execute (use 'default' for single-command skills)"),
			mcp.DefaultString(skill.DefaultCommandName),
		),
		mcp.WithObject("parameters",
			mcp.Description("Parameters to pass to the skill command"),
		),
	), s.handleRunSkill)

	s.mcpServer.AddTool(mcp.NewTool(s.toolName("refresh_skills"),
		mcp.WithDescription("Refresh the skill list (use after adding new skills)"),
	), s.handleRefreshSkills)
}

func (s *Server) ensureLoaded() {
	if s.loader.Len() == 0 {
		s.loader.DiscoverSkills()
	}
}

func (s *Server) handleListSkills(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.ensureLoaded()

	skills := s.loader.Skills()
	ids := make([]string, 0, len(skills))
	for id := range skills {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "Available skills (%d):\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(&b, "- %s: %s\n", id, skills[id].Description)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) handleGetSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.ensureLoaded()

	name, _ := request.GetArguments()["skill_name"].(string)
	sk, ok := s.loader.Get(skill.NormalizeID(name))
	if !ok {
		return mcp.NewToolResultText(s.unknownSkillMessage(name)), nil
	}

	sk.RefreshCommands(ctx, s.engine.Discover, false)

	var commandsText []string
	commands := sk.Commands()
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		cmd := commands[n]
		lines := []string{fmt.Sprintf("  %s: %s", n, cmd.Description)}
		for _, p := range cmd.Parameters {
			req := "(optional)"
			if p.Required {
				req = "(required)"
			}
			lines = append(lines, fmt.Sprintf("    --%s [%s] %s: %s", p.Name, p.Type, req, p.Description))
		}
		commandsText = append(commandsText, strings.Join(lines, "\n"))
	}

	text := fmt.Sprintf(`Skill: %s
Description: %s
Directory: %s

Commands:
%s

Documentation:
%s`, sk.Name, sk.Description, sk.Directory, strings.Join(commandsText, "\n"), sk.Documentation)

	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleRunSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.ensureLoaded()

	args := request.GetArguments()
	name, _ := args["skill_name"].(string)
	command, _ := args["command"].(string)
	if command == "" {
		command = skill.DefaultCommandName
	}
	parameters, _ := args["parameters"].(map[string]any)

	sk, ok := s.loader.Get(skill.NormalizeID(name))
	if !ok {
		return mcp.NewToolResultText(s.unknownSkillMessage(name)), nil
	}

	sk.RefreshCommands(ctx, s.engine.Discover, false)

	result, err := s.executor.Execute(ctx, sk, command, parameters)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error: %s", err)), nil
	}

	// Only successful runs hand files to the output handler; a failed
	// script's partial output must not be processed (or uploaded).
	if result.Success && len(result.NewFilePaths) > 0 {
		result.ProcessedOutputs = s.handler.Process(ctx, result.NewFilePaths, sk.Name, sk.Directory)
		if s.bus != nil {
			for _, po := range result.ProcessedOutputs {
				s.bus.Publish(event.Event{
					Type: event.OutputProcessed,
					Data: event.OutputProcessedData{
						ExecutionID: result.ExecutionID,
						Filename:    po.Filename,
						URL:         po.URL,
					},
				})
			}
		}
	}

	return mcp.NewToolResultText(s.formatter.FormatExecutionResult(result, sk, command)), nil
}

func (s *Server) handleRefreshSkills(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	skills := s.loader.DiscoverSkills()
	return mcp.NewToolResultText(fmt.Sprintf("Refreshed. Found %d skills: [%s]",
		len(skills), strings.Join(s.loader.List(), ", "))), nil
}

// unknownSkillMessage lists available skills and, when a loaded skill's ID
// is close enough, suggests it.
func (s *Server) unknownSkillMessage(name string) string {
	id := skill.NormalizeID(name)
	msg := fmt.Sprintf("Skill '%s' not found. Available: [%s]", id, strings.Join(s.loader.List(), ", "))
	if suggestion := s.closestSkill(id); suggestion != "" {
		msg += fmt.Sprintf(". Did you mean '%s'?", suggestion)
	}
	return msg
}

func (s *Server) closestSkill(id string) string {
	best := ""
	bestDist := 4
	for _, candidate := range s.loader.List() {
		if d := levenshtein.ComputeDistance(id, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
