package skill

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ParamType is the inferred primitive type of a command parameter.
type ParamType string

const (
	TypeInt    ParamType = "int"
	TypeString ParamType = "string"
	TypeFloat  ParamType = "float"
	TypeBool   ParamType = "bool"
)

// Parameter represents a single parameter of a skill command.
// Names are normalized (hyphens replaced with underscores) and immutable
// once inferred.
type Parameter struct {
	Name        string    `json:"name"`
	Required    bool      `json:"required"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
}

// DefaultCommandName is the reserved command name for scripts with no
// subcommands.
const DefaultCommandName = "default"

// Command represents one invocable operation of a skill: a subcommand, or
// the script itself if it has none.
type Command struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Template    string      `json:"template"` // e.g. "python script.py infer"
	Parameters  []Parameter `json:"parameters"`
}

// DefaultSchemaTTL is how long a discovered command schema is reused before
// it is considered stale.
const DefaultSchemaTTL = time.Hour

// DiscoverFunc discovers the command schema for an entry command run inside
// the given directory. An empty map is a valid outcome for scripts that do
// not support discovery.
type DiscoverFunc func(ctx context.Context, entry, dir string) map[string]Command

// Skill is a dynamically loaded skill. Its command schema is cached with a
// soft TTL and replaced wholesale on refresh; readers never observe a
// partial mix of old and new commands.
type Skill struct {
	Name          string
	Description   string
	EntryCommand  string
	Documentation string
	Directory     string

	mu             sync.RWMutex
	commands       map[string]Command
	schemaCachedAt time.Time
	schemaTTL      time.Duration
}

// NormalizeID converts a skill name to its canonical identifier:
// lowercase with spaces and hyphens replaced by underscores.
func NormalizeID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "_")
	return strings.ReplaceAll(id, "-", "_")
}

// ID returns the canonical identifier for this skill.
func (s *Skill) ID() string {
	return NormalizeID(s.Name)
}

// SchemaTTL returns the schema cache TTL.
func (s *Skill) SchemaTTL() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.schemaTTL <= 0 {
		return DefaultSchemaTTL
	}
	return s.schemaTTL
}

// SetSchemaTTL overrides the schema cache TTL.
func (s *Skill) SetSchemaTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemaTTL = ttl
}

// Commands returns a snapshot of the current command schema. The map is
// empty until the first discovery attempt has completed.
func (s *Skill) Commands() map[string]Command {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Command, len(s.commands))
	for name, cmd := range s.commands {
		out[name] = cmd
	}
	return out
}

// Command returns the named command from the current schema.
func (s *Skill) Command(name string) (Command, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cmd, ok := s.commands[name]
	return cmd, ok
}

// CommandNames returns the names of all commands in the current schema.
func (s *Skill) CommandNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	return names
}

// SchemaStale reports whether the cached schema is missing or older than
// the TTL.
func (s *Skill) SchemaStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.schemaCachedAt.IsZero() {
		return true
	}
	ttl := s.schemaTTL
	if ttl <= 0 {
		ttl = DefaultSchemaTTL
	}
	return time.Since(s.schemaCachedAt) > ttl
}

// RefreshCommands re-runs schema discovery if the cache is stale or force
// is set. A discovery that fails yields an empty schema, not an error; the
// replacement is atomic from the caller's perspective.
func (s *Skill) RefreshCommands(ctx context.Context, discover DiscoverFunc, force bool) {
	if !force && !s.SchemaStale() {
		return
	}

	commands := discover(ctx, s.EntryCommand, s.Directory)

	s.mu.Lock()
	s.commands = commands
	s.schemaCachedAt = time.Now()
	s.mu.Unlock()
}

// ToToolDefinition converts the skill to a serializable tool-description
// payload matching the schema shape exposed over MCP.
func (s *Skill) ToToolDefinition() map[string]any {
	commands := make(map[string]any)
	for name, cmd := range s.Commands() {
		params := make([]map[string]any, 0, len(cmd.Parameters))
		for _, p := range cmd.Parameters {
			params = append(params, map[string]any{
				"name":        p.Name,
				"required":    p.Required,
				"type":        string(p.Type),
				"description": p.Description,
			})
		}
		commands[name] = map[string]any{
			"description": cmd.Description,
			"parameters":  params,
		}
	}

	return map[string]any{
		"name":          s.ID(),
		"description":   s.Description,
		"entry_command": s.EntryCommand,
		"commands":      commands,
		"directory":     s.Directory,
	}
}
