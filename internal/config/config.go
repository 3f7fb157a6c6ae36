package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/tidwall/jsonc"
)

// Config holds all server tunables. Zero values fall back to the defaults
// below, so a partial config file only overrides what it mentions.
type Config struct {
	// SkillsDir is the directory scanned for <skill>/SKILL.md manifests.
	SkillsDir string `json:"skillsDir,omitempty"`

	// ToolPrefix is prepended to every MCP tool name (e.g. "myorg_").
	ToolPrefix string `json:"toolPrefix,omitempty"`

	// SchemaTTLSeconds is how long discovered command schemas are cached.
	SchemaTTLSeconds int `json:"schemaTtlSeconds,omitempty"`

	// DiscoveryTimeoutSeconds bounds each help invocation during discovery.
	DiscoveryTimeoutSeconds int `json:"discoveryTimeoutSeconds,omitempty"`

	// OutputHandler selects output post-processing: "local" or "upload".
	OutputHandler string `json:"outputHandler,omitempty"`

	// UploadEndpoint is the HTTP endpoint the upload handler posts to.
	UploadEndpoint string `json:"uploadEndpoint,omitempty"`

	// UploadCacheFile persists upload deduplication state.
	UploadCacheFile string `json:"uploadCacheFile,omitempty"`

	// HTTP transport settings (serve --http).
	Port       int    `json:"port,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
	EnableCORS *bool  `json:"enableCors,omitempty"`

	// Watch reloads skills when SKILL.md files change.
	Watch *bool `json:"watch,omitempty"`

	// Logging.
	LogLevel  string `json:"logLevel,omitempty"`
	LogPretty *bool  `json:"logPretty,omitempty"`
}

// Default values applied by Load when unset.
const (
	DefaultSchemaTTLSeconds        = 3600
	DefaultDiscoveryTimeoutSeconds = 30
	DefaultPort                    = 8080
	DefaultHostname                = "127.0.0.1"
	DefaultOutputHandler           = "local"
	DefaultLogLevel                = "info"
)

// ConfigFileNames are the recognized config file names, in load order.
var ConfigFileNames = []string{"skillserver.json", "skillserver.jsonc"}

// Load builds the configuration (priority order, later wins):
//  1. Global config (~/.config/skillserver/)
//  2. Config in the skills directory
//  3. SKILLSERVER_CONFIG file override
//  4. SKILLSERVER_* environment variables
func Load(skillsDir string) (*Config, error) {
	cfg := &Config{}

	loaded := map[string]bool{}
	loadOnce := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil || loaded[abs] {
			return
		}
		if loadConfigFile(path, cfg) == nil {
			loaded[abs] = true
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		globalDir := filepath.Join(home, ".config", "skillserver")
		for _, name := range ConfigFileNames {
			loadOnce(filepath.Join(globalDir, name))
		}
	}

	if skillsDir != "" {
		for _, name := range ConfigFileNames {
			loadOnce(filepath.Join(skillsDir, name))
		}
	}

	if path := os.Getenv("SKILLSERVER_CONFIG"); path != "" {
		loadOnce(path)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if cfg.SkillsDir == "" {
		cfg.SkillsDir = skillsDir
	}

	return cfg, nil
}

// SchemaTTL returns the schema cache TTL as a duration.
func (c *Config) SchemaTTL() time.Duration {
	return time.Duration(c.SchemaTTLSeconds) * time.Second
}

// DiscoveryTimeout returns the help invocation timeout as a duration.
func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.DiscoveryTimeoutSeconds) * time.Second
}

// CORSEnabled reports whether CORS middleware should be installed.
func (c *Config) CORSEnabled() bool {
	return c.EnableCORS == nil || *c.EnableCORS
}

// WatchEnabled reports whether the skills watcher should run.
func (c *Config) WatchEnabled() bool {
	return c.Watch != nil && *c.Watch
}

// PrettyLogs reports whether console-formatted logging is requested.
func (c *Config) PrettyLogs() bool {
	return c.LogPretty != nil && *c.LogPretty
}

// loadConfigFile loads a single JSONC config file with {env:} interpolation
// and merges it into cfg.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data)

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return err
	}

	merge(cfg, &fileCfg)
	return nil
}

var envPattern = regexp.MustCompile(`\{env:([^}]+)\}`)

// interpolate replaces {env:VAR} placeholders with environment values.
func interpolate(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func merge(target, source *Config) {
	if source.SkillsDir != "" {
		target.SkillsDir = source.SkillsDir
	}
	if source.ToolPrefix != "" {
		target.ToolPrefix = source.ToolPrefix
	}
	if source.SchemaTTLSeconds > 0 {
		target.SchemaTTLSeconds = source.SchemaTTLSeconds
	}
	if source.DiscoveryTimeoutSeconds > 0 {
		target.DiscoveryTimeoutSeconds = source.DiscoveryTimeoutSeconds
	}
	if source.OutputHandler != "" {
		target.OutputHandler = source.OutputHandler
	}
	if source.UploadEndpoint != "" {
		target.UploadEndpoint = source.UploadEndpoint
	}
	if source.UploadCacheFile != "" {
		target.UploadCacheFile = source.UploadCacheFile
	}
	if source.Port > 0 {
		target.Port = source.Port
	}
	if source.Hostname != "" {
		target.Hostname = source.Hostname
	}
	if source.EnableCORS != nil {
		target.EnableCORS = source.EnableCORS
	}
	if source.Watch != nil {
		target.Watch = source.Watch
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.LogPretty != nil {
		target.LogPretty = source.LogPretty
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SKILLSERVER_SKILLS_DIR"); v != "" {
		cfg.SkillsDir = v
	}
	if v := os.Getenv("SKILLSERVER_TOOL_PREFIX"); v != "" {
		cfg.ToolPrefix = v
	}
	if v := os.Getenv("SKILLSERVER_SCHEMA_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SchemaTTLSeconds = n
		}
	}
	if v := os.Getenv("SKILLSERVER_DISCOVERY_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DiscoveryTimeoutSeconds = n
		}
	}
	if v := os.Getenv("SKILLSERVER_OUTPUT_HANDLER"); v != "" {
		cfg.OutputHandler = v
	}
	if v := os.Getenv("SKILLSERVER_UPLOAD_ENDPOINT"); v != "" {
		cfg.UploadEndpoint = v
	}
	if v := os.Getenv("SKILLSERVER_UPLOAD_CACHE"); v != "" {
		cfg.UploadCacheFile = v
	}
	if v := os.Getenv("SKILLSERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}
	if v := os.Getenv("SKILLSERVER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.SchemaTTLSeconds <= 0 {
		cfg.SchemaTTLSeconds = DefaultSchemaTTLSeconds
	}
	if cfg.DiscoveryTimeoutSeconds <= 0 {
		cfg.DiscoveryTimeoutSeconds = DefaultDiscoveryTimeoutSeconds
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Hostname == "" {
		cfg.Hostname = DefaultHostname
	}
	if cfg.OutputHandler == "" {
		cfg.OutputHandler = DefaultOutputHandler
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// Save writes the configuration to a JSON file, creating parent directories
// as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// UnknownHandlerError reports an unrecognized outputHandler value.
type UnknownHandlerError struct {
	Name string
}

func (e *UnknownHandlerError) Error() string {
	return fmt.Sprintf("unknown output handler %q (expected \"local\" or \"upload\")", e.Name)
}
