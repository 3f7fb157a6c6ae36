package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jcc-ne/mcp-skill-server/internal/config"
	"github.com/jcc-ne/mcp-skill-server/internal/discovery"
	"github.com/jcc-ne/mcp-skill-server/internal/event"
	"github.com/jcc-ne/mcp-skill-server/internal/execute"
	"github.com/jcc-ne/mcp-skill-server/internal/logging"
	"github.com/jcc-ne/mcp-skill-server/internal/mcpserver"
	"github.com/jcc-ne/mcp-skill-server/internal/output"
	"github.com/jcc-ne/mcp-skill-server/internal/server"
	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

var (
	serveHTTP       bool
	servePort       int
	serveHostname   string
	serveToolPrefix string
	serveWatch      bool
	serveVerbose    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <skills-dir>",
	Short: "Run the MCP skill server",
	Long: `Serve the skills under <skills-dir> over MCP.

By default the server speaks the MCP protocol over stdin/stdout, suitable
for direct use from an MCP client configuration. With --http it serves the
streamable HTTP transport instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "Serve over streamable HTTP instead of stdio")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (HTTP mode)")
	serveCmd.Flags().StringVar(&serveHostname, "hostname", "", "Hostname to listen on (HTTP mode)")
	serveCmd.Flags().StringVar(&serveToolPrefix, "tool-prefix", "", "Prefix for MCP tool names")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload skills when SKILL.md files change")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Enable verbose logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Best effort; a missing .env file is fine.
	_ = godotenv.Load()

	skillsDir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load(skillsDir)
	if err != nil {
		return err
	}
	applyServeFlags(cfg)

	level := logging.ParseLevel(cfg.LogLevel)
	if serveVerbose {
		level = logging.DebugLevel
	}
	logging.Init(logging.Config{Level: level, Pretty: cfg.PrettyLogs()})

	log := logging.Component("serve")
	log.Info().Str("version", Version).Str("skillsDir", skillsDir).Msg("starting mcp-skill-server")

	bus := event.NewBus()
	defer bus.Close()

	loader := skill.NewLoader(cfg.SkillsDir, skill.WithBus(bus))

	// Reloaded skills (watcher, refresh_skills) must pick up the configured
	// TTL too, not just the initial set.
	bus.Subscribe(event.SkillLoaded, func(ev event.Event) {
		data, ok := ev.Data.(event.SkillLoadedData)
		if !ok {
			return
		}
		if s, ok := loader.Get(data.SkillID); ok {
			s.SetSchemaTTL(cfg.SchemaTTL())
		}
	})

	for _, s := range loader.DiscoverSkills() {
		s.SetSchemaTTL(cfg.SchemaTTL())
	}

	engine := discovery.NewEngine(
		discovery.WithTimeout(cfg.DiscoveryTimeout()),
		discovery.WithBus(bus),
	)
	executor := execute.NewExecutor(execute.WithBus(bus))

	handler, err := buildOutputHandler(cfg)
	if err != nil {
		return err
	}

	srv := mcpserver.New(Version, loader, engine, executor,
		mcpserver.WithToolPrefix(cfg.ToolPrefix),
		mcpserver.WithOutputHandler(handler),
		mcpserver.WithBus(bus),
	)

	if serveWatch || cfg.WatchEnabled() {
		watcher, err := skill.NewWatcher(loader)
		if err != nil {
			log.Warn().Err(err).Msg("skills watcher unavailable")
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	if !serveHTTP {
		log.Info().Int("skills", loader.Len()).Msg("serving over stdio")
		return srv.ServeStdio()
	}

	httpCfg := server.DefaultConfig()
	httpCfg.Port = cfg.Port
	httpCfg.Hostname = cfg.Hostname
	httpCfg.EnableCORS = cfg.CORSEnabled()

	httpSrv := server.New(httpCfg, srv.MCPServer())

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("hostname", httpCfg.Hostname).Int("port", httpCfg.Port).Msg("serving over HTTP")
		errCh <- httpSrv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func applyServeFlags(cfg *config.Config) {
	if servePort > 0 {
		cfg.Port = servePort
	}
	if serveHostname != "" {
		cfg.Hostname = serveHostname
	}
	if serveToolPrefix != "" {
		cfg.ToolPrefix = serveToolPrefix
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

func buildOutputHandler(cfg *config.Config) (output.Handler, error) {
	switch cfg.OutputHandler {
	case "", "local":
		return output.NewLocalHandler(), nil
	case "upload":
		cache := output.NewUploadCache(cfg.UploadCacheFile)
		if err := cache.Load(); err != nil {
			return nil, err
		}
		return output.NewUploadHandler(cfg.UploadEndpoint, cache), nil
	default:
		return nil, &config.UnknownHandlerError{Name: cfg.OutputHandler}
	}
}
