package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/brettbedarf/webfm/auth"
	"github.com/brettbedarf/webfm/config"
	"github.com/brettbedarf/webfm/internal/engine"
	"github.com/brettbedarf/webfm/internal/fsops"
	"github.com/brettbedarf/webfm/internal/identity"
	"github.com/brettbedarf/webfm/internal/metrics"
	"github.com/brettbedarf/webfm/internal/util"
	"github.com/brettbedarf/webfm/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	configPath string
	root       string
	listen     string
	verbose    int
	logFormat  string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a directory over HTTP",
	Long: `Serve a host directory to file manager clients.

Flags override values from the config file, which override the defaults.

Examples:
  # Serve /srv/files on :8080
  webfm serve --root /srv/files

  # Serve with a config file and debug logging
  webfm serve --config /etc/webfm.yaml -v 4`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.configPath, "config", "c", "", "Path to a .yaml, .yml or .json config file")
	f.StringVar(&serveFlags.root, "root", "", "Host directory served as / (default \"/\")")
	f.StringVarP(&serveFlags.listen, "listen", "l", "", "HTTP listen address (default \":8080\")")
	f.IntVarP(&serveFlags.verbose, "verbose", "v", config.InfoVerbose,
		"Log verbosity level between 1 (error) and 5 (trace)")
	f.StringVar(&serveFlags.logFormat, "log-format", "", "Log format: console or json (default \"console\")")
}

// loadConfig merges the config file and any flags set on cmd over the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if serveFlags.configPath != "" {
		override, err := config.LoadConfigOverrideFile(serveFlags.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg.Merge(override)
	}

	flags := &config.ConfigOverride{}
	if cmd.Flags().Changed("root") {
		flags.Root = util.Pointer(serveFlags.root)
	}
	if cmd.Flags().Changed("listen") {
		flags.ListenAddr = util.Pointer(serveFlags.listen)
	}
	if cmd.Flags().Changed("verbose") {
		flags.LogLvl = util.Pointer(serveFlags.verbose)
	}
	if cmd.Flags().Changed("log-format") {
		flags.LogFormat = util.Pointer(serveFlags.logFormat)
	}
	cfg.Merge(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	util.InitializeLogger(cfg.LogLvl, cfg.LogFormat)
	logger := util.GetLogger("main")
	logger.Info().
		Str("version", version).
		Str("root", cfg.Root).
		Str("listen", cfg.ListenAddr).
		Str("impersonation", cfg.Impersonation).
		Str("auth", cfg.AuthType).
		Bool("require_auth", cfg.RequireAuth).
		Msg("webfm initializing")

	var (
		m   *metrics.Metrics
		reg *prometheus.Registry
	)
	if cfg.MetricsEnabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	resolver := identity.NewResolver(time.Duration(cfg.IdentityCacheTTL) * time.Second)
	id := identity.New(cfg.Impersonation, resolver, m)
	if id.Mode() != cfg.Impersonation {
		logger.Warn().Str("requested", cfg.Impersonation).Str("effective", id.Mode()).Msg("Impersonation mode changed")
	}

	files := fsops.New(cfg.Root, id)
	exec := engine.New(files, m)

	registry := auth.NewRegistry()
	auth.RegisterBuiltins(registry)
	authn, err := registry.NewAuthenticator(cfg)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	handler := server.NewHandler(cfg, exec, files, authn, m)
	var gatherer prometheus.Gatherer
	if reg != nil {
		gatherer = reg
	}
	srv := server.New(cfg, server.NewRouter(handler, gatherer))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info().Msg("webfm stopped")
	return nil
}
