package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"auto-ai/router/pkg/config"
	"auto-ai/router/pkg/server"
	"auto-ai/router/pkg/telemetry/logging"
)

var runFlags struct {
	listen   string
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway",
	Long: `Start the gateway with the specified configuration.

The server listens on the configured address and serves the OpenAI API,
routing each request to a healthy upstream credential. The config file
is watched and the credential pool, model catalog and ban rules are
applied on change without a restart.

Examples:
  # Start with the default config file
  airouter run

  # Start with a custom config
  airouter run --config /etc/airouter/config.yaml

  # Override the listen address
  airouter run --listen 0.0.0.0:8080

  # Validate config without starting
  airouter run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listen, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listen != "" {
		cfg.Server.Listen = runFlags.listen
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		RedactSecrets: cfg.Logging.IsRedactEnabled(),
	})
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	srv, err := server.New(cmd.Context(), cfg, server.Options{
		ConfigPath: cfgFile,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	return srv.Start(cmd.Context())
}
