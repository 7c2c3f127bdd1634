package main

import (
	"fmt"
	"os"

	historyhandlers "github.com/de-tools/orchard-atlas/pkg/handlers/history"
	"github.com/de-tools/orchard-atlas/pkg/runtime/app"
	"github.com/de-tools/orchard-atlas/pkg/server"
	"github.com/de-tools/orchard-atlas/pkg/services/config"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Orchard Atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the YAML config file (defaults and ORCHARD_* environment variables apply without one)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := app.NewLogger(os.Stdout, cfg.Log.Level)
	if err != nil {
		return err
	}
	ctx := logger.WithContext(cmd.Context())

	a, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Bootstrap(ctx); err != nil {
		// Startup continues; the next start retries.
		logger.Error().Err(err).Msg("root folder bootstrap failed")
	}

	logger.Info().
		Str("database", cfg.Database.Path).
		Str("timezone", a.Location.String()).
		Str("duplicates", string(cfg.DuplicatePolicy())).
		Msg("configuration loaded")

	api := server.NewWebAPI(server.Config{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		History: historyhandlers.Settings{
			Location:   a.Location,
			MaxRetries: cfg.History.MaxRetries,
			BaseDelay:  cfg.History.BaseDelay,
		},
		Analytics: a.AnalyticsSettings(),
		Dependencies: server.Dependencies{
			Repository: a.Repository,
			Feed:       a.Feed,
			Analytics:  a.Analytics,
			Logger:     logger,
		},
	})

	return api.Start()
}
