package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/orchard-atlas/pkg/runtime/app"
	"github.com/de-tools/orchard-atlas/pkg/runtime/terminal"
	"github.com/de-tools/orchard-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/orchard-atlas/pkg/services/config"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Open:   open,
		Output: os.Stdout,
	})

	if err := cli.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func open(_ context.Context, configPath string) (*commands.Deps, func() error, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := app.NewLogger(os.Stderr, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	deps := &commands.Deps{
		Repository: a.Repository,
		Analytics:  a.Analytics,
		Location:   a.Location,
		Dashboard:  a.AnalyticsSettings(),
		Logger:     &logger,
	}
	if path, err := config.DefaultProfilePath(); err == nil {
		if registry, err := config.NewRegistry(path); err == nil {
			deps.Profiles = registry
		} else {
			logger.Debug().Err(err).Str("path", path).Msg("no profile file")
		}
	}
	return deps, a.Close, nil
}
