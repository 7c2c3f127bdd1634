package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/orchard-atlas/pkg/runtime/terminal/commands"
	"github.com/spf13/cobra"
)

// OpenFunc builds the command dependencies from the config file chosen with --config.
// The returned close function is called after the command finishes.
type OpenFunc func(ctx context.Context, configPath string) (*commands.Deps, func() error, error)

// CLI represents the command-line interface
type CLI struct {
	open    OpenFunc
	deps    commands.Deps
	closer  func() error
	user    commands.UserFlags
	config  string
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Open   OpenFunc
	Output io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{open: opts.Open}
	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context, args ...string) error {
	if args != nil {
		cli.rootCmd.SetArgs(args)
	}
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "orchard",
		Short:         "Browse and export orchard detection history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cli.open == nil {
				return fmt.Errorf("no dependency factory configured")
			}
			deps, closer, err := cli.open(cmd.Context(), cli.config)
			if err != nil {
				return err
			}
			cli.deps = *deps
			cli.closer = closer
			if deps.Logger != nil {
				cmd.SetContext(deps.Logger.WithContext(cmd.Context()))
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if cli.closer == nil {
				return nil
			}
			return cli.closer()
		},
	}

	cmd.PersistentFlags().StringVarP(&cli.config, "config", "c", "", "Path to the YAML config file")
	cmd.PersistentFlags().StringVar(&cli.user.User, "user", "", "User id to act as")
	cmd.PersistentFlags().StringVar(&cli.user.Profile, "profile", "", "Profile in ~/.orchardcfg to take the user id from")

	cmd.AddCommand(commands.NewHistoryCmd(&cli.deps, &cli.user))
	cmd.AddCommand(commands.NewAnalyticsCmd(&cli.deps, &cli.user))
	cmd.AddCommand(commands.NewExportCmd(&cli.deps, &cli.user))
	cmd.AddCommand(commands.NewDeleteCmd(&cli.deps, &cli.user))
	cmd.AddCommand(commands.NewSeedCmd(&cli.deps, &cli.user))

	return cmd
}
