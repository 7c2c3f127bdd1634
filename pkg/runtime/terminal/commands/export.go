package commands

import (
	"bytes"
	"fmt"
	"os"

	dataexport "github.com/de-tools/orchard-atlas/pkg/services/export"
	"github.com/de-tools/orchard-atlas/pkg/services/observability"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ExportCmd struct {
	deps   *Deps
	user   *UserFlags
	flags  dashboardFlags
	format string
	output string
}

func NewExportCmd(deps *Deps, user *UserFlags) *cobra.Command {
	ec := &ExportCmd{deps: deps, user: user}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current page of analytics rows as csv, xlsx or pdf",
		RunE:  ec.run,
	}
	ec.flags.register(cmd)
	cmd.Flags().StringVar(&ec.format, "format", "csv", "Export format: csv, xlsx or pdf")
	cmd.Flags().StringVar(&ec.output, "output", "", "Output file (default chart-data.<ext>)")
	return cmd
}

func (ec *ExportCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, err := dataexport.ParseFormat(ec.format)
	if err != nil {
		return err
	}
	view, err := dashboardView(ctx, ec.deps, ec.user, &ec.flags)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := dataexport.Export(&buf, format, view.Rows, view.Compare); err != nil {
		return err
	}

	path := format.FileName(ec.output)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	observability.Exports.WithLabelValues(string(format)).Inc()
	zerolog.Ctx(ctx).Debug().Str("path", path).Int("rows", len(view.Rows)).Msg("export written")

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(view.Rows), path)
	return nil
}
