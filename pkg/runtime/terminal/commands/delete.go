package commands

import (
	"fmt"

	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	"github.com/de-tools/orchard-atlas/pkg/services/history"
	"github.com/spf13/cobra"
)

type DeleteCmd struct {
	deps    *Deps
	user    *UserFlags
	all     bool
	confirm string
	start   string
	end     string
}

func NewDeleteCmd(deps *Deps, user *UserFlags) *cobra.Command {
	dc := &DeleteCmd{deps: deps, user: user}
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete one request, or every request in a range with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE:  dc.run,
	}

	cmd.Flags().BoolVar(&dc.all, "all", false, "Delete every request in the selected range")
	cmd.Flags().StringVar(&dc.confirm, "confirm", "", "Confirmation text required with --all")
	cmd.Flags().StringVar(&dc.start, "start", "", "Start date for --all (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dc.end, "end", "", "End date for --all, inclusive (YYYY-MM-DD)")

	return cmd
}

func (dc *DeleteCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	deleter := history.NewDeleter(dc.deps.Repository)

	if dc.all == (len(args) == 1) {
		return fmt.Errorf("pass exactly one of a request id or --all")
	}

	userID, err := dc.deps.resolveUser(ctx, dc.user)
	if err != nil {
		return err
	}

	if !dc.all {
		if err := deleter.DeleteOne(ctx, userID, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	}

	// Checked before listing so a mismatch never touches the store.
	if _, err := deleter.DeleteAll(ctx, userID, dc.confirm, nil); err != nil {
		return err
	}
	dateRange, err := aggregate.DayRange(dc.start, dc.end, dc.deps.location())
	if err != nil {
		return err
	}
	all, err := dc.deps.Repository.List(ctx, userID)
	if err != nil {
		return err
	}
	n, err := deleter.DeleteAll(ctx, userID, dc.confirm, history.IDs(aggregate.FilterByDateRange(all, dateRange)))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d requests\n", n)
	return nil
}
