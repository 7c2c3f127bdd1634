package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	"github.com/de-tools/orchard-atlas/pkg/services/analytics"
	"github.com/de-tools/orchard-atlas/pkg/services/charts"
	"github.com/spf13/cobra"
)

// dashboardFlags are the analytics controls shared by the analytics and export commands.
type dashboardFlags struct {
	start        string
	end          string
	compare      bool
	compareStart string
	compareEnd   string
	page         int
	pageSize     int
	chart        string
}

func (f *dashboardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "End date, inclusive (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.compare, "compare", false, "Compare against a second time frame")
	cmd.Flags().StringVar(&f.compareStart, "compare-start", "", "Comparison start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.compareEnd, "compare-end", "", "Comparison end date, inclusive (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.page, "page", 1, "Page of chart rows")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "Rows per page (5, 10, 20 or 50)")
	cmd.Flags().StringVar(&f.chart, "chart", string(charts.DefaultKind), "Chart type")
}

func (f *dashboardFlags) controls(deps *Deps) (analytics.Controls, error) {
	var c analytics.Controls
	var err error

	if c.Primary, err = aggregate.DayRange(f.start, f.end, deps.location()); err != nil {
		return c, err
	}
	c.Compare = f.compare
	if f.compare {
		if c.Comparison, err = aggregate.DayRange(f.compareStart, f.compareEnd, deps.location()); err != nil {
			return c, err
		}
	}
	if f.pageSize != 0 && !slices.Contains(aggregate.PageSizes, f.pageSize) {
		return c, fmt.Errorf("invalid page size %d (expected one of %v)", f.pageSize, aggregate.PageSizes)
	}
	if f.page < 1 {
		return c, fmt.Errorf("invalid page %d", f.page)
	}
	c.Page = f.page
	c.PageSize = f.pageSize
	if c.Kind, err = charts.ParseKind(f.chart); err != nil {
		return c, err
	}
	return c, nil
}

// dashboardView loads the user's data and applies the flags to a fresh dashboard.
func dashboardView(ctx context.Context, deps *Deps, user *UserFlags, flags *dashboardFlags) (analytics.View, error) {
	controls, err := flags.controls(deps)
	if err != nil {
		return analytics.View{}, err
	}
	userID, err := deps.resolveUser(ctx, user)
	if err != nil {
		return analytics.View{}, err
	}
	data, err := deps.Analytics.Load(ctx, userID)
	if err != nil {
		return analytics.View{}, err
	}

	settings := deps.Dashboard
	settings.Location = deps.location()
	d := analytics.NewDashboard(data, settings)
	d.Apply(controls)
	return d.View(), nil
}

type AnalyticsCmd struct {
	deps   *Deps
	user   *UserFlags
	flags  dashboardFlags
	output string
}

func NewAnalyticsCmd(deps *Deps, user *UserFlags) *cobra.Command {
	ac := &AnalyticsCmd{deps: deps, user: user}
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show per-file apple and tree counts for a time frame",
		RunE:  ac.run,
	}
	ac.flags.register(cmd)
	cmd.Flags().StringVar(&ac.output, "output", "table", "Output style: table or text")
	return cmd
}

func (ac *AnalyticsCmd) run(cmd *cobra.Command, _ []string) error {
	reporter, err := reporterFor(ac.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	view, err := dashboardView(cmd.Context(), ac.deps, ac.user, &ac.flags)
	if err != nil {
		return err
	}
	controls, _ := ac.flags.controls(ac.deps)
	return reporter.Handle(analyticsReport(view, controls.Primary))
}

func analyticsReport(view analytics.View, primary domain.DateRange) *domain.Report {
	page := domain.ReportSection{
		Title: fmt.Sprintf("%s (page %d of %d)", view.Kind.Name(), view.Pager.Page, view.Pager.TotalPages()),
		Summary: map[string]interface{}{
			"Average Apples per Tree": view.AvgApplesPerTreeText(),
			"Chart Apples":            view.CurrentChartTotals.Apples,
			"Chart Trees":             view.CurrentChartTotals.Trees,
		},
	}
	if view.Compare {
		page.Summary["Chart Apples (comparison)"] = deref(view.CurrentChartTotals.ApplesComparison)
		page.Summary["Chart Trees (comparison)"] = deref(view.CurrentChartTotals.TreesComparison)
	}
	for _, row := range view.Rows {
		detail := domain.ReportDetail{Name: row.FileName, Apples: row.Apples, Trees: row.Trees}
		if view.Compare {
			detail.Description = fmt.Sprintf("comparison: %d apples, %d trees",
				deref(row.ApplesComparison), deref(row.TreesComparison))
		}
		page.Details = append(page.Details, detail)
	}

	return &domain.Report{
		Title:    view.Title,
		Period:   period(primary),
		Totals:   view.Timeframe,
		Sections: []domain.ReportSection{page},
	}
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
