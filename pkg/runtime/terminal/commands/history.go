package commands

import (
	"fmt"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	"github.com/de-tools/orchard-atlas/pkg/services/history"
	"github.com/spf13/cobra"
)

type HistoryCmd struct {
	deps    *Deps
	user    *UserFlags
	start   string
	end     string
	session string
	group   string
	output  string
}

func NewHistoryCmd(deps *Deps, user *UserFlags) *cobra.Command {
	hc := &HistoryCmd{deps: deps, user: user}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show detection history grouped by day or session",
		RunE:  hc.run,
	}

	cmd.Flags().StringVar(&hc.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&hc.end, "end", "", "End date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&hc.session, "session", "", "Only show this session")
	cmd.Flags().StringVar(&hc.group, "group", "day", "Group by day or session")
	cmd.Flags().StringVar(&hc.output, "output", "table", "Output style: table or text")

	return cmd
}

func (hc *HistoryCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if hc.group != "day" && hc.group != "session" {
		return fmt.Errorf("unsupported grouping %q (expected day or session)", hc.group)
	}
	reporter, err := reporterFor(hc.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	dateRange, err := aggregate.DayRange(hc.start, hc.end, hc.deps.location())
	if err != nil {
		return err
	}
	userID, err := hc.deps.resolveUser(ctx, hc.user)
	if err != nil {
		return err
	}

	view, err := history.Load(ctx, hc.deps.Repository, userID, dateRange, hc.session, hc.deps.location())
	if err != nil {
		return err
	}
	if len(view.Requests) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No AI requests found for the selected range.")
		return nil
	}
	return reporter.Handle(historyReport(view, dateRange, hc.group))
}

func historyReport(view history.View, r domain.DateRange, group string) *domain.Report {
	report := &domain.Report{
		Title:  "AI History",
		Period: period(r),
		Totals: view.Totals,
	}

	if group == "session" {
		for _, session := range aggregate.SortedSessions(view.BySession) {
			report.Sections = append(report.Sections, section(session, view.BySession[session], func(req domain.DetectionRequest) string {
				return req.CreatedAt.Format("2006-01-02 15:04")
			}))
		}
		return report
	}

	for _, day := range view.Days {
		report.Sections = append(report.Sections, section(day, view.ByDate[day], func(req domain.DetectionRequest) string {
			return req.CreatedAt.Format("15:04") + " " + req.SessionID
		}))
	}
	return report
}

func section(title string, reqs []domain.DetectionRequest, describe func(domain.DetectionRequest) string) domain.ReportSection {
	totals := aggregate.Summarize(reqs)
	s := domain.ReportSection{
		Title: title,
		Summary: map[string]interface{}{
			"Requests": len(reqs),
			"Apples":   totals.Apples,
			"Trees":    totals.Trees,
		},
	}
	for _, req := range reqs {
		s.Details = append(s.Details, domain.ReportDetail{
			Name:        req.FileName,
			Apples:      req.AppleCount(),
			Trees:       req.TreeCount(),
			Description: fmt.Sprintf("%s, %s, %s", req.ID, req.Status, describe(req)),
		})
	}
	return s
}
