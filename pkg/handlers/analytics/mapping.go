package analytics

import (
	"github.com/de-tools/orchard-atlas/pkg/models/api"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	analyticssvc "github.com/de-tools/orchard-atlas/pkg/services/analytics"
	"github.com/de-tools/orchard-atlas/pkg/services/charts"
)

func mapAnalyticsViewToApi(view analyticssvc.View) api.AnalyticsView {
	rows := make([]api.ChartRow, 0, len(view.Rows))
	for _, row := range view.Rows {
		rows = append(rows, api.ChartRow{
			FileName:         row.FileName,
			Apples:           row.Apples,
			Trees:            row.Trees,
			ApplesComparison: row.ApplesComparison,
			TreesComparison:  row.TreesComparison,
		})
	}

	return api.AnalyticsView{
		Title:              view.Title,
		CompareMode:        view.Compare,
		TotalApplesInRange: view.Timeframe.Apples,
		TotalTreesInRange:  view.Timeframe.Trees,
		AvgApplesPerTree:   view.AvgApplesPerTreeText(),
		Rows:               rows,
		CurrentChartTotals: mapChartTotals(view.CurrentChartTotals),
		Pagination: api.Pagination{
			Page:       view.Pager.Page,
			PageSize:   view.Pager.PageSize,
			TotalCount: view.Pager.Total,
			TotalPages: view.Pager.TotalPages(),
			HasPrev:    view.Pager.HasPrev(),
			HasNext:    view.Pager.HasNext(),
		},
		Chart: mapChartSpec(view.Chart),
	}
}

func mapChartTotals(t domain.ChartTotals) api.ChartTotals {
	return api.ChartTotals{
		Apples:           t.Apples,
		Trees:            t.Trees,
		ApplesComparison: t.ApplesComparison,
		TreesComparison:  t.TreesComparison,
	}
}

func mapChartSpec(spec charts.Spec) api.ChartSpec {
	series := make([]api.Series, 0, len(spec.Series))
	for _, s := range spec.Series {
		series = append(series, api.Series{DataKey: s.DataKey, Name: s.Name, Color: s.Color, StackID: s.StackID})
	}
	return api.ChartSpec{
		Kind:    spec.Kind.Name(),
		Slug:    string(spec.Kind),
		XKey:    spec.XKey,
		YKey:    spec.YKey,
		Series:  series,
		Derived: spec.Derived,
	}
}

func mapChartKinds(kinds []charts.Kind) []api.ChartKind {
	out := make([]api.ChartKind, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, api.ChartKind{Name: k.Name(), Slug: string(k)})
	}
	return out
}
