package analytics

import (
	"fmt"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	"github.com/de-tools/orchard-atlas/pkg/services/charts"
)

type Settings struct {
	PageSize   int
	Duplicates aggregate.DuplicatePolicy
	Location   *time.Location
}

// Controls are the user-adjustable inputs of the dashboard.
type Controls struct {
	Primary    domain.DateRange
	Compare    bool
	Comparison domain.DateRange
	Page       int
	PageSize   int
	Kind       charts.Kind
}

// View is the derived state rendered for one set of controls.
type View struct {
	Title              string
	Compare            bool
	Kind               charts.Kind
	Primary            []domain.DetectionRequest
	Timeframe          domain.Totals
	AvgApplesPerTree   float64
	Merged             []domain.ChartRow
	Rows               []domain.ChartRow
	CurrentChartTotals domain.ChartTotals
	Pager              aggregate.Pager
	Chart              charts.Spec
}

// AvgApplesPerTreeText is the average as displayed, with two decimals.
func (v View) AvgApplesPerTreeText() string {
	return fmt.Sprintf("%.2f", v.AvgApplesPerTree)
}

// Dashboard holds a fetched data set and the current controls. Every read recomputes the
// view from scratch; nothing but the controls carries between calls.
type Dashboard struct {
	requests []domain.DetectionRequest
	settings Settings
	controls Controls
	pager    *aggregate.Pager
}

func NewDashboard(requests []domain.DetectionRequest, settings Settings) *Dashboard {
	if settings.PageSize <= 0 {
		settings.PageSize = aggregate.DefaultPageSize
	}
	if settings.Duplicates == "" {
		settings.Duplicates = aggregate.DuplicatesSum
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	d := &Dashboard{
		requests: requests,
		settings: settings,
		pager:    aggregate.NewPager(settings.PageSize),
		controls: Controls{Kind: charts.DefaultKind},
	}
	d.sync()
	return d
}

// Apply sets all controls at once, as when they arrive in a query string. A page size
// different from the current one resets the page to 1 before Page is applied.
func (d *Dashboard) Apply(c Controls) {
	d.controls.Primary = c.Primary
	d.controls.Compare = c.Compare
	d.controls.Comparison = c.Comparison
	if c.Kind != "" {
		d.controls.Kind = c.Kind
	}
	if c.PageSize > 0 && c.PageSize != d.pager.PageSize {
		d.pager.SetPageSize(c.PageSize)
	}
	d.sync()
	if c.Page > 0 {
		d.pager.SetPage(c.Page)
	}
}

func (d *Dashboard) SetPrimaryRange(r domain.DateRange) {
	d.controls.Primary = r
	d.sync()
}

func (d *Dashboard) SetCompare(on bool) {
	d.controls.Compare = on
	d.sync()
}

func (d *Dashboard) SetComparisonRange(r domain.DateRange) {
	d.controls.Comparison = r
	d.sync()
}

func (d *Dashboard) SetKind(k charts.Kind) {
	d.controls.Kind = k
}

func (d *Dashboard) SetPage(page int) {
	d.pager.SetPage(page)
}

func (d *Dashboard) SetPageSize(size int) {
	d.pager.SetPageSize(size)
	d.sync()
}

func (d *Dashboard) NextPage() bool {
	return d.pager.Next()
}

func (d *Dashboard) PrevPage() bool {
	return d.pager.Prev()
}

func (d *Dashboard) Controls() Controls {
	c := d.controls
	c.Page = d.pager.Page
	c.PageSize = d.pager.PageSize
	return c
}

func (d *Dashboard) View() View {
	primary, merged := d.merge()
	rows := aggregate.Paginate(merged, d.pager.Page, d.pager.PageSize)
	timeframe := aggregate.Summarize(primary)

	return View{
		Title:              title(d.controls.Kind, d.controls.Compare),
		Compare:            d.controls.Compare,
		Kind:               d.controls.Kind,
		Primary:            primary,
		Timeframe:          timeframe,
		AvgApplesPerTree:   aggregate.AvgApplesPerTree(timeframe),
		Merged:             merged,
		Rows:               rows,
		CurrentChartTotals: aggregate.ChartTotalsOf(rows, d.controls.Compare),
		Pager:              *d.pager,
		Chart:              charts.Build(d.controls.Kind, rows, d.controls.Compare),
	}
}

func (d *Dashboard) merge() ([]domain.DetectionRequest, []domain.ChartRow) {
	primary := aggregate.FilterByDateRange(d.requests, d.controls.Primary)
	var comparison []domain.DetectionRequest
	if d.controls.Compare {
		comparison = aggregate.FilterByDateRange(d.requests, d.controls.Comparison)
	}
	return primary, aggregate.Merge(primary, comparison, d.controls.Compare, d.settings.Duplicates)
}

// sync keeps the pager's total in step with the merged row count.
func (d *Dashboard) sync() {
	_, merged := d.merge()
	d.pager.SetTotal(len(merged))
}

func title(kind charts.Kind, compare bool) string {
	if compare {
		return fmt.Sprintf("Comparing %s for Selected Time Frames", kind.Name())
	}
	return fmt.Sprintf("Showing %s for Selected Time Frame", kind.Name())
}
