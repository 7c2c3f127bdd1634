package charts

import (
	"math"
	"sort"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
)

const (
	colorApples           = "#8884d8"
	colorTrees            = "#82ca9d"
	colorApplesComparison = "#ffc658"
	colorTreesComparison  = "#ff8042"
	colorUpperLimit       = "red"
	colorLowerLimit       = "green"

	// ForecastHorizon is how many points past the last row the forecast extends.
	ForecastHorizon = 3
)

type Series struct {
	DataKey string
	Name    string
	Color   string
	StackID string
}

// Spec describes how a client should draw rows as the given kind. Derived holds values
// computed from the rows (cumulative sums, quartiles, forecasts, control limits).
type Spec struct {
	Kind    Kind
	XKey    string
	YKey    string
	Series  []Series
	Derived map[string][]float64
}

// Build produces the spec for kind over rows. Comparison series are only included when
// compare is true.
func Build(kind Kind, rows []domain.ChartRow, compare bool) Spec {
	spec := Spec{Kind: kind, XKey: "fileName", Derived: map[string][]float64{}}

	apples := column(rows, func(r domain.ChartRow) int { return r.Apples })
	trees := column(rows, func(r domain.ChartRow) int { return r.Trees })
	applesCmp := column(rows, func(r domain.ChartRow) int { return deref(r.ApplesComparison) })
	treesCmp := column(rows, func(r domain.ChartRow) int { return deref(r.TreesComparison) })

	switch kind {
	case KindStackedBar:
		spec.Series = primarySeries("a")
		if compare {
			spec.Series = append(spec.Series, comparisonSeries("b")...)
		}
	case KindPie:
		spec.YKey = "apples"
		spec.Series = primarySeries("")
		if compare {
			spec.Series = append(spec.Series, comparisonSeries("")...)
		}
	case KindCumulativeSum:
		spec.Series = []Series{
			{DataKey: "apples", Name: "Apples", Color: colorApples},
			{DataKey: "trees", Name: "Trees", Color: colorTrees},
		}
		spec.Derived["applesCumulative"] = cumulative(apples)
		spec.Derived["treesCumulative"] = cumulative(trees)
		if compare {
			spec.Derived["applesComparisonCumulative"] = cumulative(applesCmp)
			spec.Derived["treesComparisonCumulative"] = cumulative(treesCmp)
		}
	case KindBoxPlot:
		spec.Series = []Series{
			{DataKey: "apples", Name: "Apples", Color: colorApples},
			{DataKey: "trees", Name: "Trees", Color: colorTrees},
		}
		spec.Derived["applesBox"] = fiveNumber(apples)
		spec.Derived["treesBox"] = fiveNumber(trees)
	case KindScatter:
		spec.XKey = "trees"
		spec.YKey = "apples"
		spec.Series = []Series{{DataKey: "apples", Name: "Tree vs. Apple Correlation", Color: colorApples}}
	case KindTreeMap:
		spec.YKey = "apples"
		spec.Series = []Series{{DataKey: "apples", Name: "Apples", Color: colorApples}}
	case KindLineForecast:
		spec.Series = primarySeries("")
		if compare {
			spec.Series = append(spec.Series, comparisonSeries("")...)
		}
		spec.Derived["applesForecast"] = forecast(apples, ForecastHorizon)
		spec.Derived["treesForecast"] = forecast(trees, ForecastHorizon)
	case KindControl:
		spec.Series = primarySeries("")
		if compare {
			spec.Series = append(spec.Series, comparisonSeries("")...)
		}
		spec.Series = append(spec.Series,
			Series{DataKey: "upperLimit", Name: "Upper Control Limit", Color: colorUpperLimit},
			Series{DataKey: "lowerLimit", Name: "Lower Control Limit", Color: colorLowerLimit},
		)
		mean, upper, lower := controlLimits(apples)
		spec.Derived["mean"] = []float64{mean}
		spec.Derived["upperLimit"] = []float64{upper}
		spec.Derived["lowerLimit"] = []float64{lower}
	default:
		// bar, line and radar share the plain primary/comparison series
		spec.Series = primarySeries("")
		if compare {
			spec.Series = append(spec.Series, comparisonSeries("")...)
		}
	}
	return spec
}

func primarySeries(stack string) []Series {
	return []Series{
		{DataKey: "apples", Name: "Apples (Primary)", Color: colorApples, StackID: stack},
		{DataKey: "trees", Name: "Trees (Primary)", Color: colorTrees, StackID: stack},
	}
}

func comparisonSeries(stack string) []Series {
	return []Series{
		{DataKey: "applesComparison", Name: "Apples (Comparison)", Color: colorApplesComparison, StackID: stack},
		{DataKey: "treesComparison", Name: "Trees (Comparison)", Color: colorTreesComparison, StackID: stack},
	}
}

func column(rows []domain.ChartRow, get func(domain.ChartRow) int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = float64(get(r))
	}
	return out
}

func cumulative(values []float64) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}

// fiveNumber returns min, q1, median, q3, max using linear interpolation between ranks.
func fiveNumber(values []float64) []float64 {
	if len(values) == 0 {
		return []float64{}
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	return []float64{
		sorted[0],
		quantile(sorted, 0.25),
		quantile(sorted, 0.5),
		quantile(sorted, 0.75),
		sorted[len(sorted)-1],
	}
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// forecast fits y = a + b*x by least squares over x = 0..n-1 and extends it horizon points.
func forecast(values []float64, horizon int) []float64 {
	n := len(values)
	if n == 0 {
		return []float64{}
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	var slope float64
	if denom := fn*sumXX - sumX*sumX; denom != 0 {
		slope = (fn*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / fn

	out := make([]float64, horizon)
	for i := range out {
		out[i] = intercept + slope*float64(n+i)
	}
	return out
}

// controlLimits returns the mean and mean ± 3 population standard deviations.
func controlLimits(values []float64) (mean, upper, lower float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(variance / float64(len(values)))
	return mean, mean + 3*sd, mean - 3*sd
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
