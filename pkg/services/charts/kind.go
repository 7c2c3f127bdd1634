package charts

import (
	"fmt"
	"strings"
)

// Kind identifies one of the supported chart renderings. The value is the URL slug.
type Kind string

const (
	KindBar           Kind = "bar"
	KindStackedBar    Kind = "stacked-bar"
	KindLine          Kind = "line"
	KindPie           Kind = "pie"
	KindRadar         Kind = "radar"
	KindCumulativeSum Kind = "cumulative-sum"
	KindBoxPlot       Kind = "box-plot"
	KindScatter       Kind = "scatter"
	KindTreeMap       Kind = "tree-map"
	KindLineForecast  Kind = "line-forecast"
	KindControl       Kind = "control"
)

var kindNames = map[Kind]string{
	KindBar:           "Bar Chart",
	KindStackedBar:    "Stacked Bar Chart",
	KindLine:          "Line Chart",
	KindPie:           "Pie Chart",
	KindRadar:         "Radar Chart",
	KindCumulativeSum: "Cumulative Sum Graph",
	KindBoxPlot:       "Box Plot",
	KindScatter:       "Scatter Plot",
	KindTreeMap:       "Tree Map",
	KindLineForecast:  "Line Chart with Forecasting",
	KindControl:       "Control Chart",
}

// Kinds lists every chart kind in menu order.
var Kinds = []Kind{
	KindBar,
	KindStackedBar,
	KindLine,
	KindPie,
	KindRadar,
	KindCumulativeSum,
	KindBoxPlot,
	KindScatter,
	KindTreeMap,
	KindLineForecast,
	KindControl,
}

const DefaultKind = KindBar

func (k Kind) Name() string {
	return kindNames[k]
}

func (k Kind) String() string {
	return k.Name()
}

// ParseKind accepts a slug ("stacked-bar") or a display name ("Stacked Bar Chart"), case-insensitively.
// An empty value selects DefaultKind.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultKind, nil
	}
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) || strings.EqualFold(s, k.Name()) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart type %q", s)
}
