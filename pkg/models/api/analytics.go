package api

type ChartRow struct {
	FileName         string `json:"fileName"`
	Apples           int    `json:"apples"`
	Trees            int    `json:"trees"`
	ApplesComparison *int   `json:"applesComparison,omitempty"`
	TreesComparison  *int   `json:"treesComparison,omitempty"`
}

type ChartTotals struct {
	Apples           int  `json:"apples"`
	Trees            int  `json:"trees"`
	ApplesComparison *int `json:"applesComparison"`
	TreesComparison  *int `json:"treesComparison"`
}

type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalCount int  `json:"totalCount"`
	TotalPages int  `json:"totalPages"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

type Series struct {
	DataKey string `json:"dataKey"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	StackID string `json:"stackId,omitempty"`
}

type ChartSpec struct {
	Kind    string               `json:"kind"`
	Slug    string               `json:"slug"`
	XKey    string               `json:"xKey"`
	YKey    string               `json:"yKey,omitempty"`
	Series  []Series             `json:"series"`
	Derived map[string][]float64 `json:"derived,omitempty"`
}

type AnalyticsView struct {
	Title              string      `json:"title"`
	CompareMode        bool        `json:"compareMode"`
	TotalApplesInRange int         `json:"totalApplesTimeframe"`
	TotalTreesInRange  int         `json:"totalTreesTimeframe"`
	AvgApplesPerTree   string      `json:"avgApplesPerTree"`
	Rows               []ChartRow  `json:"rows"`
	CurrentChartTotals ChartTotals `json:"currentChartTotals"`
	Pagination         Pagination  `json:"pagination"`
	Chart              ChartSpec   `json:"chart"`
}

type ChartKind struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
