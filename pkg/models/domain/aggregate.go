package domain

import "time"

// DateRange bounds a filter on CreatedAt. Either bound may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// DateGroup maps a yyyy-MM-dd day key to the requests created on that day.
type DateGroup map[string][]DetectionRequest

// SessionGroup maps a session id to the requests sharing it.
type SessionGroup map[string][]DetectionRequest

type Totals struct {
	Apples int
	Trees  int
}

// ChartRow is one bar/point per file name. Comparison fields are nil when comparison mode is off.
type ChartRow struct {
	FileName         string
	Apples           int
	Trees            int
	ApplesComparison *int
	TreesComparison  *int
}

type ChartTotals struct {
	Apples           int
	Trees            int
	ApplesComparison *int
	TreesComparison  *int
}
