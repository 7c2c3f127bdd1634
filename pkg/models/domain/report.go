package domain

import "time"

// Report is a rendered view handed to terminal reporters.
type Report struct {
	Title    string
	Period   TimePeriod
	Sections []ReportSection
	Totals   Totals
}

// TimePeriod is the filter range shown in a report header. Zero times mean unbounded.
type TimePeriod struct {
	Start time.Time
	End   time.Time
}

// ReportSection groups rows under one heading (a day, a session or a chart page).
type ReportSection struct {
	Title   string
	Summary map[string]interface{}
	Details []ReportDetail
}

// ReportDetail is a single table row in a section.
type ReportDetail struct {
	Name        string
	Apples      int
	Trees       int
	Description string
}
