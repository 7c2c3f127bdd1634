package aggregate

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
)

const dayLayout = "2006-01-02"

// FilterByDateRange keeps requests whose CreatedAt falls inside the range, inclusive on
// both bounds. A range without bounds returns the input unchanged.
func FilterByDateRange(requests []domain.DetectionRequest, r domain.DateRange) []domain.DetectionRequest {
	if r.IsZero() {
		return requests
	}

	filtered := make([]domain.DetectionRequest, 0, len(requests))
	for _, req := range requests {
		if r.Start != nil && req.CreatedAt.Before(*r.Start) {
			continue
		}
		if r.End != nil && req.CreatedAt.After(*r.End) {
			continue
		}
		filtered = append(filtered, req)
	}
	return filtered
}

// DayRange builds a range from date picker values (yyyy-MM-dd). The end day is included
// up to its last nanosecond. Empty strings leave the bound open.
func DayRange(start, end string, loc *time.Location) (domain.DateRange, error) {
	var r domain.DateRange

	if start != "" {
		t, err := ParseBound(start, loc, false)
		if err != nil {
			return r, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		r.Start = &t
	}
	if end != "" {
		t, err := ParseBound(end, loc, true)
		if err != nil {
			return r, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		r.End = &t
	}
	return r, nil
}

// ParseBound parses a filter bound. Plain dates resolve to the start (or end) of that day in
// loc; full timestamps are taken as-is.
func ParseBound(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)

	if day, err := time.ParseInLocation(dayLayout, value, loc); err == nil {
		if endOfDay {
			return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return day, nil
	}

	t, err := dateparse.ParseIn(value, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
