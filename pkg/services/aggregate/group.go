package aggregate

import (
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
)

// DayKey is the calendar day of t in loc, formatted yyyy-MM-dd.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayLayout)
}

// GroupByDay partitions requests by the calendar day of CreatedAt in loc.
// Relative order inside each bucket follows the input.
func GroupByDay(requests []domain.DetectionRequest, loc *time.Location) domain.DateGroup {
	groups := domain.DateGroup{}
	for _, req := range requests {
		key := DayKey(req.CreatedAt, loc)
		groups[key] = append(groups[key], req)
	}
	return groups
}

// GroupBySession partitions requests by session id; missing ids land in the UnknownSession bucket.
func GroupBySession(requests []domain.DetectionRequest) domain.SessionGroup {
	groups := domain.SessionGroup{}
	for _, req := range requests {
		key := req.SessionID
		if key == "" {
			key = domain.UnknownSession
		}
		groups[key] = append(groups[key], req)
	}
	return groups
}

// SelectSession narrows requests to a single session. An empty id selects everything.
func SelectSession(requests []domain.DetectionRequest, sessionID string) []domain.DetectionRequest {
	if sessionID == "" {
		return requests
	}
	selected := make([]domain.DetectionRequest, 0)
	for _, req := range requests {
		key := req.SessionID
		if key == "" {
			key = domain.UnknownSession
		}
		if key == sessionID {
			selected = append(selected, req)
		}
	}
	return selected
}

// SortedDays returns the day keys newest first.
func SortedDays(groups domain.DateGroup) []string {
	days := slices.Sorted(maps.Keys(groups))
	slices.Reverse(days)
	return days
}

// SortedSessions returns session ids in lexical order with the UnknownSession bucket last.
func SortedSessions(groups domain.SessionGroup) []string {
	sessions := slices.Collect(maps.Keys(groups))
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i] == domain.UnknownSession {
			return false
		}
		if sessions[j] == domain.UnknownSession {
			return true
		}
		return sessions[i] < sessions[j]
	})
	return sessions
}

// Summarize sums detection counts across requests.
func Summarize(requests []domain.DetectionRequest) domain.Totals {
	var totals domain.Totals
	for _, req := range requests {
		totals.Apples += req.AppleCount()
		totals.Trees += req.TreeCount()
	}
	return totals
}
