package aggregate

import (
	"testing"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByDay_Partition(t *testing.T) {
	requests := []domain.DetectionRequest{
		request("a", "a.jpg", at("2024-01-02T23:00:00Z"), 1, 0),
		request("b", "b.jpg", at("2024-01-01T10:00:00Z"), 1, 0),
		request("c", "c.jpg", at("2024-01-02T01:00:00Z"), 1, 0),
		request("d", "d.jpg", at("2024-01-01T09:00:00Z"), 1, 0),
	}

	groups := GroupByDay(requests, time.UTC)

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a", "c"}, ids(groups["2024-01-02"]))
	assert.Equal(t, []string{"b", "d"}, ids(groups["2024-01-01"]))

	total := 0
	for _, bucket := range groups {
		total += len(bucket)
	}
	assert.Equal(t, len(requests), total)
	assert.Equal(t, []string{"2024-01-02", "2024-01-01"}, SortedDays(groups))
}

func TestGroupByDay_UsesZone(t *testing.T) {
	requests := []domain.DetectionRequest{
		request("a", "a.jpg", at("2024-01-01T23:30:00Z"), 1, 0),
	}
	loc := time.FixedZone("UTC+2", 2*60*60)

	assert.Contains(t, GroupByDay(requests, time.UTC), "2024-01-01")
	assert.Contains(t, GroupByDay(requests, loc), "2024-01-02")
}

func TestGroupBySession_SentinelBucket(t *testing.T) {
	a := request("a", "a.jpg", at("2024-01-01T10:00:00Z"), 1, 0)
	a.SessionID = "s1"
	b := request("b", "b.jpg", at("2024-01-01T11:00:00Z"), 1, 0)
	c := request("c", "c.jpg", at("2024-01-01T12:00:00Z"), 1, 0)
	c.SessionID = "s1"

	groups := GroupBySession([]domain.DetectionRequest{a, b, c})

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a", "c"}, ids(groups["s1"]))
	assert.Equal(t, []string{"b"}, ids(groups[domain.UnknownSession]))
	assert.Equal(t, []string{"s1", domain.UnknownSession}, SortedSessions(groups))
}

func TestSelectSession(t *testing.T) {
	a := request("a", "a.jpg", at("2024-01-01T10:00:00Z"), 1, 0)
	a.SessionID = "s1"
	b := request("b", "b.jpg", at("2024-01-01T11:00:00Z"), 1, 0)
	all := []domain.DetectionRequest{a, b}

	assert.Equal(t, []string{"a", "b"}, ids(SelectSession(all, "")))
	assert.Equal(t, []string{"a"}, ids(SelectSession(all, "s1")))
	assert.Equal(t, []string{"b"}, ids(SelectSession(all, domain.UnknownSession)))
	assert.Empty(t, SelectSession(all, "missing"))
}

func TestFilterGroupSummarize_Scenario(t *testing.T) {
	requests := []domain.DetectionRequest{
		request("a", "a.jpg", at("2024-01-01T09:00:00Z"), 2, 1),
		request("b", "b.jpg", at("2024-01-01T15:00:00Z"), 3, 0),
		request("c", "c.jpg", at("2024-01-02T09:00:00Z"), 0, 4),
	}
	r, err := DayRange("2024-01-01", "2024-01-01", time.UTC)
	require.NoError(t, err)

	filtered := FilterByDateRange(requests, r)
	groups := GroupByDay(filtered, time.UTC)
	totals := Summarize(filtered)

	assert.Len(t, filtered, 2)
	assert.Len(t, groups, 1)
	assert.Equal(t, domain.Totals{Apples: 5, Trees: 1}, totals)
}

func ids(requests []domain.DetectionRequest) []string {
	out := make([]string, 0, len(requests))
	for _, r := range requests {
		out = append(out, r.ID)
	}
	return out
}
