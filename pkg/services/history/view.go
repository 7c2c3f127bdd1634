package history

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	"github.com/de-tools/orchard-atlas/pkg/services/requests"
)

type State string

const (
	StateIdle        State = "idle"
	StateSubscribing State = "subscribing"
	StateActive      State = "active"
	StateBackoff     State = "backoff"
	StateFailed      State = "failed"
)

// View is everything the history page renders for one snapshot.
type View struct {
	State           State
	Err             error
	Attempt         int
	Requests        []domain.DetectionRequest
	ByDate          domain.DateGroup
	BySession       domain.SessionGroup
	Days            []string
	Sessions        []string
	Totals          domain.Totals
	SelectedSession string

	seq uint64
}

// BuildView filters requests by r and groups them. Totals cover the whole filtered set;
// selecting a session only narrows the rendered buckets.
func BuildView(requests []domain.DetectionRequest, r domain.DateRange, session string, loc *time.Location) View {
	filtered := aggregate.FilterByDateRange(requests, r)
	rendered := aggregate.SelectSession(filtered, session)

	byDate := aggregate.GroupByDay(rendered, loc)
	bySession := aggregate.GroupBySession(rendered)

	return View{
		Requests:        filtered,
		ByDate:          byDate,
		BySession:       bySession,
		Days:            aggregate.SortedDays(byDate),
		Sessions:        aggregate.SortedSessions(aggregate.GroupBySession(filtered)),
		Totals:          aggregate.Summarize(filtered),
		SelectedSession: session,
	}
}

// Load builds a one-off View from the user's current requests without subscribing.
func Load(
	ctx context.Context,
	repo requests.Repository,
	userID string,
	r domain.DateRange,
	session string,
	loc *time.Location,
) (View, error) {
	if userID == "" {
		return View{State: StateFailed, Err: domain.ErrUnauthenticated}, domain.ErrUnauthenticated
	}
	all, err := repo.List(ctx, userID)
	if err != nil {
		return View{State: StateFailed, Err: err}, fmt.Errorf("load history: %w", err)
	}
	view := BuildView(all, r, session, loc)
	view.State = StateActive
	return view, nil
}
