package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	"github.com/de-tools/orchard-atlas/pkg/services/live"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type subscription struct {
	onSnapshot   func([]domain.DetectionRequest)
	onError      func(error)
	unsubscribed bool
}

// fakeFeed hands every subscription to script, which decides what the listener does.
type fakeFeed struct {
	mu     sync.Mutex
	subs   []*subscription
	script func(n int, s *subscription)
}

func (f *fakeFeed) Subscribe(
	ctx context.Context,
	userID string,
	onSnapshot func([]domain.DetectionRequest),
	onError func(error),
) (live.Unsubscribe, error) {
	f.mu.Lock()
	s := &subscription{onSnapshot: onSnapshot, onError: onError}
	f.subs = append(f.subs, s)
	n := len(f.subs)
	f.mu.Unlock()

	if f.script != nil {
		go f.script(n, s)
	}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		s.unsubscribed = true
	}, nil
}

func (f *fakeFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeFeed) sub(i int) *subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[i]
}

func (f *fakeFeed) released(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[i].unsubscribed
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context, userID string) ([]domain.DetectionRequest, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.DetectionRequest), args.Error(1)
}

func (m *mockRepository) Add(ctx context.Context, requests []domain.DetectionRequest) ([]string, error) {
	args := m.Called(ctx, requests)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockRepository) DeleteAll(ctx context.Context, userID string, ids []string) error {
	args := m.Called(ctx, userID, ids)
	return args.Error(0)
}

type delayRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (d *delayRecorder) wait(ctx context.Context, delay time.Duration) error {
	d.mu.Lock()
	d.delays = append(d.delays, delay)
	d.mu.Unlock()
	return ctx.Err()
}

func (d *delayRecorder) recorded() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration{}, d.delays...)
}

func sampleRequests() []domain.DetectionRequest {
	mk := func(id, created string, apples, trees int, session string) domain.DetectionRequest {
		at, _ := time.Parse(time.RFC3339, created)
		return domain.DetectionRequest{
			ID:              id,
			UserID:          "user-1",
			FileName:        id + ".jpg",
			CreatedAt:       at,
			AppleDetections: make([]domain.Detection, apples),
			TreeDetections:  make([]domain.Detection, trees),
			SessionID:       session,
		}
	}
	return []domain.DetectionRequest{
		mk("c", "2024-01-02T09:00:00Z", 0, 4, "s2"),
		mk("b", "2024-01-01T15:00:00Z", 3, 0, "s1"),
		mk("a", "2024-01-01T09:00:00Z", 2, 1, domain.UnknownSession),
	}
}

func newController(t *testing.T, feed live.Feed, repo *mockRepository, userID string, delays *delayRecorder) *Controller {
	opts := Options{}
	if delays != nil {
		opts.Wait = delays.wait
	}
	c, err := NewController(feed, repo, userID, opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestController_RetriesThenFails(t *testing.T) {
	feed := &fakeFeed{script: func(_ int, s *subscription) {
		s.onError(errors.New("permission denied"))
	}}
	delays := &delayRecorder{}
	c := newController(t, feed, &mockRepository{}, "user-1", delays)

	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool { return c.State() == StateFailed }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, delays.recorded())
	assert.Equal(t, 4, feed.count())
	assert.ErrorIs(t, c.View().Err, domain.ErrSubscriptionFailed)
	assert.Equal(t, "failed to fetch AI requests after multiple attempts", domain.ErrSubscriptionFailed.Error())

	// no further retries once failed
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 4, feed.count())
	assert.Len(t, delays.recorded(), 3)
}

func TestController_SnapshotResetsAttempts(t *testing.T) {
	feed := &fakeFeed{script: func(n int, s *subscription) {
		if n == 1 {
			s.onError(errors.New("unavailable"))
			return
		}
		s.onSnapshot(sampleRequests())
	}}
	delays := &delayRecorder{}
	c := newController(t, feed, &mockRepository{}, "user-1", delays)

	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool { return c.State() == StateActive }, time.Second, 5*time.Millisecond)
	view := c.View()
	assert.Equal(t, 0, view.Attempt)
	assert.NoError(t, view.Err)
	assert.Equal(t, []time.Duration{time.Second}, delays.recorded())
	assert.True(t, feed.released(0))
}

func TestController_SnapshotBuildsView(t *testing.T) {
	feed := &fakeFeed{script: func(_ int, s *subscription) {
		s.onSnapshot(sampleRequests())
	}}
	updates := make(chan View, 16)
	c, err := NewController(feed, &mockRepository{}, "user-1", Options{
		OnUpdate: func(v View) { updates <- v },
	})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))

	var view View
	require.Eventually(t, func() bool {
		select {
		case view = <-updates:
			return view.State == StateActive
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.Totals{Apples: 5, Trees: 5}, view.Totals)
	assert.Equal(t, []string{"2024-01-02", "2024-01-01"}, view.Days)
	assert.Equal(t, []string{"s1", "s2", domain.UnknownSession}, view.Sessions)
	assert.Len(t, view.ByDate["2024-01-01"], 2)
}

func TestController_SetDateRangeResubscribes(t *testing.T) {
	feed := &fakeFeed{script: func(_ int, s *subscription) {
		s.onSnapshot(sampleRequests())
	}}
	c := newController(t, feed, &mockRepository{}, "user-1", nil)
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return c.State() == StateActive }, time.Second, 5*time.Millisecond)

	r, err := aggregate.DayRange("2024-01-01", "2024-01-01", time.UTC)
	require.NoError(t, err)
	c.SetDateRange(r)

	assert.Equal(t, 2, feed.count())
	assert.True(t, feed.released(0), "previous subscription released before re-subscribing")

	require.Eventually(t, func() bool {
		v := c.View()
		return v.State == StateActive && len(v.Requests) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.Totals{Apples: 5, Trees: 1}, c.View().Totals)

	// callbacks from the released subscription are ignored
	feed.sub(0).onSnapshot(nil)
	assert.Len(t, c.View().Requests, 2)
}

func TestController_SelectSessionKeepsTotals(t *testing.T) {
	feed := &fakeFeed{script: func(_ int, s *subscription) {
		s.onSnapshot(sampleRequests())
	}}
	c := newController(t, feed, &mockRepository{}, "user-1", nil)
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return c.State() == StateActive }, time.Second, 5*time.Millisecond)

	c.SelectSession("s1")
	view := c.View()

	assert.Equal(t, "s1", view.SelectedSession)
	assert.Len(t, view.BySession, 1)
	assert.Len(t, view.BySession["s1"], 1)
	assert.Equal(t, domain.Totals{Apples: 5, Trees: 5}, view.Totals)
	assert.Equal(t, 1, feed.count(), "session selection does not re-subscribe")
}

func TestController_Unauthenticated(t *testing.T) {
	feed := &fakeFeed{}
	c := newController(t, feed, &mockRepository{}, "", nil)

	err := c.Start(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, StateFailed, c.State())
	assert.Zero(t, feed.count())
}

func TestController_CloseCancelsRetry(t *testing.T) {
	feed := &fakeFeed{script: func(_ int, s *subscription) {
		s.onError(errors.New("unavailable"))
	}}
	c, err := NewController(feed, &mockRepository{}, "user-1", Options{BaseDelay: time.Hour})
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return c.State() == StateBackoff }, time.Second, 5*time.Millisecond)

	c.Close()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, feed.count())
	assert.Equal(t, StateIdle, c.State())
}

func TestController_DeleteAll(t *testing.T) {
	feed := &fakeFeed{script: func(_ int, s *subscription) {
		s.onSnapshot(sampleRequests())
	}}

	t.Run("confirmation mismatch makes no store call", func(t *testing.T) {
		repo := &mockRepository{}
		c := newController(t, feed, repo, "user-1", nil)
		require.NoError(t, c.Start(context.Background()))
		require.Eventually(t, func() bool { return c.State() == StateActive }, time.Second, 5*time.Millisecond)

		for _, confirmation := range []string{"delete-all-history", "", "DELETE-ALL-HISTORY "} {
			_, err := c.DeleteAll(context.Background(), confirmation)
			assert.ErrorIs(t, err, domain.ErrConfirmationMismatch)
		}
		repo.AssertNotCalled(t, "DeleteAll", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("exact confirmation deletes filtered set in one batch", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("DeleteAll", mock.Anything, "user-1", []string{"b", "a"}).Return(nil).Once()

		c := newController(t, feed, repo, "user-1", nil)
		require.NoError(t, c.Start(context.Background()))
		r, err := aggregate.DayRange("2024-01-01", "2024-01-01", time.UTC)
		require.NoError(t, err)
		c.SetDateRange(r)
		require.Eventually(t, func() bool { return c.State() == StateActive }, time.Second, 5*time.Millisecond)

		n, err := c.DeleteAll(context.Background(), domain.DeleteAllConfirmation)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		repo.AssertNumberOfCalls(t, "DeleteAll", 1)
	})

	t.Run("store failure is surfaced", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("DeleteAll", mock.Anything, "user-1", mock.Anything).Return(domain.ErrNotFound)

		c := newController(t, feed, repo, "user-1", nil)
		require.NoError(t, c.Start(context.Background()))
		require.Eventually(t, func() bool { return c.State() == StateActive }, time.Second, 5*time.Millisecond)

		_, err := c.DeleteAll(context.Background(), domain.DeleteAllConfirmation)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestController_DeleteOneInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	repo := &mockRepository{}
	repo.On("Delete", mock.Anything, "user-1", "a").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil).Once()

	c := newController(t, &fakeFeed{}, repo, "user-1", nil)

	done := make(chan error, 1)
	go func() { done <- c.DeleteOne(context.Background(), "a") }()
	<-started

	assert.ErrorIs(t, c.DeleteOne(context.Background(), "a"), domain.ErrDeleteInProgress)

	close(release)
	require.NoError(t, <-done)
	repo.AssertNumberOfCalls(t, "Delete", 1)
}

func TestController_PublishesInBuildOrder(t *testing.T) {
	feed := &fakeFeed{script: func(n int, s *subscription) {
		if n == 1 {
			s.onSnapshot(sampleRequests()[:1])
		}
	}}

	var (
		mu        sync.Mutex
		published []View
		blockOnce sync.Once
	)
	blocking := make(chan struct{})
	c, err := NewController(feed, &mockRepository{}, "user-1", Options{
		OnUpdate: func(v View) {
			if v.SelectedSession == "s2" && v.State == StateActive && len(v.Requests) == 1 {
				blockOnce.Do(func() {
					close(blocking)
					time.Sleep(100 * time.Millisecond)
				})
			}
			mu.Lock()
			published = append(published, v)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return c.State() == StateActive }, time.Second, 5*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.SelectSession("s2")
	}()
	<-blocking
	go func() {
		defer wg.Done()
		feed.sub(0).onSnapshot(sampleRequests())
	}()
	wg.Wait()

	assert.Len(t, c.View().Requests, 3)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, published)
	last := published[len(published)-1]
	assert.Len(t, last.Requests, 3, "last delivered view matches the controller's current view")
	for i := 1; i < len(published); i++ {
		assert.Less(t, published[i-1].seq, published[i].seq)
	}
}
