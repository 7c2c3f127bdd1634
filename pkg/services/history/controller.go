package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	"github.com/de-tools/orchard-atlas/pkg/services/live"
	"github.com/de-tools/orchard-atlas/pkg/services/observability"
	"github.com/de-tools/orchard-atlas/pkg/services/requests"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

type Options struct {
	MaxRetries int
	// BaseDelay is multiplied by the attempt number: 1x, 2x, 3x...
	BaseDelay time.Duration
	// Wait blocks for d or until ctx is done. Defaults to a timer.
	Wait     func(ctx context.Context, d time.Duration) error
	Location *time.Location
	// OnUpdate receives views in the order they were built; a view older than one already
	// delivered is dropped. Calls are serialized and must not call back into the controller's
	// publishing methods.
	OnUpdate func(View)
	// Deleter is shared when several controllers must honour the same in-flight guards.
	Deleter *Deleter
}

// Controller keeps one live subscription to a user's requests and republishes a View on every
// change. Errors are retried with a linearly growing delay; once MaxRetries consecutive
// retries have failed the controller stays in StateFailed until restarted.
type Controller struct {
	feed   live.Feed
	userID string
	opts   Options

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	state       State
	attempt     int
	gen         uint64
	unsubscribe live.Unsubscribe
	all         []domain.DetectionRequest
	dateRange   domain.DateRange
	session     string
	err         error
	view        View
	counted     bool
	seq         uint64

	pubMu     sync.Mutex
	published uint64
}

func NewController(feed live.Feed, repo requests.Repository, userID string, opts Options) (*Controller, error) {
	if feed == nil {
		return nil, fmt.Errorf("live feed is nil")
	}
	if repo == nil {
		return nil, fmt.Errorf("request repository is nil")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.Wait == nil {
		opts.Wait = wait
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Deleter == nil {
		opts.Deleter = NewDeleter(repo)
	}

	c := &Controller{
		feed:   feed,
		userID: userID,
		opts:   opts,
		state:  StateIdle,
	}
	c.view = c.buildLocked()
	return c, nil
}

// Start opens the live subscription. It returns ErrUnauthenticated without retrying when
// the controller has no user.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.userID == "" {
		c.err = domain.ErrUnauthenticated
		c.setStateLocked(StateFailed)
		view := c.buildLocked()
		c.mu.Unlock()
		c.publish(view)
		return domain.ErrUnauthenticated
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.attempt = 0
	c.mu.Unlock()

	c.subscribe()
	return nil
}

// Refresh drops the current subscription and subscribes again with a fresh retry budget.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.ctx == nil {
		c.mu.Unlock()
		return
	}
	c.attempt = 0
	c.mu.Unlock()
	c.subscribe()
}

// SetDateRange changes the filter and re-subscribes.
func (c *Controller) SetDateRange(r domain.DateRange) {
	c.mu.Lock()
	c.dateRange = r
	if c.ctx == nil {
		c.view = c.buildLocked()
		c.mu.Unlock()
		return
	}
	c.attempt = 0
	c.mu.Unlock()
	c.subscribe()
}

// SelectSession narrows the rendered groups to one session; an empty id shows all.
func (c *Controller) SelectSession(id string) {
	c.mu.Lock()
	c.session = id
	view := c.buildLocked()
	c.mu.Unlock()
	c.publish(view)
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DeleteOne removes a single request. A second delete of the same id while the first is
// running fails with ErrDeleteInProgress.
func (c *Controller) DeleteOne(ctx context.Context, id string) error {
	return c.opts.Deleter.DeleteOne(ctx, c.userID, id)
}

// DeleteAll removes every request in the currently filtered set in one batch. The
// confirmation must equal domain.DeleteAllConfirmation exactly.
func (c *Controller) DeleteAll(ctx context.Context, confirmation string) (int, error) {
	if confirmation != domain.DeleteAllConfirmation {
		return 0, domain.ErrConfirmationMismatch
	}
	c.mu.Lock()
	ids := IDs(aggregate.FilterByDateRange(c.all, c.dateRange))
	c.mu.Unlock()

	return c.opts.Deleter.DeleteAll(ctx, c.userID, confirmation, ids)
}

// Close releases the subscription and cancels any pending retry.
func (c *Controller) Close() {
	c.mu.Lock()
	c.gen++
	c.releaseLocked()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.ctx = nil
	c.setStateLocked(StateIdle)
	c.mu.Unlock()
}

func (c *Controller) subscribe() {
	c.mu.Lock()
	if c.ctx == nil {
		c.mu.Unlock()
		return
	}
	c.releaseLocked()
	c.gen++
	g := c.gen
	ctx := c.ctx
	c.setStateLocked(StateSubscribing)
	view := c.buildLocked()
	c.mu.Unlock()
	c.publish(view)

	unsubscribe, err := c.feed.Subscribe(
		ctx,
		c.userID,
		func(snapshot []domain.DetectionRequest) { c.onSnapshot(g, snapshot) },
		func(err error) { c.onError(g, err) },
	)

	c.mu.Lock()
	if g != c.gen {
		c.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
		return
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	if err != nil {
		c.onError(g, err)
	}
}

func (c *Controller) onSnapshot(g uint64, snapshot []domain.DetectionRequest) {
	c.mu.Lock()
	if g != c.gen {
		c.mu.Unlock()
		return
	}
	c.all = snapshot
	c.attempt = 0
	c.err = nil
	c.setStateLocked(StateActive)
	view := c.buildLocked()
	c.mu.Unlock()

	observability.SnapshotsDelivered.Inc()
	c.publish(view)
}

func (c *Controller) onError(g uint64, err error) {
	c.mu.Lock()
	if g != c.gen {
		c.mu.Unlock()
		return
	}
	log := zerolog.Ctx(c.ctx)
	c.gen++
	c.releaseLocked()

	if errors.Is(err, domain.ErrUnauthenticated) || c.attempt >= c.opts.MaxRetries {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.err = err
		} else {
			c.err = fmt.Errorf("%w: %w", domain.ErrSubscriptionFailed, err)
			observability.SubscriptionFailures.Inc()
		}
		c.setStateLocked(StateFailed)
		log.Error().Err(err).Str("user_id", c.userID).Int("attempt", c.attempt).Msg("history subscription failed")
		view := c.buildLocked()
		c.mu.Unlock()
		c.publish(view)
		return
	}

	c.attempt++
	delay := c.opts.BaseDelay * time.Duration(c.attempt)
	retryGen := c.gen
	ctx := c.ctx
	c.err = err
	c.setStateLocked(StateBackoff)
	log.Warn().Err(err).
		Str("user_id", c.userID).
		Int("attempt", c.attempt).
		Dur("delay", delay).
		Msg("history subscription error, retrying")
	view := c.buildLocked()
	c.mu.Unlock()

	observability.SubscriptionRetries.Inc()
	c.publish(view)

	go func() {
		if err := c.opts.Wait(ctx, delay); err != nil {
			return
		}
		c.mu.Lock()
		stale := retryGen != c.gen
		c.mu.Unlock()
		if !stale {
			c.subscribe()
		}
	}()
}

func (c *Controller) releaseLocked() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Controller) setStateLocked(s State) {
	if s == StateActive && !c.counted {
		observability.ActiveSubscriptions.Inc()
		c.counted = true
	} else if s != StateActive && c.counted {
		observability.ActiveSubscriptions.Dec()
		c.counted = false
	}
	c.state = s
}

func (c *Controller) buildLocked() View {
	view := BuildView(c.all, c.dateRange, c.session, c.opts.Location)
	view.State = c.state
	view.Err = c.err
	view.Attempt = c.attempt
	c.seq++
	view.seq = c.seq
	c.view = view
	return view
}

func (c *Controller) publish(view View) {
	if c.opts.OnUpdate == nil {
		return
	}
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if view.seq <= c.published {
		return
	}
	c.published = view.seq
	c.opts.OnUpdate(view)
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
