package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/requests"
	"github.com/rs/zerolog"
)

// Unsubscribe releases a live subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Feed delivers the full ordered set of a user's requests whenever it changes.
type Feed interface {
	Subscribe(
		ctx context.Context,
		userID string,
		onSnapshot func([]domain.DetectionRequest),
		onError func(error),
	) (Unsubscribe, error)
}

type storeFeed struct {
	repo   requests.Repository
	broker *Broker
}

func NewStoreFeed(repo requests.Repository, broker *Broker) (Feed, error) {
	if repo == nil {
		return nil, fmt.Errorf("request repository is nil")
	}
	if broker == nil {
		return nil, fmt.Errorf("broker is nil")
	}
	return &storeFeed{repo: repo, broker: broker}, nil
}

// Subscribe sends an initial snapshot and a fresh one after every change. The first query
// error is reported through onError and ends the listener. After the returned Unsubscribe
// completes no new change is picked up; a query already running may still report its result.
func (f *storeFeed) Subscribe(
	ctx context.Context,
	userID string,
	onSnapshot func([]domain.DetectionRequest),
	onError func(error),
) (Unsubscribe, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if onSnapshot == nil || onError == nil {
		return nil, fmt.Errorf("snapshot and error callbacks are required")
	}

	ctx, cancel := context.WithCancel(ctx)
	changes, stop := f.broker.Subscribe(userID)
	log := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()

	go func() {
		defer stop()
		for {
			snapshot, err := f.repo.List(ctx, userID)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Debug().Err(err).Msg("live query failed")
				onError(err)
				return
			}
			onSnapshot(snapshot)

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			stop()
		})
	}, nil
}
