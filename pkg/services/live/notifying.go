package live

import (
	"context"

	"github.com/de-tools/orchard-atlas/pkg/models/store"
	"github.com/de-tools/orchard-atlas/pkg/store/duckdb/requests"
)

type notifyingStore struct {
	requests.Store
	broker *Broker
}

// NewNotifyingStore wraps store so that each successful write publishes a change for the
// affected user.
func NewNotifyingStore(store requests.Store, broker *Broker) requests.Store {
	return &notifyingStore{Store: store, broker: broker}
}

func (s *notifyingStore) Insert(ctx context.Context, records []store.RequestRecord) ([]string, error) {
	ids, err := s.Store.Insert(ctx, records)
	users := map[string]struct{}{}
	for i := range ids {
		users[records[i].UserID] = struct{}{}
	}
	for userID := range users {
		s.broker.Publish(userID)
	}
	return ids, err
}

func (s *notifyingStore) Delete(ctx context.Context, userID, id string) error {
	if err := s.Store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.broker.Publish(userID)
	return nil
}

func (s *notifyingStore) DeleteBatch(ctx context.Context, userID string, ids []string) error {
	if err := s.Store.DeleteBatch(ctx, userID, ids); err != nil {
		return err
	}
	if len(ids) > 0 {
		s.broker.Publish(userID)
	}
	return nil
}
