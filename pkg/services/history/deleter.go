package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/observability"
	"github.com/de-tools/orchard-atlas/pkg/services/requests"
	"github.com/rs/zerolog"
)

// Deleter runs user-triggered deletions, refusing a second deletion of the same target while
// the first one is still running.
type Deleter struct {
	repo requests.Repository

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewDeleter(repo requests.Repository) *Deleter {
	return &Deleter{repo: repo, inFlight: map[string]bool{}}
}

func (d *Deleter) acquire(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight[key] {
		return false
	}
	d.inFlight[key] = true
	return true
}

func (d *Deleter) release(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, key)
}

// DeleteOne removes a single request owned by userID.
func (d *Deleter) DeleteOne(ctx context.Context, userID, id string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	key := userID + "/" + id
	if !d.acquire(key) {
		return domain.ErrDeleteInProgress
	}
	defer d.release(key)

	if err := d.repo.Delete(ctx, userID, id); err != nil {
		observability.Deletes.WithLabelValues("single", "error").Inc()
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Str("request_id", id).Msg("delete failed")
		return fmt.Errorf("delete request %s: %w", id, err)
	}
	observability.Deletes.WithLabelValues("single", "ok").Inc()
	return nil
}

// DeleteAll removes ids in one batch. The confirmation must equal domain.DeleteAllConfirmation
// exactly; otherwise nothing reaches the store.
func (d *Deleter) DeleteAll(ctx context.Context, userID, confirmation string, ids []string) (int, error) {
	if confirmation != domain.DeleteAllConfirmation {
		return 0, domain.ErrConfirmationMismatch
	}
	if userID == "" {
		return 0, domain.ErrUnauthenticated
	}
	if len(ids) == 0 {
		return 0, nil
	}
	key := userID + "/*"
	if !d.acquire(key) {
		return 0, domain.ErrDeleteInProgress
	}
	defer d.release(key)

	if err := d.repo.DeleteAll(ctx, userID, ids); err != nil {
		observability.Deletes.WithLabelValues("batch", "error").Inc()
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Int("count", len(ids)).Msg("bulk delete failed")
		return 0, fmt.Errorf("delete all requests: %w", err)
	}
	observability.Deletes.WithLabelValues("batch", "ok").Inc()
	zerolog.Ctx(ctx).Info().Str("user_id", userID).Int("count", len(ids)).Msg("history cleared")
	return len(ids), nil
}

// IDs lists the ids of requests in order.
func IDs(requests []domain.DetectionRequest) []string {
	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.ID)
	}
	return ids
}
