package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/observability"
	"github.com/de-tools/orchard-atlas/pkg/services/requests"
	"github.com/rs/zerolog"
)

// Service fetches the analytics data set once per page load.
type Service interface {
	Load(ctx context.Context, userID string) ([]domain.DetectionRequest, error)
}

type service struct {
	repo requests.Repository
}

func NewService(repo requests.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("request repository is nil")
	}
	return &service{repo: repo}, nil
}

func (s *service) Load(ctx context.Context, userID string) ([]domain.DetectionRequest, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	start := time.Now()
	reqs, err := s.repo.List(ctx, userID)
	observability.AnalyticsLoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("load analytics data: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("user_id", userID).Int("count", len(reqs)).Msg("analytics data loaded")
	return reqs, nil
}
