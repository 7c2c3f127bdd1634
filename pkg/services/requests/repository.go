package requests

import (
	"context"
	"fmt"

	"github.com/de-tools/orchard-atlas/pkg/adapters"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/models/store"
	requestsstore "github.com/de-tools/orchard-atlas/pkg/store/duckdb/requests"
	"github.com/rs/zerolog"
)

// Repository is the domain view of the request store used by the history and analytics services.
type Repository interface {
	List(ctx context.Context, userID string) ([]domain.DetectionRequest, error)
	Add(ctx context.Context, requests []domain.DetectionRequest) ([]string, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string, ids []string) error
}

type repository struct {
	store requestsstore.Store
}

func NewRepository(store requestsstore.Store) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("request store is nil")
	}
	return &repository{store: store}, nil
}

// List returns the user's requests, newest first. Rows that cannot be decoded are skipped and logged.
func (r *repository) List(ctx context.Context, userID string) ([]domain.DetectionRequest, error) {
	records, err := r.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	out := make([]domain.DetectionRequest, 0, len(records))
	for _, record := range records {
		req, err := adapters.MapStoreRequestRecordToDomain(record)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("request_id", record.ID).Msg("skipping malformed request")
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *repository) Add(ctx context.Context, requests []domain.DetectionRequest) ([]string, error) {
	records := make([]store.RequestRecord, 0, len(requests))
	for _, req := range requests {
		record, err := adapters.MapDomainRequestToStoreRecord(req)
		if err != nil {
			return nil, fmt.Errorf("map request %s: %w", req.ID, err)
		}
		records = append(records, record)
	}
	ids, err := r.store.Insert(ctx, records)
	if err != nil {
		return ids, fmt.Errorf("add requests: %w", err)
	}
	return ids, nil
}

func (r *repository) Delete(ctx context.Context, userID, id string) error {
	return r.store.Delete(ctx, userID, id)
}

func (r *repository) DeleteAll(ctx context.Context, userID string, ids []string) error {
	return r.store.DeleteBatch(ctx, userID, ids)
}
