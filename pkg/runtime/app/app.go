package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/services/analytics"
	"github.com/de-tools/orchard-atlas/pkg/services/bootstrap"
	"github.com/de-tools/orchard-atlas/pkg/services/config"
	"github.com/de-tools/orchard-atlas/pkg/services/live"
	"github.com/de-tools/orchard-atlas/pkg/services/requests"
	"github.com/de-tools/orchard-atlas/pkg/store/duckdb"
	requestsstore "github.com/de-tools/orchard-atlas/pkg/store/duckdb/requests"
	"github.com/de-tools/orchard-atlas/pkg/store/objects"
	"github.com/rs/zerolog"
)

// App is the wired service graph shared by the web server and the CLI.
type App struct {
	Config     *config.Config
	Location   *time.Location
	DB         *sql.DB
	Broker     *live.Broker
	Repository requests.Repository
	Feed       live.Feed
	Analytics  analytics.Service
}

// NewLogger builds the root logger at the configured level.
func NewLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log.level: %w", err)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Open connects storage and builds the services. Writes made through the repository wake
// live subscribers of the same process.
func Open(cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}

	store, err := requestsstore.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create request store: %w", err)
	}
	broker := live.NewBroker()
	repo, err := requests.NewRepository(live.NewNotifyingStore(store, broker))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create request repository: %w", err)
	}
	feed, err := live.NewStoreFeed(repo, broker)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create live feed: %w", err)
	}
	svc, err := analytics.NewService(repo)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analytics service: %w", err)
	}

	return &App{
		Config:     cfg,
		Location:   loc,
		DB:         db,
		Broker:     broker,
		Repository: repo,
		Feed:       feed,
		Analytics:  svc,
	}, nil
}

// RootFolder picks the S3 marker folder when a bucket is configured, a local directory otherwise.
func RootFolder(ctx context.Context, cfg config.StorageConfig) (objects.RootFolder, error) {
	if cfg.Bucket == "" {
		return objects.NewLocalRootFolder(cfg.LocalRoot, cfg.Prefix)
	}
	client, err := objects.NewS3Client(ctx, cfg.Region, cfg.Profile)
	if err != nil {
		return nil, err
	}
	return objects.NewS3RootFolder(client, cfg.Bucket, cfg.Prefix)
}

// Bootstrap creates the user-files root folder once per process.
func (a *App) Bootstrap(ctx context.Context) error {
	folder, err := RootFolder(ctx, a.Config.Storage)
	if err != nil {
		return err
	}
	return bootstrap.Init(ctx, folder)
}

func (a *App) AnalyticsSettings() analytics.Settings {
	return analytics.Settings{
		PageSize:   a.Config.Analytics.PageSize,
		Duplicates: a.Config.DuplicatePolicy(),
		Location:   a.Location,
	}
}

func (a *App) Close() error {
	return a.DB.Close()
}
