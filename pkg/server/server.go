package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	analyticshandlers "github.com/de-tools/orchard-atlas/pkg/handlers/analytics"
	historyhandlers "github.com/de-tools/orchard-atlas/pkg/handlers/history"
	"github.com/de-tools/orchard-atlas/pkg/handlers/render"
	orchardmiddleware "github.com/de-tools/orchard-atlas/pkg/server/middleware"
	"github.com/de-tools/orchard-atlas/pkg/services/analytics"
	"github.com/de-tools/orchard-atlas/pkg/services/live"
	"github.com/de-tools/orchard-atlas/pkg/services/requests"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Repository requests.Repository
	Feed       live.Feed
	Analytics  analytics.Service
	Logger     zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	History         historyhandlers.Settings
	Analytics       analytics.Settings
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) *chi.Mux {
	deps := config.Dependencies
	historyHandler := historyhandlers.NewHandler(deps.Repository, deps.Feed, config.History)
	analyticsHandler := analyticshandlers.NewHandler(deps.Analytics, config.Analytics)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(orchardmiddleware.Logger(&deps.Logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(orchardmiddleware.Auth)

		r.Get("/history", historyHandler.GetHistory)
		r.Get("/history/stream", historyHandler.Stream)
		r.Delete("/requests/{id}", historyHandler.DeleteRequest)
		r.Post("/requests/delete-all", historyHandler.DeleteAll)

		r.Get("/analytics", analyticsHandler.GetAnalytics)
		r.Get("/analytics/export", analyticsHandler.Export)
		r.Get("/charts", analyticsHandler.ListCharts)
	})

	return router
}

func NewWebAPI(config Config) *WebAPI {
	router := ConfigureRouter(config)
	logger := config.Dependencies.Logger
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router:          router,
		logger:          &logger,
		shutdownTimeout: config.ShutdownTimeout,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
