package history

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/handlers/render"
	"github.com/de-tools/orchard-atlas/pkg/models/api"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/server/middleware"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	historysvc "github.com/de-tools/orchard-atlas/pkg/services/history"
	"github.com/de-tools/orchard-atlas/pkg/services/live"
	"github.com/de-tools/orchard-atlas/pkg/services/requests"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Settings struct {
	Location   *time.Location
	MaxRetries int
	BaseDelay  time.Duration
}

type Handler struct {
	repo     requests.Repository
	feed     live.Feed
	deleter  *historysvc.Deleter
	settings Settings
}

func NewHandler(repo requests.Repository, feed live.Feed, settings Settings) *Handler {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Handler{
		repo:     repo,
		feed:     feed,
		deleter:  historysvc.NewDeleter(repo),
		settings: settings,
	}
}

func (h *Handler) parseRange(r *http.Request) (domain.DateRange, error) {
	q := r.URL.Query()
	return aggregate.DayRange(q.Get("start"), q.Get("end"), h.settings.Location)
}

// GetHistory returns a one-off history view.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dateRange, err := h.parseRange(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := historysvc.Load(ctx, h.repo, middleware.UserID(ctx), dateRange, r.URL.Query().Get("session"), h.settings.Location)
	if err != nil {
		render.DomainError(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, mapHistoryViewToApi(view))
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.deleter.DeleteOne(ctx, middleware.UserID(ctx), id); err != nil {
		render.DomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll clears every request in the filtered range (start/end query params) after checking
// the typed confirmation.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var body api.DeleteAllRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Confirmation != domain.DeleteAllConfirmation {
		logger.Info().Msg("bulk delete rejected: confirmation mismatch")
		render.DomainError(w, r, domain.ErrConfirmationMismatch)
		return
	}
	dateRange, err := h.parseRange(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	userID := middleware.UserID(ctx)
	all, err := h.repo.List(ctx, userID)
	if err != nil {
		render.DomainError(w, r, err)
		return
	}
	ids := historysvc.IDs(aggregate.FilterByDateRange(all, dateRange))

	deleted, err := h.deleter.DeleteAll(ctx, userID, body.Confirmation, ids)
	if err != nil {
		render.DomainError(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, api.DeleteAllResponse{Deleted: deleted})
}

// streamCommand is a control message sent by the client over the history socket.
type streamCommand struct {
	Type    string `json:"type"` // "range", "session" or "refresh"
	Start   string `json:"start"`
	End     string `json:"end"`
	Session string `json:"session"`
}

// Stream upgrades to a websocket and pushes a history view on every change. Each connection
// owns one controller; closing the socket closes it.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	logger := zerolog.Ctx(ctx)
	userID := middleware.UserID(ctx)

	dateRange, err := h.parseRange(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := make(chan api.HistoryView, 8)
	controller, err := historysvc.NewController(h.feed, h.repo, userID, historysvc.Options{
		MaxRetries: h.settings.MaxRetries,
		BaseDelay:  h.settings.BaseDelay,
		Location:   h.settings.Location,
		Deleter:    h.deleter,
		OnUpdate: func(v historysvc.View) {
			offer(updates, mapHistoryViewToApi(v))
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("history controller setup failed")
		return
	}
	defer controller.Close()

	controller.SetDateRange(dateRange)
	controller.SelectSession(r.URL.Query().Get("session"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		writeLoop(ctx, conn, updates)
	}()

	if err := controller.Start(ctx); err != nil {
		logger.Info().Err(err).Msg("history stream not started")
	}

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd streamCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			logger.Debug().Err(err).Msg("history stream closed")
			break
		}
		switch cmd.Type {
		case "range":
			next, err := aggregate.DayRange(cmd.Start, cmd.End, h.settings.Location)
			if err != nil {
				logger.Warn().Err(err).Msg("ignoring invalid range command")
				continue
			}
			controller.SetDateRange(next)
		case "session":
			controller.SelectSession(cmd.Session)
		case "refresh":
			controller.Refresh()
		default:
			logger.Warn().Str("type", cmd.Type).Msg("unknown stream command")
		}
	}

	cancel()
	<-done
}

// offer delivers v, discarding the oldest pending view when the client is behind.
func offer(ch chan api.HistoryView, v api.HistoryView) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, updates <-chan api.HistoryView) {
	logger := zerolog.Ctx(ctx)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case view := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(view); err != nil {
				logger.Debug().Err(err).Msg("history stream write failed")
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
