package analytics

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/handlers/render"
	"github.com/de-tools/orchard-atlas/pkg/server/middleware"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	analyticssvc "github.com/de-tools/orchard-atlas/pkg/services/analytics"
	"github.com/de-tools/orchard-atlas/pkg/services/charts"
	"github.com/de-tools/orchard-atlas/pkg/services/export"
	"github.com/de-tools/orchard-atlas/pkg/services/observability"
	"github.com/rs/zerolog"
)

type Handler struct {
	service  analyticssvc.Service
	settings analyticssvc.Settings
}

func NewHandler(service analyticssvc.Service, settings analyticssvc.Settings) *Handler {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Handler{service: service, settings: settings}
}

// ParseControls reads dashboard controls from a query string.
func ParseControls(q url.Values, loc *time.Location) (analyticssvc.Controls, error) {
	var controls analyticssvc.Controls

	primary, err := aggregate.DayRange(q.Get("start"), q.Get("end"), loc)
	if err != nil {
		return controls, err
	}
	controls.Primary = primary

	if v := q.Get("compare"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return controls, fmt.Errorf("invalid compare flag %q", v)
		}
		controls.Compare = on
	}
	if controls.Compare {
		comparison, err := aggregate.DayRange(q.Get("compare_start"), q.Get("compare_end"), loc)
		if err != nil {
			return controls, err
		}
		controls.Comparison = comparison
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return controls, fmt.Errorf("invalid page %q", v)
		}
		controls.Page = page
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || !slices.Contains(aggregate.PageSizes, size) {
			return controls, fmt.Errorf("invalid page size %q (expected one of %v)", v, aggregate.PageSizes)
		}
		controls.PageSize = size
	}
	if v := q.Get("chart"); v != "" {
		kind, err := charts.ParseKind(v)
		if err != nil {
			return controls, err
		}
		controls.Kind = kind
	}
	return controls, nil
}

func (h *Handler) dashboard(r *http.Request) (*analyticssvc.Dashboard, error) {
	controls, err := ParseControls(r.URL.Query(), h.settings.Location)
	if err != nil {
		return nil, badRequest{err}
	}
	ctx := r.Context()
	data, err := h.service.Load(ctx, middleware.UserID(ctx))
	if err != nil {
		return nil, err
	}
	d := analyticssvc.NewDashboard(data, h.settings)
	d.Apply(controls)
	return d, nil
}

type badRequest struct{ error }

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var br badRequest
	if errors.As(err, &br) {
		render.Error(w, r, http.StatusBadRequest, br.Error())
		return
	}
	render.DomainError(w, r, err)
}

func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, mapAnalyticsViewToApi(d.View()))
}

// Export downloads the current page of rows as csv, xlsx or pdf.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.dashboard(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view := d.View()

	var buf bytes.Buffer
	if err := export.Export(&buf, format, view.Rows, view.Compare); err != nil {
		logger.Error().Err(err).Str("format", string(format)).Msg("export failed")
		render.Error(w, r, http.StatusInternalServerError, "export failed")
		return
	}
	observability.Exports.WithLabelValues(string(format)).Inc()

	name := format.FileName(r.URL.Query().Get("filename"))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn().Err(err).Msg("export write interrupted")
	}
}

func (h *Handler) ListCharts(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, http.StatusOK, mapChartKinds(charts.Kinds))
}
