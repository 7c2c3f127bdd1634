package history

import (
	"errors"

	"github.com/de-tools/orchard-atlas/pkg/adapters"
	"github.com/de-tools/orchard-atlas/pkg/handlers/render"
	"github.com/de-tools/orchard-atlas/pkg/models/api"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	historysvc "github.com/de-tools/orchard-atlas/pkg/services/history"
)

func mapHistoryViewToApi(view historysvc.View) api.HistoryView {
	out := api.HistoryView{
		State:           string(view.State),
		Error:           errorMessage(view.Err),
		TotalApples:     view.Totals.Apples,
		TotalTrees:      view.Totals.Trees,
		Count:           len(view.Requests),
		SelectedSession: view.SelectedSession,
		Sessions:        view.Sessions,
		ByDate:          make([]api.RequestGroup, 0, len(view.Days)),
		BySession:       make([]api.RequestGroup, 0, len(view.BySession)),
	}
	if out.Sessions == nil {
		out.Sessions = []string{}
	}
	for _, day := range view.Days {
		out.ByDate = append(out.ByDate, api.RequestGroup{
			Key:      day,
			Requests: adapters.MapDetectionRequestsDomainToApi(view.ByDate[day]),
		})
	}
	for _, session := range aggregate.SortedSessions(view.BySession) {
		out.BySession = append(out.BySession, api.RequestGroup{
			Key:      session,
			Requests: adapters.MapDetectionRequestsDomainToApi(view.BySession[session]),
		})
	}
	return out
}

func errorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrUnauthenticated):
		return render.SignInMessage
	case errors.Is(err, domain.ErrSubscriptionFailed):
		return domain.ErrSubscriptionFailed.Error()
	}
	return err.Error()
}
