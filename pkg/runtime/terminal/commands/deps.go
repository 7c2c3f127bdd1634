package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/orchard-atlas/pkg/services/analytics"
	"github.com/de-tools/orchard-atlas/pkg/services/config"
	"github.com/de-tools/orchard-atlas/pkg/services/requests"
	"github.com/rs/zerolog"
)

// Deps are the services the commands run against. They are filled in by the root command
// before any subcommand runs.
type Deps struct {
	Repository requests.Repository
	Analytics  analytics.Service
	Profiles   config.Registry
	Location   *time.Location
	Dashboard  analytics.Settings
	Logger     *zerolog.Logger
}

// UserFlags select the acting user, directly or through a profile in ~/.orchardcfg.
type UserFlags struct {
	User    string
	Profile string
}

func (d *Deps) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

func (d *Deps) resolveUser(ctx context.Context, flags *UserFlags) (string, error) {
	if flags.User != "" {
		return flags.User, nil
	}
	if d.Profiles == nil {
		return "", fmt.Errorf("%w: pass --user or add a profile to ~/%s", domain.ErrUnauthenticated, config.DefaultProfileFile)
	}
	profile, err := d.Profiles.GetProfile(ctx, flags.Profile)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	return profile.UserID, nil
}

type ReportHandler interface {
	Handle(report *domain.Report) error
}

func reporterFor(format string, w io.Writer) (ReportHandler, error) {
	switch format {
	case "", "table":
		return export.NewReporter(w), nil
	case "text":
		return export.NewTextReporter(w), nil
	}
	return nil, fmt.Errorf("unsupported output %q (expected table or text)", format)
}

func period(r domain.DateRange) domain.TimePeriod {
	var p domain.TimePeriod
	if r.Start != nil {
		p.Start = *r.Start
	}
	if r.End != nil {
		p.End = *r.End
	}
	return p
}
