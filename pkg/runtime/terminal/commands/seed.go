package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/de-tools/orchard-atlas/pkg/adapters"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/models/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type SeedCmd struct {
	deps *Deps
	user *UserFlags
	file string
}

// NewSeedCmd loads request documents as the processing backend would write them.
func NewSeedCmd(deps *Deps, user *UserFlags) *cobra.Command {
	sc := &SeedCmd{deps: deps, user: user}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load detection requests from a JSON file",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.file, "file", "", "JSON array of request documents")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (sc *SeedCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	raw, err := os.ReadFile(sc.file)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var docs []store.RequestDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	// Documents without an owner are attributed to the acting user.
	var fallbackUser string
	reqs := make([]domain.DetectionRequest, 0, len(docs))
	for i, doc := range docs {
		if doc.UserID == "" {
			if fallbackUser == "" {
				if fallbackUser, err = sc.deps.resolveUser(ctx, sc.user); err != nil {
					return err
				}
			}
			doc.UserID = fallbackUser
		}
		req, err := adapters.MapRequestDocumentToDomain(doc)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("skipping malformed document")
			continue
		}
		reqs = append(reqs, req)
	}

	ids, err := sc.deps.Repository.Add(ctx, reqs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d requests\n", len(ids))
	return nil
}
