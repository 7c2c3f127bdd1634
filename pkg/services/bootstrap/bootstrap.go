package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/de-tools/orchard-atlas/pkg/store/objects"
	"github.com/rs/zerolog"
)

var (
	mu   sync.Mutex
	done bool
)

// Init makes sure the user-files root folder exists. It runs at most once successfully per
// process; after a failure the next call tries again.
func Init(ctx context.Context, folder objects.RootFolder) error {
	mu.Lock()
	defer mu.Unlock()

	if done {
		return nil
	}
	if folder == nil {
		return fmt.Errorf("root folder is nil")
	}
	if err := folder.EnsureRootFolder(ctx); err != nil {
		return fmt.Errorf("bootstrap root folder: %w", err)
	}
	done = true
	zerolog.Ctx(ctx).Info().Str("location", folder.Location()).Msg("root folder ready")
	return nil
}

// Initialized reports whether Init has completed successfully in this process.
func Initialized() bool {
	mu.Lock()
	defer mu.Unlock()
	return done
}
