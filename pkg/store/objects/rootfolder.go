package objects

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RootFolder is the top-level folder that holds a deployment's user files.
type RootFolder interface {
	// EnsureRootFolder creates the folder when it does not exist yet. It is safe to call repeatedly.
	EnsureRootFolder(ctx context.Context) error
	Location() string
}

type localRootFolder struct {
	path string
}

func NewLocalRootFolder(root, prefix string) (RootFolder, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage root is empty")
	}
	return &localRootFolder{path: filepath.Join(root, strings.Trim(prefix, "/"))}, nil
}

func (f *localRootFolder) EnsureRootFolder(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(f.path, 0o755); err != nil {
		return fmt.Errorf("create root folder %s: %w", f.path, err)
	}
	return nil
}

func (f *localRootFolder) Location() string {
	return f.path
}
