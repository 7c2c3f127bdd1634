package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// DefaultProfileFile is the ini file holding CLI user profiles, relative to the home directory.
const DefaultProfileFile = ".orchardcfg"

const DefaultProfile = "DEFAULT"

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, profile string) (domain.ConfigProfile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

// DefaultProfilePath resolves ~/.orchardcfg.
func DefaultProfilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultProfileFile), nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, profile string) (domain.ConfigProfile, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return domain.ConfigProfile{}, fmt.Errorf("profile %s not found", profile)
	}

	userID := section.Key("user_id").String()
	if userID == "" {
		return domain.ConfigProfile{}, fmt.Errorf("profile %s has no user_id", profile)
	}

	return domain.ConfigProfile{
		Name:   profile,
		UserID: userID,
	}, nil
}
