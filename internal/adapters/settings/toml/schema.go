package toml

import (
	"fmt"

	"github.com/bnema/mirror-launcher/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version             int                `toml:"version"`
	ModelPath           string             `toml:"model_path"`
	VaultPath           string             `toml:"vault_path"`
	InternetMode        string             `toml:"internet_mode"`
	OnboardingCompleted bool               `toml:"onboarding_completed"`
	WindowBounds        windowBoundsSchema `toml:"window_bounds"`
}

type windowBoundsSchema struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

func (s *fileSchema) applyDefaults() {
	defaults := domain.DefaultSettings()
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.InternetMode == "" {
		s.InternetMode = string(defaults.InternetMode)
	}
	if s.WindowBounds.Width == 0 {
		s.WindowBounds.Width = defaults.WindowBounds.Width
	}
	if s.WindowBounds.Height == 0 {
		s.WindowBounds.Height = defaults.WindowBounds.Height
	}
}

func (s fileSchema) validate() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported settings schema version %d (current %d)", s.Version, currentSchemaVersion)
	}
	if !domain.InternetMode(s.InternetMode).Valid() {
		return fmt.Errorf("%w %q", domain.ErrInvalidInternetMode, s.InternetMode)
	}

	return nil
}

func toSchema(settings domain.Settings) fileSchema {
	return fileSchema{
		Version:             currentSchemaVersion,
		ModelPath:           settings.ModelPath,
		VaultPath:           settings.VaultPath,
		InternetMode:        string(settings.InternetMode),
		OnboardingCompleted: settings.OnboardingCompleted,
		WindowBounds: windowBoundsSchema{
			Width:  settings.WindowBounds.Width,
			Height: settings.WindowBounds.Height,
		},
	}
}

func fromSchema(file fileSchema) domain.Settings {
	return domain.Settings{
		ModelPath:           file.ModelPath,
		VaultPath:           file.VaultPath,
		InternetMode:        domain.InternetMode(file.InternetMode),
		OnboardingCompleted: file.OnboardingCompleted,
		WindowBounds: domain.WindowBounds{
			Width:  file.WindowBounds.Width,
			Height: file.WindowBounds.Height,
		},
	}
}
