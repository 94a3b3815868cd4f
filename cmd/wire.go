package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	statusadapter "github.com/bnema/mirror-launcher/internal/adapters/render/status"
	"github.com/bnema/mirror-launcher/internal/adapters/runtime/llamaserver"
	settingsrepo "github.com/bnema/mirror-launcher/internal/adapters/settings/toml"
	"github.com/bnema/mirror-launcher/internal/adapters/vault/file"
	"github.com/bnema/mirror-launcher/internal/application"
	"github.com/bnema/mirror-launcher/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	envPrefix          = "MIRROR"
	runtimeBaseURLKey  = "runtime.base_url"
	runtimeAPIKeyKey   = "runtime.api_key"
	templatesPathKey   = "templates.path"
	defaultTemplateDir = "vault-template"
)

type app struct {
	launcher       *application.Launcher
	validator      *application.ArtifactValidator
	settingsPath   string
	templatesPath  string
	logger         *zap.Logger
	statusRenderer func(statusadapter.View, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

func (a *app) wire(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	cfg := viper.New()
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault(runtimeBaseURLKey, llamaserver.DefaultBaseURL)
	cfg.SetDefault(runtimeAPIKeyKey, "")
	cfg.SetDefault(templatesPathKey, filepath.Join(homeDir, settingsrepo.ConfigDir, defaultTemplateDir))

	settings, err := settingsrepo.NewRepository(cfg)
	if err != nil {
		return fmt.Errorf("wire settings repository: %w", err)
	}

	runtime := llamaserver.NewRuntime(logger,
		llamaserver.WithBaseURL(cfg.GetString(runtimeBaseURLKey)),
		llamaserver.WithAPIKey(cfg.GetString(runtimeAPIKeyKey)),
	)

	store := file.NewStore(logger)

	*a = app{
		launcher:       application.NewLauncher(store, runtime, settings, ports.SystemClock{}, logger),
		validator:      application.NewArtifactValidator(store, logger),
		settingsPath:   settings.Path(),
		templatesPath:  cfg.GetString(templatesPathKey),
		logger:         logger,
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}

	logger.Debug("wired",
		zap.String("settings", a.settingsPath),
		zap.String("runtime", cfg.GetString(runtimeBaseURLKey)))
	return nil
}

func (a *app) sync() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
