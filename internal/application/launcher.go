package application

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/bnema/mirror-launcher/internal/ports"
	"go.uber.org/zap"
)

// ConsentFunc asks the user whether an action may reach the network.
type ConsentFunc func(ctx context.Context, action, details string) (bool, error)

type ExchangeResult struct {
	Response       string
	TranscriptPath string
	Placeholder    bool
}

// SettingsPatch carries the fields to change; nil fields are left alone.
type SettingsPatch struct {
	ModelPath    *string
	VaultPath    *string
	InternetMode *domain.InternetMode
}

// Launcher wires one vault store, one inference session and one recorder.
type Launcher struct {
	store    ports.VaultStore
	settings ports.SettingsRepository
	session  *InferenceSession
	recorder *SessionRecorder
	logger   *zap.Logger
}

func NewLauncher(store ports.VaultStore, runtime ports.ModelRuntime, settings ports.SettingsRepository, clock ports.Clock, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Launcher{
		store:    store,
		settings: settings,
		session:  NewInferenceSession(runtime, store, logger),
		recorder: NewSessionRecorder(store, clock, logger),
		logger:   logger,
	}
}

func (l *Launcher) Session() *InferenceSession {
	return l.session
}

func (l *Launcher) Settings(ctx context.Context) (domain.Settings, error) {
	settings, err := l.settings.Load(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func (l *Launcher) UpdateSettings(ctx context.Context, patch SettingsPatch) (domain.Settings, error) {
	settings, err := l.Settings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}

	if patch.ModelPath != nil {
		settings.ModelPath = strings.TrimSpace(*patch.ModelPath)
	}
	if patch.VaultPath != nil {
		settings.VaultPath = strings.TrimSpace(*patch.VaultPath)
	}
	if patch.InternetMode != nil {
		if !patch.InternetMode.Valid() {
			return domain.Settings{}, fmt.Errorf("%w %q", domain.ErrInvalidInternetMode, *patch.InternetMode)
		}
		settings.InternetMode = *patch.InternetMode
	}

	if err := l.settings.Save(ctx, settings); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	return settings, nil
}

// InitVault copies the template to parentDir/name and makes it the active vault.
func (l *Launcher) InitVault(ctx context.Context, templateRoot, parentDir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid vault name %q", name)
	}

	vaultPath := filepath.Join(parentDir, name)
	if err := l.store.InitVault(ctx, templateRoot, vaultPath, name); err != nil {
		return "", fmt.Errorf("init vault: %w", err)
	}

	settings, err := l.Settings(ctx)
	if err != nil {
		return "", err
	}
	settings.VaultPath = vaultPath
	settings.OnboardingCompleted = true
	if err := l.settings.Save(ctx, settings); err != nil {
		return "", fmt.Errorf("save settings: %w", err)
	}

	return vaultPath, nil
}

func (l *Launcher) ReadVaultState(ctx context.Context) (domain.StatePointer, error) {
	vaultPath, err := l.vaultPath(ctx)
	if err != nil {
		return domain.StatePointer{}, err
	}

	pointer, err := l.store.LoadState(ctx, vaultPath)
	if err != nil {
		return domain.StatePointer{}, fmt.Errorf("read vault state: %w", err)
	}
	return pointer, nil
}

// StartModel initializes the inference session. An empty modelPath falls back
// to the configured one.
func (l *Launcher) StartModel(ctx context.Context, modelPath string) error {
	return l.StartModelWithProgress(ctx, modelPath, nil)
}

// StartModelWithProgress is StartModel reporting load phases to progress.
func (l *Launcher) StartModelWithProgress(ctx context.Context, modelPath string, progress func(domain.LoadPhase)) error {
	vaultPath, err := l.vaultPath(ctx)
	if err != nil {
		return err
	}

	if strings.TrimSpace(modelPath) == "" {
		settings, err := l.Settings(ctx)
		if err != nil {
			return err
		}
		modelPath = settings.ModelPath
	}
	if strings.TrimSpace(modelPath) == "" {
		return fmt.Errorf("%w: no model path configured", domain.ErrModelNotFound)
	}

	return l.session.InitializeWithProgress(ctx, modelPath, vaultPath, progress)
}

// Exchange generates a reflection and records it. With allowPlaceholder set, a
// session that is not initialized yields the placeholder text instead of
// failing.
func (l *Launcher) Exchange(ctx context.Context, userText string, onToken func(string), allowPlaceholder bool) (ExchangeResult, error) {
	vaultPath, err := l.vaultPath(ctx)
	if err != nil {
		return ExchangeResult{}, err
	}

	result := ExchangeResult{}
	if allowPlaceholder && !l.session.State().Live() {
		result.Response = PlaceholderResponse(userText)
		result.Placeholder = true
		if onToken != nil {
			onToken(result.Response)
		}
	} else {
		response, err := l.session.Generate(ctx, userText, onToken)
		if err != nil {
			return ExchangeResult{}, err
		}
		result.Response = response
	}

	pending := l.session.PendingContext()
	persisted, err := l.recorder.RecordExchangeWithContext(ctx, vaultPath, userText, result.Response, pending)
	if err != nil {
		return ExchangeResult{}, err
	}
	l.session.ClearPendingContext(pending)
	l.session.ReconcilePointer(vaultPath, persisted)
	result.TranscriptPath = persisted.LastSession.Path

	return result, nil
}

// UpdateContext stages context keys; they reach the vault with the next
// recorded exchange.
func (l *Launcher) UpdateContext(update map[string]any) {
	l.session.UpdateContext(update)
}

func (l *Launcher) ModelInfo() domain.ModelInfo {
	return l.session.ModelInfo()
}

// RequestInternet applies the configured network policy. In hybrid mode the
// decision goes to ask; a nil ask grants.
func (l *Launcher) RequestInternet(ctx context.Context, action, details string, ask ConsentFunc) (domain.InternetDecision, error) {
	settings, err := l.Settings(ctx)
	if err != nil {
		return domain.InternetDecision{}, err
	}

	l.logger.Debug("internet access requested",
		zap.String("action", action),
		zap.String("mode", string(settings.InternetMode)))

	switch settings.InternetMode {
	case domain.InternetOfflineOnly:
		return domain.InternetDecision{Granted: false, Reason: string(domain.InternetOfflineOnly)}, nil
	case domain.InternetOnline:
		return domain.InternetDecision{Granted: true, Reason: "always_online"}, nil
	case domain.InternetHybridAsk:
		if ask == nil {
			return domain.InternetDecision{Granted: true, Reason: string(domain.InternetHybridAsk)}, nil
		}
		granted, err := ask(ctx, action, details)
		if err != nil {
			return domain.InternetDecision{}, fmt.Errorf("ask internet consent: %w", err)
		}
		reason := "user_granted"
		if !granted {
			reason = "user_denied"
		}
		return domain.InternetDecision{Granted: granted, Reason: reason}, nil
	default:
		return domain.InternetDecision{}, fmt.Errorf("%w %q", domain.ErrInvalidInternetMode, settings.InternetMode)
	}
}

func (l *Launcher) Close() error {
	return l.session.Dispose()
}

func (l *Launcher) vaultPath(ctx context.Context) (string, error) {
	settings, err := l.Settings(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(settings.VaultPath) == "" {
		return "", domain.ErrNoVaultConfigured
	}
	return settings.VaultPath, nil
}
