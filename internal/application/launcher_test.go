package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bnema/mirror-launcher/internal/adapters/vault/file"
	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/bnema/mirror-launcher/internal/ports"
	"github.com/bnema/mirror-launcher/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memorySettings struct {
	mu       sync.Mutex
	settings domain.Settings
	saves    int
}

func newMemorySettings(settings domain.Settings) *memorySettings {
	return &memorySettings{settings: settings}
}

func (m *memorySettings) Load(context.Context) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *memorySettings) Save(_ context.Context, settings domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
	m.saves++
	return nil
}

var _ ports.SettingsRepository = (*memorySettings)(nil)

func newTestLauncher(t *testing.T, rt ports.ModelRuntime, settings domain.Settings) (*Launcher, *memorySettings) {
	t.Helper()

	repo := newMemorySettings(settings)
	launcher := NewLauncher(file.NewStore(nil), rt, repo, fixedClock{now: recordedAt}, nil)
	t.Cleanup(func() { _ = launcher.Close() })
	return launcher, repo
}

func settingsWithVault(vault string) domain.Settings {
	settings := domain.DefaultSettings()
	settings.VaultPath = vault
	return settings
}

func TestExchangeWithoutVaultFails(t *testing.T) {
	t.Parallel()

	launcher, _ := newTestLauncher(t, mocks.NewMockModelRuntime(t), domain.DefaultSettings())

	_, err := launcher.Exchange(context.Background(), "hello", nil, true)
	require.ErrorIs(t, err, domain.ErrNoVaultConfigured)

	_, err = launcher.ReadVaultState(context.Background())
	require.ErrorIs(t, err, domain.ErrNoVaultConfigured)
}

func TestExchangePlaceholderIsRecorded(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, "")
	launcher, _ := newTestLauncher(t, mocks.NewMockModelRuntime(t), settingsWithVault(root))

	var streamed string
	result, err := launcher.Exchange(context.Background(), "hello", func(text string) { streamed += text }, true)
	require.NoError(t, err)
	assert.True(t, result.Placeholder)
	assert.Equal(t, PlaceholderResponse("hello"), result.Response)
	assert.Equal(t, result.Response, streamed)
	assert.Equal(t, "sessions/2024-05-01_session_001.md", result.TranscriptPath)

	body, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(result.TranscriptPath)))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Placeholder Mode")
}

func TestExchangeWithoutModelAndNoPlaceholderFails(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, "")
	launcher, _ := newTestLauncher(t, mocks.NewMockModelRuntime(t), settingsWithVault(root))

	_, err := launcher.Exchange(context.Background(), "hello", nil, false)
	require.ErrorIs(t, err, domain.ErrNotInitialized)

	_, statErr := os.Stat(filepath.Join(root, "sessions"))
	assert.True(t, os.IsNotExist(statErr), "nothing is recorded for a failed exchange")
}

func TestStartModelRequiresModelPath(t *testing.T) {
	t.Parallel()

	launcher, _ := newTestLauncher(t, mocks.NewMockModelRuntime(t), settingsWithVault(newTestVault(t, "")))

	err := launcher.StartModel(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestExchangeGeneratesAndPersistsPendingContext(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, `{"vault_name": "Mirror", "context": {"summary": "s"}}`)
	modelPath := newModelArtifact(t)
	handles := newRuntimeHandles(modelPath)

	rt := mocks.NewMockModelRuntime(t)
	expectLoad(rt, modelPath, handles)
	rt.EXPECT().Complete(mock.Anything, handles.chat, "hello", mock.Anything).Return("A reflection.", nil).Once()

	settings := settingsWithVault(root)
	settings.ModelPath = modelPath
	launcher, _ := newTestLauncher(t, rt, settings)

	require.NoError(t, launcher.StartModel(context.Background(), ""))
	launcher.UpdateContext(map[string]any{"mood": "calm"})

	result, err := launcher.Exchange(context.Background(), "hello", nil, true)
	require.NoError(t, err)
	assert.False(t, result.Placeholder)
	assert.Equal(t, "A reflection.", result.Response)

	pointer, err := launcher.ReadVaultState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"summary": "s", "mood": "calm"}, pointer.Context)
	assert.Equal(t, 1, pointer.LastSession.Number)
	assert.Nil(t, launcher.Session().PendingContext())

	info := launcher.ModelInfo()
	assert.True(t, info.Loaded)
	assert.Equal(t, "Mirror", info.VaultName)
}

func TestExchangeReconcilesInMemoryPointer(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, "")
	modelPath := newModelArtifact(t)
	handles := newRuntimeHandles(modelPath)

	rt := mocks.NewMockModelRuntime(t)
	expectLoad(rt, modelPath, handles)
	rt.EXPECT().Complete(mock.Anything, handles.chat, mock.Anything, mock.Anything).Return("Seen.", nil).Twice()

	settings := settingsWithVault(root)
	settings.ModelPath = modelPath
	launcher, _ := newTestLauncher(t, rt, settings)

	require.NoError(t, launcher.StartModel(context.Background(), ""))
	assert.Nil(t, launcher.Session().StatePointer().LastSession)

	_, err := launcher.Exchange(context.Background(), "hello", nil, false)
	require.NoError(t, err)

	disk, err := launcher.ReadVaultState(context.Background())
	require.NoError(t, err)
	require.NotNil(t, disk.LastSession)
	assert.Equal(t, "sessions/2024-05-01_session_001.md", disk.LastSession.Path)
	assert.Equal(t, disk, launcher.Session().StatePointer())

	launcher.UpdateContext(map[string]any{"mood": "calm"})
	_, err = launcher.Exchange(context.Background(), "again", nil, false)
	require.NoError(t, err)

	disk, err = launcher.ReadVaultState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, disk.LastSession.Number)
	assert.Equal(t, "calm", disk.Context["mood"])
	assert.Equal(t, disk, launcher.Session().StatePointer())
}

func TestReconcilePointerKeepsNewerPendingKeys(t *testing.T) {
	t.Parallel()

	session := NewInferenceSession(mocks.NewMockModelRuntime(t), file.NewStore(nil), nil)
	session.UpdateContext(map[string]any{"mood": "restless"})

	session.ReconcilePointer("/vault", domain.StatePointer{
		VaultName:   "Mirror",
		Context:     map[string]any{"mood": "calm", "summary": "s"},
		LastSession: &domain.LastSession{Number: 4, Path: "sessions/x.md", Timestamp: "t"},
	})

	pointer := session.StatePointer()
	assert.Equal(t, map[string]any{"mood": "restless", "summary": "s"}, pointer.Context)
	assert.Equal(t, 4, pointer.LastSession.Number)
}

func TestInitVaultActivatesVault(t *testing.T) {
	t.Parallel()

	template := newTestVault(t, `{"vault_name": "AMOS", "context": {"summary": "Template"}}`)
	parent := t.TempDir()
	launcher, repo := newTestLauncher(t, mocks.NewMockModelRuntime(t), domain.DefaultSettings())

	path, err := launcher.InitVault(context.Background(), template, parent, "Mirror")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "Mirror"), path)

	settings, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, settings.VaultPath)
	assert.True(t, settings.OnboardingCompleted)

	pointer, err := launcher.ReadVaultState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mirror", pointer.VaultName)

	_, err = launcher.InitVault(context.Background(), template, parent, "../escape")
	require.Error(t, err)
}

func TestUpdateSettings(t *testing.T) {
	t.Parallel()

	launcher, repo := newTestLauncher(t, mocks.NewMockModelRuntime(t), domain.DefaultSettings())

	model := " /models/phi3.gguf "
	mode := domain.InternetOnline
	settings, err := launcher.UpdateSettings(context.Background(), SettingsPatch{ModelPath: &model, InternetMode: &mode})
	require.NoError(t, err)
	assert.Equal(t, "/models/phi3.gguf", settings.ModelPath)
	assert.Equal(t, domain.InternetOnline, settings.InternetMode)
	assert.Equal(t, 1, repo.saves)

	bad := domain.InternetMode("sometimes")
	_, err = launcher.UpdateSettings(context.Background(), SettingsPatch{InternetMode: &bad})
	require.ErrorIs(t, err, domain.ErrInvalidInternetMode)
	assert.Equal(t, 1, repo.saves)
}

func TestRequestInternet(t *testing.T) {
	t.Parallel()

	grant := func(context.Context, string, string) (bool, error) { return true, nil }
	deny := func(context.Context, string, string) (bool, error) { return false, nil }
	broken := func(context.Context, string, string) (bool, error) { return false, errors.New("no tty") }

	tests := []struct {
		name    string
		mode    domain.InternetMode
		ask     ConsentFunc
		want    domain.InternetDecision
		wantErr bool
	}{
		{name: "offline denies", mode: domain.InternetOfflineOnly, ask: grant, want: domain.InternetDecision{Granted: false, Reason: "offline_only"}},
		{name: "online grants", mode: domain.InternetOnline, ask: deny, want: domain.InternetDecision{Granted: true, Reason: "always_online"}},
		{name: "hybrid without prompt grants", mode: domain.InternetHybridAsk, want: domain.InternetDecision{Granted: true, Reason: "hybrid_ask"}},
		{name: "hybrid user grants", mode: domain.InternetHybridAsk, ask: grant, want: domain.InternetDecision{Granted: true, Reason: "user_granted"}},
		{name: "hybrid user denies", mode: domain.InternetHybridAsk, ask: deny, want: domain.InternetDecision{Granted: false, Reason: "user_denied"}},
		{name: "hybrid prompt error", mode: domain.InternetHybridAsk, ask: broken, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultSettings()
			settings.InternetMode = tt.mode
			launcher, _ := newTestLauncher(t, mocks.NewMockModelRuntime(t), settings)

			got, err := launcher.RequestInternet(context.Background(), "fetch", "https://example.org", tt.ask)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
