package status

import (
	"testing"
	"time"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVaultWithHistory(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	output, err := Render(View{
		Settings: domain.Settings{
			ModelPath:           "/models/phi3.gguf",
			VaultPath:           "/home/u/vaults/Mirror",
			InternetMode:        domain.InternetHybridAsk,
			OnboardingCompleted: true,
		},
		Vault: &domain.StatePointer{
			VaultName: "Mirror",
			Context:   map[string]any{"summary": "s", "mood": "calm"},
			LastSession: &domain.LastSession{
				Number:    4,
				Path:      "sessions/2024-05-01_session_004.md",
				Timestamp: "2024-05-01T09:30:00.000Z",
			},
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "MirrorDNA Launcher")
	assert.Contains(t, output, "vault: /home/u/vaults/Mirror")
	assert.Contains(t, output, "Mirror")
	assert.Contains(t, output, "sessions: 4")
	assert.Contains(t, output, "sessions/2024-05-01_session_004.md")
	assert.Contains(t, output, "(2 hours ago)")
	assert.Contains(t, output, "context: mood, summary")
	assert.Contains(t, output, "model: /models/phi3.gguf")
	assert.Contains(t, output, "internet: hybrid_ask")
	assert.NotContains(t, output, "onboarding not completed")
}

func TestRenderWithoutVault(t *testing.T) {
	output, err := Render(View{Settings: domain.DefaultSettings()}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "vault: not configured")
	assert.Contains(t, output, "No vault state available.")
	assert.Contains(t, output, "model: not configured")
	assert.Contains(t, output, "onboarding not completed")
}

func TestRenderFirstSessionAndLoadedModel(t *testing.T) {
	pointer := domain.DefaultStatePointer()

	output, err := Render(View{
		Settings: domain.Settings{VaultPath: "/v", InternetMode: domain.InternetOfflineOnly, OnboardingCompleted: true},
		Vault:    &pointer,
		Model:    domain.ModelInfo{Loaded: true, ModelPath: "/models/a.gguf", ContextSize: 4096},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "AMOS")
	assert.Contains(t, output, "sessions: 0")
	assert.Contains(t, output, "first session pending")
	assert.Contains(t, output, "context: summary")
	assert.Contains(t, output, "/models/a.gguf (loaded, 4096 ctx)")
	assert.Contains(t, output, "internet: offline_only")
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		at   time.Time
		want string
	}{
		{at: now.Add(-10 * time.Second), want: "just now"},
		{at: now.Add(-1 * time.Minute), want: "1 minute ago"},
		{at: now.Add(-45 * time.Minute), want: "45 minutes ago"},
		{at: now.Add(-5 * time.Hour), want: "5 hours ago"},
		{at: now.Add(-50 * time.Hour), want: "2 days ago, 08 May"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAge(tt.at, now))
	}
}

func TestAgeColorFades(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "255", string(ageColor(now, now)))
	assert.Equal(t, "240", string(ageColor(now.Add(-30*24*time.Hour), now)))
	assert.Equal(t, "255", string(ageColor(now, time.Time{})))
}

func TestExchangeHeaders(t *testing.T) {
	assert.Contains(t, UserHeader(), "### User")
	assert.Contains(t, ReflectionHeader(false), "### Reflection")
	assert.NotContains(t, ReflectionHeader(false), "placeholder")
	assert.Contains(t, ReflectionHeader(true), "(placeholder)")
}
