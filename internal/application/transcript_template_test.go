package application

import (
	"testing"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTranscriptFillsPlaceholdersAndDialogue(t *testing.T) {
	t.Parallel()

	got, err := RenderTranscript(sessionTemplate, TranscriptFields{
		SessionNumber:   4,
		Date:            "2024-05-01",
		Timestamp:       "2024-05-01T09:30:00.000Z",
		VaultName:       "Mirror",
		PredecessorPath: "sessions/2024-04-30_session_003.md",
		PreviousContext: map[string]any{"summary": "<notes> & more"},
		Dialogue:        domain.FormatDialogue("2024-05-01T09:30:00.000Z", "Hello", "Hi."),
	})
	require.NoError(t, err)

	want := `# Session 4 (2024-05-01)
Vault: Mirror
Started: 2024-05-01T09:30:00.000Z
Predecessor: sessions/2024-04-30_session_003.md

## Previous context
{
  "summary": "<notes> & more"
}

## Dialogue
## 2024-05-01T09:30:00.000Z
### User
Hello

### Reflection
Hi.
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("RenderTranscript() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderTranscriptFirstSessionUsesNonePredecessor(t *testing.T) {
	t.Parallel()

	got, err := RenderTranscript("from {{ predecessor_path }}\n⟡ Ready when you are.", TranscriptFields{
		SessionNumber: 1,
		Dialogue:      "D",
	})
	require.NoError(t, err)
	assert.Equal(t, "from none\nD", got)
}

func TestRenderTranscriptAppendsDialogueWithoutSentinel(t *testing.T) {
	t.Parallel()

	got, err := RenderTranscript("# Session {{session_number}}", TranscriptFields{SessionNumber: 2, Dialogue: "D"})
	require.NoError(t, err)
	assert.Equal(t, "# Session 2\n\nD\n", got)
}

func TestRenderTranscriptOnlyFirstSentinelIsReplaced(t *testing.T) {
	t.Parallel()

	got, err := RenderTranscript("⟡ Ready when you are.\n⟡ Ready when you are.", TranscriptFields{Dialogue: "D"})
	require.NoError(t, err)
	assert.Equal(t, "D\n⟡ Ready when you are.", got)
}

func TestRenderTranscriptRejectsUnknownPlaceholders(t *testing.T) {
	t.Parallel()

	_, err := RenderTranscript("{{mood}} {{session_number}} {{author}}", TranscriptFields{SessionNumber: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownPlaceholder)
	assert.ErrorIs(t, err, domain.ErrTemplateMissing)
	assert.Contains(t, err.Error(), "author, mood")
}

func TestRenderTranscriptEmptyContext(t *testing.T) {
	t.Parallel()

	got, err := RenderTranscript("{{previous_context}}\n⟡ Ready when you are.", TranscriptFields{Dialogue: "D"})
	require.NoError(t, err)
	assert.Equal(t, "{}\nD", got)
}
