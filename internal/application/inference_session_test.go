package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bnema/mirror-launcher/internal/adapters/vault/file"
	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/bnema/mirror-launcher/internal/ports"
	"github.com/bnema/mirror-launcher/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type runtimeHandles struct {
	model *fakeHandle
	ctx   *fakeHandle
	chat  *fakeHandle
}

func (h runtimeHandles) allClosed() bool {
	return h.model.isClosed() && h.ctx.isClosed() && h.chat.isClosed()
}

func newRuntimeHandles(modelPath string) runtimeHandles {
	return runtimeHandles{
		model: &fakeHandle{name: modelPath},
		ctx:   &fakeHandle{size: ContextSize},
		chat:  &fakeHandle{name: "chat"},
	}
}

// expectLoad wires the three construction calls and the prime for one handle set.
func expectLoad(rt *mocks.MockModelRuntime, modelPath string, handles runtimeHandles) {
	rt.EXPECT().LoadModel(mock.Anything, modelPath, ports.ModelOptions{GPULayers: 0}).Return(handles.model, nil).Once()
	rt.EXPECT().NewContext(mock.Anything, handles.model, ports.ContextOptions{ContextSize: 4096, BatchSize: 512}).Return(handles.ctx, nil).Once()
	rt.EXPECT().NewChat(mock.Anything, handles.ctx).Return(handles.chat, nil).Once()
	rt.EXPECT().Complete(mock.Anything, handles.chat, mock.AnythingOfType("string"), ports.CompletionOptions{MaxTokens: 0}).Return("", nil).Once()
}

func newReadySession(t *testing.T) (*InferenceSession, *mocks.MockModelRuntime, runtimeHandles) {
	t.Helper()

	root := newTestVault(t, `{"vault_name": "Mirror", "context": {"summary": "s"}}`)
	modelPath := newModelArtifact(t)
	rt := mocks.NewMockModelRuntime(t)
	handles := newRuntimeHandles(modelPath)
	expectLoad(rt, modelPath, handles)

	session := NewInferenceSession(rt, file.NewStore(nil), nil)
	require.NoError(t, session.Initialize(context.Background(), modelPath, root))
	return session, rt, handles
}

func TestGenerateBeforeInitializeFails(t *testing.T) {
	t.Parallel()

	rt := mocks.NewMockModelRuntime(t)
	session := NewInferenceSession(rt, file.NewStore(nil), nil)

	_, err := session.Generate(context.Background(), "hello", nil)
	require.ErrorIs(t, err, domain.ErrNotInitialized)
	assert.Equal(t, domain.StateUnloaded, session.State())
	assert.Equal(t, domain.ModelInfo{}, session.ModelInfo())
}

func TestInitializeMissingModel(t *testing.T) {
	t.Parallel()

	rt := mocks.NewMockModelRuntime(t)
	session := NewInferenceSession(rt, file.NewStore(nil), nil)

	err := session.Initialize(context.Background(), filepath.Join(t.TempDir(), "absent.gguf"), newTestVault(t, ""))
	require.ErrorIs(t, err, domain.ErrModelNotFound)
	assert.Equal(t, domain.StateFailed, session.State())

	_, err = session.Generate(context.Background(), "hello", nil)
	require.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestInitializePrimesSystemPrompt(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, `{
  "vault_name": "Mirror",
  "context": {},
  "last_session": {"number": 2, "path": "sessions/2024-04-30_session_002.md", "timestamp": "2024-04-30T21:15:00.000Z"}
}`)
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.MasterCitationFile), []byte("# Citation"), 0o644))
	modelPath := newModelArtifact(t)
	handles := newRuntimeHandles(modelPath)

	rt := mocks.NewMockModelRuntime(t)
	rt.EXPECT().LoadModel(mock.Anything, modelPath, ports.ModelOptions{GPULayers: 0}).Return(handles.model, nil).Once()
	rt.EXPECT().NewContext(mock.Anything, handles.model, ports.ContextOptions{ContextSize: 4096, BatchSize: 512}).Return(handles.ctx, nil).Once()
	rt.EXPECT().NewChat(mock.Anything, handles.ctx).Return(handles.chat, nil).Once()

	var primed string
	rt.EXPECT().Complete(mock.Anything, handles.chat, mock.AnythingOfType("string"), ports.CompletionOptions{MaxTokens: 0}).
		Run(func(_ context.Context, _ ports.ChatHandle, prompt string, _ ports.CompletionOptions) {
			primed = prompt
		}).
		Return("", nil).Once()

	session := NewInferenceSession(rt, file.NewStore(nil), nil)
	require.NoError(t, session.Initialize(context.Background(), modelPath, root))

	assert.Equal(t, domain.StateReady, session.State())
	assert.Contains(t, primed, "# Citation\n\n## Current Session Context\nVault: Mirror\nLast Session: 2024-04-30T21:15:00.000Z\n")

	info := session.ModelInfo()
	assert.True(t, info.Loaded)
	assert.Equal(t, modelPath, info.ModelPath)
	assert.Equal(t, 4096, info.ContextSize)
	assert.Equal(t, "Mirror", info.VaultName)
	assert.NotEmpty(t, info.HandleID)
}

func TestGenerateStreamsTokens(t *testing.T) {
	t.Parallel()

	session, rt, handles := newReadySession(t)

	rt.EXPECT().Complete(mock.Anything, handles.chat, "Hello", mock.MatchedBy(func(opts ports.CompletionOptions) bool {
		return opts.MaxTokens == 1024 && opts.Temperature == 0.7 && opts.TopP == 0.9 && opts.OnToken != nil
	})).RunAndReturn(func(_ context.Context, _ ports.ChatHandle, _ string, opts ports.CompletionOptions) (string, error) {
		opts.OnToken("Hi")
		opts.OnToken("")
		opts.OnToken(" there")
		return "Hi there", nil
	}).Once()

	var tokens []string
	out, err := session.Generate(context.Background(), "Hello", func(text string) { tokens = append(tokens, text) })
	require.NoError(t, err)
	assert.Equal(t, "Hi there", out)
	assert.Equal(t, []string{"Hi", " there"}, tokens)
	assert.Equal(t, domain.StateReady, session.State())
	assert.False(t, handles.chat.isClosed())
}

func TestGenerateErrorKeepsSessionReady(t *testing.T) {
	t.Parallel()

	session, rt, handles := newReadySession(t)
	rt.EXPECT().Complete(mock.Anything, handles.chat, "Hello", mock.Anything).Return("", errors.New("decode failed")).Once()

	_, err := session.Generate(context.Background(), "Hello", nil)
	require.ErrorIs(t, err, domain.ErrGeneration)
	assert.Contains(t, err.Error(), "decode failed")
	assert.Equal(t, domain.StateReady, session.State())
}

func TestInitializeFailureReleasesPartialHandles(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, "")
	modelPath := newModelArtifact(t)
	handles := newRuntimeHandles(modelPath)

	rt := mocks.NewMockModelRuntime(t)
	rt.EXPECT().LoadModel(mock.Anything, modelPath, mock.Anything).Return(handles.model, nil).Once()
	rt.EXPECT().NewContext(mock.Anything, handles.model, mock.Anything).Return(handles.ctx, nil).Once()
	rt.EXPECT().NewChat(mock.Anything, handles.ctx).Return(nil, errors.New("out of memory")).Once()

	session := NewInferenceSession(rt, file.NewStore(nil), nil)
	err := session.Initialize(context.Background(), modelPath, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
	assert.Equal(t, domain.StateFailed, session.State())
	assert.True(t, handles.model.isClosed())
	assert.True(t, handles.ctx.isClosed())
	assert.Equal(t, domain.ModelInfo{}, session.ModelInfo())
}

func TestReinitializeDisposesPreviousHandleFirst(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, "")
	modelPath := newModelArtifact(t)
	first := newRuntimeHandles(modelPath)
	second := newRuntimeHandles(modelPath)

	rt := mocks.NewMockModelRuntime(t)
	expectLoad(rt, modelPath, first)

	session := NewInferenceSession(rt, file.NewStore(nil), nil)
	require.NoError(t, session.Initialize(context.Background(), modelPath, root))
	firstID := session.ModelInfo().HandleID

	var closedBeforeLoad bool
	rt.EXPECT().LoadModel(mock.Anything, modelPath, mock.Anything).
		Run(func(context.Context, string, ports.ModelOptions) {
			closedBeforeLoad = first.allClosed()
		}).
		Return(second.model, nil).Once()
	rt.EXPECT().NewContext(mock.Anything, second.model, mock.Anything).Return(second.ctx, nil).Once()
	rt.EXPECT().NewChat(mock.Anything, second.ctx).Return(second.chat, nil).Once()
	rt.EXPECT().Complete(mock.Anything, second.chat, mock.Anything, ports.CompletionOptions{MaxTokens: 0}).Return("", nil).Once()

	require.NoError(t, session.Initialize(context.Background(), modelPath, root))
	assert.True(t, closedBeforeLoad)
	assert.False(t, second.chat.isClosed())
	assert.NotEqual(t, firstID, session.ModelInfo().HandleID)
}

func TestDisposeIsIdempotent(t *testing.T) {
	t.Parallel()

	session, _, handles := newReadySession(t)

	require.NoError(t, session.Dispose())
	require.NoError(t, session.Dispose())

	assert.Equal(t, domain.StateDisposed, session.State())
	assert.EqualValues(t, 1, handles.chat.closed.Load())
	assert.EqualValues(t, 1, handles.ctx.closed.Load())
	assert.EqualValues(t, 1, handles.model.closed.Load())

	_, err := session.Generate(context.Background(), "Hello", nil)
	require.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestConcurrentOperationsAreRejectedWhileGenerating(t *testing.T) {
	t.Parallel()

	session, rt, handles := newReadySession(t)

	release := make(chan struct{})
	rt.EXPECT().Complete(mock.Anything, handles.chat, "slow", mock.Anything).
		RunAndReturn(func(context.Context, ports.ChatHandle, string, ports.CompletionOptions) (string, error) {
			<-release
			return "done", nil
		}).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	var out string
	var genErr error
	go func() {
		defer wg.Done()
		out, genErr = session.Generate(context.Background(), "slow", nil)
	}()

	require.Eventually(t, func() bool {
		return session.State() == domain.StateGenerating
	}, time.Second, 5*time.Millisecond)

	_, err := session.Generate(context.Background(), "second", nil)
	require.ErrorIs(t, err, domain.ErrBusy)
	require.ErrorIs(t, session.Initialize(context.Background(), handles.model.name, t.TempDir()), domain.ErrBusy)

	close(release)
	wg.Wait()

	require.NoError(t, genErr)
	assert.Equal(t, "done", out)
	assert.Equal(t, domain.StateReady, session.State())
}

func TestUpdateContextIsCarriedIntoNextInitialize(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, `{"vault_name": "Mirror", "context": {"summary": "s"}}`)
	modelPath := newModelArtifact(t)
	rt := mocks.NewMockModelRuntime(t)
	expectLoad(rt, modelPath, newRuntimeHandles(modelPath))
	expectLoad(rt, modelPath, newRuntimeHandles(modelPath))

	session := NewInferenceSession(rt, file.NewStore(nil), nil)
	require.NoError(t, session.Initialize(context.Background(), modelPath, root))

	session.UpdateContext(map[string]any{"mood": "calm"})
	assert.Equal(t, map[string]any{"summary": "s", "mood": "calm"}, session.StatePointer().Context)
	assert.Equal(t, map[string]any{"mood": "calm"}, session.PendingContext())

	require.NoError(t, session.Initialize(context.Background(), modelPath, root))
	assert.Equal(t, map[string]any{"summary": "s", "mood": "calm"}, session.StatePointer().Context)

	session.ClearPendingContext(map[string]any{"mood": "calm"})
	assert.Nil(t, session.PendingContext())
}

func TestClearPendingContextKeepsNewerValues(t *testing.T) {
	t.Parallel()

	session := NewInferenceSession(mocks.NewMockModelRuntime(t), file.NewStore(nil), nil)

	session.UpdateContext(map[string]any{"mood": "calm", "topic": "x"})
	snapshot := session.PendingContext()
	session.UpdateContext(map[string]any{"mood": "restless"})

	session.ClearPendingContext(snapshot)
	assert.Equal(t, map[string]any{"mood": "restless"}, session.PendingContext())
}

func TestInitializePrimeFailureClosesAllHandles(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, "")
	modelPath := newModelArtifact(t)
	handles := newRuntimeHandles(modelPath)

	rt := mocks.NewMockModelRuntime(t)
	rt.EXPECT().LoadModel(mock.Anything, modelPath, mock.Anything).Return(handles.model, nil).Once()
	rt.EXPECT().NewContext(mock.Anything, handles.model, mock.Anything).Return(handles.ctx, nil).Once()
	rt.EXPECT().NewChat(mock.Anything, handles.ctx).Return(handles.chat, nil).Once()
	rt.EXPECT().Complete(mock.Anything, handles.chat, mock.AnythingOfType("string"), ports.CompletionOptions{MaxTokens: 0}).
		Return("", errors.New("prompt exceeds context window")).Once()

	session := NewInferenceSession(rt, file.NewStore(nil), nil)
	err := session.Initialize(context.Background(), modelPath, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inject system prompt")
	assert.Contains(t, err.Error(), "prompt exceeds context window")

	assert.Equal(t, domain.StateFailed, session.State())
	assert.True(t, handles.allClosed())
	assert.Equal(t, domain.ModelInfo{}, session.ModelInfo())

	_, err = session.Generate(context.Background(), "hello", nil)
	require.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestMasterCitationIsReadOncePerHandle(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, `{"vault_name": "Mirror", "context": {}}`)
	citationPath := filepath.Join(root, domain.MasterCitationFile)
	require.NoError(t, os.WriteFile(citationPath, []byte("# First reading"), 0o644))

	modelPath := newModelArtifact(t)
	first := newRuntimeHandles(modelPath)
	second := newRuntimeHandles(modelPath)

	var primed []string
	rt := mocks.NewMockModelRuntime(t)
	for _, h := range []runtimeHandles{first, second} {
		rt.EXPECT().LoadModel(mock.Anything, modelPath, mock.Anything).Return(h.model, nil).Once()
		rt.EXPECT().NewContext(mock.Anything, h.model, mock.Anything).Return(h.ctx, nil).Once()
		rt.EXPECT().NewChat(mock.Anything, h.ctx).Return(h.chat, nil).Once()
		rt.EXPECT().Complete(mock.Anything, h.chat, mock.AnythingOfType("string"), ports.CompletionOptions{MaxTokens: 0}).
			Run(func(_ context.Context, _ ports.ChatHandle, prompt string, _ ports.CompletionOptions) {
				primed = append(primed, prompt)
			}).
			Return("", nil).Once()
	}
	rt.EXPECT().Complete(mock.Anything, first.chat, "still there?", mock.Anything).Return("Yes.", nil).Once()

	session := NewInferenceSession(rt, file.NewStore(nil), nil)
	require.NoError(t, session.Initialize(context.Background(), modelPath, root))

	require.NoError(t, os.WriteFile(citationPath, []byte("# Second reading"), 0o644))

	_, err := session.Generate(context.Background(), "still there?", nil)
	require.NoError(t, err)
	require.Len(t, primed, 1)
	assert.Contains(t, primed[0], "# First reading")
	assert.NotContains(t, primed[0], "# Second reading")

	require.NoError(t, session.Initialize(context.Background(), modelPath, root))
	require.Len(t, primed, 2)
	assert.Contains(t, primed[1], "# Second reading")
	assert.NotContains(t, primed[1], "# First reading")
}

func TestInitializeReportsLoadPhasesInOrder(t *testing.T) {
	t.Parallel()

	root := newTestVault(t, "")
	modelPath := newModelArtifact(t)
	rt := mocks.NewMockModelRuntime(t)
	expectLoad(rt, modelPath, newRuntimeHandles(modelPath))

	var phases []domain.LoadPhase
	session := NewInferenceSession(rt, file.NewStore(nil), nil)
	require.NoError(t, session.InitializeWithProgress(context.Background(), modelPath, root, func(phase domain.LoadPhase) {
		phases = append(phases, phase)
	}))

	assert.Equal(t, []domain.LoadPhase{
		domain.PhaseVaultContext,
		domain.PhaseModel,
		domain.PhaseContext,
		domain.PhasePrime,
	}, phases)
}
