package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/bnema/mirror-launcher/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Sampling and sizing policy. These are fixed for every session.
const (
	ContextSize     = 4096
	BatchSize       = 512
	GPULayers       = 0
	MaxOutputTokens = 1024
	Temperature     = 0.7
	TopP            = 0.9
)

type inferenceHandle struct {
	id         string
	modelPath  string
	model      ports.ModelHandle
	llmContext ports.ContextHandle
	chat       ports.ChatHandle
}

func (h *inferenceHandle) close() error {
	if h == nil {
		return nil
	}

	var errs []error
	if h.chat != nil {
		if err := h.chat.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chat: %w", err))
		}
	}
	if h.llmContext != nil {
		if err := h.llmContext.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if h.model != nil {
		if err := h.model.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close model: %w", err))
		}
	}

	return errors.Join(errs...)
}

// InferenceSession owns the single live binding to the model runtime.
type InferenceSession struct {
	runtime ports.ModelRuntime
	store   ports.VaultStore
	logger  *zap.Logger

	// op admits one initialize or generate at a time.
	op *semaphore.Weighted

	mu        sync.Mutex
	state     domain.InferenceState
	handle    *inferenceHandle
	vaultRoot string
	pointer   domain.StatePointer
	// pending holds context updates not yet written to the vault.
	pending map[string]any
}

func NewInferenceSession(runtime ports.ModelRuntime, store ports.VaultStore, logger *zap.Logger) *InferenceSession {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &InferenceSession{
		runtime: runtime,
		store:   store,
		logger:  logger.Named("inference"),
		op:      semaphore.NewWeighted(1),
		state:   domain.StateUnloaded,
	}
}

func (s *InferenceSession) State() domain.InferenceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialize tears down a Ready handle, then loads the vault context and
// builds a fresh one primed with the system prompt. While a generation or
// another initialize is running it returns ErrBusy and leaves the live handle
// alone.
func (s *InferenceSession) Initialize(ctx context.Context, modelPath, vaultRoot string) error {
	return s.InitializeWithProgress(ctx, modelPath, vaultRoot, nil)
}

// InitializeWithProgress is Initialize reporting each load phase to progress
// before it starts.
func (s *InferenceSession) InitializeWithProgress(ctx context.Context, modelPath, vaultRoot string, progress func(domain.LoadPhase)) error {
	if progress == nil {
		progress = func(domain.LoadPhase) {}
	}
	if !s.op.TryAcquire(1) {
		return fmt.Errorf("initialize: %w", domain.ErrBusy)
	}
	defer s.op.Release(1)

	s.mu.Lock()
	previous := s.handle
	s.handle = nil
	s.state = domain.StateLoading
	s.mu.Unlock()

	if previous != nil {
		s.logger.Info("disposing previous handle before initialize", zap.String("handle_id", previous.id))
		if err := previous.close(); err != nil {
			s.logger.Warn("previous handle did not close cleanly", zap.String("handle_id", previous.id), zap.Error(err))
		}
	}

	s.logger.Info("initializing", zap.String("model", modelPath), zap.String("vault", vaultRoot))

	handle, pointer, err := s.load(ctx, modelPath, vaultRoot, s.PendingContext(), progress)
	if err != nil {
		s.mu.Lock()
		s.state = domain.StateFailed
		s.mu.Unlock()

		s.logger.Error("initialize failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.handle = handle
	s.vaultRoot = vaultRoot
	s.pointer = pointer
	s.state = domain.StateReady
	s.mu.Unlock()

	s.logger.Info("inference session ready",
		zap.String("handle_id", handle.id),
		zap.String("vault_name", pointer.VaultName))
	return nil
}

func (s *InferenceSession) load(ctx context.Context, modelPath, vaultRoot string, pending map[string]any, progress func(domain.LoadPhase)) (*inferenceHandle, domain.StatePointer, error) {
	if err := checkModelArtifact(modelPath); err != nil {
		return nil, domain.StatePointer{}, err
	}

	progress(domain.PhaseVaultContext)
	citation, err := s.store.LoadMasterCitation(ctx, vaultRoot)
	if err != nil {
		return nil, domain.StatePointer{}, fmt.Errorf("load master citation: %w", err)
	}

	pointer, err := s.store.LoadState(ctx, vaultRoot)
	if err != nil {
		return nil, domain.StatePointer{}, fmt.Errorf("load session state: %w", err)
	}
	if len(pending) > 0 {
		pointer.Context = MergeContext(pointer.Context, pending)
	}

	handle := &inferenceHandle{id: uuid.NewString(), modelPath: modelPath}
	fail := func(err error) (*inferenceHandle, domain.StatePointer, error) {
		if closeErr := handle.close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, domain.StatePointer{}, err
	}

	progress(domain.PhaseModel)
	handle.model, err = s.runtime.LoadModel(ctx, modelPath, ports.ModelOptions{GPULayers: GPULayers})
	if err != nil {
		return fail(fmt.Errorf("load model: %w", err))
	}

	progress(domain.PhaseContext)
	handle.llmContext, err = s.runtime.NewContext(ctx, handle.model, ports.ContextOptions{
		ContextSize: ContextSize,
		BatchSize:   BatchSize,
	})
	if err != nil {
		return fail(fmt.Errorf("create context: %w", err))
	}

	handle.chat, err = s.runtime.NewChat(ctx, handle.llmContext)
	if err != nil {
		return fail(fmt.Errorf("create chat session: %w", err))
	}

	progress(domain.PhasePrime)
	prompt := BuildSystemPrompt(citation, pointer)
	if _, err := s.runtime.Complete(ctx, handle.chat, prompt, ports.CompletionOptions{MaxTokens: 0}); err != nil {
		return fail(fmt.Errorf("inject system prompt: %w", err))
	}

	return handle, pointer, nil
}

// Generate runs one completion. onToken, when set, receives each decoded chunk
// before Generate returns the full text.
func (s *InferenceSession) Generate(ctx context.Context, userText string, onToken func(string)) (string, error) {
	s.mu.Lock()
	switch s.state {
	case domain.StateReady:
	case domain.StateGenerating:
		s.mu.Unlock()
		return "", fmt.Errorf("generate: %w", domain.ErrBusy)
	default:
		state := s.state
		s.mu.Unlock()
		return "", fmt.Errorf("generate in state %s: %w", state, domain.ErrNotInitialized)
	}
	if !s.op.TryAcquire(1) {
		s.mu.Unlock()
		return "", fmt.Errorf("generate: %w", domain.ErrBusy)
	}
	handle := s.handle
	s.state = domain.StateGenerating
	s.mu.Unlock()

	defer s.op.Release(1)

	opts := ports.CompletionOptions{
		MaxTokens:   MaxOutputTokens,
		Temperature: Temperature,
		TopP:        TopP,
	}
	if onToken != nil {
		opts.OnToken = func(text string) {
			if text != "" {
				onToken(text)
			}
		}
	}

	s.logger.Debug("generating", zap.String("handle_id", handle.id), zap.Int("prompt_len", len(userText)))
	response, err := s.runtime.Complete(ctx, handle.chat, userText, opts)

	s.mu.Lock()
	if s.state == domain.StateGenerating && s.handle == handle {
		s.state = domain.StateReady
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("generation failed", zap.String("handle_id", handle.id), zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	return response, nil
}

// UpdateContext merges update into the in-memory pointer context. Nothing is
// written and the live chat memory is untouched; the update is carried into
// the next Initialize.
func (s *InferenceSession) UpdateContext(update map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer.Context = MergeContext(s.pointer.Context, update)
	s.pending = MergeContext(s.pending, update)
}

func (s *InferenceSession) PendingContext() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	return MergeContext(nil, s.pending)
}

// ClearPendingContext forgets pending keys once they are persisted. A key
// updated again since the snapshot was taken is kept.
func (s *InferenceSession) ClearPendingContext(persisted map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range persisted {
		if current, ok := s.pending[k]; ok && reflect.DeepEqual(current, v) {
			delete(s.pending, k)
		}
	}
}

// ReconcilePointer replaces the in-memory pointer with persisted, the pointer
// just written to vaultRoot. Keys still pending stay layered on top.
func (s *InferenceSession) ReconcilePointer(vaultRoot string, persisted domain.StatePointer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vaultRoot != "" && s.vaultRoot != vaultRoot {
		return
	}

	next := persisted.Clone()
	if len(s.pending) > 0 {
		next.Context = MergeContext(next.Context, s.pending)
	}
	s.pointer = next
}

func (s *InferenceSession) StatePointer() domain.StatePointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.Clone()
}

func (s *InferenceSession) ModelInfo() domain.ModelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return domain.ModelInfo{}
	}

	return domain.ModelInfo{
		Loaded:      true,
		ModelPath:   s.handle.modelPath,
		ContextSize: s.handle.llmContext.Size(),
		VaultName:   s.pointer.VaultName,
		HandleID:    s.handle.id,
	}
}

// Dispose releases the handle. It waits for an in-flight operation and is
// safe to call repeatedly.
func (s *InferenceSession) Dispose() error {
	_ = s.op.Acquire(context.Background(), 1)
	defer s.op.Release(1)

	s.mu.Lock()
	handle := s.handle
	s.handle = nil
	s.state = domain.StateDisposed
	s.mu.Unlock()

	if handle == nil {
		return nil
	}

	s.logger.Info("disposing inference session", zap.String("handle_id", handle.id))
	if err := handle.close(); err != nil {
		return fmt.Errorf("dispose inference session: %w", err)
	}

	return nil
}

func checkModelArtifact(modelPath string) error {
	info, err := os.Stat(modelPath)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrModelNotFound, modelPath)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domain.ErrModelNotFound, modelPath)
	}

	file, err := os.Open(modelPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrModelNotFound, modelPath, err)
	}
	_ = file.Close()

	return nil
}
