package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/bnema/mirror-launcher/internal/ports"
	"go.uber.org/zap"
)

type SessionRecorder struct {
	store  ports.VaultStore
	clock  ports.Clock
	logger *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewSessionRecorder(store ports.VaultStore, clock ports.Clock, logger *zap.Logger) *SessionRecorder {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionRecorder{
		store:  store,
		clock:  clock,
		logger: logger.Named("recorder"),
		locks:  map[string]*sync.Mutex{},
	}
}

// RecordExchange renders one exchange into a new transcript and advances the
// state pointer. Calls against the same vault run one at a time.
func (r *SessionRecorder) RecordExchange(ctx context.Context, vaultRoot, userText, responseText string) (string, error) {
	next, err := r.RecordExchangeWithContext(ctx, vaultRoot, userText, responseText, nil)
	if err != nil {
		return "", err
	}
	return next.LastSession.Path, nil
}

// RecordExchangeWithContext is RecordExchange with contextUpdate merged into
// the persisted pointer, which it returns. The transcript still shows the
// context as it was before this exchange.
func (r *SessionRecorder) RecordExchangeWithContext(ctx context.Context, vaultRoot, userText, responseText string, contextUpdate map[string]any) (domain.StatePointer, error) {
	mu := r.lockForVault(vaultRoot)
	mu.Lock()
	defer mu.Unlock()

	pointer, err := r.store.LoadState(ctx, vaultRoot)
	if err != nil {
		return domain.StatePointer{}, fmt.Errorf("load session state: %w", err)
	}

	template, err := r.store.LoadTemplate(ctx, vaultRoot)
	if err != nil {
		return domain.StatePointer{}, fmt.Errorf("load session template: %w", err)
	}

	number := pointer.NextSessionNumber()
	timestamp := domain.FormatTimestamp(r.clock.Now())
	date := timestamp[:len("2006-01-02")]
	filename := domain.TranscriptName(date, number)

	predecessor := ""
	if pointer.LastSession != nil {
		predecessor = pointer.LastSession.Path
	}

	content, err := RenderTranscript(template, TranscriptFields{
		SessionNumber:   number,
		Date:            date,
		Timestamp:       timestamp,
		VaultName:       pointer.VaultName,
		PredecessorPath: predecessor,
		PreviousContext: pointer.Context,
		Dialogue:        domain.FormatDialogue(timestamp, userText, responseText),
	})
	if err != nil {
		return domain.StatePointer{}, fmt.Errorf("render transcript: %w", err)
	}

	relPath, err := r.store.WriteTranscript(ctx, vaultRoot, filename, content)
	if err != nil {
		return domain.StatePointer{}, fmt.Errorf("%w: write transcript: %w", domain.ErrRecording, err)
	}

	// The pointer update must follow the transcript even if ctx is canceled now.
	persistCtx := context.WithoutCancel(ctx)

	next := pointer.Clone()
	if len(contextUpdate) > 0 {
		next.Context = MergeContext(next.Context, contextUpdate)
	}
	next.LastSession = &domain.LastSession{
		Number:    number,
		Path:      relPath,
		Timestamp: timestamp,
	}

	if err := r.store.SaveState(persistCtx, vaultRoot, next); err != nil {
		if rollbackErr := r.store.RemoveTranscript(persistCtx, vaultRoot, relPath); rollbackErr != nil {
			r.logger.Error("orphan transcript left after state update failure",
				zap.String("vault", vaultRoot),
				zap.String("transcript", relPath),
				zap.Error(rollbackErr))
			return domain.StatePointer{}, fmt.Errorf("%w: save state and rollback transcript: %w", domain.ErrRecording, errors.Join(err, rollbackErr))
		}
		return domain.StatePointer{}, fmt.Errorf("%w: save state: %w", domain.ErrRecording, err)
	}

	r.logger.Info("exchange recorded",
		zap.String("vault", vaultRoot),
		zap.Int("session_number", number),
		zap.String("transcript", relPath))

	return next, nil
}

func (r *SessionRecorder) lockForVault(vaultRoot string) *sync.Mutex {
	key := filepath.Clean(vaultRoot)
	if abs, err := filepath.Abs(vaultRoot); err == nil {
		key = abs
	}

	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	if mu, ok := r.locks[key]; ok {
		return mu
	}

	mu := &sync.Mutex{}
	r.locks[key] = mu
	return mu
}
