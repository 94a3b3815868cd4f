package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/mirror-launcher/internal/adapters/atomicfile"
	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/bnema/mirror-launcher/internal/ports"
	"go.uber.org/zap"
)

const (
	vaultDirMode      = 0o755
	vaultFileMode     = 0o644
	tempStatePattern  = ".current-*.json.tmp"
	transcriptOpenFlg = os.O_WRONLY | os.O_CREATE | os.O_EXCL
)

type Store struct {
	logger *zap.Logger
}

var _ ports.VaultStore = (*Store)(nil)

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger.Named("vault")}
}

func (s *Store) LoadMasterCitation(ctx context.Context, vaultRoot string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(vaultRoot, domain.MasterCitationFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("master citation not found, using minimal context", zap.String("path", path))
			return domain.FallbackMasterCitation, nil
		}
		return "", fmt.Errorf("read master citation: %w", err)
	}

	s.logger.Debug("master citation loaded", zap.String("path", path), zap.Int("bytes", len(data)))
	return string(data), nil
}

func (s *Store) LoadState(ctx context.Context, vaultRoot string) (domain.StatePointer, error) {
	if err := ctx.Err(); err != nil {
		return domain.StatePointer{}, err
	}

	path := statePath(vaultRoot)
	mu := atomicfile.LockForPath(path)
	mu.RLock()
	defer mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultStatePointer(), nil
		}
		return domain.StatePointer{}, fmt.Errorf("read state file: %w", err)
	}

	pointer, err := decodeState(data)
	if err != nil {
		return domain.StatePointer{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return pointer, nil
}

func (s *Store) SaveState(ctx context.Context, vaultRoot string, pointer domain.StatePointer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := statePath(vaultRoot)
	mu := atomicfile.LockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	extra, err := readExtra(path)
	if err != nil {
		return err
	}

	data, err := encodeState(pointer, extra)
	if err != nil {
		return err
	}

	return writeFileAtomic(path, data)
}

func (s *Store) LoadTemplate(ctx context.Context, vaultRoot string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(vaultRoot, domain.TemplatesDir, domain.SessionTemplate)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrTemplateMissing, path)
		}
		return "", fmt.Errorf("read session template: %w", err)
	}

	return string(data), nil
}

func (s *Store) WriteTranscript(ctx context.Context, vaultRoot, filename, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateFilename(filename); err != nil {
		return "", err
	}

	dir := filepath.Join(vaultRoot, domain.SessionsDir)
	if err := os.MkdirAll(dir, vaultDirMode); err != nil {
		return "", fmt.Errorf("create sessions directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	file, err := os.OpenFile(path, transcriptOpenFlg, vaultFileMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrWriteConflict, domain.TranscriptRelPath(filename))
		}
		return "", fmt.Errorf("create transcript: %w", err)
	}

	if _, err := file.WriteString(content); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close transcript: %w", err)
	}

	s.logger.Debug("transcript written", zap.String("path", path))
	return domain.TranscriptRelPath(filename), nil
}

func (s *Store) RemoveTranscript(ctx context.Context, vaultRoot, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return fmt.Errorf("invalid transcript path %q", relPath)
	}

	err := os.Remove(filepath.Join(vaultRoot, cleaned))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove transcript %q: %w", relPath, err)
	}

	return nil
}

func (s *Store) InitVault(ctx context.Context, templateRoot, targetRoot, vaultName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(templateRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrTemplateMissing, templateRoot)
		}
		return fmt.Errorf("stat vault template: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrTemplateMissing, templateRoot)
	}

	existed, err := ensureEmptyTarget(targetRoot)
	if err != nil {
		return err
	}
	cleanup := func() {
		if err := removeCreated(targetRoot, existed); err != nil {
			s.logger.Warn("partial vault left behind", zap.String("vault", targetRoot), zap.Error(err))
		}
	}

	if err := os.MkdirAll(filepath.Dir(targetRoot), vaultDirMode); err != nil {
		return fmt.Errorf("create vault parent directory: %w", err)
	}

	if err := os.CopyFS(targetRoot, os.DirFS(templateRoot)); err != nil {
		cleanup()
		return fmt.Errorf("copy vault template: %w", err)
	}

	if err := s.patchVaultName(targetRoot, vaultName); err != nil {
		cleanup()
		return err
	}

	s.logger.Info("vault initialized",
		zap.String("template", templateRoot),
		zap.String("vault", targetRoot),
		zap.String("name", vaultName))
	return nil
}

func (s *Store) patchVaultName(vaultRoot, vaultName string) error {
	path := statePath(vaultRoot)
	mu := atomicfile.LockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	extra, err := readExtra(path)
	if err != nil {
		return err
	}

	name, err := json.Marshal(vaultName)
	if err != nil {
		return fmt.Errorf("encode vault name: %w", err)
	}

	pointer := domain.DefaultStatePointer()
	if len(extra) > 0 {
		extra["vault_name"] = name
		data, err := json.MarshalIndent(extra, "", "  ")
		if err != nil {
			return fmt.Errorf("encode state file: %w", err)
		}
		return writeFileAtomic(path, append(data, '\n'))
	}

	pointer.VaultName = vaultName
	data, err := encodeState(pointer, nil)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func statePath(vaultRoot string) string {
	return filepath.Join(normalizeRoot(vaultRoot), domain.StateDir, domain.StateFile)
}

func normalizeRoot(vaultRoot string) string {
	abs, err := filepath.Abs(vaultRoot)
	if err != nil {
		return filepath.Clean(vaultRoot)
	}
	return filepath.Clean(abs)
}

func readExtra(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	extra, err := decodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if extra == nil {
		extra = map[string]json.RawMessage{}
	}
	return extra, nil
}

// ensureEmptyTarget reports whether targetRoot already exists as an empty
// directory. Anything else at that path is refused.
func ensureEmptyTarget(targetRoot string) (bool, error) {
	info, err := os.Stat(targetRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat vault target: %w", err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%w: %s", domain.ErrTargetExists, targetRoot)
	}

	entries, err := os.ReadDir(targetRoot)
	if err != nil {
		return false, fmt.Errorf("read vault target: %w", err)
	}
	if len(entries) > 0 {
		return false, fmt.Errorf("%w: %s", domain.ErrTargetExists, targetRoot)
	}

	return true, nil
}

// removeCreated undoes a failed init. A directory the caller made beforehand
// is emptied and kept.
func removeCreated(targetRoot string, existed bool) error {
	if !existed {
		return os.RemoveAll(targetRoot)
	}

	entries, err := os.ReadDir(targetRoot)
	if err != nil {
		return err
	}
	var errs []error
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(targetRoot, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return errors.New("transcript filename is empty")
	}
	if filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return fmt.Errorf("invalid transcript filename %q", filename)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	return atomicfile.Write(path, data, atomicfile.Options{
		DirMode:     vaultDirMode,
		FileMode:    vaultFileMode,
		TempPattern: tempStatePattern,
		Label:       "state",
		Sync:        true,
	})
}
