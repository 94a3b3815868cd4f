package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bnema/mirror-launcher/internal/adapters/atomicfile"
	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/bnema/mirror-launcher/internal/ports"
	"go.uber.org/zap"
)

const (
	sidecarSuffix    = ".json"
	altSidecarSuffix = ".sidecar.json"
	tempFilePattern  = ".artifact-*.tmp"
)

var artifactExtensions = map[string]bool{".md": true, ".txt": true}

var _ ports.ArtifactStore = (*Store)(nil)

func (s *Store) ListArtifacts(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read artifact directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !artifactExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return paths, nil
}

// ReadArtifact loads path and the first sidecar found for it: path.json, then
// <stem>.sidecar.json.
func (s *Store) ReadArtifact(ctx context.Context, path string) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("read artifact: %w", err)
	}

	artifact := domain.Artifact{Path: path, Content: content}
	for _, candidate := range sidecarCandidates(path) {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return domain.Artifact{}, fmt.Errorf("read sidecar: %w", err)
		}
		artifact.SidecarPath = candidate
		artifact.Sidecar = data
		break
	}

	s.logger.Debug("artifact read",
		zap.String("path", path),
		zap.String("sidecar", artifact.SidecarPath),
		zap.Int("bytes", len(content)))
	return artifact, nil
}

func (s *Store) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mu := atomicfile.LockForPath(normalizeRoot(path))
	mu.RLock()
	defer mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// ReplaceFile atomically rewrites an existing file, keeping its mode.
func (s *Store) ReplaceFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mu := atomicfile.LockForPath(normalizeRoot(path))
	mu.Lock()
	defer mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}

	return atomicfile.Write(path, data, atomicfile.Options{
		DirMode:     vaultDirMode,
		FileMode:    info.Mode().Perm(),
		TempPattern: tempFilePattern,
		Label:       filepath.Base(path),
		Sync:        true,
	})
}

func sidecarCandidates(path string) []string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []string{
		path + sidecarSuffix,
		filepath.Join(filepath.Dir(path), stem+altSidecarSuffix),
	}
}
