// Package atomicfile replaces files through a temp file and rename, and hands
// out one lock per path so readers never see a half-written file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type Options struct {
	DirMode  os.FileMode
	FileMode os.FileMode
	// TempPattern is passed to os.CreateTemp in the target's directory.
	TempPattern string
	// Label names the file in errors, e.g. "state" or "settings".
	Label string
	// Sync flushes the temp file before the rename.
	Sync bool
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

// LockForPath returns the process-wide lock for path. Callers pass a cleaned
// absolute path so aliases share a lock.
func LockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// Write replaces path with data. On any failure the previous content is left
// in place and no temp file remains.
func Write(path string, data []byte, opts Options) error {
	label := opts.Label
	if label == "" {
		label = filepath.Base(path)
	}

	if err := os.MkdirAll(filepath.Dir(path), opts.DirMode); err != nil {
		return fmt.Errorf("create %s directory: %w", label, err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), opts.TempPattern)
	if err != nil {
		return fmt.Errorf("create temp %s file: %w", label, err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp %s file: %w", label, err)
	}

	if err := tempFile.Chmod(opts.FileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp %s file: %w", label, err)
	}

	if opts.Sync {
		if err := tempFile.Sync(); err != nil {
			_ = tempFile.Close()
			return fmt.Errorf("sync temp %s file: %w", label, err)
		}
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp %s file: %w", label, err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace %s file: %w", label, err)
	}

	cleanup = false
	return nil
}
