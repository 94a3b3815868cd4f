package ports

import (
	"context"

	"github.com/bnema/mirror-launcher/internal/domain"
)

// ArtifactStore reads MirrorDNA artifacts and their sidecars from disk.
type ArtifactStore interface {
	// ListArtifacts returns the .md and .txt files directly under dir, sorted.
	ListArtifacts(ctx context.Context, dir string) ([]string, error)
	ReadArtifact(ctx context.Context, path string) (domain.Artifact, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReplaceFile(ctx context.Context, path string, data []byte) error
}
