package ports

import (
	"context"

	"github.com/bnema/mirror-launcher/internal/domain"
)

type VaultStore interface {
	LoadMasterCitation(ctx context.Context, vaultRoot string) (string, error)
	LoadState(ctx context.Context, vaultRoot string) (domain.StatePointer, error)
	SaveState(ctx context.Context, vaultRoot string, pointer domain.StatePointer) error
	LoadTemplate(ctx context.Context, vaultRoot string) (string, error)
	// WriteTranscript creates sessions/<filename> and returns its vault-relative path.
	WriteTranscript(ctx context.Context, vaultRoot, filename, content string) (string, error)
	RemoveTranscript(ctx context.Context, vaultRoot, relPath string) error
	InitVault(ctx context.Context, templateRoot, targetRoot, vaultName string) error
}
