package domain

import (
	"fmt"
	"strings"
)

const (
	MasterCitationFile = "00_MASTER_CITATION.md"
	StateDir           = "state"
	StateFile          = "current.json"
	TemplatesDir       = "templates"
	SessionTemplate    = "new-session.md"
	SessionsDir        = "sessions"

	DefaultVaultName = "AMOS"

	FallbackMasterCitation = "# MirrorDNA Reflective AI\nConstitutive reflection, not simulation."
)

type Vault struct {
	Root string
	Name string
}

type LastSession struct {
	Number    int
	Path      string
	Timestamp string
}

// StatePointer is the rolling record kept at state/current.json.
type StatePointer struct {
	VaultName   string
	Context     map[string]any
	LastSession *LastSession
}

func DefaultStatePointer() StatePointer {
	return StatePointer{
		VaultName: DefaultVaultName,
		Context:   map[string]any{"summary": "New session"},
	}
}

func (p StatePointer) NextSessionNumber() int {
	if p.LastSession == nil {
		return 1
	}
	return p.LastSession.Number + 1
}

func (p StatePointer) Clone() StatePointer {
	clone := StatePointer{VaultName: p.VaultName}
	if p.Context != nil {
		clone.Context = make(map[string]any, len(p.Context))
		for k, v := range p.Context {
			clone.Context[k] = v
		}
	}
	if p.LastSession != nil {
		last := *p.LastSession
		clone.LastSession = &last
	}
	return clone
}

func (p StatePointer) Validate() error {
	if p.LastSession == nil {
		return nil
	}
	if p.LastSession.Number < 1 {
		return fmt.Errorf("last_session.number must be >= 1, got %d", p.LastSession.Number)
	}
	if strings.TrimSpace(p.LastSession.Timestamp) == "" {
		return fmt.Errorf("last_session.timestamp is required")
	}
	return nil
}
