package file

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bnema/mirror-launcher/internal/domain"
)

type stateSchema struct {
	VaultName   *string            `json:"vault_name"`
	Context     map[string]any     `json:"context"`
	LastSession *lastSessionSchema `json:"last_session,omitempty"`
}

type lastSessionSchema struct {
	Number    int    `json:"number"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

func decodeState(data []byte) (domain.StatePointer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.StatePointer{}, fmt.Errorf("%w: state must be a JSON object", domain.ErrStateCorrupt)
	}

	var schema stateSchema
	if err := json.Unmarshal(trimmed, &schema); err != nil {
		return domain.StatePointer{}, fmt.Errorf("%w: %w", domain.ErrStateCorrupt, err)
	}
	if schema.VaultName == nil {
		return domain.StatePointer{}, fmt.Errorf("%w: vault_name is required", domain.ErrStateCorrupt)
	}

	pointer := domain.StatePointer{
		VaultName: *schema.VaultName,
		Context:   schema.Context,
	}
	if pointer.Context == nil {
		pointer.Context = map[string]any{}
	}
	if schema.LastSession != nil {
		pointer.LastSession = &domain.LastSession{
			Number:    schema.LastSession.Number,
			Path:      schema.LastSession.Path,
			Timestamp: schema.LastSession.Timestamp,
		}
	}
	if err := pointer.Validate(); err != nil {
		return domain.StatePointer{}, fmt.Errorf("%w: %w", domain.ErrStateCorrupt, err)
	}

	return pointer, nil
}

// encodeState writes the known fields over extra, so keys this launcher does
// not manage survive a rewrite.
func encodeState(pointer domain.StatePointer, extra map[string]json.RawMessage) ([]byte, error) {
	out := make(map[string]any, len(extra)+3)
	for key, raw := range extra {
		out[key] = raw
	}

	ctx := pointer.Context
	if ctx == nil {
		ctx = map[string]any{}
	}
	out["vault_name"] = pointer.VaultName
	out["context"] = ctx
	if pointer.LastSession != nil {
		out["last_session"] = lastSessionSchema{
			Number:    pointer.LastSession.Number,
			Path:      pointer.LastSession.Path,
			Timestamp: pointer.LastSession.Timestamp,
		}
	} else {
		delete(out, "last_session")
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state file: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeRaw(data []byte) (map[string]json.RawMessage, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStateCorrupt, err)
	}
	return raw, nil
}
