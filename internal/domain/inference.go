package domain

type InferenceState int

const (
	StateUnloaded InferenceState = iota
	StateLoading
	StateReady
	StateGenerating
	StateFailed
	StateDisposed
)

func (s InferenceState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateGenerating:
		return "generating"
	case StateFailed:
		return "failed"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Live reports whether a handle is bound in this state.
func (s InferenceState) Live() bool {
	return s == StateReady || s == StateGenerating
}

type ModelInfo struct {
	Loaded      bool
	ModelPath   string
	ContextSize int
	VaultName   string
	HandleID    string
}

// LoadPhase is one step of binding a model to a vault.
type LoadPhase int

const (
	PhaseVaultContext LoadPhase = iota
	PhaseModel
	PhaseContext
	PhasePrime
)

func (p LoadPhase) String() string {
	switch p {
	case PhaseVaultContext:
		return "reading vault context"
	case PhaseModel:
		return "binding model"
	case PhaseContext:
		return "allocating context"
	case PhasePrime:
		return "priming system prompt"
	default:
		return "loading"
	}
}
