package ports

import "context"

type ModelOptions struct {
	// GPULayers is a compute placement hint; 0 keeps inference on the CPU.
	GPULayers int
}

type ContextOptions struct {
	ContextSize int
	BatchSize   int
}

type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	OnToken     func(text string)
}

type ModelHandle interface {
	Path() string
	Close() error
}

type ContextHandle interface {
	Size() int
	Close() error
}

type ChatHandle interface {
	Close() error
}

// ModelRuntime is the local inference engine. A MaxTokens of zero on Complete
// only feeds the prompt into the chat memory.
type ModelRuntime interface {
	LoadModel(ctx context.Context, path string, opts ModelOptions) (ModelHandle, error)
	NewContext(ctx context.Context, model ModelHandle, opts ContextOptions) (ContextHandle, error)
	NewChat(ctx context.Context, llmContext ContextHandle) (ChatHandle, error)
	Complete(ctx context.Context, chat ChatHandle, prompt string, opts CompletionOptions) (string, error)
}
