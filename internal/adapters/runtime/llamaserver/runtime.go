// Package llamaserver runs chat completions against a local llama.cpp
// llama-server (or any OpenAI-compatible endpoint serving a GGUF model).
//
// The server holds the weights; this adapter keeps the conversation memory on
// the client side, one message history per chat handle.
package llamaserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/bnema/mirror-launcher/internal/ports"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8080/v1"
	localAPIKey    = "local"

	// charsPerToken approximates how much history fits in a context window.
	charsPerToken = 4
)

var errClosed = errors.New("handle closed")

type Runtime struct {
	client openai.Client
	logger *zap.Logger
}

var _ ports.ModelRuntime = (*Runtime)(nil)

type config struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
}

type Option func(*config)

func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = baseURL
		}
	}
}

func WithAPIKey(apiKey string) Option {
	return func(c *config) {
		if strings.TrimSpace(apiKey) != "" {
			c.apiKey = apiKey
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithMaxRetries(retries int) Option {
	return func(c *config) {
		c.maxRetries = retries
	}
}

func NewRuntime(logger *zap.Logger, opts ...Option) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := config{
		baseURL:    DefaultBaseURL,
		apiKey:     localAPIKey,
		httpClient: http.DefaultClient,
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := openai.NewClient(
		option.WithBaseURL(cfg.baseURL),
		option.WithAPIKey(cfg.apiKey),
		option.WithHTTPClient(cfg.httpClient),
		option.WithMaxRetries(cfg.maxRetries),
	)

	return &Runtime{
		client: client,
		logger: logger.Named("llamaserver").With(zap.String("base_url", cfg.baseURL)),
	}
}

type model struct {
	path string
	id   string
	opts ports.ModelOptions
}

func (m *model) Path() string { return m.path }

func (m *model) Close() error { return nil }

type llmContext struct {
	model *model
	size  int
	batch int
}

func (c *llmContext) Size() int { return c.size }

func (c *llmContext) Close() error { return nil }

type message struct {
	role    string
	content string
}

type chat struct {
	llmContext *llmContext

	mu      sync.Mutex
	history []message
	closed  bool
}

func (c *chat) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.history = nil
	return nil
}

// LoadModel verifies the artifact, derives the model id from its file name and
// checks that the server answers before handing out a handle.
func (r *Runtime) LoadModel(ctx context.Context, path string, opts ports.ModelOptions) (ports.ModelHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat model artifact: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("model artifact %s is a directory", path)
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	page, err := r.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list models: %w", domain.ErrRuntimeUnavailable, err)
	}
	served := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		served = append(served, m.ID)
	}
	r.logger.Debug("runtime reachable", zap.Strings("served_models", served))

	r.logger.Info("model bound", zap.String("path", path), zap.String("model_id", id), zap.Int("gpu_layers", opts.GPULayers))

	return &model{path: path, id: id, opts: opts}, nil
}

func (r *Runtime) NewContext(ctx context.Context, handle ports.ModelHandle, opts ports.ContextOptions) (ports.ContextHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, ok := handle.(*model)
	if !ok || m == nil {
		return nil, fmt.Errorf("unsupported model handle %T", handle)
	}
	if opts.ContextSize <= 0 {
		return nil, fmt.Errorf("context size must be positive, got %d", opts.ContextSize)
	}

	return &llmContext{model: m, size: opts.ContextSize, batch: opts.BatchSize}, nil
}

func (r *Runtime) NewChat(ctx context.Context, handle ports.ContextHandle) (ports.ChatHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, ok := handle.(*llmContext)
	if !ok || c == nil {
		return nil, fmt.Errorf("unsupported context handle %T", handle)
	}

	return &chat{llmContext: c}, nil
}

// Complete streams one assistant turn. With MaxTokens == 0 the prompt is kept
// as system context and no request is sent.
func (r *Runtime) Complete(ctx context.Context, handle ports.ChatHandle, prompt string, opts ports.CompletionOptions) (string, error) {
	c, ok := handle.(*chat)
	if !ok || c == nil {
		return "", fmt.Errorf("unsupported chat handle %T", handle)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", errClosed
	}

	if opts.MaxTokens == 0 {
		c.history = append(c.history, message{role: "system", content: prompt})
		return "", nil
	}

	messages := fitHistory(append(append([]message(nil), c.history...), message{role: "user", content: prompt}), c.llmContext.size*charsPerToken)

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.llmContext.model.id),
		Messages:    toParams(messages),
		MaxTokens:   openai.Int(int64(opts.MaxTokens)),
		Temperature: openai.Float(opts.Temperature),
		TopP:        openai.Float(opts.TopP),
	}

	stream := r.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var b strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		b.WriteString(delta)
		if opts.OnToken != nil {
			opts.OnToken(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("stream completion: %w", err)
	}

	response := b.String()
	c.history = append(c.history,
		message{role: "user", content: prompt},
		message{role: "assistant", content: response},
	)

	r.logger.Debug("completion finished", zap.Int("response_len", len(response)), zap.Int("history", len(c.history)))
	return response, nil
}

// fitHistory drops the oldest non-system messages until the conversation fits
// in budget characters. System messages and the final prompt always stay.
func fitHistory(messages []message, budget int) []message {
	total := 0
	for _, m := range messages {
		total += len(m.content)
	}

	for total > budget {
		dropped := false
		for i := 0; i < len(messages)-1; i++ {
			if messages[i].role == "system" {
				continue
			}
			total -= len(messages[i].content)
			messages = append(messages[:i], messages[i+1:]...)
			dropped = true
			break
		}
		if !dropped {
			break
		}
	}

	return messages
}

func toParams(messages []message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.role {
		case "system":
			params = append(params, openai.SystemMessage(m.content))
		case "assistant":
			params = append(params, openai.AssistantMessage(m.content))
		default:
			params = append(params, openai.UserMessage(m.content))
		}
	}
	return params
}
