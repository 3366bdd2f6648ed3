// =============================================================================
// aceceed-edge OpenAI-Compatible Chat Client
// =============================================================================
// One implementation serves both the cloud OpenAI API and a local llama.cpp
// llama-server, which speaks the same Chat Completions format. The two differ
// only in base URL, auth, model name, error labels and retry policy.
// =============================================================================

package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/internal/tlsutil"
	"github.com/jjfwang/aceceed-edge/llm"
	"github.com/jjfwang/aceceed-edge/llm/providers"
	"github.com/jjfwang/aceceed-edge/llm/retry"
	"github.com/jjfwang/aceceed-edge/types"
)

// DefaultMaxTokens caps completions; spoken answers are short.
const DefaultMaxTokens = 256

// Config holds the configuration for an OpenAI-compatible client.
type Config struct {
	// Label prefixes upstream error messages ("OpenAI API", "llama.cpp server").
	Label string

	// APIKey is sent as a Bearer token when non-empty.
	APIKey string

	// BaseURL is the API root, e.g. "https://api.openai.com/v1" or "http://127.0.0.1:8080".
	BaseURL string

	// EndpointPath is joined onto BaseURL. Defaults to "/chat/completions".
	EndpointPath string

	Model       string
	Temperature float64

	// MaxTokens defaults to DefaultMaxTokens.
	MaxTokens int

	// Timeout is the per-attempt HTTP timeout. Defaults to 10s.
	Timeout time.Duration

	// Retry policy; nil disables retries.
	Retry *retry.RetryPolicy

	// UnreachableMessage replaces the network error text when the server
	// cannot be contacted at all.
	UnreachableMessage string

	// Local selects the LAN HTTP client instead of the hardened cloud client.
	Local bool
}

// Provider is a chat client for OpenAI-compatible endpoints.
type Provider struct {
	Cfg     Config
	Client  *http.Client
	Logger  *zap.Logger
	retryer retry.Retryer
}

// New creates a new OpenAI-compatible client with the given config.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/chat/completions"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Label == "" {
		cfg.Label = "OpenAI API"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := cfg.Retry
	if policy == nil {
		policy = retry.NoRetryPolicy()
	}

	client := tlsutil.SecureHTTPClient(cfg.Timeout)
	if cfg.Local {
		client = tlsutil.LocalHTTPClient(cfg.Timeout)
	}

	return &Provider{
		Cfg:     cfg,
		Client:  client,
		Logger:  logger.With(zap.String("component", "llm"), zap.String("provider", cfg.Label)),
		retryer: retry.NewBackoffRetryer(policy, logger),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []llm.Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements llm.Client.
func (p *Provider) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return retry.Value(ctx, p.retryer, func(ctx context.Context) (string, error) {
		return p.complete(ctx, messages)
	})
}

func (p *Provider) complete(ctx context.Context, messages []llm.Message) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       p.Cfg.Model,
		Temperature: p.Cfg.Temperature,
		MaxTokens:   p.Cfg.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := providers.JoinURL(p.Cfg.BaseURL, p.Cfg.EndpointPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.Cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.Cfg.APIKey)
	}

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", providers.NetworkError(p.Cfg.UnreachableMessage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", providers.MapHTTPError(resp.StatusCode, providers.ReadErrorMessage(resp.Body), p.Cfg.Label)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.NewError(types.ErrUpstreamError, "invalid response from "+p.Cfg.Label).
			WithCause(err).WithRetryable(true)
	}

	var content string
	if len(out.Choices) > 0 {
		content = strings.TrimSpace(out.Choices[0].Message.Content)
	}
	if content == "" {
		p.Logger.Warn("empty response from OpenAI-compatible API")
		return "", nil
	}
	return content, nil
}
