package llm8850

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/internal/tlsutil"
	"github.com/jjfwang/aceceed-edge/llm"
	"github.com/jjfwang/aceceed-edge/llm/providers"
	"github.com/jjfwang/aceceed-edge/types"
)

// Config LLM-8850 客户端配置
type Config struct {
	Host           string
	Temperature    float64
	TopK           int // 0 表示不发送
	RequestTimeout time.Duration
	PollInterval   time.Duration
	MaxWait        time.Duration
	EnableThinking bool
	ResetOnRequest bool
}

// Client 对接 LLM-8850 加速卡的异步生成接口：
// reset 设置系统提示词，generate 提交任务，generate_provider 轮询结果。
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New 创建 LLM-8850 客户端
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.PollInterval < 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   tlsutil.LocalHTTPClient(cfg.RequestTimeout),
		logger: logger.With(zap.String("component", "llm"), zap.String("provider", "llm8850")),
	}
}

type pollResponse struct {
	Done     bool   `json:"done"`
	Response string `json:"response"`
}

// Generate 实现 llm.Client
func (c *Client) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	if c.cfg.Host == "" {
		return "", types.NewError(types.ErrNotConfigured,
			"LLM-8850 host is not configured. Set llm.local.llm8850.host.")
	}

	systemPrompt, prompt := buildPrompt(messages)
	if prompt == "" {
		return "", nil
	}

	if c.cfg.ResetOnRequest && systemPrompt != "" {
		if !c.cfg.EnableThinking {
			systemPrompt += " /no_think"
		}
		if err := c.do(ctx, http.MethodPost, "/api/reset", map[string]any{"system_prompt": systemPrompt}, nil); err != nil {
			return "", err
		}
	}

	payload := map[string]any{
		"prompt":      prompt,
		"temperature": c.cfg.Temperature,
	}
	if c.cfg.TopK > 0 {
		payload["top-k"] = c.cfg.TopK
	}
	if err := c.do(ctx, http.MethodPost, "/api/generate", payload, nil); err != nil {
		return "", err
	}

	text, err := c.poll(ctx)
	if err != nil {
		return "", err
	}
	if text == "" {
		c.logger.Warn("empty response from LLM-8850")
		return "", nil
	}
	if c.cfg.EnableThinking {
		return strings.TrimSpace(text), nil
	}
	return stripThinking(text), nil
}

func (c *Client) poll(ctx context.Context) (string, error) {
	deadline := time.Now().Add(c.cfg.MaxWait)
	for time.Now().Before(deadline) {
		var out pollResponse
		if err := c.do(ctx, http.MethodGet, "/api/generate_provider", nil, &out); err != nil {
			return "", err
		}
		if out.Done {
			return out.Response, nil
		}

		timer := time.NewTimer(c.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", types.NewError(types.ErrUpstreamTimeout, "LLM-8850 response timed out.")
}

// do 发送一次请求；out 为 nil 或响应体不是合法 JSON 时忽略响应内容
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, providers.JoinURL(c.cfg.Host, path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return types.NewError(types.ErrUpstreamTimeout,
				fmt.Sprintf("LLM-8850 request timed out after %dms", c.cfg.RequestTimeout.Milliseconds())).WithCause(err)
		}
		return providers.NetworkError(fmt.Sprintf("Unable to reach LLM-8850 at %s. Is the service running?", origin(c.cfg.Host)), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return providers.MapHTTPError(resp.StatusCode, providers.ReadErrorMessage(resp.Body), "LLM-8850 API")
	}
	if out != nil {
		// 部分固件返回空 body，按零值处理
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// buildPrompt 合并系统消息；单轮用户消息原样发送，多轮对话展开为 User:/Assistant: 文本
func buildPrompt(messages []llm.Message) (string, string) {
	var system []string
	var dialogue []llm.Message
	users, hasAssistant := 0, false
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		default:
			dialogue = append(dialogue, m)
			if m.Role == llm.RoleUser {
				users++
			}
			if m.Role == llm.RoleAssistant {
				hasAssistant = true
			}
		}
	}
	systemPrompt := strings.TrimSpace(strings.Join(system, "\n"))

	if users == 1 && !hasAssistant && len(dialogue) == 1 {
		return systemPrompt, strings.TrimSpace(dialogue[0].Content)
	}
	lines := make([]string, 0, len(dialogue))
	for _, m := range dialogue {
		label := "User"
		if m.Role == llm.RoleAssistant {
			label = "Assistant"
		}
		lines = append(lines, label+": "+m.Content)
	}
	return systemPrompt, strings.TrimSpace(strings.Join(lines, "\n"))
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

func stripThinking(text string) string {
	text = thinkBlock.ReplaceAllString(text, "")
	return strings.TrimSpace(strings.ReplaceAll(text, "</think>", ""))
}

func origin(host string) string {
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return host
	}
	return u.Scheme + "://" + u.Host
}
