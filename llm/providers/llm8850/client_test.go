package llm8850

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jjfwang/aceceed-edge/llm"
	"github.com/jjfwang/aceceed-edge/types"
)

type fakeDevice struct {
	mu        sync.Mutex
	resets    []map[string]any
	generates []map[string]any
	polls     atomic.Int32
	doneAfter int32
	response  string
}

func (f *fakeDevice) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/reset", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.resets = append(f.resets, body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.generates = append(f.generates, body)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/generate_provider", func(w http.ResponseWriter, r *http.Request) {
		n := f.polls.Add(1)
		done := n >= f.doneAfter
		_ = json.NewEncoder(w).Encode(map[string]any{"done": done, "response": f.response})
	})
	return mux
}

func testConfig(host string) Config {
	return Config{
		Host:           host,
		Temperature:    0.3,
		RequestTimeout: time.Second,
		PollInterval:   0,
		MaxWait:        2 * time.Second,
		EnableThinking: false,
		ResetOnRequest: true,
	}
}

func TestClient_GeneratePollsUntilDone(t *testing.T) {
	dev := &fakeDevice{doneAfter: 2, response: "<think>hidden</think> hello "}
	srv := httptest.NewServer(dev.handler(t))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.TopK = 40
	c := New(cfg, zap.NewNop())

	out, err := c.Generate(context.Background(), []llm.Message{
		llm.System("You are a tutor."),
		llm.User("what is 2+2?"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, int32(2), dev.polls.Load())

	require.Len(t, dev.resets, 1)
	assert.Equal(t, "You are a tutor. /no_think", dev.resets[0]["system_prompt"])
	require.Len(t, dev.generates, 1)
	assert.Equal(t, "what is 2+2?", dev.generates[0]["prompt"])
	assert.Equal(t, 0.3, dev.generates[0]["temperature"])
	assert.Equal(t, float64(40), dev.generates[0]["top-k"])
}

func TestClient_ThinkingEnabledKeepsText(t *testing.T) {
	dev := &fakeDevice{doneAfter: 1, response: " <think>x</think>answer "}
	srv := httptest.NewServer(dev.handler(t))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.EnableThinking = true
	out, err := New(cfg, nil).Generate(context.Background(), []llm.Message{
		llm.System("sys"),
		llm.User("hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<think>x</think>answer", out)
	require.Len(t, dev.resets, 1)
	assert.Equal(t, "sys", dev.resets[0]["system_prompt"])
	_, hasTopK := dev.generates[0]["top-k"]
	assert.False(t, hasTopK)
}

func TestClient_SkipsResetWhenDisabled(t *testing.T) {
	dev := &fakeDevice{doneAfter: 1, response: "ok"}
	srv := httptest.NewServer(dev.handler(t))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.ResetOnRequest = false
	_, err := New(cfg, nil).Generate(context.Background(), []llm.Message{llm.System("sys"), llm.User("hi")})
	require.NoError(t, err)
	assert.Empty(t, dev.resets)
}

func TestClient_MultiTurnPrompt(t *testing.T) {
	dev := &fakeDevice{doneAfter: 1, response: "ok"}
	srv := httptest.NewServer(dev.handler(t))
	defer srv.Close()

	_, err := New(testConfig(srv.URL), nil).Generate(context.Background(), []llm.Message{
		llm.User("hi"),
		{Role: llm.RoleAssistant, Content: "hello"},
		llm.User("again"),
	})
	require.NoError(t, err)
	assert.Equal(t, "User: hi\nAssistant: hello\nUser: again", dev.generates[0]["prompt"])
}

func TestClient_EmptyResponseWarns(t *testing.T) {
	dev := &fakeDevice{doneAfter: 1, response: ""}
	srv := httptest.NewServer(dev.handler(t))
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	out, err := New(testConfig(srv.URL), zap.New(core)).Generate(context.Background(), []llm.Message{llm.User("hi")})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, logs.FilterMessage("empty response from LLM-8850").Len())
}

func TestClient_TimesOutWhenNeverDone(t *testing.T) {
	dev := &fakeDevice{doneAfter: 1 << 30, response: ""}
	srv := httptest.NewServer(dev.handler(t))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.PollInterval = 5 * time.Millisecond
	cfg.MaxWait = 50 * time.Millisecond
	_, err := New(cfg, nil).Generate(context.Background(), []llm.Message{llm.User("hi")})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUpstreamTimeout))
	assert.Contains(t, err.Error(), "LLM-8850 response timed out.")
}

func TestClient_HTTPErrorMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL), nil).Generate(context.Background(), []llm.Message{llm.User("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM-8850 API error: 503")
	assert.True(t, types.IsRetryable(err))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	_, err := New(testConfig(host), nil).Generate(context.Background(), []llm.Message{llm.User("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to reach LLM-8850 at "+host+". Is the service running?")
}

func TestClient_MissingHost(t *testing.T) {
	_, err := New(Config{}, nil).Generate(context.Background(), []llm.Message{llm.User("hi")})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrNotConfigured))
}

func TestClient_EmptyPromptShortCircuits(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	out, err := New(testConfig(srv.URL), nil).Generate(context.Background(), []llm.Message{llm.System("only system")})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, calls.Load())
}

func TestStripThinking(t *testing.T) {
	assert.Equal(t, "a b", stripThinking("<think>one\ntwo</think>a b"))
	assert.Equal(t, "tail", stripThinking("</think>tail"))
}
