package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	return status
}

func TestHealthHandler_LivenessRoutes(t *testing.T) {
	h := NewHealthHandler(nil)
	start := h.started
	h.now = func() time.Time { return start.Add(90 * time.Second) }

	for _, tc := range []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/health", h.HandleHealth},
		{"/healthz", h.HandleHealthz},
	} {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			tc.handler(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			status := decodeHealth(t, w)
			assert.Equal(t, "healthy", status.Status)
			assert.Equal(t, "1m30s", status.Uptime)
			assert.Empty(t, status.Checks)
		})
	}
}

func TestHealthHandler_HandleReady(t *testing.T) {
	pass := func(context.Context) error { return nil }

	tests := []struct {
		name     string
		checks   map[string]func(context.Context) error
		wantCode int
		wantFail []string
	}{
		{
			name:     "no checks",
			wantCode: http.StatusOK,
		},
		{
			name:     "index and llm ready",
			checks:   map[string]func(context.Context) error{"rag_index": pass, "llm": pass},
			wantCode: http.StatusOK,
		},
		{
			name: "index missing",
			checks: map[string]func(context.Context) error{
				"rag_index": func(context.Context) error { return errors.New("RAG index not loaded") },
				"llm":       pass,
			},
			wantCode: http.StatusServiceUnavailable,
			wantFail: []string{"rag_index"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(zap.NewNop())
			for name, fn := range tt.checks {
				h.RegisterCheck(NewFuncCheck(name, fn))
			}

			w := httptest.NewRecorder()
			h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			status := decodeHealth(t, w)
			assert.Len(t, status.Checks, len(tt.checks))
			for name, res := range status.Checks {
				if slices.Contains(tt.wantFail, name) {
					assert.Equal(t, "fail", res.Status, name)
					assert.NotEmpty(t, res.Message)
				} else {
					assert.Equal(t, "pass", res.Status, name)
				}
				assert.NotEmpty(t, res.Latency)
			}
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "healthy", status.Status)
			} else {
				assert.Equal(t, "unhealthy", status.Status)
			}
		})
	}
}

func TestHealthHandler_ReadyLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := NewHealthHandler(zap.New(core))
	h.RegisterCheck(NewFuncCheck("llm", func(context.Context) error {
		return errors.New("llama-server unreachable")
	}))

	w := httptest.NewRecorder()
	h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	entries := logs.FilterMessage("health check failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "llm", entries[0].ContextMap()["check"])
}

func TestHealthHandler_ReadyRunsChecksConcurrently(t *testing.T) {
	h := NewHealthHandler(nil)
	var wg sync.WaitGroup
	wg.Add(2)
	// 两个检查互相等待，串行执行会卡到 ctx 超时
	barrier := func(ctx context.Context) error {
		wg.Done()
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.RegisterCheck(NewFuncCheck("a", barrier))
	h.RegisterCheck(NewFuncCheck("b", barrier))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w := httptest.NewRecorder()
	h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil).WithContext(ctx))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler_HandleVersion(t *testing.T) {
	h := NewHealthHandler(nil)
	w := httptest.NewRecorder()
	h.HandleVersion("v0.3.0", "2026-01-02T03:04:05Z", "abc123")(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var data map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&data))
	assert.Equal(t, "v0.3.0", data["version"])
	assert.Equal(t, "2026-01-02T03:04:05Z", data["build_time"])
	assert.Equal(t, "abc123", data["git_commit"])
}

