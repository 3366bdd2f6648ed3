package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jjfwang/aceceed-edge/agent"
	"github.com/jjfwang/aceceed-edge/agent/guardrails"
	"github.com/jjfwang/aceceed-edge/audio"
	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/rag"
)

// eventLog 按到达顺序收集事件
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func subscribeLog(t *testing.T, bus *Bus) *eventLog {
	t.Helper()
	l := &eventLog{}
	unsubscribe := bus.Subscribe(func(e Event) {
		l.mu.Lock()
		l.events = append(l.events, e)
		l.mu.Unlock()
	})
	t.Cleanup(unsubscribe)
	return l
}

func (l *eventLog) snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *eventLog) types() []EventType {
	var out []EventType
	for _, e := range l.snapshot() {
		out = append(out, e.Type)
	}
	return out
}

// waitFor 等待出现指定类型的事件
func (l *eventLog) waitFor(t *testing.T, typ EventType) Event {
	t.Helper()
	var found Event
	require.Eventually(t, func() bool {
		for _, e := range l.snapshot() {
			if e.Type == typ {
				found = e
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "event %s not published", typ)
	return found
}

type fakeSTT struct {
	mu      sync.Mutex
	text    string
	err     error
	gotPath string
	ctxErr  error
	existed bool
	calls   int
}

func (f *fakeSTT) Name() string { return "fake-stt" }

func (f *fakeSTT) Transcribe(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotPath = path
	f.ctxErr = ctx.Err()
	_, statErr := os.Stat(path)
	f.existed = statErr == nil
	return f.text, f.err
}

type fakeTTS struct {
	mu    sync.Mutex
	dir   string
	err   error
	texts []string
	paths []string
}

func (f *fakeTTS) Name() string { return "fake-tts" }

func (f *fakeTTS) Synthesize(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, "speech.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		return "", err
	}
	f.paths = append(f.paths, path)
	return path, nil
}

// stubAgent 记录收到的输入，按配置作答
type stubAgent struct {
	mu     sync.Mutex
	id     string
	reply  *agent.Output
	err    error
	inputs []agent.Input
}

func (a *stubAgent) ID() string   { return a.id }
func (a *stubAgent) Name() string { return "Stub" }

func (a *stubAgent) Handle(_ context.Context, in agent.Input) (*agent.Output, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inputs = append(a.inputs, in)
	return a.reply, a.err
}

func (a *stubAgent) lastInput() agent.Input {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inputs[len(a.inputs)-1]
}

type fakeRetriever struct {
	chunks []rag.Chunk
	err    error
	calls  int
	opts   rag.Options
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, opts rag.Options) ([]rag.Chunk, error) {
	f.calls++
	f.opts = opts
	return f.chunks, f.err
}

// harness 组装一个全部依赖可替换的控制器
type harness struct {
	t        *testing.T
	cfg      *config.Config
	dir      string
	stt      *fakeSTT
	tts      *fakeTTS
	tutor    *stubAgent
	mu       sync.Mutex
	played   []string
	recorder audio.Recorder
	deps     Deps
	logs     *observer.ObservedLogs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		t:     t,
		cfg:   config.DefaultConfig(),
		dir:   dir,
		stt:   &fakeSTT{text: "what is photosynthesis"},
		tts:   &fakeTTS{dir: dir},
		tutor: &stubAgent{id: agent.IDTutor, reply: &agent.Output{Text: "Plants use light to make food."}},
	}
	h.recorder = audio.RecorderFunc(func(context.Context, audio.RecordOptions) (string, error) {
		return h.writeAudio()
	})
	return h
}

func (h *harness) writeAudio() (string, error) {
	path := filepath.Join(h.dir, "input.wav")
	return path, os.WriteFile(path, make([]byte, 64), 0o644)
}

func (h *harness) build() (*Controller, *eventLog) {
	core, logs := observer.New(zapcore.DebugLevel)
	h.logs = logs
	logger := zap.New(core)

	deps := h.deps
	deps.Logger = logger
	if deps.Recorder == nil {
		deps.Recorder = h.recorder
	}
	if deps.STT == nil {
		deps.STT = h.stt
	}
	if deps.TTS == nil {
		deps.TTS = h.tts
	}
	if deps.Player == nil {
		deps.Player = audio.PlayerFunc(func(_ context.Context, path string) error {
			h.mu.Lock()
			h.played = append(h.played, path)
			h.mu.Unlock()
			return nil
		})
	}
	if deps.Selector == nil {
		registry := agent.NewRegistry([]agent.Agent{h.tutor}, []string{agent.IDTutor})
		deps.Selector = agent.NewSelector(registry, "", nil, logger)
	}
	if deps.Safety == nil {
		deps.Safety = guardrails.NewSafetyFilter(h.cfg.Runtime.Safety)
	}
	deps.Bus = NewBus(nil, logger)
	h.t.Cleanup(deps.Bus.Close)

	ctrl := NewController(h.cfg, deps)
	return ctrl, subscribeLog(h.t, deps.Bus)
}

func (h *harness) playedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.played)
}

var errBoom = errors.New("boom")
