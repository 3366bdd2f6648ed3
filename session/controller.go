package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/agent"
	"github.com/jjfwang/aceceed-edge/audio"
	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/artifact"
	"github.com/jjfwang/aceceed-edge/internal/metrics"
	"github.com/jjfwang/aceceed-edge/internal/telemetry"
	"github.com/jjfwang/aceceed-edge/llm/speech"
	"github.com/jjfwang/aceceed-edge/rag"
	"github.com/jjfwang/aceceed-edge/types"
	"github.com/jjfwang/aceceed-edge/vision"
)

// FallbackPhrase 未识别到语音时播报的提示
const FallbackPhrase = "I didn't catch that. Please try again."

// Retriever 知识检索能力
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts rag.Options) ([]rag.Chunk, error)
}

// AgentSelector 智能体选择能力
type AgentSelector interface {
	Select(transcript, requestedID string) (agent.Agent, error)
}

// Guard 播报前的安全过滤
type Guard interface {
	Guard(text string) string
}

// Deps 控制器的外部协作者。Retriever 与 OCR 可为 nil。
type Deps struct {
	Recorder     audio.Recorder
	Player       audio.Player
	STT          speech.STTProvider
	TTS          speech.TTSProvider
	Selector     AgentSelector
	Safety       Guard
	Capturer     vision.Capturer
	Orchestrator *vision.Orchestrator
	Retriever    Retriever
	OCR          vision.OCR
	Bus          *Bus
	Metrics      *metrics.Collector
	Logger       *zap.Logger
}

// Result 一次完成的会话
type Result struct {
	SessionID  string `json:"sessionId"`
	Transcript string `json:"transcript"`
	Response   string `json:"response"`
}

// state 活动会话；同一时刻至多一个
type state struct {
	id     string
	source Source
	// token 只在录音阶段生效
	token  context.Context
	cancel context.CancelFunc
	stage  Stage
	logger *zap.Logger
}

// Controller 单会话语音流水线：
// 录音 → 识别 → 视觉 → 检索 → OCR → 分派 → 安全过滤 → 合成 → 播放
type Controller struct {
	cfg  *config.Config
	deps Deps

	mu     sync.Mutex
	active *state

	logger *zap.Logger
}

// NewController 创建控制器
func NewController(cfg *config.Config, deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Bus == nil {
		deps.Bus = NewBus(deps.Metrics, deps.Logger)
	}
	return &Controller{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With(zap.String("component", "session")),
	}
}

// Bus 控制器发布事件的总线
func (c *Controller) Bus() *Bus { return c.deps.Bus }

// IsActive 是否有进行中的会话
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Stage 当前阶段，无会话时为 StageIdle
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return StageIdle
	}
	return c.active.stage
}

// StartConfig 单次 Start 的可选行为
type StartConfig struct {
	// Announce 抢到会话锁后发布 session-started
	Announce bool
}

// StartOption 调整单次 Start
type StartOption func(*StartConfig)

// WithAnnounce 会话开始后发布 session-started 事件；未抢到会话锁时不发布
func WithAnnounce() StartOption {
	return func(c *StartConfig) { c.Announce = true }
}

// ApplyStartOptions 合并选项
func ApplyStartOptions(opts ...StartOption) StartConfig {
	var cfg StartConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Start 运行一次完整会话并等待结束。已有活动会话时立即返回 ALREADY_ACTIVE。
func (c *Controller) Start(ctx context.Context, source Source, requestedAgent string, opts ...StartOption) (*Result, error) {
	cfg := ApplyStartOptions(opts...)
	s, err := c.begin(ctx, source)
	if err != nil {
		return nil, err
	}
	if cfg.Announce {
		c.deps.Bus.Publish(StartedEvent(source))
	}
	return c.run(ctx, s, requestedAgent)
}

// Stop 请求结束录音；无活动会话时返回 false
func (c *Controller) Stop(source Source) bool {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()

	if s == nil {
		c.logger.Info("no active session to stop", zap.String("source", string(source)))
		return false
	}
	s.cancel()
	s.logger.Info("session stop requested", zap.String("source", string(source)))
	return true
}

// begin 抢占会话锁并创建录音取消令牌
func (c *Controller) begin(ctx context.Context, source Source) (*state, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		c.logger.Warn("PTT already active", zap.String("source", string(source)))
		return nil, types.NewError(types.ErrAlreadyActive, "PTT already active")
	}

	id := uuid.NewString()
	token, cancel := context.WithCancel(ctx)
	c.active = &state{
		id:     id,
		source: source,
		token:  token,
		cancel: cancel,
		stage:  StageIdle,
		logger: c.logger.With(zap.String("session_id", id)),
	}
	c.deps.Metrics.SetSessionActive(true)
	return c.active, nil
}

// end 无条件释放会话
func (c *Controller) end(s *state) {
	s.cancel()
	c.mu.Lock()
	if c.active == s {
		c.active = nil
	}
	c.mu.Unlock()
	c.deps.Metrics.SetSessionActive(false)
}

func (c *Controller) transition(s *state, next Stage) {
	c.mu.Lock()
	prev := s.stage
	s.stage = next
	c.mu.Unlock()

	c.deps.Metrics.RecordStageTransition(prev.String(), next.String())
	s.logger.Debug("stage transition", zap.Stringer("from", prev), zap.Stringer("to", next))
}

// step 进入阶段并在 span 中执行 fn
func (c *Controller) step(ctx context.Context, s *state, st Stage, fn func(ctx context.Context) error) error {
	c.transition(s, st)
	ctx, span := telemetry.SessionTracer().Start(ctx, "session."+st.String())
	defer span.End()

	started := time.Now()
	err := fn(ctx)
	c.deps.Metrics.RecordStage(st.String(), time.Since(started))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Controller) run(ctx context.Context, s *state, requestedAgent string) (_ *Result, err error) {
	started := time.Now()
	ctx, span := telemetry.SessionTracer().Start(ctx, "session",
		trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.String("session.source", string(s.source)),
		))

	defer func() {
		outcome := "completed"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Error("PTT flow failed", zap.Error(err))
			c.deps.Bus.Publish(errorEvent(ErrorMessage(err)))
		}
		span.End()
		c.deps.Metrics.RecordSession(string(s.source), outcome, time.Since(started))
		c.end(s)
	}()

	if c.cfg.Runtime.MicIndicator {
		s.logger.Info("mic active", zap.String("source", string(s.source)))
	}

	var audioPath string
	err = c.step(ctx, s, StageRecording, func(spanCtx context.Context) error {
		// 取消信号来自录音令牌，span 来自阶段上下文
		recCtx := trace.ContextWithSpan(s.token, trace.SpanFromContext(spanCtx))
		var recErr error
		audioPath, recErr = c.deps.Recorder.Record(recCtx, audio.RecordOptions{
			Duration: time.Duration(c.cfg.Audio.Input.RecordSeconds) * time.Second,
		})
		return recErr
	})
	if err != nil {
		return nil, err
	}

	// 停止请求只影响录音，之后的阶段不再响应取消
	work := context.WithoutCancel(ctx)

	var transcript string
	err = c.step(work, s, StageTranscribing, func(ctx context.Context) error {
		defer artifact.Cleanup(s.logger, audioPath)
		var sttErr error
		transcript, sttErr = c.deps.STT.Transcribe(ctx, audioPath)
		return sttErr
	})
	if err != nil {
		return nil, err
	}
	transcript = strings.TrimSpace(transcript)
	c.deps.Bus.Publish(textEvent(EventTranscriptReady, transcript))

	if transcript == "" {
		var fallback string
		if fallback, err = c.respond(work, s, FallbackPhrase); err != nil {
			return nil, err
		}
		return &Result{SessionID: s.id, Transcript: "", Response: fallback}, nil
	}

	input := agent.Input{
		Transcript: transcript,
		GradeBand:  c.cfg.RAG.GradeBand,
		Subjects:   c.cfg.RAG.Subjects,
	}

	var (
		capture  *vision.Capture
		hasPaper bool
	)
	if c.shouldCaptureVision(transcript) {
		_ = c.step(work, s, StageVision, func(ctx context.Context) error {
			shot, results, capErr := c.CaptureWithDetectors(ctx, s.source)
			if capErr != nil {
				s.logger.Warn("vision capture failed", zap.Error(capErr))
				return capErr
			}
			capture, hasPaper = shot, vision.AnyPaper(results)
			return nil
		})
	}

	if c.deps.Retriever != nil && c.cfg.RAG.Enabled {
		_ = c.step(work, s, StageRetrieving, func(ctx context.Context) error {
			chunks, ragErr := c.deps.Retriever.Retrieve(ctx, transcript, rag.Options{
				GradeBand:      c.cfg.RAG.GradeBand,
				Subjects:       c.cfg.RAG.Subjects,
				Limit:          c.cfg.RAG.MaxChunks,
				IncludeSources: c.cfg.RAG.IncludeSources,
				SourceTypes:    c.cfg.RAG.SourceTypes,
			})
			if ragErr != nil {
				s.logger.Warn("RAG retrieval failed", zap.Error(ragErr))
				return ragErr
			}
			input.Chunks = chunks
			return nil
		})
	}

	if capture != nil && c.deps.OCR != nil && (!c.cfg.Runtime.Vision.RequirePaperForOCR || hasPaper) {
		_ = c.step(work, s, StageOCR, func(ctx context.Context) error {
			text, ocrErr := c.deps.OCR.Run(ctx, capture.Image)
			if ocrErr != nil {
				s.logger.Warn("OCR failed", zap.Error(ocrErr))
				return ocrErr
			}
			input.OCRText = strings.TrimSpace(text)
			return nil
		})
	}

	var answer string
	err = c.step(work, s, StageDispatching, func(ctx context.Context) error {
		chosen, selErr := c.deps.Selector.Select(transcript, requestedAgent)
		if selErr != nil {
			return selErr
		}
		s.logger.Info("dispatching to agent", zap.String("agent", chosen.ID()))
		out, handleErr := chosen.Handle(ctx, input)
		if handleErr != nil {
			return handleErr
		}
		if out == nil {
			return types.NewError(types.ErrAgentOutputMissing, chosen.Name()+" agent did not return output")
		}
		answer = out.Text
		return nil
	})
	if err != nil {
		return nil, err
	}

	response, err := c.respond(work, s, answer)
	if err != nil {
		return nil, err
	}
	return &Result{SessionID: s.id, Transcript: transcript, Response: response}, nil
}

// respond 安全过滤、发布回答、合成并播放
func (c *Controller) respond(ctx context.Context, s *state, text string) (string, error) {
	var guarded string
	_ = c.step(ctx, s, StageSafetyFiltering, func(context.Context) error {
		guarded = c.deps.Safety.Guard(text)
		return nil
	})
	c.deps.Bus.Publish(textEvent(EventAgentResponded, guarded))

	var speechPath string
	if err := c.step(ctx, s, StageSynthesizing, func(ctx context.Context) error {
		var ttsErr error
		speechPath, ttsErr = c.deps.TTS.Synthesize(ctx, guarded)
		return ttsErr
	}); err != nil {
		return "", err
	}

	if err := c.step(ctx, s, StagePlaying, func(ctx context.Context) error {
		defer artifact.Cleanup(s.logger, speechPath)
		return c.deps.Player.Play(ctx, speechPath)
	}); err != nil {
		return "", err
	}

	c.deps.Bus.Publish(textEvent(EventSpeechPlayed, guarded))
	return guarded, nil
}

func (c *Controller) shouldCaptureVision(transcript string) bool {
	if !c.cfg.Vision.Enabled || c.deps.Capturer == nil {
		return false
	}
	if c.cfg.Runtime.Vision.AlwaysCapture {
		return true
	}
	lower := strings.ToLower(transcript)
	for _, k := range c.cfg.Runtime.Vision.TriggerKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// CaptureWithDetectors 拍照并并行运行检测器，发布 capture-completed。
// 不占用会话锁，可与进行中的会话并发调用。
func (c *Controller) CaptureWithDetectors(ctx context.Context, source Source) (*vision.Capture, []vision.Result, error) {
	if c.deps.Capturer == nil {
		return nil, nil, types.NewError(types.ErrVisionDisabled, "Vision is disabled")
	}
	if c.cfg.Runtime.CameraIndicator {
		c.logger.Info("camera active", zap.String("source", string(source)))
	}

	capture, err := c.deps.Capturer.CaptureStill(ctx)
	if err != nil {
		return nil, nil, err
	}

	results := []vision.Result{}
	if c.deps.Orchestrator != nil {
		results = c.deps.Orchestrator.Run(ctx, capture.Image)
	}
	c.deps.Bus.Publish(captureEvent(source, results))
	return capture, results, nil
}

// Listen 响应非 API 来源的开始/停止请求（按键、屏幕等），阻塞到 ctx 结束
func (c *Controller) Listen(ctx context.Context) {
	unsubscribe := c.deps.Bus.Subscribe(func(e Event) {
		if e.Source == SourceAPI {
			return
		}
		switch e.Type {
		case EventSessionStarted:
			s, err := c.begin(ctx, e.Source)
			if err != nil {
				return
			}
			go func() {
				// 失败已在 run 中记录并发布
				_, _ = c.run(ctx, s, "")
			}()
		case EventSessionStopped:
			c.Stop(e.Source)
		}
	})
	defer unsubscribe()
	<-ctx.Done()
}

// ErrorMessage 面向用户的错误文本，结构化错误只取 Message
func ErrorMessage(err error) string {
	if e, ok := types.AsError(err); ok {
		return e.Message
	}
	return err.Error()
}
