package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/agent"
	"github.com/jjfwang/aceceed-edge/agent/guardrails"
	"github.com/jjfwang/aceceed-edge/audio"
	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
	"github.com/jjfwang/aceceed-edge/internal/metrics"
	llmfactory "github.com/jjfwang/aceceed-edge/llm/factory"
	"github.com/jjfwang/aceceed-edge/llm/speech"
	"github.com/jjfwang/aceceed-edge/rag"
	"github.com/jjfwang/aceceed-edge/session"
	"github.com/jjfwang/aceceed-edge/vision"
)

// app 组装完成的会话运行时
type app struct {
	controller *session.Controller
	// 未启用检索或索引加载失败时为 nil
	retriever *rag.Retriever
	llmReady  func(ctx context.Context) error
}

// buildRuntime 按配置创建全部协作者并组装会话控制器
func buildRuntime(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (*app, error) {
	runner := cmdexec.OSRunner{}

	recorder, err := audio.NewRecorder(cfg.Audio.Input, runner, logger)
	if err != nil {
		return nil, fmt.Errorf("audio input: %w", err)
	}
	player := audio.NewAplayPlayer(cfg.Audio.Output, runner, logger)

	stt, err := speech.NewSTT(cfg.STT, runner, logger)
	if err != nil {
		return nil, fmt.Errorf("stt: %w", err)
	}
	tts, err := speech.NewTTS(cfg.TTS, runner, logger)
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}

	client, err := llmfactory.NewClient(cfg.LLM, collector, logger)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	registry := agent.NewRegistry([]agent.Agent{
		agent.NewTutor(client, agent.TutorPrompt, logger),
		agent.NewCoach(client, agent.CoachPrompt, logger),
	}, cfg.Runtime.Agents.Enabled)
	selector := agent.NewSelector(registry, cfg.Runtime.Agents.Default, cfg.Runtime.CoachKeywords, logger)

	deps := session.Deps{
		Recorder: recorder,
		Player:   player,
		STT:      stt,
		TTS:      tts,
		Selector: selector,
		Safety:   guardrails.NewSafetyFilter(cfg.Runtime.Safety),
		Metrics:  collector,
		Logger:   logger,
	}

	if cfg.Vision.Enabled {
		deps.Capturer = vision.NewCapturer(cfg.Vision, runner, logger)
		deps.Orchestrator = vision.NewOrchestrator(vision.DefaultDetectors(), cfg.Runtime.DetectorTimeout, collector, logger)
		if cfg.Vision.OCR.Enabled {
			deps.OCR = vision.NewServiceOCR(cfg.Vision.OCR, logger)
		}
	}

	rt := &app{
		llmReady: func(context.Context) error {
			for _, st := range session.Services(cfg) {
				if st.ID == "llm" && !st.Ready {
					return errors.New(st.Details)
				}
			}
			return nil
		},
	}

	if cfg.RAG.Enabled {
		// 索引缺失不阻止启动，会话跳过检索
		retriever, err := rag.Open(cfg.RAG.IndexPath, logger, rag.WithMetrics(collector))
		if err != nil {
			logger.Warn("RAG index unavailable, retrieval disabled", zap.Error(err))
		} else {
			rt.retriever = retriever
			deps.Retriever = retriever
		}
	}

	rt.controller = session.NewController(cfg, deps)
	logger.Info("runtime assembled",
		zap.String("llm", llmfactory.BackendName(cfg.LLM)),
		zap.String("stt", stt.Name()),
		zap.String("tts", tts.Name()),
		zap.Strings("agents", agentIDs(registry.ListEnabled())),
		zap.Bool("vision", cfg.Vision.Enabled),
		zap.Bool("rag", rt.retriever != nil),
	)
	return rt, nil
}

// ragReady 就绪检查：启用检索时索引必须已加载
func (rt *app) ragReady(cfg config.RAGConfig) func(context.Context) error {
	return func(context.Context) error {
		if cfg.Enabled && rt.retriever == nil {
			return fmt.Errorf("RAG index not loaded from %s", cfg.IndexPath)
		}
		return nil
	}
}

func agentIDs(agents []agent.Agent) []string {
	ids := make([]string, 0, len(agents))
	for _, a := range agents {
		ids = append(ids, a.ID())
	}
	return ids
}
