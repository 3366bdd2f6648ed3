package agent

import (
	"strings"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/types"
)

// Selector 为一次会话选出回答智能体
type Selector struct {
	registry      *Registry
	defaultID     string
	coachKeywords []string
	logger        *zap.Logger
}

// NewSelector coachKeywords 为空时使用 config.DefaultCoachKeywords
func NewSelector(registry *Registry, defaultID string, coachKeywords []string, logger *zap.Logger) *Selector {
	if len(coachKeywords) == 0 {
		coachKeywords = config.DefaultCoachKeywords()
	}
	lowered := make([]string, 0, len(coachKeywords))
	for _, k := range coachKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		registry:      registry,
		defaultID:     defaultID,
		coachKeywords: lowered,
		logger:        logger.With(zap.String("component", "agent_selector")),
	}
}

// Select 优先级：显式请求 > 默认 ID > 教练关键词 > tutor > 首个启用。
// 无可用智能体时返回 NO_ENABLED_AGENT。
func (s *Selector) Select(transcript, requestedID string) (Agent, error) {
	if requestedID != "" {
		if a, ok := s.registry.Get(requestedID); ok {
			return a, nil
		}
		s.logger.Warn("requested agent not enabled", zap.String("requested_agent_id", requestedID))
	}

	if s.defaultID != "" {
		if a, ok := s.registry.Get(s.defaultID); ok {
			return a, nil
		}
		s.logger.Warn("default agent not enabled", zap.String("default_agent_id", s.defaultID))
	}

	if coach, ok := s.registry.Get(IDCoach); ok && s.WantsCoach(transcript) {
		return coach, nil
	}
	if tutor, ok := s.registry.Get(IDTutor); ok {
		return tutor, nil
	}
	if first, ok := s.registry.FirstEnabled(); ok {
		return first, nil
	}
	return nil, types.NewError(types.ErrNoEnabledAgent, "No enabled agents")
}

// WantsCoach 问题是否包含任一教练关键词（大小写不敏感子串）
func (s *Selector) WantsCoach(transcript string) bool {
	lower := strings.ToLower(transcript)
	for _, k := range s.coachKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
