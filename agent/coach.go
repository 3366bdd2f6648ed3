package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/llm"
)

// Coach 学习习惯教练，不引用课程资料
type Coach struct {
	responder languageResponder
}

// NewCoach systemPrompt 为空时使用内置提示
func NewCoach(client llm.Client, systemPrompt string, logger *zap.Logger) *Coach {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = CoachPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coach{responder: newLanguageResponder(client, systemPrompt, logger.With(zap.String("agent", IDCoach)))}
}

func (c *Coach) ID() string   { return IDCoach }
func (c *Coach) Name() string { return "Coach" }

// Handle 实现 Agent
func (c *Coach) Handle(ctx context.Context, in Input) (*Output, error) {
	turn := userTurn(in)
	if turn == "" {
		return nil, nil
	}
	text, err := c.responder.respond(ctx, turn, "")
	if err != nil {
		return nil, err
	}
	return &Output{Text: text}, nil
}
