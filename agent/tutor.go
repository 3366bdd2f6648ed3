package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/llm"
)

// Tutor 课程辅导智能体
type Tutor struct {
	responder languageResponder
}

// NewTutor systemPrompt 为空时使用内置提示
func NewTutor(client llm.Client, systemPrompt string, logger *zap.Logger) *Tutor {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = TutorPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tutor{responder: newLanguageResponder(client, systemPrompt, logger.With(zap.String("agent", IDTutor)))}
}

func (t *Tutor) ID() string   { return IDTutor }
func (t *Tutor) Name() string { return "Tutor" }

// Handle 实现 Agent
func (t *Tutor) Handle(ctx context.Context, in Input) (*Output, error) {
	turn := userTurn(in)
	if turn == "" {
		return nil, nil
	}
	text, err := t.responder.respond(ctx, turn, curriculumContext(in))
	if err != nil {
		return nil, err
	}
	return &Output{Text: text}, nil
}

// curriculumContext 年级段、学科、检索片段与 OCR 文本组成的辅助系统消息
func curriculumContext(in Input) string {
	var lines []string
	if in.GradeBand != "" {
		lines = append(lines, fmt.Sprintf("You are helping a Singapore %s student.", in.GradeBand))
	}
	if len(in.Subjects) > 0 {
		lines = append(lines, fmt.Sprintf("The focus subjects are: %s.", strings.Join(in.Subjects, ", ")))
	}
	if len(in.Chunks) > 0 {
		lines = append(lines, "Use the following syllabus-aligned references first:")
		for _, c := range in.Chunks {
			var b strings.Builder
			b.WriteString("- ")
			if c.SourceType != "" {
				fmt.Fprintf(&b, "[%s] ", c.SourceType)
			}
			fmt.Fprintf(&b, "%s/%s: %s", c.Subject, c.Topic, c.Content)
			if c.Source != "" {
				fmt.Fprintf(&b, " (source: %s)", c.Source)
			}
			lines = append(lines, b.String())
		}
	}
	if in.OCRText != "" {
		lines = append(lines, "Student work (OCR): "+in.OCRText)
	}
	return strings.Join(lines, "\n")
}
