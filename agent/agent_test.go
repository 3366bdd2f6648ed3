package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jjfwang/aceceed-edge/llm"
	"github.com/jjfwang/aceceed-edge/rag"
)

// scriptedLLM 依次返回预设回答并记录每次调用的消息
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]llm.Message
}

func (s *scriptedLLM) Generate(_ context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, messages)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func systemContents(messages []llm.Message) []string {
	var out []string
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			out = append(out, m.Content)
		}
	}
	return out
}

func TestTutor_DeclinesWhenNothingToAnswer(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"unused"}}
	out, err := NewTutor(fake, "system", nil).Handle(context.Background(), Input{Transcript: "   "})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, fake.calls)
}

func TestTutor_AnswersFromOCRWhenTranscriptBlank(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"Looks right"}}
	out, err := NewTutor(fake, "system", nil).Handle(context.Background(), Input{OCRText: "2 + 2 = 4"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Looks right", out.Text)
	last := fake.calls[0][len(fake.calls[0])-1]
	assert.Equal(t, llm.User("2 + 2 = 4"), last)
}

func TestTutor_AddsLanguageDirectiveForChinese(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"你好"}}
	out, err := NewTutor(fake, "system", nil).Handle(context.Background(), Input{Transcript: "你好，今天怎么样？"})
	require.NoError(t, err)
	assert.Equal(t, "你好", out.Text)

	require.Len(t, fake.calls, 1)
	first := fake.calls[0][0]
	assert.Equal(t, llm.RoleSystem, first.Role)
	assert.True(t, strings.HasPrefix(first.Content, "system\n"))
	assert.Contains(t, first.Content, "Respond only in Simplified Chinese.")
}

func TestTutor_NoDirectiveForEnglish(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"Sure"}}
	_, err := NewTutor(fake, "system", nil).Handle(context.Background(), Input{Transcript: "What is a fraction?"})
	require.NoError(t, err)
	assert.Equal(t, "system", fake.calls[0][0].Content)
}

func TestTutor_StripsPrefixes(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"回答：这是测试"}}
	out, err := NewTutor(fake, "system", nil).Handle(context.Background(), Input{Transcript: "你好"})
	require.NoError(t, err)
	assert.Equal(t, "这是测试", out.Text)
}

func TestTutor_RetranslatesOnceOnMismatch(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"This is English.", "这是中文。"}}
	out, err := NewTutor(fake, "system", nil).Handle(context.Background(), Input{Transcript: "你好"})
	require.NoError(t, err)
	assert.Equal(t, "这是中文。", out.Text)

	require.Len(t, fake.calls, 2)
	assert.Equal(t, []llm.Message{
		llm.System("Translate the text into Simplified Chinese. Output only the translation."),
		llm.User("This is English."),
	}, fake.calls[1])
}

func TestTutor_KeepsOriginalWhenTranslationStillMismatches(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"Answer: still English", "nope"}}
	out, err := NewTutor(fake, "system", nil).Handle(context.Background(), Input{Transcript: "こんにちは"})
	require.NoError(t, err)
	assert.Equal(t, "still English", out.Text)
	assert.Len(t, fake.calls, 2)
}

func TestTutor_TranslationErrorKeepsOriginal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	calls := 0
	client := llm.ClientFunc(func(context.Context, []llm.Message) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("boom")
		}
		return "English", nil
	})
	out, err := NewTutor(client, "system", zap.New(core)).Handle(context.Background(), Input{Transcript: "안녕하세요"})
	require.NoError(t, err)
	assert.Equal(t, "English", out.Text)
	assert.Equal(t, 1, logs.FilterMessage("translation request failed, keeping original response").Len())
}

func TestTutor_PropagatesLLMError(t *testing.T) {
	fake := &scriptedLLM{err: errors.New("offline")}
	_, err := NewTutor(fake, "system", nil).Handle(context.Background(), Input{Transcript: "hi"})
	assert.EqualError(t, err, "offline")
}

func TestTutor_InjectsCurriculumContext(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"answer"}}
	_, err := NewTutor(fake, "system", nil).Handle(context.Background(), Input{
		Transcript: "Explain fractions",
		GradeBand:  "primary",
		Subjects:   []string{"math", "science"},
		Chunks: []rag.Chunk{{
			ID: "1", GradeBand: "primary", Subject: "math", Topic: "fractions",
			Content: "Use common denominators", Source: "test", SourceType: "past-paper",
		}},
		OCRText: "handwritten work",
	})
	require.NoError(t, err)

	systems := systemContents(fake.calls[0])
	require.Len(t, systems, 2)
	assert.Equal(t, strings.Join([]string{
		"You are helping a Singapore primary student.",
		"The focus subjects are: math, science.",
		"Use the following syllabus-aligned references first:",
		"- [past-paper] math/fractions: Use common denominators (source: test)",
		"Student work (OCR): handwritten work",
	}, "\n"), systems[1])
}

func TestTutor_DefaultPrompt(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"ok"}}
	_, err := NewTutor(fake, "", nil).Handle(context.Background(), Input{Transcript: "hi"})
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(TutorPrompt), fake.calls[0][0].Content)
	assert.NotEmpty(t, TutorPrompt)
}

func TestCoach_LanguageAndPrefix(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"你好"}}
	coach := NewCoach(fake, "coach system", nil)
	assert.Equal(t, IDCoach, coach.ID())
	assert.Equal(t, "Coach", coach.Name())

	_, err := coach.Handle(context.Background(), Input{Transcript: "你好，能帮我安排学习吗？"})
	require.NoError(t, err)
	assert.Contains(t, fake.calls[0][0].Content, "Simplified Chinese")

	fake = &scriptedLLM{replies: []string{"Answer: Start with a schedule"}}
	out, err := NewCoach(fake, "coach system", nil).Handle(context.Background(), Input{Transcript: "I need a plan"})
	require.NoError(t, err)
	assert.Equal(t, "Start with a schedule", out.Text)
}

func TestCoach_IgnoresCurriculum(t *testing.T) {
	fake := &scriptedLLM{replies: []string{"ok"}}
	_, err := NewCoach(fake, "", nil).Handle(context.Background(), Input{
		Transcript: "help me focus",
		GradeBand:  "primary",
		Chunks:     []rag.Chunk{{Content: "ignored"}},
	})
	require.NoError(t, err)
	require.Len(t, fake.calls[0], 2)
	assert.Equal(t, strings.TrimSpace(CoachPrompt), fake.calls[0][0].Content)
}
