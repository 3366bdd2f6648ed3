package agent

import (
	"context"

	"github.com/jjfwang/aceceed-edge/rag"
)

// 内置智能体 ID
const (
	IDTutor = "tutor"
	IDCoach = "coach"
)

// Input 单次会话交给智能体的上下文，传入后不再修改
type Input struct {
	Transcript string
	Chunks     []rag.Chunk
	OCRText    string
	GradeBand  string
	Subjects   []string
}

// Output 智能体回答
type Output struct {
	Text string
}

// Agent 回答智能体
type Agent interface {
	ID() string
	Name() string
	// Handle 返回 nil 表示不作答（例如问题与 OCR 文本都为空）
	Handle(ctx context.Context, in Input) (*Output, error)
}
