package llm

import "context"

// Role 会话消息角色
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 一条有序的对话消息
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System 构造系统消息
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User 构造用户消息
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Client 定义 Agent 使用的最小 LLM 能力：给定有序消息，返回生成文本。
// 空字符串是合法返回值（上游无内容时由实现记录告警）。
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// ClientFunc 将普通函数适配为 Client
type ClientFunc func(ctx context.Context, messages []Message) (string, error)

// Generate 实现 Client
func (f ClientFunc) Generate(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}
