package guardrails

import (
	"context"
	"strings"

	"github.com/jjfwang/aceceed-edge/config"
)

// SafeRedirectMessage 命中禁用词时的替换话术
const SafeRedirectMessage = "I can't help with that. Let's focus on a safe learning topic."

// SafetyFilter 播报前的输出过滤器，无状态，可并发使用
type SafetyFilter struct {
	keywords *KeywordValidator
	length   *LengthValidator
}

// NewSafetyFilter 按配置创建过滤器；非严格模式不截断
func NewSafetyFilter(cfg config.SafetyConfig) *SafetyFilter {
	f := &SafetyFilter{keywords: NewKeywordValidator(cfg.BannedPhrases)}
	if cfg.Strict {
		f.length = NewLengthValidator(cfg.MaxSentences, cfg.MaxChars)
	}
	return f
}

// Guard 返回可安全播报的文本
func (f *SafetyFilter) Guard(text string) string {
	ctx := context.Background()

	if res, _ := f.keywords.Validate(ctx, text); !res.Valid {
		return SafeRedirectMessage
	}

	collapsed := strings.Join(strings.Fields(text), " ")
	if f.length == nil {
		return collapsed
	}
	res, _ := f.length.Validate(ctx, collapsed)
	return res.Content
}
