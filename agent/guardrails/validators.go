package guardrails

import (
	"context"
	"fmt"
	"strings"
)

// DefaultBannedPhrases 默认禁用词
var DefaultBannedPhrases = []string{
	"violence",
	"weapon",
	"adult",
	"explicit",
	"self-harm",
	"suicide",
	"kill",
	"threat",
	"terror",
	"hate",
	"bully",
}

// KeywordMatch 关键词匹配结果
type KeywordMatch struct {
	Keyword  string `json:"keyword"`
	Position int    `json:"position"`
}

// KeywordValidator 关键词验证器，大小写不敏感的子串匹配
type KeywordValidator struct {
	blockedKeywords []string
}

// NewKeywordValidator 创建关键词验证器；keywords 为空时使用 DefaultBannedPhrases
func NewKeywordValidator(keywords []string) *KeywordValidator {
	if len(keywords) == 0 {
		keywords = DefaultBannedPhrases
	}
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &KeywordValidator{blockedKeywords: lowered}
}

// Name 返回验证器名称
func (v *KeywordValidator) Name() string {
	return "keyword_validator"
}

// Validate 执行关键词验证
func (v *KeywordValidator) Validate(ctx context.Context, content string) (*ValidationResult, error) {
	result := NewValidationResult(content)

	matches := v.Detect(content)
	if len(matches) == 0 {
		return result, nil
	}

	keywords := make([]string, len(matches))
	for i, m := range matches {
		keywords[i] = m.Keyword
	}
	result.AddError(ValidationError{
		Code:     ErrCodeBlockedKeyword,
		Message:  fmt.Sprintf("检测到禁止的关键词: %s", strings.Join(keywords, ", ")),
		Severity: SeverityCritical,
	})
	return result, nil
}

// Detect 返回每个命中关键词的首次出现位置
func (v *KeywordValidator) Detect(content string) []KeywordMatch {
	var matches []KeywordMatch
	lower := strings.ToLower(content)
	for _, keyword := range v.blockedKeywords {
		if idx := strings.Index(lower, keyword); idx >= 0 {
			matches = append(matches, KeywordMatch{Keyword: keyword, Position: idx})
		}
	}
	return matches
}

// GetBlockedKeywords 返回禁止的关键词列表
func (v *KeywordValidator) GetBlockedKeywords() []string {
	out := make([]string, len(v.blockedKeywords))
	copy(out, v.blockedKeywords)
	return out
}

// LengthValidator 句数与长度验证器，超限时截断
type LengthValidator struct {
	maxSentences int
	maxLength    int
}

// NewLengthValidator 创建长度验证器，非正数表示不限制
func NewLengthValidator(maxSentences, maxLength int) *LengthValidator {
	return &LengthValidator{maxSentences: maxSentences, maxLength: maxLength}
}

// Name 返回验证器名称
func (v *LengthValidator) Name() string {
	return "length_validator"
}

// Validate 截断到前 maxSentences 句，再截断到 maxLength 字符，并裁剪首尾空白。
// 输入应已折叠空白。
func (v *LengthValidator) Validate(ctx context.Context, content string) (*ValidationResult, error) {
	result := NewValidationResult(content)

	truncated := content
	if v.maxSentences > 0 {
		truncated = firstSentences(truncated, v.maxSentences)
	}

	runes := []rune(truncated)
	if v.maxLength > 0 && len(runes) > v.maxLength {
		result.AddWarning(fmt.Sprintf("输出已从 %d 字符截断至 %d 字符", len(runes), v.maxLength))
		truncated = string(runes[:v.maxLength])
	}

	result.Content = strings.TrimSpace(truncated)
	return result, nil
}

// firstSentences 保留前 n 个句子；句子以 . ! ? 结尾且后随空格
func firstSentences(text string, n int) string {
	count := 0
	for i := 0; i < len(text); i++ {
		if text[i] != ' ' || i == 0 {
			continue
		}
		switch text[i-1] {
		case '.', '!', '?':
			count++
			if count == n {
				return text[:i]
			}
		}
	}
	return text
}
