package agent

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jjfwang/aceceed-edge/llm"
)

// Language 需要显式指令的回答语言
type Language string

const (
	LanguageNone     Language = ""
	LanguageChinese  Language = "Simplified Chinese"
	LanguageJapanese Language = "Japanese"
	LanguageKorean   Language = "Korean"
)

var (
	cjkIdeographs = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1}}}
	kana          = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x3040, Hi: 0x30FF, Stride: 1}}}
	hangul        = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0xAC00, Hi: 0xD7AF, Stride: 1}}}
)

func containsRange(text string, table *unicode.RangeTable) bool {
	return strings.IndexFunc(text, func(r rune) bool { return unicode.Is(table, r) }) >= 0
}

// DetectLanguage 按文字脚本识别语言，依次检查汉字、假名、韩文。
// 日文常夹带汉字，因此含汉字的文本总是归为中文。
func DetectLanguage(text string) Language {
	switch {
	case containsRange(text, cjkIdeographs):
		return LanguageChinese
	case containsRange(text, kana):
		return LanguageJapanese
	case containsRange(text, hangul):
		return LanguageKorean
	default:
		return LanguageNone
	}
}

// MatchesLanguage 回答是否包含目标语言的文字
func MatchesLanguage(text string, lang Language) bool {
	switch lang {
	case LanguageChinese:
		return containsRange(text, cjkIdeographs)
	case LanguageJapanese:
		return containsRange(text, kana)
	case LanguageKorean:
		return containsRange(text, hangul)
	default:
		return true
	}
}

// WithLanguageDirective 在系统提示后追加语言指令
func WithLanguageDirective(base string, lang Language) string {
	if lang == LanguageNone {
		return base
	}
	lines := []string{
		fmt.Sprintf("Respond only in %s. Do not translate or switch languages.", lang),
		"Do not add prefatory labels like 'Answer:' or language names.",
	}
	if base != "" {
		lines = append([]string{base}, lines...)
	}
	return strings.Join(lines, "\n")
}

// TranslationMessages 构造一次纠正翻译请求
func TranslationMessages(text string, lang Language) []llm.Message {
	return []llm.Message{
		llm.System(fmt.Sprintf("Translate the text into %s. Output only the translation.", lang)),
		llm.User(text),
	}
}

var prefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)\s+(?:the\s+)?answer\s+in\s+\w+\s*[:：]\s*`),
	regexp.MustCompile(`(?i)^answer\s*[:：]\s*`),
	regexp.MustCompile(`(?i)^response\s*[:：]\s*`),
	regexp.MustCompile(`(?i)^final\s*[:：]\s*`),
	regexp.MustCompile(`^回复\s*[:：]\s*`),
	regexp.MustCompile(`^回答\s*[:：]\s*`),
	regexp.MustCompile(`^答复\s*[:：]\s*`),
	regexp.MustCompile(`^答案\s*[:：]\s*`),
	regexp.MustCompile(`^答\s*[:：]\s*`),
}

// StripPrefix 去掉首个匹配的前缀标签，只处理一次
func StripPrefix(response string) string {
	trimmed := strings.TrimSpace(response)
	for _, p := range prefixPatterns {
		if loc := p.FindStringIndex(trimmed); loc != nil {
			return strings.TrimSpace(trimmed[loc[1]:])
		}
	}
	return trimmed
}
