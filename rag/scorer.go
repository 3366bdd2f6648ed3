package rag

import (
	"strings"
	"unicode"
)

// Scorer 计算片段与查询的相关度，分数越大越相关
type Scorer interface {
	Score(query string, chunk Chunk) float64
}

// ScorerFunc 函数适配器
type ScorerFunc func(query string, chunk Chunk) float64

// Score 实现 Scorer
func (f ScorerFunc) Score(query string, chunk Chunk) float64 { return f(query, chunk) }

// LexicalScorer 词汇重叠打分：
// 命中片段的查询词个数（重复词各计一次）/ 片段词数（至少为 1）。
// 片段文本由 content、topic、subject 与 tags 组成。
type LexicalScorer struct{}

// Score 实现 Scorer
func (LexicalScorer) Score(query string, chunk Chunk) float64 {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}

	chunkTokens := Tokenize(chunkText(chunk))
	present := make(map[string]struct{}, len(chunkTokens))
	for _, t := range chunkTokens {
		present[t] = struct{}{}
	}

	hits := 0
	for _, t := range queryTokens {
		if _, ok := present[t]; ok {
			hits++
		}
	}

	denom := len(chunkTokens)
	if denom < 1 {
		denom = 1
	}
	return float64(hits) / float64(denom)
}

func chunkText(c Chunk) string {
	parts := make([]string, 0, 3+len(c.Tags))
	parts = append(parts, c.Content, c.Topic, c.Subject)
	parts = append(parts, c.Tags...)
	return strings.Join(parts, " ")
}

// Tokenize 按非字母数字字符切分并转为小写
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
