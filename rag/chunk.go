package rag

import (
	"encoding/json"
	"slices"
)

// 年级段
const (
	GradePrimary   = "primary"
	GradeSecondary = "secondary"
	GradeJC        = "jc"
)

// GradeBands 合法年级段
var GradeBands = []string{GradePrimary, GradeSecondary, GradeJC}

// ValidGradeBand 年级段是否合法
func ValidGradeBand(band string) bool {
	return slices.Contains(GradeBands, band)
}

// Chunk 知识库中的一个片段
type Chunk struct {
	ID         string   `json:"chunkId"`
	SourceID   string   `json:"sourceId,omitempty"`
	GradeBand  string   `json:"gradeBand"`
	Subject    string   `json:"subject"`
	Topic      string   `json:"topic,omitempty"`
	Content    string   `json:"content"`
	Source     string   `json:"source,omitempty"`
	SourceType string   `json:"sourceType,omitempty"`
	Tags       []string `json:"tags"`
}

// UnmarshalJSON 兼容旧索引中使用 id 字段的片段
func (c *Chunk) UnmarshalJSON(data []byte) error {
	type plain Chunk
	aux := struct {
		*plain
		LegacyID string `json:"id"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.LegacyID
	}
	return nil
}

// Document 一份待切分的原始文档
type Document struct {
	// Path 来源文件路径
	Path string
	// Heading Markdown 小节标题，纯文本文件为空
	Heading string
	Content string
}
