package rag

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSourceType 索引构建时的默认来源类型
const DefaultSourceType = "textbook"

// ChunkMeta 切分时写入每个片段的元数据
type ChunkMeta struct {
	SourceID   string
	GradeBand  string
	Subject    string
	Topic      string
	SourceType string
}

var blankLine = regexp.MustCompile(`\n\s*\n`)

// Chunker 按空行把文档切为段落片段，片段 id 为 <sourceId>-<n>，n 在整个索引内递增
type Chunker struct {
	meta ChunkMeta
	next int
}

func NewChunker(meta ChunkMeta) *Chunker {
	if meta.SourceType == "" {
		meta.SourceType = DefaultSourceType
	}
	return &Chunker{meta: meta}
}

// Split 切分一份文档
func (c *Chunker) Split(doc Document) []Chunk {
	var out []Chunk
	for _, p := range blankLine.Split(strings.ReplaceAll(doc.Content, "\r\n", "\n"), -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tags := []string{}
		if doc.Heading != "" {
			tags = append(tags, doc.Heading)
		}
		out = append(out, Chunk{
			ID:         fmt.Sprintf("%s-%d", c.meta.SourceID, c.next),
			SourceID:   c.meta.SourceID,
			GradeBand:  c.meta.GradeBand,
			Subject:    c.meta.Subject,
			Topic:      c.meta.Topic,
			Content:    p,
			SourceType: c.meta.SourceType,
			Tags:       tags,
		})
		c.next++
	}
	return out
}

// ChunkParagraphs 切分单份文档的便捷函数
func ChunkParagraphs(text string, meta ChunkMeta) []Chunk {
	return NewChunker(meta).Split(Document{Content: text})
}
