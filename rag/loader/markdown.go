package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jjfwang/aceceed-edge/rag"
)

// MarkdownLoader 按 ATX 标题把课本笔记切成小节，小节标题随后作为 chunk 标签。
// 围栏代码块内的 # 行不视为标题。
type MarkdownLoader struct{}

func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

func (l *MarkdownLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("markdown loader: %w", err)
	}
	defer f.Close()

	var (
		docs    []rag.Document
		heading string
		body    strings.Builder
		fenced  bool
	)
	flush := func() {
		if content := strings.TrimSpace(body.String()); content != "" {
			docs = append(docs, rag.Document{Path: source, Heading: heading, Content: content})
		}
		body.Reset()
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fenced = !fenced
		}
		if !fenced {
			if h, ok := parseHeading(line); ok {
				flush()
				heading = h
				continue
			}
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("markdown loader: reading %s: %w", source, err)
	}
	flush()
	return docs, nil
}

// parseHeading 识别 "# " 到 "###### " 开头的行，# 后必须有空白或行尾
func parseHeading(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level < 1 || level > 6 {
		return "", false
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(rest), "#")), true
}

func (l *MarkdownLoader) SupportedTypes() []string {
	return []string{".md"}
}
