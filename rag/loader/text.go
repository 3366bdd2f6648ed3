package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/jjfwang/aceceed-edge/rag"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextLoader 将整个 .txt 文件作为一份 Document，段落切分交给 rag.Chunker
type TextLoader struct{}

func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load 读取文本并统一为 LF 换行，去掉 Windows 编辑器写入的 BOM。
// 非 UTF-8 内容直接报错，避免把乱码写进索引。
func (l *TextLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("text loader: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("text loader: %s is not valid UTF-8", source)
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return []rag.Document{{Path: source, Content: string(data)}}, nil
}

func (l *TextLoader) SupportedTypes() []string {
	return []string{".txt"}
}
