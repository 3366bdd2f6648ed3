package rag

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IndexCandidates 依次尝试的索引路径：原路径、相对 cwd、相对 cwd 的上级目录
func IndexCandidates(path string) []string {
	candidates := []string{path}
	if filepath.IsAbs(path) {
		return candidates
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates,
			filepath.Join(cwd, path),
			filepath.Join(cwd, "..", path),
		)
	}
	return candidates
}

// LoadIndex 读取知识索引，支持 JSON 数组与 JSON Lines 两种格式。
// 返回片段与实际读取的路径。
func LoadIndex(path string) ([]Chunk, string, error) {
	candidates := IndexCandidates(path)

	var (
		data     []byte
		resolved string
		lastErr  error
	)
	for _, candidate := range candidates {
		b, err := os.ReadFile(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		data, resolved = b, candidate
		break
	}
	if resolved == "" {
		return nil, "", fmt.Errorf("RAG index not found. Tried: %s. Last error: %v",
			strings.Join(candidates, ", "), lastErr)
	}

	chunks, err := ParseIndex(data)
	if err != nil {
		return nil, resolved, fmt.Errorf("Failed to parse RAG index at %s: %w", resolved, err)
	}
	return chunks, resolved, nil
}

// ParseIndex 解析索引内容；以 '[' 开头按 JSON 数组解析，否则按 JSON Lines 逐行解析
func ParseIndex(data []byte) ([]Chunk, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []Chunk{}, nil
	}

	if data[0] == '[' {
		var chunks []Chunk
		if err := json.Unmarshal(data, &chunks); err != nil {
			return nil, err
		}
		return chunks, nil
	}

	var chunks []Chunk
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var c Chunk
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// WriteIndex 以缩进 JSON 数组写出索引
func WriteIndex(path string, chunks []Chunk) error {
	if chunks == nil {
		chunks = []Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode RAG index: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
